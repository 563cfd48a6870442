package dict

import (
	"testing"

	"rudis/internal/value"
)

func TestGetLiveFiltersExpired(t *testing.T) {
	d := New()
	d.Insert("k", Entry{Value: value.FromString("v"), ExpiresAt: 100})

	if _, ok := d.GetLive("k", 50); !ok {
		t.Fatalf("entry should still be live at t=50 (expires at 100)")
	}
	if _, ok := d.GetLive("k", 100); ok {
		t.Fatalf("entry should be expired at t=100 (expires_at <= now)")
	}
	if _, ok := d.Get("k"); !ok {
		t.Fatalf("Get (unfiltered) must still see the not-yet-purged entry")
	}
}

func TestNextWriteIDMonotonic(t *testing.T) {
	d := New()
	for i := uint64(1); i <= 5; i++ {
		if got := d.NextWriteID(); got != i {
			t.Fatalf("NextWriteID() = %d, want %d", got, i)
		}
	}
}

func TestCloneIsolation(t *testing.T) {
	d := New()
	d.Insert("k", Entry{Value: value.FromBytes([]byte("v"))})
	clone := d.Clone()

	d.Insert("k2", Entry{Value: value.FromBytes([]byte("v2"))})
	if clone.Len() != 1 {
		t.Fatalf("clone saw a later insert into the source dict: len=%d", clone.Len())
	}

	e, _ := clone.Get("k")
	e.Value.Str[0] = 'X'
	orig, _ := d.Get("k")
	if orig.Value.Str[0] == 'X' {
		t.Fatalf("mutating a value fetched from the clone mutated the source dict's stored bytes")
	}
}

func TestGetOrInsertWithCreatesOnce(t *testing.T) {
	d := New()
	calls := 0
	make1 := func() value.Value { calls++; return value.FromInt(0) }

	d.GetOrInsertWith("k", 1000, make1)
	d.GetOrInsertWith("k", 1000, make1)

	if calls != 1 {
		t.Fatalf("makeValue called %d times, want 1 (second call should see the existing entry)", calls)
	}
}

func TestGetOrInsertWithRecreatesAfterExpiry(t *testing.T) {
	d := New()
	d.Insert("k", Entry{Value: value.FromInt(1), ExpiresAt: 100})
	e := d.GetOrInsertWith("k", 200, func() value.Value { return value.FromInt(9) })
	if e.Value.Int != 9 {
		t.Fatalf("expired entry was not replaced: got %v", e.Value.Int)
	}
}
