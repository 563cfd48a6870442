package dict

import (
	"testing"

	"rudis/internal/value"
)

// TestIncrOnMissingKey covers spec.md §8 S1: DECR on a missing key
// creates it at 0 first, then applies the delta.
func TestIncrOnMissingKey(t *testing.T) {
	d := New()
	got, err := d.Incr("decr_test", -1, 1000)
	if err != nil {
		t.Fatalf("Incr: %v", err)
	}
	if got != -1 {
		t.Fatalf("got %d, want -1", got)
	}
	e, ok := d.GetLive("decr_test", 1000)
	if !ok || e.Value.Int != -1 {
		t.Fatalf("stored value is %+v, want Int=-1", e.Value)
	}
}

// TestIncrOverflowPreservesValue covers spec.md §8 S2: an overflowing
// DECR leaves the stored value untouched and errors idempotently.
func TestIncrOverflowPreservesValue(t *testing.T) {
	d := New()
	d.Insert("mykey", Entry{Value: value.FromString("234293482390480948029348230948")})

	if _, err := d.Incr("mykey", -1, 1000); err == nil {
		t.Fatalf("expected an error decrementing an out-of-range stored string")
	}
	if _, err := d.Incr("mykey", -1, 1000); err == nil {
		t.Fatalf("expected the same error on a second attempt (idempotent, value unchanged)")
	}

	e, _ := d.Get("mykey")
	if string(e.Value.Str) != "234293482390480948029348230948" {
		t.Fatalf("stored value changed to %q after a failed Incr", e.Value.Str)
	}
}
