package command

import (
	"testing"

	"rudis/internal/dict"
	"rudis/internal/resp"
)

// TestSetGetRoundTrip covers the common GET/SET path used throughout
// the other scenario tests.
func TestSetGetRoundTrip(t *testing.T) {
	d := dict.New()
	set, err := ParseSet(cursor("k", "v"))
	if err != nil {
		t.Fatalf("ParseSet: %v", err)
	}
	if _, _, err := set.ApplyExpiresWrite(d, 1000); err != nil {
		t.Fatalf("ApplyExpiresWrite: %v", err)
	}

	get, err := ParseGet(cursor("k"))
	if err != nil {
		t.Fatalf("ParseGet: %v", err)
	}
	reply, err := get.ApplyRead(d, 1000)
	if err != nil {
		t.Fatalf("ApplyRead: %v", err)
	}
	f, ok := reply.(resp.Frame)
	if !ok || f.Kind != resp.KindBulk || string(f.Bulk) != "v" {
		t.Fatalf("got %+v, want a bulk frame containing \"v\"", reply)
	}
}

// TestSetNXRejectsExistingKey covers SET NX against an existing key.
func TestSetNXRejectsExistingKey(t *testing.T) {
	d := dict.New()
	first, _ := ParseSet(cursor("k", "v1"))
	if _, _, err := first.ApplyExpiresWrite(d, 1000); err != nil {
		t.Fatalf("ApplyExpiresWrite: %v", err)
	}

	second, err := ParseSet(cursor("k", "v2", "NX"))
	if err != nil {
		t.Fatalf("ParseSet: %v", err)
	}
	reply, _, err := second.ApplyExpiresWrite(d, 1000)
	if err != nil {
		t.Fatalf("ApplyExpiresWrite: %v", err)
	}
	if f, ok := reply.(resp.Frame); !ok || f.Kind != resp.KindNullBulk {
		t.Fatalf("got %+v, want a null bulk (NX must refuse to overwrite)", reply)
	}
	e, _ := d.Get("k")
	if string(e.Value.Str) != "v1" {
		t.Fatalf("value changed to %q despite NX on an existing key", e.Value.Str)
	}
}

// TestSetRejectsBothNXAndXX covers spec.md's SET option syntax error.
func TestSetRejectsBothNXAndXX(t *testing.T) {
	if _, err := ParseSet(cursor("k", "v", "NX", "XX")); err == nil {
		t.Fatalf("ParseSet(NX, XX) succeeded, want a syntax error")
	}
}

// TestExpireZeroIsImmediate covers spec.md §8 S6: EXPIRE with a TTL of
// zero (or negative) must make the key unreadable immediately.
func TestExpireZeroIsImmediate(t *testing.T) {
	d := dict.New()
	set, _ := ParseSet(cursor("k", "v"))
	if _, _, err := set.ApplyExpiresWrite(d, 1000); err != nil {
		t.Fatalf("ApplyExpiresWrite: %v", err)
	}

	expire, err := ParseExpire(cursor("k", "0"))
	if err != nil {
		t.Fatalf("ParseExpire: %v", err)
	}
	if _, _, err := expire.ApplyExpiresWrite(d, 1000); err != nil {
		t.Fatalf("ApplyExpiresWrite: %v", err)
	}

	get, _ := ParseGet(cursor("k"))
	reply, err := get.ApplyRead(d, 1001)
	if err != nil {
		t.Fatalf("ApplyRead: %v", err)
	}
	f, ok := reply.(resp.Frame)
	if !ok || f.Kind != resp.KindNullBulk {
		t.Fatalf("got %+v, want a null bulk (key must be gone after EXPIRE 0)", reply)
	}
}
