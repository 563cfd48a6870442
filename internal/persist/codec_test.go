package persist

import (
	"bytes"
	"testing"

	"rudis/internal/dict"
	"rudis/internal/value"
)

func TestEncodeDecodeDictRoundTrip(t *testing.T) {
	d := dict.New()
	d.Insert("str", dict.Entry{Value: value.FromString("hello"), ExpiresAt: 5000})
	d.Insert("int", dict.Entry{Value: value.FromInt(42)})

	l := value.NewList()
	l.PushRight([]byte("a"), []byte("b"))
	d.Insert("list", dict.Entry{Value: value.Value{Kind: value.KindList, List: l}})

	d.Insert("hash", dict.Entry{Value: value.Value{Kind: value.KindHash, Hash: map[string][]byte{"f": []byte("v")}}})
	d.Insert("set", dict.Entry{Value: value.Value{Kind: value.KindSet, Set: map[string]struct{}{"m": {}}}})

	zs := value.NewSortedSet()
	zs.Add([]value.Node{{Key: "a", Score: 1}, {Key: "b", Score: 2}}, value.NxXxNone, value.GtLtNone, false)
	d.Insert("zset", dict.Entry{Value: value.Value{Kind: value.KindSortedSet, SortedSet: zs}})

	d.NextWriteID()
	d.NextWriteID()
	d.NextWriteID()

	var buf bytes.Buffer
	if err := EncodeDict(&buf, d); err != nil {
		t.Fatalf("EncodeDict: %v", err)
	}

	got, err := DecodeDict(&buf)
	if err != nil {
		t.Fatalf("DecodeDict: %v", err)
	}

	if got.WriteID() != d.WriteID() {
		t.Fatalf("got write_id=%d, want %d", got.WriteID(), d.WriteID())
	}
	if got.Len() != d.Len() {
		t.Fatalf("got %d entries, want %d", got.Len(), d.Len())
	}

	e, ok := got.Get("str")
	if !ok || string(e.Value.Str) != "hello" || e.ExpiresAt != 5000 {
		t.Fatalf("got str entry %+v", e)
	}
	e, ok = got.Get("int")
	if !ok || e.Value.Int != 42 {
		t.Fatalf("got int entry %+v", e)
	}
	e, ok = got.Get("list")
	if !ok || e.Value.List.Len() != 2 {
		t.Fatalf("got list entry %+v", e)
	}
	e, ok = got.Get("hash")
	if !ok || string(e.Value.Hash["f"]) != "v" {
		t.Fatalf("got hash entry %+v", e)
	}
	e, ok = got.Get("set")
	if !ok {
		t.Fatalf("set entry missing")
	}
	if _, ok := e.Value.Set["m"]; !ok {
		t.Fatalf("set entry missing member m: %+v", e.Value.Set)
	}
	e, ok = got.Get("zset")
	if !ok || e.Value.SortedSet.Len() != 2 {
		t.Fatalf("got zset entry %+v", e)
	}
}

func TestDecodeDictRejectsForeignFile(t *testing.T) {
	if _, err := DecodeDict(bytes.NewReader([]byte("NOPE garbage bytes here"))); err == nil {
		t.Fatalf("DecodeDict on a non-snapshot file succeeded, want an error")
	}
}

func TestDecodeDictRejectsTruncatedFile(t *testing.T) {
	d := dict.New()
	d.Insert("k", dict.Entry{Value: value.FromString("v")})
	var buf bytes.Buffer
	if err := EncodeDict(&buf, d); err != nil {
		t.Fatalf("EncodeDict: %v", err)
	}
	truncated := buf.Bytes()[:buf.Len()-3]
	if _, err := DecodeDict(bytes.NewReader(truncated)); err == nil {
		t.Fatalf("DecodeDict on a truncated file succeeded, want an error")
	}
}
