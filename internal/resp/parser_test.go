package resp

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"
)

func parseOne(t *testing.T, raw string) Frame {
	t.Helper()
	p := NewParser(bufio.NewReader(strings.NewReader(raw)))
	f, err := p.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame(%q): %v", raw, err)
	}
	return f
}

func TestParseSimpleAndError(t *testing.T) {
	if f := parseOne(t, "+OK\r\n"); f.Kind != KindSimple || f.Str != "OK" {
		t.Fatalf("got %+v", f)
	}
	if f := parseOne(t, "-ERR bad\r\n"); f.Kind != KindError || f.Str != "ERR bad" {
		t.Fatalf("got %+v", f)
	}
}

func TestParseInt(t *testing.T) {
	if f := parseOne(t, ":1234\r\n"); f.Kind != KindInt || f.Int != 1234 {
		t.Fatalf("got %+v", f)
	}
	if f := parseOne(t, ":-7\r\n"); f.Kind != KindInt || f.Int != -7 {
		t.Fatalf("got %+v", f)
	}
}

func TestParseBulkAndNullBulk(t *testing.T) {
	f := parseOne(t, "$5\r\nhello\r\n")
	if f.Kind != KindBulk || string(f.Bulk) != "hello" {
		t.Fatalf("got %+v", f)
	}
	if f := parseOne(t, "$-1\r\n"); f.Kind != KindNullBulk {
		t.Fatalf("got %+v", f)
	}
}

func TestParseArrayAndNullArray(t *testing.T) {
	f := parseOne(t, "*2\r\n$3\r\nGET\r\n$1\r\nk\r\n")
	if f.Kind != KindArray || len(f.Array) != 2 {
		t.Fatalf("got %+v", f)
	}
	if string(f.Array[0].Bulk) != "GET" || string(f.Array[1].Bulk) != "k" {
		t.Fatalf("got %+v", f.Array)
	}
	if f := parseOne(t, "*-1\r\n"); f.Kind != KindNullArray {
		t.Fatalf("got %+v", f)
	}
}

func TestParseDegeneratePing(t *testing.T) {
	f := parseOne(t, "PING\r\n")
	if f.Kind != KindPing {
		t.Fatalf("got %+v, want KindPing", f)
	}
}

func TestParseMalformedLineReturnsProtocolError(t *testing.T) {
	p := NewParser(bufio.NewReader(strings.NewReader("*2\r\n$3\r\nGET\r")))
	if _, err := p.ReadFrame(); err == nil {
		t.Fatalf("expected an error for a frame missing the bulk's CRLF terminator")
	}
}

func TestParseEOFPropagatesUnwrapped(t *testing.T) {
	p := NewParser(bufio.NewReader(strings.NewReader("")))
	if _, err := p.ReadFrame(); err != io.EOF {
		t.Fatalf("got %v, want io.EOF", err)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	frames := []Frame{
		Simple("OK"),
		Err("ERR oops"),
		Int(42),
		BulkString("hello"),
		NullBulk(),
		Array([]Frame{Int(1), BulkString("two"), NullBulk()}),
		NullArray(),
	}
	for _, f := range frames {
		var buf bytes.Buffer
		w := bufio.NewWriter(&buf)
		if err := WriteFrame(w, f); err != nil {
			t.Fatalf("WriteFrame(%+v): %v", f, err)
		}
		got, err := NewParser(bufio.NewReader(&buf)).ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame after writing %+v: %v", f, err)
		}
		if got.Kind != f.Kind {
			t.Fatalf("round trip of %+v produced kind %v", f, got.Kind)
		}
	}
}

func TestNoResWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	if err := WriteFrame(w, NoRes()); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("got %d bytes written for a NoRes frame, want 0", buf.Len())
	}
}
