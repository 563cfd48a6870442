package resp

import "testing"

func TestCursorNextHelpers(t *testing.T) {
	c := NewCursor([]Frame{BulkString("key"), BulkString("42"), BulkString("3.5")})

	s, err := c.NextString()
	if err != nil || s != "key" {
		t.Fatalf("NextString: got (%q, %v)", s, err)
	}
	n, err := c.NextInt()
	if err != nil || n != 42 {
		t.Fatalf("NextInt: got (%d, %v)", n, err)
	}
	f, err := c.NextFloat()
	if err != nil || f != 3.5 {
		t.Fatalf("NextFloat: got (%v, %v)", f, err)
	}
	if err := c.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
}

func TestCursorFinishReportsLeftovers(t *testing.T) {
	c := NewCursor([]Frame{BulkString("a"), BulkString("b")})
	if _, err := c.NextString(); err != nil {
		t.Fatalf("NextString: %v", err)
	}
	if err := c.Finish(); err == nil {
		t.Fatalf("Finish succeeded with an unconsumed argument remaining")
	}
}

func TestCursorNextFloatAcceptsInfSentinels(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want float64
	}{
		{"inf", posInf},
		{"+inf", posInf},
		{"-inf", negInf},
		{"INF", posInf},
	} {
		c := NewCursor([]Frame{BulkString(tc.in)})
		got, err := c.NextFloat()
		if err != nil || got != tc.want {
			t.Fatalf("NextFloat(%q): got (%v, %v), want %v", tc.in, got, err, tc.want)
		}
	}
}

func TestCursorPeekUpperDoesNotConsume(t *testing.T) {
	c := NewCursor([]Frame{BulkString("nx")})
	kw, ok := c.PeekUpper()
	if !ok || kw != "NX" {
		t.Fatalf("PeekUpper: got (%q, %v), want (NX, true)", kw, ok)
	}
	if c.Remaining() != 1 {
		t.Fatalf("PeekUpper consumed the argument: remaining=%d", c.Remaining())
	}
	c.Skip()
	if c.Remaining() != 0 {
		t.Fatalf("Skip did not advance past the argument")
	}
}

func TestCursorNextBytesRejectsNonBulk(t *testing.T) {
	c := NewCursor([]Frame{Int(1)})
	if _, err := c.NextBytes(); err == nil {
		t.Fatalf("NextBytes on an Int frame succeeded, want an error")
	}
}

func TestCursorNextOnExhaustedCursorErrors(t *testing.T) {
	c := NewCursor(nil)
	if _, err := c.NextString(); err == nil {
		t.Fatalf("NextString on an empty cursor succeeded, want an error")
	}
}
