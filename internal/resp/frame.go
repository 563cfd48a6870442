// Package resp implements the RESP2 wire codec and command dispatch
// surface (spec.md §4.I): a streaming frame parser, a frame writer, and
// the "Parse cursor" abstraction commands use to consume their
// arguments. Grounded on original_source/component/connection/src/parse/
// frame.rs's frame grammar (reimplemented with bufio instead of nom
// parser combinators) and the teacher's internal/redisx client, which
// already speaks RESP2 from the other direction.
package resp

import (
	"errors"
	"fmt"
)

// FrameKind tags a parsed RESP2 frame's variant.
type FrameKind int

const (
	KindSimple FrameKind = iota
	KindError
	KindInt
	KindBulk
	KindNullBulk
	KindArray
	KindNullArray
	KindPing // degenerate inline "PING\r\n" form
	KindNoRes
)

// Frame is a parsed (or to-be-written) RESP2 value.
type Frame struct {
	Kind  FrameKind
	Str   string  // Simple/Error
	Int   int64   // Int
	Bulk  []byte  // Bulk (nil only for KindNullBulk)
	Array []Frame // Array (nil only for KindNullArray)
}

// Simple builds a "+..." frame.
func Simple(s string) Frame { return Frame{Kind: KindSimple, Str: s} }

// Err builds a "-..." frame.
func Err(msg string) Frame { return Frame{Kind: KindError, Str: msg} }

// Errf builds an error frame with fmt.Sprintf formatting.
func Errf(format string, args ...any) Frame { return Err(fmt.Sprintf(format, args...)) }

// Int builds a ":..." frame.
func Int(n int64) Frame { return Frame{Kind: KindInt, Int: n} }

// Bool renders Redis-style integer booleans (":1"/":0").
func Bool(b bool) Frame {
	if b {
		return Int(1)
	}
	return Int(0)
}

// Bulk builds a "$len\r\nbytes\r\n" frame.
func Bulk(b []byte) Frame { return Frame{Kind: KindBulk, Bulk: b} }

// BulkString is the string convenience form of Bulk.
func BulkString(s string) Frame { return Bulk([]byte(s)) }

// NullBulk builds a "$-1\r\n" frame.
func NullBulk() Frame { return Frame{Kind: KindNullBulk} }

// Array builds a "*n\r\n..." frame.
func Array(items []Frame) Frame { return Frame{Kind: KindArray, Array: items} }

// NullArray builds a "*-1\r\n" frame.
func NullArray() Frame { return Frame{Kind: KindNullArray} }

// NoRes suppresses any bytes being written for this frame — used when
// a command has already written its own response directly to the
// connection (spec.md §4.I).
func NoRes() Frame { return Frame{Kind: KindNoRes} }

// OK is the common "+OK" reply.
func OK() Frame { return Simple("OK") }

// ErrWrongType is the canonical WRONGTYPE error text (spec.md §7).
var ErrWrongType = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")

// ErrUnknownCommand formats spec.md §4.B's unknown-command error.
func ErrUnknownCommand(name string) Frame {
	return Errf("ERR unknown command `%s`", name)
}

// ErrWrongArgs formats the standard wrong-number-of-arguments error.
func ErrWrongArgs(cmd string) error {
	return fmt.Errorf("ERR wrong number of arguments for '%s' command", cmd)
}
