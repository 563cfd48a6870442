// Package command implements spec.md §4.B: one Go type per Redis
// command, each pairing a Parse function (consuming an
// *resp.Cursor) with apply methods satisfying internal/slot's
// ReadCmd/WriteCmd/ExpiresWriteCmd contracts, plus the forward.Command
// contract so writes can travel the forward bus.
//
// Grounded on original_source/component/src/slot/cmd/*/*.rs's
// one-file-per-command layout (simple/, kvp/, deque/, set/,
// sorted_set/), reshaped into Go's apply-method-on-struct idiom. The
// dispatcher's case-insensitive name table is grounded on
// original_source/component/connection/src/parse/mod.rs.
package command

import (
	"rudis/internal/dict"
	"rudis/internal/forward"
	"rudis/internal/resp"
	"rudis/internal/slot"
	"rudis/internal/value"
)

// OpCode tags each command's forward-bus wire variant. Values are
// stable once assigned; never renumber a shipped opcode.
const (
	OpSet forward.OpCode = iota + 1
	OpDel
	OpExpire
	OpIncrBy
	OpHSet
	OpHSetNX
	OpHDel
	OpHIncrBy
	OpLPush
	OpRPush
	OpLPop
	OpRPop
	OpSAdd
	OpSRem
	OpZAdd
	OpZRem
	OpZRemRangeByRank
	OpZRemRangeByScore
	OpZRemRangeByLex
	OpNoop
)

// reply is a type alias so command files can write (reply, error)
// without importing slot in every file's return-type position.
type reply = slot.Reply

// slotExpiresStatus aliases slot.ExpiresStatus for the same reason.
type slotExpiresStatus = slot.ExpiresStatus

// wrongType is the shared WRONGTYPE error, reused from resp so error
// text matches exactly what the wire layer expects.
var wrongType = resp.ErrWrongType

func nowMs() int64 { return dict.NowMs() }

// asList fetches key's value as a *value.List, WRONGTYPE if present
// and not a list, nil (not an error) if absent.
func asList(d *dict.Dict, key string, now int64) (*value.List, bool, error) {
	e, ok := d.GetLive(key, now)
	if !ok {
		return nil, false, nil
	}
	if e.Value.Kind != value.KindList {
		return nil, false, wrongType
	}
	return e.Value.List, true, nil
}

func asHash(d *dict.Dict, key string, now int64) (map[string][]byte, bool, error) {
	e, ok := d.GetLive(key, now)
	if !ok {
		return nil, false, nil
	}
	if e.Value.Kind != value.KindHash {
		return nil, false, wrongType
	}
	return e.Value.Hash, true, nil
}

func asSet(d *dict.Dict, key string, now int64) (map[string]struct{}, bool, error) {
	e, ok := d.GetLive(key, now)
	if !ok {
		return nil, false, nil
	}
	if e.Value.Kind != value.KindSet {
		return nil, false, wrongType
	}
	return e.Value.Set, true, nil
}

func asSortedSet(d *dict.Dict, key string, now int64) (*value.SortedSet, bool, error) {
	e, ok := d.GetLive(key, now)
	if !ok {
		return nil, false, nil
	}
	if e.Value.Kind != value.KindSortedSet {
		return nil, false, wrongType
	}
	return e.Value.SortedSet, true, nil
}
