// Package value implements the tagged Value variant shared by every
// command: strings, integers, floats, lists, hashes, sets, and sorted
// sets, plus the on-demand string<->integer coercion rules INCR-family
// commands rely on.
package value

import (
	"errors"
	"math"
	"strconv"
)

// Kind tags which variant a Value currently holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindStr
	KindInt
	KindFloat
	KindList
	KindHash
	KindSet
	KindSortedSet
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindStr:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindList:
		return "list"
	case KindHash:
		return "hash"
	case KindSet:
		return "set"
	case KindSortedSet:
		return "zset"
	default:
		return "unknown"
	}
}

// ErrWrongType is returned whenever a command is applied to a key
// holding a value of the wrong kind. Reported verbatim as a RESP error.
var ErrWrongType = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")

// Value is a tagged union over every supported data type. Only the
// field matching Kind is meaningful; the rest are zero.
//
// Int and Str coerce to each other on demand (see AsInt/AsBytes): the
// stored Kind never silently changes from a read, only from a write.
type Value struct {
	Kind Kind

	Str   []byte
	Int   int64
	Float Float

	List      *List
	Hash      map[string][]byte
	Set       map[string]struct{}
	SortedSet *SortedSet
}

// Clone returns a deep copy of v, isolated from further mutation of any
// container the original held a pointer or map to. Used by Dict.Clone
// so a snapshot started under a slot's read lock stays consistent after
// the lock is released (spec.md §4.G step 1/3).
func (v Value) Clone() Value {
	out := v
	switch v.Kind {
	case KindStr:
		out.Str = append([]byte(nil), v.Str...)
	case KindList:
		if v.List != nil {
			out.List = v.List.Clone()
		}
	case KindHash:
		h := make(map[string][]byte, len(v.Hash))
		for k, val := range v.Hash {
			h[k] = append([]byte(nil), val...)
		}
		out.Hash = h
	case KindSet:
		s := make(map[string]struct{}, len(v.Set))
		for k := range v.Set {
			s[k] = struct{}{}
		}
		out.Set = s
	case KindSortedSet:
		if v.SortedSet != nil {
			out.SortedSet = v.SortedSet.Clone()
		}
	}
	return out
}

// Null returns the absent-value sentinel.
func Null() Value { return Value{Kind: KindNull} }

// IsNull reports whether the value is the absent sentinel.
func (v Value) IsNull() bool { return v.Kind == KindNull }

func FromBytes(b []byte) Value  { return Value{Kind: KindStr, Str: b} }
func FromString(s string) Value { return Value{Kind: KindStr, Str: []byte(s)} }
func FromInt(i int64) Value     { return Value{Kind: KindInt, Int: i} }

// AsBytes renders Str/Int as bytes and Null as nil; any other kind is a
// WRONGTYPE error.
func (v Value) AsBytes() ([]byte, error) {
	switch v.Kind {
	case KindStr:
		return v.Str, nil
	case KindInt:
		return strconv.AppendInt(nil, v.Int, 10), nil
	case KindNull:
		return nil, nil
	default:
		return nil, ErrWrongType
	}
}

// ErrNotAnInteger mirrors Redis's classic INCR error text.
var ErrNotAnInteger = errors.New("value is not an integer or out of range")

// ErrOverflow mirrors Redis's INCR overflow error text.
var ErrOverflow = errors.New("increment or decrement would overflow")

// ErrTooLarge is returned when a stored string parses as a number too
// large to fit in an i64 (distinct wording kept from the target's own
// error catalogue; see spec.md §4.A).
var ErrTooLarge = errors.New("number too large to fit in target type")

// AsInt parses Str/Int as a base-10 i64. A string that doesn't parse
// as a valid integer reports ErrNotAnInteger; one that parses but
// overflows i64 reports ErrTooLarge, matching spec.md's two distinct
// error strings for the INCR family.
func (v Value) AsInt() (int64, error) {
	switch v.Kind {
	case KindInt:
		return v.Int, nil
	case KindStr:
		n, err := strconv.ParseInt(string(v.Str), 10, 64)
		if err != nil {
			if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange {
				return 0, ErrTooLarge
			}
			return 0, ErrNotAnInteger
		}
		return n, nil
	case KindNull:
		return 0, nil
	default:
		return 0, ErrWrongType
	}
}

// AddInt64 adds delta to base, returning ErrOverflow on signed overflow.
func AddInt64(base, delta int64) (int64, error) {
	sum := base + delta
	if (delta > 0 && sum < base) || (delta < 0 && sum > base) {
		return 0, ErrOverflow
	}
	return sum, nil
}

// Float is a totally-ordered wrapper around float64: NaN is forbidden
// at construction time so SortedSet ordering never has to special-case it.
type Float float64

// NewFloat validates f is not NaN.
func NewFloat(f float64) (Float, error) {
	if math.IsNaN(f) {
		return 0, errors.New("value is not a valid float")
	}
	return Float(f), nil
}

// Less gives Float its total order (NaN already excluded).
func (f Float) Less(o Float) bool { return float64(f) < float64(o) }

// ParseFloat parses a string as a Redis-style float (supports inf/-inf).
func ParseFloat(s string) (Float, error) {
	switch s {
	case "inf", "+inf":
		return Float(math.Inf(1)), nil
	case "-inf":
		return Float(math.Inf(-1)), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("value is not a valid float")
	}
	return NewFloat(f)
}

// FormatFloat renders a Float the way RESP bulk replies expect: no
// trailing zeros, integral values without a decimal point.
func FormatFloat(f Float) string {
	v := float64(f)
	if math.IsInf(v, 1) {
		return "inf"
	}
	if math.IsInf(v, -1) {
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', 17, 64)
}
