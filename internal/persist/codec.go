// Package persist implements spec.md §4.G: per-slot AOF files and
// periodic snapshots, with base_id/next_expected_id bookkeeping and
// crash recovery by snapshot-load-then-AOF-replay.
//
// Grounded on original_source/component/db/src/hdp/{aof.rs,snapshot.rs}
// for the exact bookkeeping. Snapshot files are replaced atomically via
// github.com/natefinch/atomic rather than a hand-rolled
// temp-file-plus-rename (see snapshot.go and DESIGN.md).
package persist

import (
	"fmt"
	"io"

	"rudis/internal/dict"
	"rudis/internal/forward"
	"rudis/internal/value"
)

// snapshotMagic tags the start of an encoded Dict so a truncated or
// foreign file is rejected up front rather than partially decoded.
const snapshotMagic = "RUDS"

// EncodeDict serializes d's entries (and its write-id, so a snapshot
// load can restore dict.SetWriteID(base_id) exactly) into w, using the
// same packed-length primitives internal/forward uses for the AOF wire
// format — one varint/string codec for the whole engine.
func EncodeDict(w io.Writer, d *dict.Dict) error {
	if _, err := w.Write([]byte(snapshotMagic)); err != nil {
		return err
	}
	fw := forward.NewWriter()
	if err := fw.WriteInt64(int64(d.WriteID())); err != nil {
		return err
	}

	var count uint64
	d.Range(func(string, dict.Entry) { count++ })
	if err := fw.WritePackedUint(count); err != nil {
		return err
	}

	var encErr error
	d.Range(func(key string, e dict.Entry) {
		if encErr != nil {
			return
		}
		encErr = encodeEntry(fw, key, e)
	})
	if encErr != nil {
		return encErr
	}
	_, err := w.Write(fw.Bytes())
	return err
}

func encodeEntry(w *forward.Writer, key string, e dict.Entry) error {
	if err := w.WritePackedStr(key); err != nil {
		return err
	}
	if err := w.WriteInt64(e.ExpiresAt); err != nil {
		return err
	}
	if err := w.WriteByte(byte(e.Value.Kind)); err != nil {
		return err
	}
	return encodeValue(w, e.Value)
}

func encodeValue(w *forward.Writer, v value.Value) error {
	switch v.Kind {
	case value.KindNull:
		return nil
	case value.KindStr:
		return w.WritePackedString(v.Str)
	case value.KindInt:
		return w.WriteInt64(v.Int)
	case value.KindFloat:
		return w.WriteFloat64(float64(v.Float))
	case value.KindList:
		items := v.List.Range(0, -1)
		if err := w.WritePackedUint(uint64(len(items))); err != nil {
			return err
		}
		for _, item := range items {
			if err := w.WritePackedString(item); err != nil {
				return err
			}
		}
		return nil
	case value.KindHash:
		if err := w.WritePackedUint(uint64(len(v.Hash))); err != nil {
			return err
		}
		for field, val := range v.Hash {
			if err := w.WritePackedStr(field); err != nil {
				return err
			}
			if err := w.WritePackedString(val); err != nil {
				return err
			}
		}
		return nil
	case value.KindSet:
		if err := w.WritePackedUint(uint64(len(v.Set))); err != nil {
			return err
		}
		for member := range v.Set {
			if err := w.WritePackedStr(member); err != nil {
				return err
			}
		}
		return nil
	case value.KindSortedSet:
		nodes := v.SortedSet.RangeByRank(0, -1, false)
		if err := w.WritePackedUint(uint64(len(nodes))); err != nil {
			return err
		}
		for _, n := range nodes {
			if err := w.WritePackedStr(n.Key); err != nil {
				return err
			}
			if err := w.WriteFloat64(float64(n.Score)); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("persist: unknown value kind %d", v.Kind)
	}
}

// DecodeDict reads a Dict previously written by EncodeDict.
func DecodeDict(r io.Reader) (*dict.Dict, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, err
	}
	if string(magic[:]) != snapshotMagic {
		return nil, fmt.Errorf("persist: not a snapshot file")
	}
	fr := forward.NewReader(r)
	writeID, err := fr.ReadInt64()
	if err != nil {
		return nil, err
	}
	count, err := fr.ReadPackedUint()
	if err != nil {
		return nil, err
	}

	d := dict.New()
	for i := uint64(0); i < count; i++ {
		key, e, err := decodeEntry(fr)
		if err != nil {
			return nil, err
		}
		d.Insert(key, e)
	}
	d.SetWriteID(uint64(writeID))
	return d, nil
}

func decodeEntry(r *forward.Reader) (string, dict.Entry, error) {
	key, err := r.ReadPackedStr()
	if err != nil {
		return "", dict.Entry{}, err
	}
	expiresAt, err := r.ReadInt64()
	if err != nil {
		return "", dict.Entry{}, err
	}
	kindByte, err := r.ReadByte()
	if err != nil {
		return "", dict.Entry{}, err
	}
	v, err := decodeValue(r, value.Kind(kindByte))
	if err != nil {
		return "", dict.Entry{}, err
	}
	return key, dict.Entry{Value: v, ExpiresAt: expiresAt}, nil
}

func decodeValue(r *forward.Reader, kind value.Kind) (value.Value, error) {
	switch kind {
	case value.KindNull:
		return value.Null(), nil
	case value.KindStr:
		b, err := r.ReadPackedString()
		if err != nil {
			return value.Value{}, err
		}
		return value.FromBytes(b), nil
	case value.KindInt:
		n, err := r.ReadInt64()
		if err != nil {
			return value.Value{}, err
		}
		return value.FromInt(n), nil
	case value.KindFloat:
		f, err := r.ReadFloat64()
		if err != nil {
			return value.Value{}, err
		}
		fv, err := value.NewFloat(f)
		if err != nil {
			return value.Value{}, err
		}
		return value.Value{Kind: value.KindFloat, Float: fv}, nil
	case value.KindList:
		n, err := r.ReadPackedUint()
		if err != nil {
			return value.Value{}, err
		}
		l := value.NewList()
		items := make([][]byte, n)
		for i := range items {
			items[i], err = r.ReadPackedString()
			if err != nil {
				return value.Value{}, err
			}
		}
		l.PushRight(items...)
		return value.Value{Kind: value.KindList, List: l}, nil
	case value.KindHash:
		n, err := r.ReadPackedUint()
		if err != nil {
			return value.Value{}, err
		}
		h := make(map[string][]byte, n)
		for i := uint64(0); i < n; i++ {
			field, err := r.ReadPackedStr()
			if err != nil {
				return value.Value{}, err
			}
			val, err := r.ReadPackedString()
			if err != nil {
				return value.Value{}, err
			}
			h[field] = val
		}
		return value.Value{Kind: value.KindHash, Hash: h}, nil
	case value.KindSet:
		n, err := r.ReadPackedUint()
		if err != nil {
			return value.Value{}, err
		}
		s := make(map[string]struct{}, n)
		for i := uint64(0); i < n; i++ {
			member, err := r.ReadPackedStr()
			if err != nil {
				return value.Value{}, err
			}
			s[member] = struct{}{}
		}
		return value.Value{Kind: value.KindSet, Set: s}, nil
	case value.KindSortedSet:
		n, err := r.ReadPackedUint()
		if err != nil {
			return value.Value{}, err
		}
		zs := value.NewSortedSet()
		nodes := make([]value.Node, n)
		for i := range nodes {
			key, err := r.ReadPackedStr()
			if err != nil {
				return value.Value{}, err
			}
			score, err := r.ReadFloat64()
			if err != nil {
				return value.Value{}, err
			}
			nodes[i] = value.Node{Key: key, Score: value.Float(score)}
		}
		zs.Add(nodes, value.NxXxNone, value.GtLtNone, false)
		return value.Value{Kind: value.KindSortedSet, SortedSet: zs}, nil
	default:
		return value.Value{}, fmt.Errorf("persist: unknown value kind %d", kind)
	}
}
