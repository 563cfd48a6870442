package command

import (
	"strconv"

	"rudis/internal/dict"
	"rudis/internal/forward"
	"rudis/internal/resp"
	"rudis/internal/value"
)

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

// --- HSET / HSETNX ---

type HSet struct {
	Key    string
	Fields []string
	Vals   [][]byte
	NXOnly bool // HSETNX: set a single field only if absent
}

func parseHSetFields(c *resp.Cursor) ([]string, [][]byte, error) {
	if c.Remaining() == 0 || c.Remaining()%2 != 0 {
		return nil, nil, resp.ErrWrongArgs("hset")
	}
	var fields []string
	var vals [][]byte
	for c.Remaining() > 0 {
		f, err := c.NextString()
		if err != nil {
			return nil, nil, err
		}
		v, err := c.NextBytes()
		if err != nil {
			return nil, nil, err
		}
		fields = append(fields, f)
		vals = append(vals, v)
	}
	return fields, vals, nil
}

func ParseHSet(c *resp.Cursor) (*HSet, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	fields, vals, err := parseHSetFields(c)
	if err != nil {
		return nil, err
	}
	return &HSet{Key: key, Fields: fields, Vals: vals}, nil
}

func ParseHSetNX(c *resp.Cursor) (*HSet, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	field, err := c.NextString()
	if err != nil {
		return nil, err
	}
	val, err := c.NextBytes()
	if err != nil {
		return nil, err
	}
	return &HSet{Key: key, Fields: []string{field}, Vals: [][]byte{val}, NXOnly: true}, c.Finish()
}

func (h *HSet) ApplyWrite(d *dict.Dict, now int64) (reply, error) {
	e := d.GetOrInsertWith(h.Key, now, func() value.Value {
		return value.Value{Kind: value.KindHash, Hash: make(map[string][]byte)}
	})
	if e.Value.Kind != value.KindHash {
		return nil, wrongType
	}
	if h.NXOnly {
		if _, exists := e.Value.Hash[h.Fields[0]]; exists {
			return resp.Bool(false), nil
		}
		e.Value.Hash[h.Fields[0]] = h.Vals[0]
		d.Mutate(h.Key, e)
		return resp.Bool(true), nil
	}
	created := int64(0)
	for i, f := range h.Fields {
		if _, exists := e.Value.Hash[f]; !exists {
			created++
		}
		e.Value.Hash[f] = h.Vals[i]
	}
	d.Mutate(h.Key, e)
	return resp.Int(created), nil
}

func (h *HSet) OpCode() forward.OpCode {
	if h.NXOnly {
		return OpHSetNX
	}
	return OpHSet
}

func (h *HSet) EncodeBody(w *forward.Writer) error {
	if err := w.WritePackedStr(h.Key); err != nil {
		return err
	}
	if err := w.WritePackedUint(uint64(len(h.Fields))); err != nil {
		return err
	}
	for i, f := range h.Fields {
		if err := w.WritePackedStr(f); err != nil {
			return err
		}
		if err := w.WritePackedString(h.Vals[i]); err != nil {
			return err
		}
	}
	return nil
}

func decodeHSetLike(nxOnly bool) forward.Decoder {
	return func(r *forward.Reader) (forward.Command, error) {
		key, err := r.ReadPackedStr()
		if err != nil {
			return nil, err
		}
		n, err := r.ReadPackedUint()
		if err != nil {
			return nil, err
		}
		fields := make([]string, n)
		vals := make([][]byte, n)
		for i := range fields {
			f, err := r.ReadPackedStr()
			if err != nil {
				return nil, err
			}
			v, err := r.ReadPackedString()
			if err != nil {
				return nil, err
			}
			fields[i] = f
			vals[i] = v
		}
		return &HSet{Key: key, Fields: fields, Vals: vals, NXOnly: nxOnly}, nil
	}
}

func init() {
	forward.RegisterDecoder(OpHSet, decodeHSetLike(false))
	forward.RegisterDecoder(OpHSetNX, decodeHSetLike(true))
}

// --- HDEL ---

type HDel struct {
	Key    string
	Fields []string
}

func ParseHDel(c *resp.Cursor) (*HDel, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	if c.Remaining() == 0 {
		return nil, resp.ErrWrongArgs("hdel")
	}
	var fields []string
	for c.Remaining() > 0 {
		f, err := c.NextString()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return &HDel{Key: key, Fields: fields}, nil
}

func (h *HDel) ApplyWrite(d *dict.Dict, now int64) (reply, error) {
	hash, ok, err := asHash(d, h.Key, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return resp.Int(0), nil
	}
	n := int64(0)
	for _, f := range h.Fields {
		if _, exists := hash[f]; exists {
			delete(hash, f)
			n++
		}
	}
	return resp.Int(n), nil
}

func (h *HDel) OpCode() forward.OpCode { return OpHDel }

func (h *HDel) EncodeBody(w *forward.Writer) error {
	if err := w.WritePackedStr(h.Key); err != nil {
		return err
	}
	if err := w.WritePackedUint(uint64(len(h.Fields))); err != nil {
		return err
	}
	for _, f := range h.Fields {
		if err := w.WritePackedStr(f); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	forward.RegisterDecoder(OpHDel, func(r *forward.Reader) (forward.Command, error) {
		key, err := r.ReadPackedStr()
		if err != nil {
			return nil, err
		}
		n, err := r.ReadPackedUint()
		if err != nil {
			return nil, err
		}
		fields := make([]string, n)
		for i := range fields {
			f, err := r.ReadPackedStr()
			if err != nil {
				return nil, err
			}
			fields[i] = f
		}
		return &HDel{Key: key, Fields: fields}, nil
	})
}

// --- HEXISTS / HGET / HMGET / HGETALL (reads) ---

type HExists struct {
	Key, Field string
}

func ParseHExists(c *resp.Cursor) (*HExists, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	f, err := c.NextString()
	if err != nil {
		return nil, err
	}
	return &HExists{Key: key, Field: f}, c.Finish()
}

func (h *HExists) ApplyRead(d *dict.Dict, now int64) (reply, error) {
	hash, ok, err := asHash(d, h.Key, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return resp.Bool(false), nil
	}
	_, exists := hash[h.Field]
	return resp.Bool(exists), nil
}

type HGet struct{ Key, Field string }

func ParseHGet(c *resp.Cursor) (*HGet, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	f, err := c.NextString()
	if err != nil {
		return nil, err
	}
	return &HGet{Key: key, Field: f}, c.Finish()
}

func (h *HGet) ApplyRead(d *dict.Dict, now int64) (reply, error) {
	hash, ok, err := asHash(d, h.Key, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return resp.NullBulk(), nil
	}
	v, exists := hash[h.Field]
	if !exists {
		return resp.NullBulk(), nil
	}
	return resp.Bulk(v), nil
}

type HMGet struct {
	Key    string
	Fields []string
}

func ParseHMGet(c *resp.Cursor) (*HMGet, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	if c.Remaining() == 0 {
		return nil, resp.ErrWrongArgs("hmget")
	}
	var fields []string
	for c.Remaining() > 0 {
		f, err := c.NextString()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return &HMGet{Key: key, Fields: fields}, nil
}

func (h *HMGet) ApplyRead(d *dict.Dict, now int64) (reply, error) {
	hash, ok, err := asHash(d, h.Key, now)
	if err != nil {
		return nil, err
	}
	out := make([]resp.Frame, len(h.Fields))
	for i, f := range h.Fields {
		if !ok {
			out[i] = resp.NullBulk()
			continue
		}
		if v, exists := hash[f]; exists {
			out[i] = resp.Bulk(v)
		} else {
			out[i] = resp.NullBulk()
		}
	}
	return resp.Array(out), nil
}

type HGetAll struct{ Key string }

func ParseHGetAll(c *resp.Cursor) (*HGetAll, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	return &HGetAll{Key: key}, c.Finish()
}

func (h *HGetAll) ApplyRead(d *dict.Dict, now int64) (reply, error) {
	hash, ok, err := asHash(d, h.Key, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return resp.Array(nil), nil
	}
	out := make([]resp.Frame, 0, len(hash)*2)
	for f, v := range hash {
		out = append(out, resp.BulkString(f), resp.Bulk(v))
	}
	return resp.Array(out), nil
}

// --- HINCRBY ---

type HIncrBy struct {
	Key, Field string
	Delta      int64
}

func ParseHIncrBy(c *resp.Cursor) (*HIncrBy, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	f, err := c.NextString()
	if err != nil {
		return nil, err
	}
	n, err := c.NextInt()
	if err != nil {
		return nil, err
	}
	return &HIncrBy{Key: key, Field: f, Delta: n}, c.Finish()
}

func (h *HIncrBy) ApplyWrite(d *dict.Dict, now int64) (reply, error) {
	e := d.GetOrInsertWith(h.Key, now, func() value.Value {
		return value.Value{Kind: value.KindHash, Hash: make(map[string][]byte)}
	})
	if e.Value.Kind != value.KindHash {
		return nil, wrongType
	}
	cur := int64(0)
	if b, exists := e.Value.Hash[h.Field]; exists {
		v, err := value.FromBytes(b).AsInt()
		if err != nil {
			return nil, err
		}
		cur = v
	}
	sum, err := value.AddInt64(cur, h.Delta)
	if err != nil {
		return nil, err
	}
	e.Value.Hash[h.Field] = []byte(itoa(sum))
	d.Mutate(h.Key, e)
	return resp.Int(sum), nil
}

func (h *HIncrBy) OpCode() forward.OpCode { return OpHIncrBy }

func (h *HIncrBy) EncodeBody(w *forward.Writer) error {
	if err := w.WritePackedStr(h.Key); err != nil {
		return err
	}
	if err := w.WritePackedStr(h.Field); err != nil {
		return err
	}
	return w.WriteInt64(h.Delta)
}

func init() {
	forward.RegisterDecoder(OpHIncrBy, func(r *forward.Reader) (forward.Command, error) {
		key, err := r.ReadPackedStr()
		if err != nil {
			return nil, err
		}
		field, err := r.ReadPackedStr()
		if err != nil {
			return nil, err
		}
		delta, err := r.ReadInt64()
		if err != nil {
			return nil, err
		}
		return &HIncrBy{Key: key, Field: field, Delta: delta}, nil
	})
}
