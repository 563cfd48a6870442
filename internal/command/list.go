package command

import (
	"rudis/internal/dict"
	"rudis/internal/forward"
	"rudis/internal/resp"
	"rudis/internal/value"
)

// --- LPUSH / RPUSH / LPUSHX / RPUSHX ---

type Push struct {
	Key    string
	Elems  [][]byte
	Left   bool
	XOnly  bool // *PUSHX: only push if key already holds a list
}

func parsePush(c *resp.Cursor, left, xOnly bool) (*Push, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	if c.Remaining() == 0 {
		return nil, resp.ErrWrongArgs("push")
	}
	var elems [][]byte
	for c.Remaining() > 0 {
		e, err := c.NextBytes()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	return &Push{Key: key, Elems: elems, Left: left, XOnly: xOnly}, nil
}

func ParseLPush(c *resp.Cursor) (*Push, error)  { return parsePush(c, true, false) }
func ParseRPush(c *resp.Cursor) (*Push, error)  { return parsePush(c, false, false) }
func ParseLPushX(c *resp.Cursor) (*Push, error) { return parsePush(c, true, true) }
func ParseRPushX(c *resp.Cursor) (*Push, error) { return parsePush(c, false, true) }

func (p *Push) ApplyWrite(d *dict.Dict, now int64) (reply, error) {
	if p.XOnly {
		e, ok := d.GetLive(p.Key, now)
		if !ok {
			return resp.Int(0), nil
		}
		if e.Value.Kind != value.KindList {
			return nil, wrongType
		}
		if p.Left {
			e.Value.List.PushLeft(p.Elems...)
		} else {
			e.Value.List.PushRight(p.Elems...)
		}
		return resp.Int(int64(e.Value.List.Len())), nil
	}
	e := d.GetOrInsertWith(p.Key, now, func() value.Value {
		return value.Value{Kind: value.KindList, List: value.NewList()}
	})
	if e.Value.Kind != value.KindList {
		return nil, wrongType
	}
	if p.Left {
		e.Value.List.PushLeft(p.Elems...)
	} else {
		e.Value.List.PushRight(p.Elems...)
	}
	d.Mutate(p.Key, e)
	return resp.Int(int64(e.Value.List.Len())), nil
}

func (p *Push) OpCode() forward.OpCode {
	if p.Left {
		return OpLPush
	}
	return OpRPush
}

func (p *Push) EncodeBody(w *forward.Writer) error {
	if err := w.WritePackedStr(p.Key); err != nil {
		return err
	}
	if err := w.WritePackedUint(uint64(len(p.Elems))); err != nil {
		return err
	}
	for _, e := range p.Elems {
		if err := w.WritePackedString(e); err != nil {
			return err
		}
	}
	flags := byte(0)
	if p.XOnly {
		flags = 1
	}
	return w.WriteByte(flags)
}

func decodePushLike(left bool) forward.Decoder {
	return func(r *forward.Reader) (forward.Command, error) {
		key, err := r.ReadPackedStr()
		if err != nil {
			return nil, err
		}
		n, err := r.ReadPackedUint()
		if err != nil {
			return nil, err
		}
		elems := make([][]byte, n)
		for i := range elems {
			e, err := r.ReadPackedString()
			if err != nil {
				return nil, err
			}
			elems[i] = e
		}
		flags, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		return &Push{Key: key, Elems: elems, Left: left, XOnly: flags&1 != 0}, nil
	}
}

func init() {
	forward.RegisterDecoder(OpLPush, decodePushLike(true))
	forward.RegisterDecoder(OpRPush, decodePushLike(false))
}

// --- LPOP / RPOP ---

type Pop struct {
	Key      string
	Left     bool
	Count    int
	HasCount bool
}

func parsePop(c *resp.Cursor, left bool) (*Pop, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	p := &Pop{Key: key, Left: left}
	if c.Remaining() > 0 {
		n, err := c.NextInt()
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, errSyntax()
		}
		p.Count = int(n)
		p.HasCount = true
	}
	return p, c.Finish()
}

func ParseLPop(c *resp.Cursor) (*Pop, error) { return parsePop(c, true) }
func ParseRPop(c *resp.Cursor) (*Pop, error) { return parsePop(c, false) }

func (p *Pop) ApplyWrite(d *dict.Dict, now int64) (reply, error) {
	l, ok, err := asList(d, p.Key, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		if p.HasCount {
			return resp.NullArray(), nil
		}
		return resp.NullBulk(), nil
	}
	n := 1
	if p.HasCount {
		n = p.Count
	}
	var popped [][]byte
	if p.Left {
		popped = l.PopLeft(n)
	} else {
		popped = l.PopRight(n)
	}
	if l.Len() == 0 {
		d.Remove(p.Key)
	}
	if p.HasCount {
		out := make([]resp.Frame, len(popped))
		for i, b := range popped {
			out[i] = resp.Bulk(b)
		}
		return resp.Array(out), nil
	}
	if len(popped) == 0 {
		return resp.NullBulk(), nil
	}
	return resp.Bulk(popped[0]), nil
}

func (p *Pop) OpCode() forward.OpCode {
	if p.Left {
		return OpLPop
	}
	return OpRPop
}

func (p *Pop) EncodeBody(w *forward.Writer) error {
	if err := w.WritePackedStr(p.Key); err != nil {
		return err
	}
	n := 1
	if p.HasCount {
		n = p.Count
	}
	return w.WritePackedUint(uint64(n))
}

func decodePopLike(left bool) forward.Decoder {
	return func(r *forward.Reader) (forward.Command, error) {
		key, err := r.ReadPackedStr()
		if err != nil {
			return nil, err
		}
		n, err := r.ReadPackedUint()
		if err != nil {
			return nil, err
		}
		return &Pop{Key: key, Left: left, Count: int(n), HasCount: true}, nil
	}
}

func init() {
	forward.RegisterDecoder(OpLPop, decodePopLike(true))
	forward.RegisterDecoder(OpRPop, decodePopLike(false))
}

// --- LLEN / LRANGE (reads) ---

type LLen struct{ Key string }

func ParseLLen(c *resp.Cursor) (*LLen, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	return &LLen{Key: key}, c.Finish()
}

func (l *LLen) ApplyRead(d *dict.Dict, now int64) (reply, error) {
	list, ok, err := asList(d, l.Key, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return resp.Int(0), nil
	}
	return resp.Int(int64(list.Len())), nil
}

type LRange struct {
	Key         string
	Start, Stop int
}

func ParseLRange(c *resp.Cursor) (*LRange, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	start, err := c.NextInt()
	if err != nil {
		return nil, err
	}
	stop, err := c.NextInt()
	if err != nil {
		return nil, err
	}
	return &LRange{Key: key, Start: int(start), Stop: int(stop)}, c.Finish()
}

func (l *LRange) ApplyRead(d *dict.Dict, now int64) (reply, error) {
	list, ok, err := asList(d, l.Key, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return resp.Array(nil), nil
	}
	items := list.Range(l.Start, l.Stop)
	out := make([]resp.Frame, len(items))
	for i, b := range items {
		out[i] = resp.Bulk(b)
	}
	return resp.Array(out), nil
}
