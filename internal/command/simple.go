package command

import (
	"rudis/internal/dict"
	"rudis/internal/forward"
	"rudis/internal/resp"
	"rudis/internal/value"
)

// --- GET ---

type Get struct{ Key string }

func ParseGet(c *resp.Cursor) (*Get, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	return &Get{Key: key}, c.Finish()
}

func (g *Get) ApplyRead(d *dict.Dict, now int64) (reply, error) {
	e, ok := d.GetLive(g.Key, now)
	if !ok {
		return resp.NullBulk(), nil
	}
	if e.Value.Kind == value.KindInt {
		return resp.Int(e.Value.Int), nil
	}
	b, err := e.Value.AsBytes()
	if err != nil {
		return nil, err
	}
	return resp.Bulk(b), nil
}

// --- SET ---

// Set implements spec.md §4.B's SET with EX|PX|EXAT|PXAT|NX|XX|KEEPTTL|GET.
type Set struct {
	Key          string
	Val          []byte
	ExpiresAt    int64 // 0 = none resolved from EX/PX/EXAT/PXAT
	HasExpiry    bool
	KeepTTL      bool
	NX, XX       bool
	WantGet      bool
}

func ParseSet(c *resp.Cursor) (*Set, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	val, err := c.NextBytes()
	if err != nil {
		return nil, err
	}
	s := &Set{Key: key, Val: val}
	for {
		opt, ok := c.PeekUpper()
		if !ok {
			break
		}
		switch opt {
		case "NX":
			c.Skip()
			s.NX = true
		case "XX":
			c.Skip()
			s.XX = true
		case "GET":
			c.Skip()
			s.WantGet = true
		case "KEEPTTL":
			c.Skip()
			s.KeepTTL = true
		case "EX", "PX", "EXAT", "PXAT":
			c.Skip()
			n, err := c.NextInt()
			if err != nil {
				return nil, err
			}
			switch opt {
			case "EX":
				s.ExpiresAt = now() + n*1000
			case "PX":
				s.ExpiresAt = now() + n
			case "EXAT":
				s.ExpiresAt = n * 1000
			case "PXAT":
				s.ExpiresAt = n
			}
			s.HasExpiry = true
		default:
			return nil, errSyntax()
		}
	}
	if s.NX && s.XX {
		return nil, errSyntax()
	}
	if s.HasExpiry && s.KeepTTL {
		return nil, errSyntax()
	}
	return s, c.Finish()
}

func now() int64 { return nowMs() }

func errSyntax() error { return syntaxErr{} }

type syntaxErr struct{}

func (syntaxErr) Error() string { return "ERR syntax error" }

func (s *Set) ApplyExpiresWrite(d *dict.Dict, nowMs int64) (reply, slotExpiresStatus, error) {
	existing, exists := d.GetLive(s.Key, nowMs)

	if s.WantGet && exists && existing.Value.Kind != value.KindStr && existing.Value.Kind != value.KindInt {
		return nil, slotExpiresStatus{}, wrongType
	}

	if s.NX && exists {
		if s.WantGet {
			b, _ := existing.Value.AsBytes()
			return resp.Bulk(b), slotExpiresStatus{}, nil
		}
		return resp.NullBulk(), slotExpiresStatus{}, nil
	}
	if s.XX && !exists {
		return resp.NullBulk(), slotExpiresStatus{}, nil
	}

	var preReply reply = resp.OK()
	if s.WantGet {
		if exists {
			b, _ := existing.Value.AsBytes()
			preReply = resp.Bulk(b)
		} else {
			preReply = resp.NullBulk()
		}
	}

	before := int64(0)
	if exists {
		before = existing.ExpiresAt
	}
	newExpiresAt := int64(0)
	switch {
	case s.HasExpiry:
		newExpiresAt = s.ExpiresAt
	case s.KeepTTL && exists:
		newExpiresAt = existing.ExpiresAt
	}

	d.Mutate(s.Key, dict.Entry{Value: value.FromBytes(s.Val), ExpiresAt: newExpiresAt})

	status := slotExpiresStatus{}
	if before != newExpiresAt {
		status = slotExpiresStatus{Changed: true, Key: s.Key, Before: before, New: newExpiresAt}
	}
	return preReply, status, nil
}

func (s *Set) OpCode() forward.OpCode { return OpSet }

func (s *Set) EncodeBody(w *forward.Writer) error {
	if err := w.WritePackedStr(s.Key); err != nil {
		return err
	}
	if err := w.WritePackedString(s.Val); err != nil {
		return err
	}
	if err := w.WriteInt64(s.ExpiresAt); err != nil {
		return err
	}
	flags := byte(0)
	if s.HasExpiry {
		flags |= 1
	}
	if s.KeepTTL {
		flags |= 2
	}
	if s.NX {
		flags |= 4
	}
	if s.XX {
		flags |= 8
	}
	return w.WriteByte(flags)
}

func decodeSet(r *forward.Reader) (forward.Command, error) {
	key, err := r.ReadPackedStr()
	if err != nil {
		return nil, err
	}
	val, err := r.ReadPackedString()
	if err != nil {
		return nil, err
	}
	exp, err := r.ReadInt64()
	if err != nil {
		return nil, err
	}
	flags, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	return &Set{Key: key, Val: val, ExpiresAt: exp, HasExpiry: flags&1 != 0, KeepTTL: flags&2 != 0, NX: flags&4 != 0, XX: flags&8 != 0}, nil
}

func init() { forward.RegisterDecoder(OpSet, decodeSet) }

// --- SETEX / PSETEX ---

type SetEx struct {
	Key        string
	Val        []byte
	Seconds    int64
	IsMillis   bool
}

func parseSetExLike(c *resp.Cursor, millis bool) (*SetEx, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	ttl, err := c.NextInt()
	if err != nil {
		return nil, err
	}
	val, err := c.NextBytes()
	if err != nil {
		return nil, err
	}
	return &SetEx{Key: key, Val: val, Seconds: ttl, IsMillis: millis}, c.Finish()
}

func ParseSetEx(c *resp.Cursor) (*SetEx, error)  { return parseSetExLike(c, false) }
func ParsePSetEx(c *resp.Cursor) (*SetEx, error) { return parseSetExLike(c, true) }

func (s *SetEx) expiresAt(nowMs int64) int64 {
	if s.IsMillis {
		return nowMs + s.Seconds
	}
	return nowMs + s.Seconds*1000
}

func (s *SetEx) ApplyExpiresWrite(d *dict.Dict, nowMs int64) (reply, slotExpiresStatus, error) {
	existing, exists := d.Get(s.Key)
	before := int64(0)
	if exists {
		before = existing.ExpiresAt
	}
	newExpiresAt := s.expiresAt(nowMs)
	d.Mutate(s.Key, dict.Entry{Value: value.FromBytes(s.Val), ExpiresAt: newExpiresAt})
	return resp.OK(), slotExpiresStatus{Changed: before != newExpiresAt, Key: s.Key, Before: before, New: newExpiresAt}, nil
}

func (s *SetEx) OpCode() forward.OpCode { return OpSet }

func (s *SetEx) EncodeBody(w *forward.Writer) error {
	// SETEX/PSETEX forward as an equivalent absolute-expiry Set so
	// replicas apply the exact same wall-clock deadline rather than
	// recomputing "now" independently.
	eq := &Set{Key: s.Key, Val: s.Val, ExpiresAt: s.expiresAt(nowMs()), HasExpiry: true}
	return eq.EncodeBody(w)
}

// --- DEL ---

type Del struct{ Keys []string }

func ParseDel(c *resp.Cursor) (*Del, error) {
	if c.Remaining() == 0 {
		return nil, resp.ErrWrongArgs("del")
	}
	var keys []string
	for c.Remaining() > 0 {
		k, err := c.NextKey()
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return &Del{Keys: keys}, nil
}

// ApplyExpiresWrite deletes every key; only the LAST removed key's
// expiration status is reported upward (matching the single-Update
// shape apply_expires_write expects), the rest are cleared directly —
// DEL only ever shrinks the schedule, so no forward/notify ordering
// issue arises from folding multiple removals into one status report.
func (d *Del) ApplyExpiresWrite(dd *dict.Dict, nowMs int64) (reply, slotExpiresStatus, error) {
	n := int64(0)
	status := slotExpiresStatus{}
	for _, k := range d.Keys {
		e, ok := dd.Remove(k)
		if !ok {
			continue
		}
		n++
		if e.ExpiresAt > 0 {
			status = slotExpiresStatus{Changed: true, Key: k, Before: e.ExpiresAt, New: 0}
		}
	}
	return resp.Int(n), status, nil
}

func (d *Del) OpCode() forward.OpCode { return OpDel }

func (d *Del) EncodeBody(w *forward.Writer) error {
	if err := w.WritePackedUint(uint64(len(d.Keys))); err != nil {
		return err
	}
	for _, k := range d.Keys {
		if err := w.WritePackedStr(k); err != nil {
			return err
		}
	}
	return nil
}

func decodeDel(r *forward.Reader) (forward.Command, error) {
	n, err := r.ReadPackedUint()
	if err != nil {
		return nil, err
	}
	keys := make([]string, n)
	for i := range keys {
		k, err := r.ReadPackedStr()
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}
	return &Del{Keys: keys}, nil
}

func init() { forward.RegisterDecoder(OpDel, decodeDel) }

// --- EXISTS ---

type Exists struct{ Keys []string }

func ParseExists(c *resp.Cursor) (*Exists, error) {
	if c.Remaining() == 0 {
		return nil, resp.ErrWrongArgs("exists")
	}
	var keys []string
	for c.Remaining() > 0 {
		k, err := c.NextKey()
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return &Exists{Keys: keys}, nil
}

func (e *Exists) ApplyRead(d *dict.Dict, now int64) (reply, error) {
	n := int64(0)
	for _, k := range e.Keys {
		if _, ok := d.GetLive(k, now); ok {
			n++
		}
	}
	return resp.Int(n), nil
}

// --- EXPIRE family ---

// ExpireOpt names the mutually-exclusive EXPIRE option, spec.md §4.B.
type ExpireOpt int

const (
	ExpireNone ExpireOpt = iota
	ExpireNX
	ExpireXX
	ExpireGT
	ExpireLT
)

type Expire struct {
	Key       string
	DeltaMs   int64 // relative or absolute, normalized to ms by callers below
	Absolute  bool
	Opt       ExpireOpt
}

func parseExpireLike(c *resp.Cursor, unitMs int64, absolute bool) (*Expire, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	n, err := c.NextInt()
	if err != nil {
		return nil, err
	}
	e := &Expire{Key: key, DeltaMs: n * unitMs, Absolute: absolute}
	if opt, ok := c.PeekUpper(); ok {
		c.Skip()
		switch opt {
		case "NX":
			e.Opt = ExpireNX
		case "XX":
			e.Opt = ExpireXX
		case "GT":
			e.Opt = ExpireGT
		case "LT":
			e.Opt = ExpireLT
		default:
			return nil, errSyntax()
		}
	}
	return e, c.Finish()
}

func ParseExpire(c *resp.Cursor) (*Expire, error)      { return parseExpireLike(c, 1000, false) }
func ParsePExpire(c *resp.Cursor) (*Expire, error)     { return parseExpireLike(c, 1, false) }
func ParseExpireAt(c *resp.Cursor) (*Expire, error)    { return parseExpireLike(c, 1000, true) }
func ParsePExpireAt(c *resp.Cursor) (*Expire, error)   { return parseExpireLike(c, 1, true) }

func (e *Expire) resolveNew(nowMs int64) int64 {
	if e.Absolute {
		return e.DeltaMs
	}
	return nowMs + e.DeltaMs
}

// ApplyExpiresWrite implements spec.md §4.B's NX|XX|GT|LT semantics:
// current 0 (no TTL) is treated as +∞ for GT/LT comparisons.
func (e *Expire) ApplyExpiresWrite(d *dict.Dict, nowMs int64) (reply, slotExpiresStatus, error) {
	entry, exists := d.GetLive(e.Key, nowMs)
	if !exists {
		return resp.Int(0), slotExpiresStatus{}, nil
	}
	current := entry.ExpiresAt
	newAt := e.resolveNew(nowMs)

	ok := true
	switch e.Opt {
	case ExpireNX:
		ok = current == 0
	case ExpireXX:
		ok = current != 0
	case ExpireGT:
		effective := current
		if effective == 0 {
			effective = 1<<63 - 1
		}
		ok = newAt > effective
	case ExpireLT:
		effective := current
		if effective == 0 {
			effective = 1<<63 - 1
		}
		ok = newAt < effective
	}
	if !ok {
		return resp.Int(0), slotExpiresStatus{}, nil
	}
	entry.ExpiresAt = newAt
	d.Mutate(e.Key, entry)
	return resp.Int(1), slotExpiresStatus{Changed: current != newAt, Key: e.Key, Before: current, New: newAt}, nil
}

func (e *Expire) OpCode() forward.OpCode { return OpExpire }

func (e *Expire) EncodeBody(w *forward.Writer) error {
	if err := w.WritePackedStr(e.Key); err != nil {
		return err
	}
	// Forward the resolved absolute deadline so replicas never
	// recompute "now" themselves (same rationale as SETEX above),
	// plus the NX/XX/GT/LT option so a replica evaluates the same gate
	// against the same prior state.
	if err := w.WriteInt64(e.resolveNew(nowMs())); err != nil {
		return err
	}
	return w.WriteByte(byte(e.Opt))
}

func decodeExpire(r *forward.Reader) (forward.Command, error) {
	key, err := r.ReadPackedStr()
	if err != nil {
		return nil, err
	}
	at, err := r.ReadInt64()
	if err != nil {
		return nil, err
	}
	opt, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	return &Expire{Key: key, DeltaMs: at, Absolute: true, Opt: ExpireOpt(opt)}, nil
}

func init() { forward.RegisterDecoder(OpExpire, decodeExpire) }

// --- TTL / PTTL ---

type TTL struct {
	Key    string
	Millis bool
}

func ParseTTL(c *resp.Cursor) (*TTL, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	return &TTL{Key: key}, c.Finish()
}

func ParsePTTL(c *resp.Cursor) (*TTL, error) {
	t, err := ParseTTL(c)
	if t != nil {
		t.Millis = true
	}
	return t, err
}

func (t *TTL) ApplyRead(d *dict.Dict, now int64) (reply, error) {
	e, ok := d.GetLive(t.Key, now)
	if !ok {
		return resp.Int(-2), nil
	}
	if e.ExpiresAt == 0 {
		return resp.Int(-1), nil
	}
	remaining := e.ExpiresAt - now
	if remaining < 0 {
		remaining = 0
	}
	if t.Millis {
		return resp.Int(remaining), nil
	}
	return resp.Int((remaining + 999) / 1000), nil
}

// --- INCR family ---

type IncrBy struct {
	Key   string
	Delta int64
}

func ParseIncr(c *resp.Cursor) (*IncrBy, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	return &IncrBy{Key: key, Delta: 1}, c.Finish()
}

func ParseDecr(c *resp.Cursor) (*IncrBy, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	return &IncrBy{Key: key, Delta: -1}, c.Finish()
}

func parseIncrByLike(c *resp.Cursor, sign int64) (*IncrBy, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	n, err := c.NextInt()
	if err != nil {
		return nil, err
	}
	return &IncrBy{Key: key, Delta: sign * n}, c.Finish()
}

func ParseIncrBy(c *resp.Cursor) (*IncrBy, error) { return parseIncrByLike(c, 1) }
func ParseDecrBy(c *resp.Cursor) (*IncrBy, error) { return parseIncrByLike(c, -1) }

func (ib *IncrBy) ApplyWrite(d *dict.Dict, now int64) (reply, error) {
	n, err := d.Incr(ib.Key, ib.Delta, now)
	if err != nil {
		return nil, err
	}
	return resp.Int(n), nil
}

func (ib *IncrBy) OpCode() forward.OpCode { return OpIncrBy }

func (ib *IncrBy) EncodeBody(w *forward.Writer) error {
	if err := w.WritePackedStr(ib.Key); err != nil {
		return err
	}
	return w.WriteInt64(ib.Delta)
}

func decodeIncrBy(r *forward.Reader) (forward.Command, error) {
	key, err := r.ReadPackedStr()
	if err != nil {
		return nil, err
	}
	delta, err := r.ReadInt64()
	if err != nil {
		return nil, err
	}
	return &IncrBy{Key: key, Delta: delta}, nil
}

func init() { forward.RegisterDecoder(OpIncrBy, decodeIncrBy) }

// --- PING ---

// Ping never reaches a Slot; the dispatcher answers it directly.
type Ping struct{ Msg []byte }

func ParsePing(c *resp.Cursor) (*Ping, error) {
	if c.Remaining() == 0 {
		return &Ping{}, nil
	}
	b, err := c.NextBytes()
	if err != nil {
		return nil, err
	}
	return &Ping{Msg: b}, c.Finish()
}

func (p *Ping) Reply() resp.Frame {
	if p.Msg == nil {
		return resp.Simple("PONG")
	}
	return resp.Bulk(p.Msg)
}
