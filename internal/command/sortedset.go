package command

import (
	"strconv"
	"strings"

	"rudis/internal/dict"
	"rudis/internal/forward"
	"rudis/internal/resp"
	"rudis/internal/value"
)

func parseScoreBound(s string) (value.ScoreBound, error) {
	switch s {
	case "-inf":
		return value.ScoreBound{Infinite: -1}, nil
	case "+inf", "inf":
		return value.ScoreBound{Infinite: 1}, nil
	}
	exclusive := false
	if strings.HasPrefix(s, "(") {
		exclusive = true
		s = s[1:]
	}
	f, err := value.ParseFloat(s)
	if err != nil {
		return value.ScoreBound{}, err
	}
	return value.ScoreBound{Value: f, Exclusive: exclusive}, nil
}

func parseLexBound(s string) (value.LexBound, error) {
	switch s {
	case "-":
		return value.LexBound{Infinite: -1}, nil
	case "+":
		return value.LexBound{Infinite: 1}, nil
	}
	if strings.HasPrefix(s, "[") {
		return value.LexBound{Value: s[1:]}, nil
	}
	if strings.HasPrefix(s, "(") {
		return value.LexBound{Value: s[1:], Exclusive: true}, nil
	}
	return value.LexBound{}, errSyntax()
}

func renderNodes(nodes []value.Node, withScores bool) resp.Frame {
	out := make([]resp.Frame, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, resp.BulkString(n.Key))
		if withScores {
			out = append(out, resp.BulkString(value.FormatFloat(n.Score)))
		}
	}
	return resp.Array(out)
}

// --- ZADD ---

type ZAdd struct {
	Key     string
	Nodes   []value.Node
	NxXx    value.NxXx
	GtLt    value.GtLt
	CH      bool
	Incr    bool
}

func ParseZAdd(c *resp.Cursor) (*ZAdd, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	z := &ZAdd{Key: key}
	for {
		opt, ok := c.PeekUpper()
		if !ok {
			return nil, resp.ErrWrongArgs("zadd")
		}
		switch opt {
		case "NX":
			c.Skip()
			z.NxXx = value.NxXxNx
			continue
		case "XX":
			c.Skip()
			z.NxXx = value.NxXxXx
			continue
		case "GT":
			c.Skip()
			z.GtLt = value.GtLtGt
			continue
		case "LT":
			c.Skip()
			z.GtLt = value.GtLtLt
			continue
		case "CH":
			c.Skip()
			z.CH = true
			continue
		case "INCR":
			c.Skip()
			z.Incr = true
			continue
		}
		break
	}
	if z.NxXx == value.NxXxNx && z.GtLt != value.GtLtNone {
		return nil, errSyntax()
	}
	if c.Remaining() == 0 || c.Remaining()%2 != 0 {
		return nil, resp.ErrWrongArgs("zadd")
	}
	for c.Remaining() > 0 {
		scoreStr, err := c.NextString()
		if err != nil {
			return nil, err
		}
		score, err := value.ParseFloat(scoreStr)
		if err != nil {
			return nil, err
		}
		member, err := c.NextString()
		if err != nil {
			return nil, err
		}
		z.Nodes = append(z.Nodes, value.Node{Key: member, Score: score})
	}
	if z.Incr && len(z.Nodes) != 1 {
		return nil, errSyntax()
	}
	return z, nil
}

func (z *ZAdd) ApplyWrite(d *dict.Dict, now int64) (reply, error) {
	e := d.GetOrInsertWith(z.Key, now, func() value.Value {
		return value.Value{Kind: value.KindSortedSet, SortedSet: value.NewSortedSet()}
	})
	if e.Value.Kind != value.KindSortedSet {
		return nil, wrongType
	}
	ss := e.Value.SortedSet

	if z.Incr {
		n := z.Nodes[0]
		_, existed := ss.Score(n.Key)
		if z.NxXx == value.NxXxNx && existed {
			return resp.NullBulk(), nil
		}
		if z.NxXx == value.NxXxXx && !existed {
			return resp.NullBulk(), nil
		}
		res := ss.Add(z.Nodes, z.NxXx, z.GtLt, true)
		if res.UpdateLen == 0 {
			return resp.NullBulk(), nil
		}
		newScore, _ := ss.Score(n.Key)
		d.Mutate(z.Key, e)
		return resp.BulkString(value.FormatFloat(newScore)), nil
	}

	res := ss.Add(z.Nodes, z.NxXx, z.GtLt, false)
	d.Mutate(z.Key, e)
	added := int64(res.NewLen - res.OldLen)
	if z.CH {
		return resp.Int(int64(res.UpdateLen)), nil
	}
	return resp.Int(added), nil
}

func (z *ZAdd) OpCode() forward.OpCode { return OpZAdd }

func (z *ZAdd) EncodeBody(w *forward.Writer) error {
	if err := w.WritePackedStr(z.Key); err != nil {
		return err
	}
	if err := w.WritePackedUint(uint64(z.NxXx)); err != nil {
		return err
	}
	if err := w.WritePackedUint(uint64(z.GtLt)); err != nil {
		return err
	}
	flags := byte(0)
	if z.CH {
		flags |= 1
	}
	if z.Incr {
		flags |= 2
	}
	if err := w.WriteByte(flags); err != nil {
		return err
	}
	if err := w.WritePackedUint(uint64(len(z.Nodes))); err != nil {
		return err
	}
	for _, n := range z.Nodes {
		if err := w.WritePackedStr(n.Key); err != nil {
			return err
		}
		if err := w.WriteFloat64(float64(n.Score)); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	forward.RegisterDecoder(OpZAdd, func(r *forward.Reader) (forward.Command, error) {
		key, err := r.ReadPackedStr()
		if err != nil {
			return nil, err
		}
		nxXx, err := r.ReadPackedUint()
		if err != nil {
			return nil, err
		}
		gtLt, err := r.ReadPackedUint()
		if err != nil {
			return nil, err
		}
		flags, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		n, err := r.ReadPackedUint()
		if err != nil {
			return nil, err
		}
		nodes := make([]value.Node, n)
		for i := range nodes {
			k, err := r.ReadPackedStr()
			if err != nil {
				return nil, err
			}
			s, err := r.ReadFloat64()
			if err != nil {
				return nil, err
			}
			nodes[i] = value.Node{Key: k, Score: value.Float(s)}
		}
		return &ZAdd{
			Key: key, Nodes: nodes,
			NxXx: value.NxXx(nxXx), GtLt: value.GtLt(gtLt),
			CH: flags&1 != 0, Incr: flags&2 != 0,
		}, nil
	})
}

// --- ZREM ---

type ZRem struct {
	Key     string
	Members []string
}

func ParseZRem(c *resp.Cursor) (*ZRem, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	if c.Remaining() == 0 {
		return nil, resp.ErrWrongArgs("zrem")
	}
	var members []string
	for c.Remaining() > 0 {
		m, err := c.NextString()
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return &ZRem{Key: key, Members: members}, nil
}

func (z *ZRem) ApplyWrite(d *dict.Dict, now int64) (reply, error) {
	ss, ok, err := asSortedSet(d, z.Key, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return resp.Int(0), nil
	}
	return resp.Int(int64(ss.Remove(z.Members...))), nil
}

func (z *ZRem) OpCode() forward.OpCode { return OpZRem }

func (z *ZRem) EncodeBody(w *forward.Writer) error {
	if err := w.WritePackedStr(z.Key); err != nil {
		return err
	}
	if err := w.WritePackedUint(uint64(len(z.Members))); err != nil {
		return err
	}
	for _, m := range z.Members {
		if err := w.WritePackedStr(m); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	forward.RegisterDecoder(OpZRem, func(r *forward.Reader) (forward.Command, error) {
		key, err := r.ReadPackedStr()
		if err != nil {
			return nil, err
		}
		n, err := r.ReadPackedUint()
		if err != nil {
			return nil, err
		}
		members := make([]string, n)
		for i := range members {
			m, err := r.ReadPackedStr()
			if err != nil {
				return nil, err
			}
			members[i] = m
		}
		return &ZRem{Key: key, Members: members}, nil
	})
}

// --- ZRANK / ZREVRANK ---

type ZRank struct {
	Key, Member string
	Rev         bool
}

func parseZRank(c *resp.Cursor, rev bool) (*ZRank, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	m, err := c.NextString()
	if err != nil {
		return nil, err
	}
	return &ZRank{Key: key, Member: m, Rev: rev}, c.Finish()
}

func ParseZRank(c *resp.Cursor) (*ZRank, error)    { return parseZRank(c, false) }
func ParseZRevRank(c *resp.Cursor) (*ZRank, error) { return parseZRank(c, true) }

func (z *ZRank) ApplyRead(d *dict.Dict, now int64) (reply, error) {
	ss, ok, err := asSortedSet(d, z.Key, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return resp.NullBulk(), nil
	}
	r := ss.RankOf(z.Member, z.Rev)
	if r < 0 {
		return resp.NullBulk(), nil
	}
	return resp.Int(int64(r)), nil
}

// --- ZRANGE family (reads) ---

// ZRangeMode selects which of ZRANGE's BYSCORE/BYLEX/rank-default modes applies.
type ZRangeMode int

const (
	ZRangeByRank ZRangeMode = iota
	ZRangeByScore
	ZRangeByLex
)

type ZRange struct {
	Key        string
	Mode       ZRangeMode
	RankStart  int
	RankStop   int
	ScoreMin   value.ScoreBound
	ScoreMax   value.ScoreBound
	LexMin     value.LexBound
	LexMax     value.LexBound
	Rev        bool
	WithScores bool
	HasLimit   bool
	Offset     int
	Count      int
}

func ParseZRange(c *resp.Cursor) (*ZRange, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	startStr, err := c.NextString()
	if err != nil {
		return nil, err
	}
	stopStr, err := c.NextString()
	if err != nil {
		return nil, err
	}
	z := &ZRange{Key: key, Mode: ZRangeByRank}
	for {
		opt, ok := c.PeekUpper()
		if !ok {
			break
		}
		switch opt {
		case "BYSCORE":
			c.Skip()
			z.Mode = ZRangeByScore
		case "BYLEX":
			c.Skip()
			z.Mode = ZRangeByLex
		case "REV":
			c.Skip()
			z.Rev = true
		case "WITHSCORES":
			c.Skip()
			z.WithScores = true
		case "LIMIT":
			c.Skip()
			off, err := c.NextInt()
			if err != nil {
				return nil, err
			}
			cnt, err := c.NextInt()
			if err != nil {
				return nil, err
			}
			z.HasLimit = true
			z.Offset = int(off)
			z.Count = int(cnt)
		default:
			return nil, errSyntax()
		}
	}
	switch z.Mode {
	case ZRangeByRank:
		a, err := parseInt(startStr)
		if err != nil {
			return nil, err
		}
		b, err := parseInt(stopStr)
		if err != nil {
			return nil, err
		}
		z.RankStart, z.RankStop = a, b
	case ZRangeByScore:
		min, max := startStr, stopStr
		if z.Rev {
			min, max = stopStr, startStr
		}
		z.ScoreMin, err = parseScoreBound(min)
		if err != nil {
			return nil, err
		}
		z.ScoreMax, err = parseScoreBound(max)
		if err != nil {
			return nil, err
		}
	case ZRangeByLex:
		min, max := startStr, stopStr
		if z.Rev {
			min, max = stopStr, startStr
		}
		z.LexMin, err = parseLexBound(min)
		if err != nil {
			return nil, err
		}
		z.LexMax, err = parseLexBound(max)
		if err != nil {
			return nil, err
		}
	}
	return z, c.Finish()
}

func parseInt(s string) (int, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errSyntax()
	}
	return int(n), nil
}

func (z *ZRange) ApplyRead(d *dict.Dict, now int64) (reply, error) {
	ss, ok, err := asSortedSet(d, z.Key, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return resp.Array(nil), nil
	}
	var nodes []value.Node
	switch z.Mode {
	case ZRangeByRank:
		nodes = ss.RangeByRank(z.RankStart, z.RankStop, z.Rev)
	case ZRangeByScore:
		nodes = ss.RangeByScore(z.ScoreMin, z.ScoreMax)
		if z.Rev {
			nodes = reverseNodes(nodes)
		}
		nodes = applyLimit(nodes, z.HasLimit, z.Offset, z.Count)
	case ZRangeByLex:
		nodes = ss.RangeByLex(z.LexMin, z.LexMax)
		if z.Rev {
			nodes = reverseNodes(nodes)
		}
		nodes = applyLimit(nodes, z.HasLimit, z.Offset, z.Count)
	}
	return renderNodes(nodes, z.WithScores), nil
}

func reverseNodes(nodes []value.Node) []value.Node {
	out := make([]value.Node, len(nodes))
	for i, n := range nodes {
		out[len(nodes)-1-i] = n
	}
	return out
}

func applyLimit(nodes []value.Node, has bool, offset, count int) []value.Node {
	if !has {
		return nodes
	}
	if offset < 0 || offset >= len(nodes) {
		return []value.Node{}
	}
	end := len(nodes)
	if count >= 0 && offset+count < end {
		end = offset + count
	}
	return nodes[offset:end]
}

// --- ZRANGEBYLEX / ZRANGEBYSCORE / ZREVRANGE / ZREVRANGEBYLEX / ZREVRANGEBYSCORE ---
// Thin convenience wrappers over ZRange's unified apply, matching the
// legacy Redis command names spec.md lists alongside the unified ZRANGE.

func ParseZRangeByScore(c *resp.Cursor) (*ZRange, error) { return parseLegacyByScore(c, false) }
func ParseZRevRangeByScore(c *resp.Cursor) (*ZRange, error) { return parseLegacyByScore(c, true) }
func ParseZRangeByLex(c *resp.Cursor) (*ZRange, error)   { return parseLegacyByLex(c, false) }
func ParseZRevRangeByLex(c *resp.Cursor) (*ZRange, error) { return parseLegacyByLex(c, true) }
func ParseZRevRange(c *resp.Cursor) (*ZRange, error)     { return parseLegacyByRank(c, true) }

func parseLegacyByRank(c *resp.Cursor, rev bool) (*ZRange, error) {
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
	z := &ZRange{Key: key, Mode: ZRangeByRank, RankStart: int(start), RankStop: int(stop), Rev: rev}
	if opt, ok := c.PeekUpper(); ok && opt == "WITHSCORES" {
		c.Skip()
		z.WithScores = true
	}
	return z, c.Finish()
}

func parseLegacyByScore(c *resp.Cursor, rev bool) (*ZRange, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	a, err := c.NextString()
	if err != nil {
		return nil, err
	}
	b, err := c.NextString()
	if err != nil {
		return nil, err
	}
	minStr, maxStr := a, b
	if rev {
		minStr, maxStr = b, a
	}
	z := &ZRange{Key: key, Mode: ZRangeByScore, Rev: rev}
	z.ScoreMin, err = parseScoreBound(minStr)
	if err != nil {
		return nil, err
	}
	z.ScoreMax, err = parseScoreBound(maxStr)
	if err != nil {
		return nil, err
	}
	for {
		opt, ok := c.PeekUpper()
		if !ok {
			break
		}
		switch opt {
		case "WITHSCORES":
			c.Skip()
			z.WithScores = true
		case "LIMIT":
			c.Skip()
			off, err := c.NextInt()
			if err != nil {
				return nil, err
			}
			cnt, err := c.NextInt()
			if err != nil {
				return nil, err
			}
			z.HasLimit, z.Offset, z.Count = true, int(off), int(cnt)
		default:
			return nil, errSyntax()
		}
	}
	return z, c.Finish()
}

func parseLegacyByLex(c *resp.Cursor, rev bool) (*ZRange, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	a, err := c.NextString()
	if err != nil {
		return nil, err
	}
	b, err := c.NextString()
	if err != nil {
		return nil, err
	}
	minStr, maxStr := a, b
	if rev {
		minStr, maxStr = b, a
	}
	z := &ZRange{Key: key, Mode: ZRangeByLex, Rev: rev}
	z.LexMin, err = parseLexBound(minStr)
	if err != nil {
		return nil, err
	}
	z.LexMax, err = parseLexBound(maxStr)
	if err != nil {
		return nil, err
	}
	if opt, ok := c.PeekUpper(); ok && opt == "LIMIT" {
		c.Skip()
		off, err := c.NextInt()
		if err != nil {
			return nil, err
		}
		cnt, err := c.NextInt()
		if err != nil {
			return nil, err
		}
		z.HasLimit, z.Offset, z.Count = true, int(off), int(cnt)
	}
	return z, c.Finish()
}

// --- ZREMRANGEBYRANK / ZREMRANGEBYSCORE / ZREMRANGEBYLEX ---

type ZRemRangeByRank struct {
	Key         string
	Start, Stop int
}

func ParseZRemRangeByRank(c *resp.Cursor) (*ZRemRangeByRank, error) {
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
	return &ZRemRangeByRank{Key: key, Start: int(start), Stop: int(stop)}, c.Finish()
}

func (z *ZRemRangeByRank) ApplyWrite(d *dict.Dict, now int64) (reply, error) {
	ss, ok, err := asSortedSet(d, z.Key, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return resp.Int(0), nil
	}
	return resp.Int(int64(ss.RemoveByRank(z.Start, z.Stop))), nil
}

func (z *ZRemRangeByRank) OpCode() forward.OpCode { return OpZRemRangeByRank }

func (z *ZRemRangeByRank) EncodeBody(w *forward.Writer) error {
	if err := w.WritePackedStr(z.Key); err != nil {
		return err
	}
	if err := w.WriteInt64(int64(z.Start)); err != nil {
		return err
	}
	return w.WriteInt64(int64(z.Stop))
}

func init() {
	forward.RegisterDecoder(OpZRemRangeByRank, func(r *forward.Reader) (forward.Command, error) {
		key, err := r.ReadPackedStr()
		if err != nil {
			return nil, err
		}
		start, err := r.ReadInt64()
		if err != nil {
			return nil, err
		}
		stop, err := r.ReadInt64()
		if err != nil {
			return nil, err
		}
		return &ZRemRangeByRank{Key: key, Start: int(start), Stop: int(stop)}, nil
	})
}

type ZRemRangeByScore struct {
	Key      string
	Min, Max value.ScoreBound
}

func ParseZRemRangeByScore(c *resp.Cursor) (*ZRemRangeByScore, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	a, err := c.NextString()
	if err != nil {
		return nil, err
	}
	b, err := c.NextString()
	if err != nil {
		return nil, err
	}
	min, err := parseScoreBound(a)
	if err != nil {
		return nil, err
	}
	max, err := parseScoreBound(b)
	if err != nil {
		return nil, err
	}
	return &ZRemRangeByScore{Key: key, Min: min, Max: max}, c.Finish()
}

func (z *ZRemRangeByScore) ApplyWrite(d *dict.Dict, now int64) (reply, error) {
	ss, ok, err := asSortedSet(d, z.Key, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return resp.Int(0), nil
	}
	return resp.Int(int64(ss.RemoveByScore(z.Min, z.Max))), nil
}

func (z *ZRemRangeByScore) OpCode() forward.OpCode { return OpZRemRangeByScore }

func (z *ZRemRangeByScore) EncodeBody(w *forward.Writer) error {
	if err := w.WritePackedStr(z.Key); err != nil {
		return err
	}
	if err := encodeScoreBound(w, z.Min); err != nil {
		return err
	}
	return encodeScoreBound(w, z.Max)
}

func encodeScoreBound(w *forward.Writer, b value.ScoreBound) error {
	if err := w.WriteInt64(int64(b.Infinite)); err != nil {
		return err
	}
	flags := byte(0)
	if b.Exclusive {
		flags = 1
	}
	if err := w.WriteByte(flags); err != nil {
		return err
	}
	return w.WriteFloat64(float64(b.Value))
}

func decodeScoreBound(r *forward.Reader) (value.ScoreBound, error) {
	inf, err := r.ReadInt64()
	if err != nil {
		return value.ScoreBound{}, err
	}
	flags, err := r.ReadByte()
	if err != nil {
		return value.ScoreBound{}, err
	}
	f, err := r.ReadFloat64()
	if err != nil {
		return value.ScoreBound{}, err
	}
	return value.ScoreBound{Value: value.Float(f), Exclusive: flags&1 != 0, Infinite: int(inf)}, nil
}

func init() {
	forward.RegisterDecoder(OpZRemRangeByScore, func(r *forward.Reader) (forward.Command, error) {
		key, err := r.ReadPackedStr()
		if err != nil {
			return nil, err
		}
		min, err := decodeScoreBound(r)
		if err != nil {
			return nil, err
		}
		max, err := decodeScoreBound(r)
		if err != nil {
			return nil, err
		}
		return &ZRemRangeByScore{Key: key, Min: min, Max: max}, nil
	})
}

type ZRemRangeByLex struct {
	Key      string
	Min, Max value.LexBound
}

func ParseZRemRangeByLex(c *resp.Cursor) (*ZRemRangeByLex, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	a, err := c.NextString()
	if err != nil {
		return nil, err
	}
	b, err := c.NextString()
	if err != nil {
		return nil, err
	}
	min, err := parseLexBound(a)
	if err != nil {
		return nil, err
	}
	max, err := parseLexBound(b)
	if err != nil {
		return nil, err
	}
	return &ZRemRangeByLex{Key: key, Min: min, Max: max}, c.Finish()
}

func (z *ZRemRangeByLex) ApplyWrite(d *dict.Dict, now int64) (reply, error) {
	ss, ok, err := asSortedSet(d, z.Key, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return resp.Int(0), nil
	}
	return resp.Int(int64(ss.RemoveByLex(z.Min, z.Max))), nil
}

func (z *ZRemRangeByLex) OpCode() forward.OpCode { return OpZRemRangeByLex }

func (z *ZRemRangeByLex) EncodeBody(w *forward.Writer) error {
	if err := w.WritePackedStr(z.Key); err != nil {
		return err
	}
	if err := encodeLexBound(w, z.Min); err != nil {
		return err
	}
	return encodeLexBound(w, z.Max)
}

func encodeLexBound(w *forward.Writer, b value.LexBound) error {
	if err := w.WriteInt64(int64(b.Infinite)); err != nil {
		return err
	}
	flags := byte(0)
	if b.Exclusive {
		flags = 1
	}
	if err := w.WriteByte(flags); err != nil {
		return err
	}
	return w.WritePackedStr(b.Value)
}

func decodeLexBound(r *forward.Reader) (value.LexBound, error) {
	inf, err := r.ReadInt64()
	if err != nil {
		return value.LexBound{}, err
	}
	flags, err := r.ReadByte()
	if err != nil {
		return value.LexBound{}, err
	}
	v, err := r.ReadPackedStr()
	if err != nil {
		return value.LexBound{}, err
	}
	return value.LexBound{Value: v, Exclusive: flags&1 != 0, Infinite: int(inf)}, nil
}

func init() {
	forward.RegisterDecoder(OpZRemRangeByLex, func(r *forward.Reader) (forward.Command, error) {
		key, err := r.ReadPackedStr()
		if err != nil {
			return nil, err
		}
		min, err := decodeLexBound(r)
		if err != nil {
			return nil, err
		}
		max, err := decodeLexBound(r)
		if err != nil {
			return nil, err
		}
		return &ZRemRangeByLex{Key: key, Min: min, Max: max}, nil
	})
}
