package command

import (
	"rudis/internal/dict"
	"rudis/internal/forward"
	"rudis/internal/resp"
	"rudis/internal/value"
)

// --- SADD ---

type SAdd struct {
	Key    string
	Member [][]byte
}

func ParseSAdd(c *resp.Cursor) (*SAdd, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	if c.Remaining() == 0 {
		return nil, resp.ErrWrongArgs("sadd")
	}
	var members [][]byte
	for c.Remaining() > 0 {
		m, err := c.NextBytes()
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return &SAdd{Key: key, Member: members}, nil
}

func (s *SAdd) ApplyWrite(d *dict.Dict, now int64) (reply, error) {
	e := d.GetOrInsertWith(s.Key, now, func() value.Value {
		return value.Value{Kind: value.KindSet, Set: make(map[string]struct{})}
	})
	if e.Value.Kind != value.KindSet {
		return nil, wrongType
	}
	added := int64(0)
	for _, m := range s.Member {
		k := string(m)
		if _, exists := e.Value.Set[k]; !exists {
			e.Value.Set[k] = struct{}{}
			added++
		}
	}
	d.Mutate(s.Key, e)
	return resp.Int(added), nil
}

func (s *SAdd) OpCode() forward.OpCode { return OpSAdd }

func (s *SAdd) EncodeBody(w *forward.Writer) error {
	if err := w.WritePackedStr(s.Key); err != nil {
		return err
	}
	if err := w.WritePackedUint(uint64(len(s.Member))); err != nil {
		return err
	}
	for _, m := range s.Member {
		if err := w.WritePackedString(m); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	forward.RegisterDecoder(OpSAdd, func(r *forward.Reader) (forward.Command, error) {
		key, err := r.ReadPackedStr()
		if err != nil {
			return nil, err
		}
		n, err := r.ReadPackedUint()
		if err != nil {
			return nil, err
		}
		members := make([][]byte, n)
		for i := range members {
			m, err := r.ReadPackedString()
			if err != nil {
				return nil, err
			}
			members[i] = m
		}
		return &SAdd{Key: key, Member: members}, nil
	})
}

// --- SREM ---

type SRem struct {
	Key    string
	Member [][]byte
}

func ParseSRem(c *resp.Cursor) (*SRem, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	if c.Remaining() == 0 {
		return nil, resp.ErrWrongArgs("srem")
	}
	var members [][]byte
	for c.Remaining() > 0 {
		m, err := c.NextBytes()
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return &SRem{Key: key, Member: members}, nil
}

func (s *SRem) ApplyWrite(d *dict.Dict, now int64) (reply, error) {
	set, ok, err := asSet(d, s.Key, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return resp.Int(0), nil
	}
	removed := int64(0)
	for _, m := range s.Member {
		k := string(m)
		if _, exists := set[k]; exists {
			delete(set, k)
			removed++
		}
	}
	return resp.Int(removed), nil
}

func (s *SRem) OpCode() forward.OpCode { return OpSRem }

func (s *SRem) EncodeBody(w *forward.Writer) error {
	if err := w.WritePackedStr(s.Key); err != nil {
		return err
	}
	if err := w.WritePackedUint(uint64(len(s.Member))); err != nil {
		return err
	}
	for _, m := range s.Member {
		if err := w.WritePackedString(m); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	forward.RegisterDecoder(OpSRem, func(r *forward.Reader) (forward.Command, error) {
		key, err := r.ReadPackedStr()
		if err != nil {
			return nil, err
		}
		n, err := r.ReadPackedUint()
		if err != nil {
			return nil, err
		}
		members := make([][]byte, n)
		for i := range members {
			m, err := r.ReadPackedString()
			if err != nil {
				return nil, err
			}
			members[i] = m
		}
		return &SRem{Key: key, Member: members}, nil
	})
}

// --- SISMEMBER / SMISMEMBER / SMEMBERS (reads) ---

type SIsMember struct {
	Key    string
	Member []byte
}

func ParseSIsMember(c *resp.Cursor) (*SIsMember, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	m, err := c.NextBytes()
	if err != nil {
		return nil, err
	}
	return &SIsMember{Key: key, Member: m}, c.Finish()
}

func (s *SIsMember) ApplyRead(d *dict.Dict, now int64) (reply, error) {
	set, ok, err := asSet(d, s.Key, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return resp.Bool(false), nil
	}
	_, exists := set[string(s.Member)]
	return resp.Bool(exists), nil
}

type SMIsMember struct {
	Key     string
	Members [][]byte
}

func ParseSMIsMember(c *resp.Cursor) (*SMIsMember, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	if c.Remaining() == 0 {
		return nil, resp.ErrWrongArgs("smismember")
	}
	var members [][]byte
	for c.Remaining() > 0 {
		m, err := c.NextBytes()
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return &SMIsMember{Key: key, Members: members}, nil
}

func (s *SMIsMember) ApplyRead(d *dict.Dict, now int64) (reply, error) {
	set, ok, err := asSet(d, s.Key, now)
	if err != nil {
		return nil, err
	}
	out := make([]resp.Frame, len(s.Members))
	for i, m := range s.Members {
		exists := false
		if ok {
			_, exists = set[string(m)]
		}
		out[i] = resp.Bool(exists)
	}
	return resp.Array(out), nil
}

type SMembers struct{ Key string }

func ParseSMembers(c *resp.Cursor) (*SMembers, error) {
	key, err := c.NextKey()
	if err != nil {
		return nil, err
	}
	return &SMembers{Key: key}, c.Finish()
}

func (s *SMembers) ApplyRead(d *dict.Dict, now int64) (reply, error) {
	set, ok, err := asSet(d, s.Key, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return resp.Array(nil), nil
	}
	out := make([]resp.Frame, 0, len(set))
	for m := range set {
		out = append(out, resp.BulkString(m))
	}
	return resp.Array(out), nil
}
