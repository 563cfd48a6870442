package value

import "sort"

// Node is one member of a SortedSet: a (score, key) pair.
type Node struct {
	Key   string
	Score Float
}

// less implements the SortedSet's total order: (score, key) ascending,
// ties broken by key, per spec.md §3.
func (n Node) less(o Node) bool {
	if n.Score != o.Score {
		return n.Score.Less(o.Score)
	}
	return n.Key < o.Key
}

// SortedSet is the composite hash+ordered structure described in
// spec.md §3/§4.A: a key->Node map for O(1) score lookup plus an
// ascending-ordered slice for range/rank queries. Grounded on
// original_source component/dict/src/cmd/sorted_set/add.rs, which
// keeps the same dual structure (hash + ordered "value" side) and
// re-establishes the pairing on every add/remove (invariant P6).
type SortedSet struct {
	hash    map[string]Node
	ordered []Node // always kept sorted ascending
}

// NewSortedSet returns an empty sorted set.
func NewSortedSet() *SortedSet {
	return &SortedSet{hash: make(map[string]Node)}
}

// Len reports the number of members.
func (s *SortedSet) Len() int { return len(s.hash) }

// Clone returns a deep copy, isolated from further mutation of s.
func (s *SortedSet) Clone() *SortedSet {
	clone := &SortedSet{
		hash:    make(map[string]Node, len(s.hash)),
		ordered: make([]Node, len(s.ordered)),
	}
	for k, n := range s.hash {
		clone.hash[k] = n
	}
	copy(clone.ordered, s.ordered)
	return clone
}

// Score returns the member's score and whether it exists.
func (s *SortedSet) Score(key string) (Float, bool) {
	n, ok := s.hash[key]
	return n.Score, ok
}

func (s *SortedSet) search(n Node) int {
	return sort.Search(len(s.ordered), func(i int) bool {
		return !s.ordered[i].less(n)
	})
}

func (s *SortedSet) removeOrdered(n Node) {
	i := s.search(n)
	if i < len(s.ordered) && s.ordered[i] == n {
		s.ordered = append(s.ordered[:i], s.ordered[i+1:]...)
	}
}

func (s *SortedSet) insertOrdered(n Node) {
	i := s.search(n)
	s.ordered = append(s.ordered, Node{})
	copy(s.ordered[i+1:], s.ordered[i:])
	s.ordered[i] = n
}

// NxXx mirrors the ZADD NX/XX option.
type NxXx uint8

const (
	NxXxNone NxXx = iota
	NxXxNx
	NxXxXx
)

// GtLt mirrors the ZADD GT/LT option.
type GtLt uint8

const (
	GtLtNone GtLt = iota
	GtLtGt
	GtLtLt
)

// AddResult reports how many members were newly inserted vs updated,
// letting ZADD compute both CH and non-CH return values (spec.md §4.B).
type AddResult struct {
	OldLen    int
	NewLen    int
	UpdateLen int
}

// Add applies ZADD semantics for a batch of (member,score) pairs in one
// pass, exactly mirroring the can_update decision table in
// original_source component/dict/src/cmd/sorted_set/add.rs.
func (s *SortedSet) Add(nodes []Node, nxXx NxXx, gtLt GtLt, incr bool) AddResult {
	oldLen := len(s.hash)
	updateLen := 0
	for _, n := range nodes {
		existing, exists := s.hash[n.Key]
		canUpdate := false
		switch {
		case nxXx == NxXxNx && gtLt == GtLtNone:
			canUpdate = !exists
		case nxXx == NxXxNx:
			canUpdate = false
		case gtLt == GtLtGt:
			canUpdate = exists && existing.Score.Less(n.Score)
		case gtLt == GtLtLt:
			canUpdate = exists && n.Score.Less(existing.Score)
		case nxXx == NxXxXx && gtLt == GtLtNone:
			canUpdate = exists
		case nxXx == NxXxNone && gtLt == GtLtNone:
			canUpdate = true
		}
		if !canUpdate {
			continue
		}
		updateLen++
		if exists {
			s.removeOrdered(existing)
			if incr {
				n.Score = Float(float64(n.Score) + float64(existing.Score))
			}
		}
		s.hash[n.Key] = n
		s.insertOrdered(n)
	}
	return AddResult{OldLen: oldLen, NewLen: len(s.hash), UpdateLen: updateLen}
}

// Remove deletes members by key, returning the count actually removed.
func (s *SortedSet) Remove(keys ...string) int {
	removed := 0
	for _, k := range keys {
		if n, ok := s.hash[k]; ok {
			delete(s.hash, k)
			s.removeOrdered(n)
			removed++
		}
	}
	return removed
}

// RankOf returns the 0-based ascending rank of key, or -1 if absent.
// rev=true yields the descending-rank position instead (spec.md §4.A).
func (s *SortedSet) RankOf(key string, rev bool) int {
	n, ok := s.hash[key]
	if !ok {
		return -1
	}
	i := s.search(n)
	if rev {
		return len(s.ordered) - 1 - i
	}
	return i
}

// RangeByRank returns ascending-order nodes in [start,stop] (Redis-style
// negative indices, clamped, start>stop -> empty), optionally reversed
// before indexing (ZREVRANGE).
func (s *SortedSet) RangeByRank(start, stop int, rev bool) []Node {
	n := len(s.ordered)
	start = normalizeIndex(start, n)
	stop = normalizeIndex(stop, n)
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop || start >= n {
		return []Node{}
	}
	out := make([]Node, stop-start+1)
	if rev {
		for i := range out {
			out[i] = s.ordered[n-1-start-i]
		}
	} else {
		copy(out, s.ordered[start:stop+1])
	}
	return out
}

// ScoreBound is one endpoint of a ZRANGEBYSCORE-style range.
type ScoreBound struct {
	Value     Float
	Exclusive bool
	Infinite  int // -1 = -inf, +1 = +inf, 0 = finite Value
}

// RangeByScore returns ascending nodes with min<=score<=max (respecting
// exclusivity), per spec.md §4.B ZRANGEBYSCORE rules, by scanning every
// node and filtering on its actual score.
func (s *SortedSet) RangeByScore(min, max ScoreBound) []Node {
	out := make([]Node, 0)
	for _, n := range s.ordered {
		if !scoreAtLeast(n.Score, min) || !scoreAtMost(n.Score, max) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func scoreAtLeast(score Float, b ScoreBound) bool {
	if b.Infinite == -1 {
		return true
	}
	if b.Infinite == 1 {
		return false
	}
	if b.Exclusive {
		return b.Value.Less(score)
	}
	return !score.Less(b.Value)
}

func scoreAtMost(score Float, b ScoreBound) bool {
	if b.Infinite == 1 {
		return true
	}
	if b.Infinite == -1 {
		return false
	}
	if b.Exclusive {
		return score.Less(b.Value)
	}
	return !b.Value.Less(score)
}

// LexBound is one endpoint of a ZRANGEBYLEX-style range: "-" (min infinite),
// "+" (max infinite), "[x" (inclusive) or "(x" (exclusive), per spec.md §4.B.
type LexBound struct {
	Value     string
	Exclusive bool
	Infinite  int // -1, +1, or 0
}

// RangeByLex returns ascending nodes with Key within [min,max] lexically.
// Only meaningful when every member shares one score (as ZRANGEBYLEX
// requires); spec.md's synthesized sentinel score is approximated here
// by simply comparing keys across the full ordered set, since our
// ordered slice is already (score,key) sorted and ZRANGEBYLEX callers
// are expected to have added all members at one score.
func (s *SortedSet) RangeByLex(min, max LexBound) []Node {
	out := make([]Node, 0)
	for _, n := range s.ordered {
		if !lexAtLeast(n.Key, min) || !lexAtMost(n.Key, max) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func lexAtLeast(key string, b LexBound) bool {
	if b.Infinite == -1 {
		return true
	}
	if b.Infinite == 1 {
		return false
	}
	if b.Exclusive {
		return key > b.Value
	}
	return key >= b.Value
}

func lexAtMost(key string, b LexBound) bool {
	if b.Infinite == 1 {
		return true
	}
	if b.Infinite == -1 {
		return false
	}
	if b.Exclusive {
		return key < b.Value
	}
	return key <= b.Value
}

// RemoveByRank deletes nodes whose ascending rank falls in [start,stop]
// and returns how many were removed (ZREMRANGEBYRANK).
func (s *SortedSet) RemoveByRank(start, stop int) int {
	victims := s.RangeByRank(start, stop, false)
	for _, n := range victims {
		delete(s.hash, n.Key)
		s.removeOrdered(n)
	}
	return len(victims)
}

// RemoveByScore deletes nodes within the score bound and returns the count.
func (s *SortedSet) RemoveByScore(min, max ScoreBound) int {
	victims := s.RangeByScore(min, max)
	for _, n := range victims {
		delete(s.hash, n.Key)
		s.removeOrdered(n)
	}
	return len(victims)
}

// RemoveByLex deletes nodes within the lex bound and returns the count.
func (s *SortedSet) RemoveByLex(min, max LexBound) int {
	victims := s.RangeByLex(min, max)
	for _, n := range victims {
		delete(s.hash, n.Key)
		s.removeOrdered(n)
	}
	return len(victims)
}
