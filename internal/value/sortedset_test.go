package value

import "testing"

// TestSortedSetDualInvariant covers spec.md §8 P6: the hash and ordered
// sides stay in lockstep after every Add/Remove.
func TestSortedSetDualInvariant(t *testing.T) {
	s := NewSortedSet()
	s.Add([]Node{{Key: "a", Score: 1}, {Key: "b", Score: 2}, {Key: "c", Score: 0}}, NxXxNone, GtLtNone, false)
	s.Remove("b")

	if s.Len() != len(s.ordered) {
		t.Fatalf("hash has %d members but ordered has %d", s.Len(), len(s.ordered))
	}
	for _, n := range s.ordered {
		score, ok := s.Score(n.Key)
		if !ok || score != n.Score {
			t.Fatalf("ordered node %+v not mirrored in hash (score %v, ok %v)", n, score, ok)
		}
	}
}

// TestZAddZRangeWithScores covers spec.md §8 S3.
func TestZAddZRangeWithScores(t *testing.T) {
	s := NewSortedSet()
	r1 := s.Add([]Node{{Key: "one", Score: 1}, {Key: "uno", Score: 1}}, NxXxNone, GtLtNone, false)
	if r1.NewLen-r1.OldLen != 2 {
		t.Fatalf("first ZADD inserted %d members, want 2", r1.NewLen-r1.OldLen)
	}
	r2 := s.Add([]Node{{Key: "two", Score: 2}, {Key: "three", Score: 3}}, NxXxNone, GtLtNone, false)
	if r2.NewLen-r2.OldLen != 2 {
		t.Fatalf("second ZADD inserted %d members, want 2", r2.NewLen-r2.OldLen)
	}

	got := s.RangeByRank(0, -1, false)
	want := []string{"one", "uno", "two", "three"}
	if len(got) != len(want) {
		t.Fatalf("got %d nodes, want %d", len(got), len(want))
	}
	for i, k := range want {
		if got[i].Key != k {
			t.Fatalf("position %d: got %q, want %q (ties must break ascending by key)", i, got[i].Key, k)
		}
	}
}

// TestZRangeByLexExclusive covers spec.md §8 S4.
func TestZRangeByLexExclusive(t *testing.T) {
	s := NewSortedSet()
	nodes := make([]Node, 0, 7)
	for _, k := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		nodes = append(nodes, Node{Key: k, Score: 0})
	}
	s.Add(nodes, NxXxNone, GtLtNone, false)

	got := s.RangeByLex(LexBound{Infinite: -1}, LexBound{Value: "c", Exclusive: true})
	want := []string{"a", "b"}
	if len(got) != len(want) {
		t.Fatalf("got %d nodes, want %d", len(got), len(want))
	}
	for i, k := range want {
		if got[i].Key != k {
			t.Fatalf("position %d: got %q, want %q", i, got[i].Key, k)
		}
	}
}

func TestSortedSetGtLtOptions(t *testing.T) {
	s := NewSortedSet()
	s.Add([]Node{{Key: "a", Score: 5}}, NxXxNone, GtLtNone, false)

	s.Add([]Node{{Key: "a", Score: 3}}, NxXxNone, GtLtGt, false)
	if score, _ := s.Score("a"); score != 5 {
		t.Fatalf("GT update with a lower score changed it to %v, want unchanged 5", score)
	}

	s.Add([]Node{{Key: "a", Score: 9}}, NxXxNone, GtLtGt, false)
	if score, _ := s.Score("a"); score != 9 {
		t.Fatalf("GT update with a higher score left it at %v, want 9", score)
	}
}
