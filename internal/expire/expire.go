// Package expire implements spec.md §4.E: the single background
// expiration scheduler, an ordered set of (expires_at, slot, key)
// entries drained by a purge loop. Grounded on
// original_source/component/src/expire.rs's Expiration actor
// (recv_task + purge_expired_task split over a channel and a
// Mutex<BTreeSet>), reshaped into Go's single-goroutine-owns-the-state
// idiom: one goroutine both drains the message channel and runs the
// purge timer, so the heap needs no lock at all — simpler than porting
// the original's two-task-plus-mutex split.
package expire

import (
	"container/heap"
	"context"
	"time"

	"rudis/internal/slot"
)

// Entry is one scheduled expiration, ordered ascending by (ExpiresAt,
// SlotID, Key) per spec.md §3 ExpirationEntry.
type Entry struct {
	ExpiresAt int64
	SlotID    uint16
	Key       string
}

func (e Entry) less(o Entry) bool {
	if e.ExpiresAt != o.ExpiresAt {
		return e.ExpiresAt < o.ExpiresAt
	}
	if e.SlotID != o.SlotID {
		return e.SlotID < o.SlotID
	}
	return e.Key < o.Key
}

type entryHeap []Entry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].less(h[j]) }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x interface{}) { *h = append(*h, x.(Entry)) }
func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// SlotSource resolves a slot id to its Slot, so the purge loop can reach
// the owning Dict without the expire package depending on internal/store.
type SlotSource interface {
	SlotByID(id uint16) (*slot.Slot, error)
}

// DictAccess is the minimal Dict surface the purge loop needs: remove a
// key only if its expires_at still matches the scheduled timestamp,
// checked and applied atomically under the slot's own lock (spec.md
// invariant 1's retirement-by-equality-check).
type DictAccess interface {
	// RemoveIfMatch deletes key from s iff its stored expires_at equals want.
	RemoveIfMatch(s *slot.Slot, key string, want int64) bool
}

type clearMsg struct{ slotID uint16 }
type updateMsg struct {
	slotID      uint16
	key         string
	before, new int64
}
type batchAddMsg struct{ entries []Entry }

// Scheduler is the single process-wide background expiration task.
type Scheduler struct {
	clearCh chan clearMsg
	updCh   chan updateMsg
	batchCh chan batchAddMsg

	source SlotSource
	dict   DictAccess
}

// New starts the scheduler's goroutine and returns a handle. Stops when
// ctx is cancelled.
func New(ctx context.Context, source SlotSource, dict DictAccess) *Scheduler {
	s := &Scheduler{
		clearCh: make(chan clearMsg, 64),
		updCh:   make(chan updateMsg, 4096),
		batchCh: make(chan batchAddMsg, 64),
		source:  source,
		dict:    dict,
	}
	go s.run(ctx)
	return s
}

// NotifyUpdate satisfies slot.ExpireNotifier: called by Slot after a
// write changes a key's expiration, outside the slot lock.
func (s *Scheduler) NotifyUpdate(slotID uint16, key string, before, new int64) {
	// Blocking send: expiration updates must never be dropped, or a
	// key's TTL would go unscheduled or stay double-scheduled.
	s.updCh <- updateMsg{slotID: slotID, key: key, before: before, new: new}
}

// Clear drops every scheduled entry for slotID (used when a slot's Dict
// is wholesale replaced by a snapshot load).
func (s *Scheduler) Clear(slotID uint16) {
	s.clearCh <- clearMsg{slotID: slotID}
}

// BatchAdd re-arms the scheduler for a batch of entries, used right
// after Db.replace_dict installs a snapshot (spec.md §4.H).
func (s *Scheduler) BatchAdd(entries []Entry) {
	if len(entries) == 0 {
		return
	}
	s.batchCh <- batchAddMsg{entries: entries}
}

// run is the scheduler's sole goroutine: it owns the heap outright (no
// lock needed) and alternates between draining messages and purging
// expired entries, sleeping until the next entry's deadline or until a
// message arrives, whichever is first.
func (s *Scheduler) run(ctx context.Context) {
	h := &entryHeap{}
	heap.Init(h)

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	timerArmed := false
	stopTimer := func() {
		if timerArmed {
			if !timer.Stop() {
				<-timer.C
			}
			timerArmed = false
		}
	}
	armFor := func(when int64) {
		stopTimer()
		now := time.Now().UnixMilli()
		d := time.Duration(when-now) * time.Millisecond
		if d < 0 {
			d = 0
		}
		timer.Reset(d)
		timerArmed = true
	}

	purgeReady := func() {
		now := time.Now().UnixMilli()
		for h.Len() > 0 {
			top := (*h)[0]
			if top.ExpiresAt > now {
				armFor(top.ExpiresAt)
				return
			}
			heap.Pop(h)

			sl, err := s.source.SlotByID(top.SlotID)
			if err != nil {
				continue
			}
			s.dict.RemoveIfMatch(sl, top.Key, top.ExpiresAt)
			// A no-op return means the entry is already covered by a
			// later Update (overwritten or retimed); no forward message
			// is ever emitted for a scheduler-driven removal (spec.md §4.E).
		}
		stopTimer()
	}

	for {
		select {
		case <-ctx.Done():
			stopTimer()
			return

		case m := <-s.clearCh:
			// Take in updates queued before this Clear, so an entry
			// notified just before it is dropped with the rest. A drained
			// update's before entry stays in the heap; RemoveIfMatch
			// no-ops on it once the stored expires_at has moved on.
			for n := len(s.updCh); n > 0; n-- {
				u := <-s.updCh
				if u.new > 0 {
					heap.Push(h, Entry{ExpiresAt: u.new, SlotID: u.slotID, Key: u.key})
				}
			}
			filtered := (*h)[:0]
			for _, e := range *h {
				if e.SlotID != m.slotID {
					filtered = append(filtered, e)
				}
			}
			*h = filtered
			heap.Init(h)
			purgeReady()

		case m := <-s.updCh:
			if m.new > 0 {
				heap.Push(h, Entry{ExpiresAt: m.new, SlotID: m.slotID, Key: m.key})
			}
			if m.before > 0 {
				for i, e := range *h {
					if e.SlotID == m.slotID && e.Key == m.key && e.ExpiresAt == m.before {
						heap.Remove(h, i)
						break
					}
				}
			}
			purgeReady()

		case m := <-s.batchCh:
			for _, e := range m.entries {
				heap.Push(h, e)
			}
			purgeReady()

		case <-timerC(timer, timerArmed):
			timerArmed = false
			purgeReady()
		}
	}
}

// timerC returns the timer's channel only while armed, so the select
// above doesn't spin on an already-drained/stopped timer.
func timerC(t *time.Timer, armed bool) <-chan time.Time {
	if !armed {
		return nil
	}
	return t.C
}
