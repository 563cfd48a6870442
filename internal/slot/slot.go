// Package slot implements spec.md §4.C: a per-shard exclusive owner of
// one Dict, responsible for write-id assignment, forward emission, and
// expiration-update notification. Grounded on
// original_source/component/db/src/slot.rs, whose call_write/
// call_expires_write/call_read split maps directly onto spec.md's
// apply_write/apply_expires_write/apply_read.
package slot

import (
	"errors"
	"sync"

	"rudis/internal/dict"
	"rudis/internal/forward"
)

// Reply is whatever a command's apply method hands back to the
// dispatcher for RESP rendering; its concrete shape is command-specific.
type Reply any

// ReadCmd is a command whose apply only observes Dict state.
type ReadCmd interface {
	ApplyRead(d *dict.Dict, nowMs int64) (Reply, error)
}

// WriteCmd is a command that mutates Dict but never directly changes
// a key's expiration bookkeeping (spec.md §4.B "Write (simple)").
type WriteCmd interface {
	ApplyWrite(d *dict.Dict, nowMs int64) (Reply, error)
}

// ForwardWriteCmd is a WriteCmd that also knows how to encode itself
// onto the forward bus — in practice every concrete write command
// type, so ApplyWrite's caller never has to supply a separate forward
// encoding for the same value.
type ForwardWriteCmd interface {
	WriteCmd
	forward.Command
}

// ForwardExpiresWriteCmd is the expires-bearing analogue of ForwardWriteCmd.
type ForwardExpiresWriteCmd interface {
	ExpiresWriteCmd
	forward.Command
}

// ExpiresStatus reports whether a write changed a key's expiration,
// so the Slot can notify the expiration scheduler outside the lock
// (spec.md §4.C apply_expires_write).
type ExpiresStatus struct {
	Changed bool
	Key     string
	Before  int64
	New     int64
}

// ExpiresWriteCmd is a command that may change a key's TTL as a side
// effect (SET, DEL, EXPIRE family) — spec.md §4.B "Write (expires-bearing)".
type ExpiresWriteCmd interface {
	ApplyExpiresWrite(d *dict.Dict, nowMs int64) (Reply, ExpiresStatus, error)
}

// ExpireNotifier is the Slot's view of the expiration scheduler: just
// enough surface to emit the Update message spec.md §4.E describes,
// without Slot depending on the full internal/expire package.
type ExpireNotifier interface {
	NotifyUpdate(slotID uint16, key string, before, new int64)
}

// ReplicaApplyResult reports the outcome of apply_replica (spec.md §4.C).
type ReplicaApplyResult int

const (
	ReplicaApplied ReplicaApplyResult = iota
	ReplicaAlreadyApplied
	ReplicaGap
)

// ErrSlotReplaced is returned by in-flight operations racing a
// replace-dict (full resync) on the same slot.
var ErrSlotReplaced = errors.New("slot: dict replaced during operation")

// Slot owns one shard's Dict exclusively. Reads take the shared lock;
// writes take the exclusive lock only long enough to mutate Dict and
// assign a write-id (spec.md §5: "slot-lock acquisition is non-yielding,
// held briefly").
type Slot struct {
	id      uint16
	mu      sync.RWMutex
	dict    *dict.Dict
	bus     *forward.Bus
	expireN ExpireNotifier
}

// New constructs a Slot. bus and expireN may be nil (used by unit tests
// that only exercise Dict semantics without the surrounding engine).
func New(id uint16, bus *forward.Bus, expireN ExpireNotifier) *Slot {
	return &Slot{id: id, dict: dict.New(), bus: bus, expireN: expireN}
}

// ID returns the slot's index within the Db.
func (s *Slot) ID() uint16 { return s.id }

// ApplyRead runs cmd under the shared lock; readers never block each other.
func (s *Slot) ApplyRead(cmd ReadCmd, nowMs int64) (Reply, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cmd.ApplyRead(s.dict, nowMs)
}

// ApplyWrite assigns the next write-id, runs cmd exclusively, then
// emits a ForwardMessage outside the lock. Per original_source's
// call_write, the forward message is emitted regardless of whether
// apply itself returned an error: replicas replay the identical
// command against an identical prior state and will reach the same
// (possibly erroring) outcome deterministically.
func (s *Slot) ApplyWrite(cmd ForwardWriteCmd, nowMs int64) (Reply, error) {
	s.mu.Lock()
	writeID := s.dict.NextWriteID()
	reply, err := cmd.ApplyWrite(s.dict, nowMs)
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(forward.Message{WriteID: writeID, SlotID: s.id, Cmd: cmd})
	}
	return reply, err
}

// ApplyExpiresWrite is like ApplyWrite but additionally reads the
// command's expires-status before dropping the lock (to avoid TOCTOU,
// per spec.md §4.C), then notifies the scheduler outside the lock.
func (s *Slot) ApplyExpiresWrite(cmd ForwardExpiresWriteCmd, nowMs int64) (Reply, error) {
	s.mu.Lock()
	writeID := s.dict.NextWriteID()
	reply, status, err := cmd.ApplyExpiresWrite(s.dict, nowMs)
	s.mu.Unlock()

	if status.Changed && status.Before != status.New && s.expireN != nil {
		s.expireN.NotifyUpdate(s.id, status.Key, status.Before, status.New)
	}
	if s.bus != nil {
		s.bus.Publish(forward.Message{WriteID: writeID, SlotID: s.id, Cmd: cmd})
	}
	return reply, err
}

// ApplyReplica is the follower-only apply path (spec.md §4.C): compares
// writeID against the current counter+1 and applies, ignores, or
// signals a gap accordingly.
func (s *Slot) ApplyReplica(writeID uint64, cmd WriteCmd, nowMs int64) ReplicaApplyResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	expected := s.dict.WriteID() + 1
	switch {
	case writeID < expected:
		return ReplicaAlreadyApplied
	case writeID == expected:
		s.dict.SetWriteID(writeID)
		_, _ = cmd.ApplyWrite(s.dict, nowMs)
		return ReplicaApplied
	default:
		return ReplicaGap
	}
}

// ApplyReplicaExpires is ApplyReplica's analogue for expires-bearing
// commands: a follower must still re-arm its own expiration scheduler
// from the command's ExpiresStatus even though it never re-emits a
// forward message (chained sub-replication is out of scope).
func (s *Slot) ApplyReplicaExpires(writeID uint64, cmd ExpiresWriteCmd, nowMs int64) ReplicaApplyResult {
	s.mu.Lock()
	expected := s.dict.WriteID() + 1
	if writeID < expected {
		s.mu.Unlock()
		return ReplicaAlreadyApplied
	}
	if writeID > expected {
		s.mu.Unlock()
		return ReplicaGap
	}
	s.dict.SetWriteID(writeID)
	_, status, _ := cmd.ApplyExpiresWrite(s.dict, nowMs)
	s.mu.Unlock()

	if status.Changed && status.Before != status.New && s.expireN != nil {
		s.expireN.NotifyUpdate(s.id, status.Key, status.Before, status.New)
	}
	return ReplicaApplied
}

// ApplyReplicaCommand applies a decoded forward.Command through
// whichever apply path it actually implements, so AOF replay and
// replication tail-apply (internal/persist, internal/replication) can
// share one dispatch instead of each re-deriving the WriteCmd vs
// ExpiresWriteCmd distinction.
func (s *Slot) ApplyReplicaCommand(writeID uint64, cmd any, nowMs int64) ReplicaApplyResult {
	if ec, ok := cmd.(ExpiresWriteCmd); ok {
		return s.ApplyReplicaExpires(writeID, ec, nowMs)
	}
	if wc, ok := cmd.(WriteCmd); ok {
		return s.ApplyReplica(writeID, wc, nowMs)
	}
	return ReplicaAlreadyApplied
}

// ReplaceDict substitutes the slot's Dict wholesale (used by full
// snapshot load, spec.md §4.H Db.replace_dict), returning the new
// Dict's entries with expires_at>0 so the caller can re-arm the
// scheduler via BatchAdd.
func (s *Slot) ReplaceDict(d *dict.Dict) []ExpiresStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dict = d
	var rearm []ExpiresStatus
	d.Range(func(key string, e dict.Entry) {
		if e.ExpiresAt > 0 {
			rearm = append(rearm, ExpiresStatus{Changed: true, Key: key, New: e.ExpiresAt})
		}
	})
	return rearm
}

// CloneDict returns a copy of the Dict suitable for snapshotting,
// capturing base_id as the write-id observed at copy time (spec.md
// §4.G step 1). Held only long enough to copy the entry map.
func (s *Slot) CloneDict() (*dict.Dict, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dict.Clone(), s.dict.WriteID()
}

// WriteID returns the slot's current write-id counter under the shared lock.
func (s *Slot) WriteID() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dict.WriteID()
}

// DictForTest exposes the Dict directly; used only by package-internal
// tests that need to seed state without going through the command layer.
func (s *Slot) DictForTest() *dict.Dict { return s.dict }

// PeekExpiresAt reports key's current expires_at (0 if none, ok=false
// if the key is absent), used by the expiration scheduler's purge loop
// (spec.md §4.E) to check retirement-by-equality before deleting.
func (s *Slot) PeekExpiresAt(key string) (expiresAt int64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, present := s.dict.Get(key)
	if !present {
		return 0, false
	}
	return e.ExpiresAt, true
}

// RemoveIfExpiresMatch deletes key iff its stored expires_at equals
// want, exactly the scheduler's retirement check (spec.md §4.E: "if the
// entry at that key still has expires_at equal to the scheduled
// timestamp, remove it; otherwise... move on"). No forward message is
// emitted for this removal — scheduler purges are locally derivable.
func (s *Slot) RemoveIfExpiresMatch(key string, want int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, present := s.dict.Get(key)
	if !present || e.ExpiresAt != want {
		return false
	}
	s.dict.Remove(key)
	return true
}
