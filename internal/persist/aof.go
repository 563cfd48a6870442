package persist

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"rudis/internal/forward"
)

// AOFStatus is the per-slot bookkeeping spec.md §4.G requires: the
// snapshot this AOF segment builds on, the write-id the next appended
// message must carry, and how many messages have accumulated since the
// last snapshot (the signal that triggers the next one).
type AOFStatus struct {
	SlotID           uint16
	SnapshotBaseID   uint64
	NextExpectedID   uint64
	PendingSinceSnap int
}

// SnapshotDir returns the directory a given base_id's segment lives in.
func SnapshotDir(hdpDir string, baseID uint64) string {
	return filepath.Join(hdpDir, strconv.FormatUint(baseID, 10))
}

// SnapshotPath returns the path of slot's .ss file for a given base_id.
func SnapshotPath(hdpDir string, baseID uint64, slotID uint16) string {
	return filepath.Join(SnapshotDir(hdpDir, baseID), fmt.Sprintf("dump_%d.ss", slotID))
}

// AOFPath returns the path of slot's .aof file for a given base_id.
func AOFPath(hdpDir string, baseID uint64, slotID uint16) string {
	return filepath.Join(SnapshotDir(hdpDir, baseID), fmt.Sprintf("dump_%d.aof", slotID))
}

// ErrGap is returned by SlotWriter.Append when a message arrives with a
// write_id ahead of NextExpectedID — spec.md §4.G calls this a fatal
// condition for the writer, since it means a forward message was lost.
var ErrGap = fmt.Errorf("persist: write-id gap in forward stream")

// SlotWriter appends ForwardMessages to one slot's AOF file, enforcing
// spec.md §4.G's three-way disposition on arrival: discard stale
// replays, append-and-advance on the expected id, fatal on a gap.
type SlotWriter struct {
	mu     sync.Mutex
	status AOFStatus
	file   *os.File
}

// OpenSlotWriter creates (or truncates) the AOF file for slot at
// base_id, ready to receive messages with write_id == base_id+1.
func OpenSlotWriter(hdpDir string, slotID uint16, baseID uint64) (*SlotWriter, error) {
	dir := SnapshotDir(hdpDir, baseID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(AOFPath(hdpDir, baseID, slotID), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &SlotWriter{
		status: AOFStatus{SlotID: slotID, SnapshotBaseID: baseID, NextExpectedID: baseID + 1},
		file:   f,
	}, nil
}

// Status returns a snapshot of the writer's current bookkeeping.
func (w *SlotWriter) Status() AOFStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Append applies spec.md §4.G's AOF-write disposition: a message whose
// write_id is behind NextExpectedID is a replay of something already on
// disk and is silently discarded; one exactly at NextExpectedID is
// appended and advances the counter; one ahead signals a dropped
// message upstream, which the AOF can't repair on its own.
func (w *SlotWriter) Append(m forward.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case m.WriteID < w.status.NextExpectedID:
		return nil
	case m.WriteID > w.status.NextExpectedID:
		return ErrGap
	}

	body, err := forward.EncodeMessage(m)
	if err != nil {
		return err
	}
	if _, err := w.file.Write(body); err != nil {
		return err
	}
	w.status.NextExpectedID++
	w.status.PendingSinceSnap++
	return nil
}

// Close syncs and closes the underlying file.
func (w *SlotWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.file.Sync(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// resetAfterSnapshot installs a fresh AOFStatus and truncated file for
// newBaseID. Manager.snapshotSlot calls it before writing the snapshot
// at newBaseID, so concurrent writers never block on the dump (spec.md
// §4.G step 2).
func (w *SlotWriter) resetAfterSnapshot(hdpDir string, newBaseID uint64) error {
	dir := SnapshotDir(hdpDir, newBaseID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(AOFPath(hdpDir, newBaseID, w.status.SlotID), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	old := w.file
	w.file = f
	w.status = AOFStatus{SlotID: w.status.SlotID, SnapshotBaseID: newBaseID, NextExpectedID: newBaseID + 1}
	old.Close()
	return nil
}
