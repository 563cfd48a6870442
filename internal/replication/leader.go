package replication

import (
	"bytes"
	"encoding/binary"
	"io"
	"time"

	lz4 "github.com/pierrec/lz4/v4"

	"rudis/internal/dict"
	"rudis/internal/forward"
	"rudis/internal/persist"
	"rudis/internal/slot"
	"rudis/internal/store"
)

// PingInterval is how often a leader sends a keepalive down an idle
// SYNCCMD tail (spec.md §9 Open Question 1, resolved in DESIGN.md).
const PingInterval = 3 * time.Second

// Leader serves both replication control verbs against this server's
// own Db and forward bus.
type Leader struct {
	db  *store.Db
	bus *forward.Bus
}

// NewLeader builds a Leader over db/bus.
func NewLeader(db *store.Db, bus *forward.Bus) *Leader {
	return &Leader{db: db, bus: bus}
}

// ServeSyncSnapshot writes one lz4-compressed Dict dump per slot in
// slotIDs (or every slot, if slotIDs is empty) followed by a terminal
// "done" marker, per spec.md §4.H's SYNCSNAPSHOT reply shape.
func (l *Leader) ServeSyncSnapshot(w io.Writer, slotIDs []uint16) error {
	ids := slotIDs
	if len(ids) == 0 {
		l.db.Each(func(s *slot.Slot) { ids = append(ids, s.ID()) })
	}

	for _, id := range ids {
		s, err := l.db.SlotByID(id)
		if err != nil {
			continue
		}
		d, _ := s.CloneDict()
		if err := writeSnapshotRecord(w, id, d); err != nil {
			return err
		}
	}
	var done [1]byte
	done[0] = snapshotRecordDone
	_, err := w.Write(done[:])
	return err
}

func writeSnapshotRecord(w io.Writer, slotID uint16, d *dict.Dict) error {
	var raw bytes.Buffer
	if err := persist.EncodeDict(&raw, d); err != nil {
		return err
	}

	var compressed bytes.Buffer
	zw := lz4.NewWriter(&compressed)
	if _, err := zw.Write(raw.Bytes()); err != nil {
		zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	var header [7]byte
	header[0] = snapshotRecordPresent
	binary.BigEndian.PutUint16(header[1:3], slotID)
	binary.BigEndian.PutUint32(header[3:7], uint32(compressed.Len()))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(compressed.Bytes())
	return err
}

// readSnapshotRecord reads one record written by writeSnapshotRecord,
// reporting done=true at the terminal marker.
func readSnapshotRecord(r io.Reader) (slotID uint16, d *dict.Dict, done bool, err error) {
	var flag [1]byte
	if _, err = io.ReadFull(r, flag[:]); err != nil {
		return
	}
	if flag[0] == snapshotRecordDone {
		done = true
		return
	}

	var rest [6]byte
	if _, err = io.ReadFull(r, rest[:]); err != nil {
		return
	}
	slotID = binary.BigEndian.Uint16(rest[0:2])
	n := binary.BigEndian.Uint32(rest[2:6])

	compressed := make([]byte, n)
	if _, err = io.ReadFull(r, compressed); err != nil {
		return
	}
	zr := lz4.NewReader(bytes.NewReader(compressed))
	d, err = persist.DecodeDict(zr)
	return
}

// ServeSyncCmd subscribes to the forward bus and streams every message
// to w as a length-prefixed record, sending a noop keepalive whenever
// the bus is idle for PingInterval (spec.md §4.H). Runs until ctx's
// done channel (surfaced via the stop parameter) closes or a write
// fails, e.g. because the follower disconnected.
func (l *Leader) ServeSyncCmd(w io.Writer, stop <-chan struct{}) error {
	sub := l.bus.Subscribe(1024)
	defer l.bus.Unsubscribe(sub)

	ticker := time.NewTicker(PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return nil
		case msg, ok := <-sub:
			if !ok {
				return nil
			}
			if err := forward.WriteMessage(w, msg); err != nil {
				return err
			}
			ticker.Reset(PingInterval)
		case <-ticker.C:
			if err := forward.WriteMessage(w, forward.Message{Cmd: noopCmd{}}); err != nil {
				return err
			}
		}
	}
}
