package replication

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"rudis/internal/dict"
	"rudis/internal/expire"
	"rudis/internal/forward"
	"rudis/internal/resp"
	"rudis/internal/slot"
	"rudis/internal/store"
)

// FollowerPingInterval is how often a follower pings an otherwise-idle
// leader connection, the follower-side half of spec.md §4.H's keepalive.
const FollowerPingInterval = time.Second

// Scheduler mirrors persist.Scheduler so replication doesn't need to
// import internal/persist just for this one interface.
type Scheduler interface {
	Clear(slotID uint16)
	BatchAdd(entries []expire.Entry)
}

// GapError is returned from the tail-apply loop when a slot's
// write-id counter jumps ahead of what was applied, signaling the
// caller must resync that slot from a fresh snapshot (spec.md §4.H).
type GapError struct{ SlotID uint16 }

func (e *GapError) Error() string {
	return fmt.Sprintf("replication: write-id gap on slot %d", e.SlotID)
}

// Follower drives both replication control verbs from the client side
// against this server's own Db.
type Follower struct {
	db    *store.Db
	sched Scheduler
}

// NewFollower builds a Follower over db, re-arming sched on every
// dict replacement.
func NewFollower(db *store.Db, sched Scheduler) *Follower {
	return &Follower{db: db, sched: sched}
}

// FullResync requests a snapshot for arg (AllSlots, or a single slot id
// formatted as a decimal string) over conn and installs every returned
// Dict via Slot.ReplaceDict.
func (f *Follower) FullResync(conn net.Conn, arg string) error {
	bw := bufio.NewWriter(conn)
	br := bufio.NewReader(conn)

	if err := writeSyncSnapshot(bw, arg); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}

	for {
		slotID, d, done, err := readSnapshotRecord(br)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		s, err := f.db.SlotByID(slotID)
		if err != nil {
			continue
		}
		rearm := s.ReplaceDict(d)
		if f.sched != nil {
			f.sched.Clear(slotID)
			entries := make([]expire.Entry, 0, len(rearm))
			for _, st := range rearm {
				entries = append(entries, expire.Entry{ExpiresAt: st.New, SlotID: slotID, Key: st.Key})
			}
			f.sched.BatchAdd(entries)
		}
	}
}

// TailSync requests SYNCCMD over conn and applies every streamed
// ForwardMessage until ctx is cancelled, the connection errs, or a
// slot reports a write-id gap (returned as *GapError so the caller can
// resync just that slot and resume).
func (f *Follower) TailSync(ctx context.Context, conn net.Conn) error {
	bw := bufio.NewWriter(conn)
	br := bufio.NewReader(conn)

	if err := writeSyncCmd(bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if err := readOK(resp.NewParser(br)); err != nil {
		return err
	}

	stopPing := make(chan struct{})
	go f.pingLoop(conn, stopPing)
	defer close(stopPing)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := forward.ReadMessage(br)
		if err != nil {
			return err
		}
		if _, isNoop := msg.Cmd.(noopCmd); isNoop {
			continue
		}

		s, err := f.db.SlotByID(msg.SlotID)
		if err != nil {
			continue
		}
		result := s.ApplyReplicaCommand(msg.WriteID, msg.Cmd, dict.NowMs())
		if result == slot.ReplicaGap {
			return &GapError{SlotID: msg.SlotID}
		}
	}
}

func (f *Follower) pingLoop(conn net.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(FollowerPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := conn.Write([]byte("PING\r\n")); err != nil {
				return
			}
		}
	}
}

// Run drives one follower lifecycle against dial: full resync of every
// slot, then a tail-sync loop that resyncs just the gapped slot and
// resumes on *GapError, and reconnects with backoff on any other error.
// Returns only when ctx is cancelled.
func (f *Follower) Run(ctx context.Context, dial func(context.Context) (net.Conn, error)) error {
	backoff := 200 * time.Millisecond
	resyncArg := AllSlots
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn, err := dial(ctx)
		if err != nil {
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			continue
		}

		if err := f.FullResync(conn, resyncArg); err != nil {
			conn.Close()
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			continue
		}

		err = f.TailSync(ctx, conn)
		conn.Close()
		resyncArg = AllSlots

		var gap *GapError
		if errors.As(err, &gap) {
			// Resync just the gapped slot on a fresh connection, then
			// resume tailing; no backoff since this is expected traffic,
			// not a failure.
			resyncArg = strconv.FormatUint(uint64(gap.SlotID), 10)
			continue
		}
		if err != nil && !sleepCtx(ctx, backoff) {
			return ctx.Err()
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
