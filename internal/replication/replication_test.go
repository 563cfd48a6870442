package replication

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"rudis/internal/command"
	"rudis/internal/dict"
	"rudis/internal/forward"
	"rudis/internal/resp"
	"rudis/internal/store"
	"rudis/internal/value"
)

func TestSnapshotRecordRoundTrip(t *testing.T) {
	d := dict.New()
	d.Insert("k", dict.Entry{Value: value.FromString("v")})

	var buf bytes.Buffer
	if err := writeSnapshotRecord(&buf, 7, d); err != nil {
		t.Fatalf("writeSnapshotRecord: %v", err)
	}
	var doneBuf bytes.Buffer
	doneBuf.WriteByte(snapshotRecordDone)
	buf.Write(doneBuf.Bytes())

	slotID, got, done, err := readSnapshotRecord(&buf)
	if err != nil {
		t.Fatalf("readSnapshotRecord: %v", err)
	}
	if done || slotID != 7 {
		t.Fatalf("got slotID=%d done=%v, want 7/false", slotID, done)
	}
	e, ok := got.Get("k")
	if !ok || string(e.Value.Str) != "v" {
		t.Fatalf("got entry %+v", e)
	}

	_, _, done, err = readSnapshotRecord(&buf)
	if err != nil || !done {
		t.Fatalf("got done=%v err=%v, want done=true", done, err)
	}
}

func newDb(t *testing.T, n int) *store.Db {
	t.Helper()
	bus := forward.NewBus(64)
	db, err := store.New(n, bus, nil)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	return db
}

func TestFullResyncReplicatesLeaderState(t *testing.T) {
	leaderDB := newDb(t, 4)
	leader := NewLeader(leaderDB, forward.NewBus(8))

	set, err := command.ParseSet(cursor("k", "v"))
	if err != nil {
		t.Fatalf("ParseSet: %v", err)
	}
	s := leaderDB.Route([]byte("k"))
	if _, err := s.ApplyExpiresWrite(set, 1000); err != nil {
		t.Fatalf("ApplyExpiresWrite: %v", err)
	}

	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	errCh := make(chan error, 1)
	go func() {
		// Consume the follower's SYNCSNAPSHOT request first: net.Pipe is
		// unbuffered, so the follower's write blocks until it is read.
		if _, err := resp.NewParser(bufio.NewReader(serverConn)).ReadFrame(); err != nil {
			errCh <- err
			return
		}
		errCh <- leader.ServeSyncSnapshot(serverConn, nil)
	}()

	followerDB := newDb(t, 4)
	follower := NewFollower(followerDB, nil)

	resyncErr := make(chan error, 1)
	go func() { resyncErr <- follower.FullResync(clientConn, AllSlots) }()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("ServeSyncSnapshot: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ServeSyncSnapshot never finished")
	}
	select {
	case err := <-resyncErr:
		if err != nil {
			t.Fatalf("FullResync: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("FullResync never finished")
	}

	got := followerDB.Route([]byte("k"))
	e, ok := got.DictForTest().Get("k")
	if !ok || string(e.Value.Str) != "v" {
		t.Fatalf("got %+v, want the leader's replicated value v", e)
	}
}

func TestTailSyncAppliesStreamedWrites(t *testing.T) {
	bus := forward.NewBus(64)
	leaderDB, err := store.New(4, bus, nil)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	leader := NewLeader(leaderDB, bus)

	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		// Consume the follower's SYNCCMD request before replying +OK.
		if _, err := resp.NewParser(bufio.NewReader(serverConn)).ReadFrame(); err != nil {
			return
		}
		bw := bufio.NewWriter(serverConn)
		_ = resp.WriteFrame(bw, resp.OK())
		leader.ServeSyncCmd(serverConn, stop)
	}()

	followerDB := newDb(t, 4)
	follower := NewFollower(followerDB, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- follower.TailSync(ctx, clientConn) }()

	// Give TailSync time to complete its SYNCCMD handshake before the
	// leader publishes, so the write isn't missed by a late subscriber.
	time.Sleep(50 * time.Millisecond)

	set, _ := command.ParseSet(cursor("k", "tailed"))
	s := leaderDB.Route([]byte("k"))
	if _, err := s.ApplyExpiresWrite(set, 1000); err != nil {
		t.Fatalf("ApplyExpiresWrite: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		got := followerDB.Route([]byte("k"))
		if e, ok := got.DictForTest().Get("k"); ok && string(e.Value.Str) == "tailed" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("tail sync never applied the streamed write")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func cursor(args ...string) *resp.Cursor {
	frames := make([]resp.Frame, len(args))
	for i, a := range args {
		frames[i] = resp.BulkString(a)
	}
	return resp.NewCursor(frames)
}
