package persist

import (
	"context"
	"testing"
	"time"

	"rudis/internal/command"
	"rudis/internal/forward"
	"rudis/internal/store"
)

func TestManagerAppendsWritesAndRecoversAfterRestart(t *testing.T) {
	dir := t.TempDir()
	bus := forward.NewBus(64)
	db, err := store.New(4, bus, nil)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}

	mgr, err := NewManager(dir, 0, db, bus, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go mgr.Run(ctx)

	s := db.Route([]byte("k"))
	if _, err := s.ApplyExpiresWrite(mustSet(t, "k", "v1"), 1000); err != nil {
		t.Fatalf("ApplyExpiresWrite: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		st := mgr.writers[s.ID()].Status()
		if st.PendingSinceSnap >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("AOF writer never observed the published write")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	mgr.Close()

	// Simulate a restart: fresh Db and Manager over the same hdpDir,
	// recovering purely from the AOF written above (no snapshot yet).
	bus2 := forward.NewBus(64)
	db2, err := store.New(4, bus2, nil)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	mgr2, err := NewManager(dir, 0, db2, bus2, nil)
	if err != nil {
		t.Fatalf("NewManager (restart): %v", err)
	}
	defer mgr2.Close()

	if err := mgr2.Recover(context.Background()); err != nil {
		t.Fatalf("Recover: %v", err)
	}

	recovered := db2.Route([]byte("k"))
	d := recovered.DictForTest()
	e, ok := d.Get("k")
	if !ok || string(e.Value.Str) != "v1" {
		t.Fatalf("got %+v, want recovered value v1", e)
	}
}

func mustSet(t *testing.T, key, val string) *command.Set {
	t.Helper()
	s, err := command.ParseSet(cursorArgs(key, val))
	if err != nil {
		t.Fatalf("ParseSet: %v", err)
	}
	return s
}
