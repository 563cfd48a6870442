package persist

import (
	"os"
	"path/filepath"
	"testing"

	"rudis/internal/command"
	"rudis/internal/forward"
	"rudis/internal/resp"
)

func cursorArgs(args ...string) *resp.Cursor {
	frames := make([]resp.Frame, len(args))
	for i, a := range args {
		frames[i] = resp.BulkString(a)
	}
	return resp.NewCursor(frames)
}

func setMsg(t *testing.T, writeID uint64, key, val string) forward.Message {
	t.Helper()
	set, err := command.ParseSet(cursorArgs(key, val))
	if err != nil {
		t.Fatalf("ParseSet: %v", err)
	}
	return forward.Message{WriteID: writeID, SlotID: 0, Cmd: set}
}

func TestSlotWriterAppendsInOrderAndDiscardsReplays(t *testing.T) {
	dir := t.TempDir()
	w, err := OpenSlotWriter(dir, 0, 0)
	if err != nil {
		t.Fatalf("OpenSlotWriter: %v", err)
	}
	defer w.Close()

	if err := w.Append(setMsg(t, 1, "k", "v1")); err != nil {
		t.Fatalf("Append(1): %v", err)
	}
	// A replay of write_id 1 must be silently discarded, not an error.
	if err := w.Append(setMsg(t, 1, "k", "v1")); err != nil {
		t.Fatalf("Append(1) replay: %v", err)
	}
	if got := w.Status().NextExpectedID; got != 2 {
		t.Fatalf("got NextExpectedID=%d after a discarded replay, want 2", got)
	}

	if err := w.Append(setMsg(t, 2, "k", "v2")); err != nil {
		t.Fatalf("Append(2): %v", err)
	}
	if got := w.Status().NextExpectedID; got != 3 {
		t.Fatalf("got NextExpectedID=%d, want 3", got)
	}
}

func TestSlotWriterDetectsGap(t *testing.T) {
	dir := t.TempDir()
	w, err := OpenSlotWriter(dir, 0, 0)
	if err != nil {
		t.Fatalf("OpenSlotWriter: %v", err)
	}
	defer w.Close()

	if err := w.Append(setMsg(t, 5, "k", "v")); err != ErrGap {
		t.Fatalf("got %v, want ErrGap for a write_id that skips ahead", err)
	}
}

func TestSnapshotDirAndPathLayout(t *testing.T) {
	dir := SnapshotDir("/data", 42)
	if dir != filepath.Join("/data", "42") {
		t.Fatalf("got %q", dir)
	}
	path := SnapshotPath("/data", 42, 3)
	if path != filepath.Join("/data", "42", "dump_3.ss") {
		t.Fatalf("got %q", path)
	}
}

func TestAOFFileContainsAppendedBytes(t *testing.T) {
	dir := t.TempDir()
	w, err := OpenSlotWriter(dir, 0, 0)
	if err != nil {
		t.Fatalf("OpenSlotWriter: %v", err)
	}
	if err := w.Append(setMsg(t, 1, "k", "v")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	info, err := os.Stat(AOFPath(dir, 0, 0))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("AOF file is empty after an Append")
	}
}
