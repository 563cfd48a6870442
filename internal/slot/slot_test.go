package slot

import (
	"testing"

	"rudis/internal/dict"
	"rudis/internal/forward"
	"rudis/internal/value"
)

// setCmd is a minimal stand-in for command.Set: unconditionally stores
// a string value and implements both WriteCmd and forward.Command.
type setCmd struct {
	key, val string
}

func (c *setCmd) ApplyWrite(d *dict.Dict, nowMs int64) (Reply, error) {
	d.Insert(c.key, dict.Entry{Value: value.FromString(c.val)})
	return "OK", nil
}

func (c *setCmd) OpCode() forward.OpCode { return forward.OpCode(1) }
func (c *setCmd) EncodeBody(w *forward.Writer) error { return nil }

// getCmd is a minimal stand-in for command.Get.
type getCmd struct{ key string }

func (c *getCmd) ApplyRead(d *dict.Dict, nowMs int64) (Reply, error) {
	e, ok := d.GetLive(c.key, nowMs)
	if !ok {
		return nil, nil
	}
	return string(e.Value.Str), nil
}

// expireCmd is a minimal stand-in for command.Expire: sets expires_at
// and reports the change via ExpiresStatus.
type expireCmd struct {
	key      string
	expireAt int64
}

func (c *expireCmd) ApplyExpiresWrite(d *dict.Dict, nowMs int64) (Reply, ExpiresStatus, error) {
	e, ok := d.Get(c.key)
	if !ok {
		return int64(0), ExpiresStatus{}, nil
	}
	before := e.ExpiresAt
	e.ExpiresAt = c.expireAt
	d.Insert(c.key, e)
	return int64(1), ExpiresStatus{Changed: true, Key: c.key, Before: before, New: c.expireAt}, nil
}

func (c *expireCmd) OpCode() forward.OpCode         { return forward.OpCode(2) }
func (c *expireCmd) EncodeBody(w *forward.Writer) error { return nil }

type recordingNotifier struct {
	calls []struct {
		slot       uint16
		key        string
		before, new int64
	}
}

func (n *recordingNotifier) NotifyUpdate(slotID uint16, key string, before, new int64) {
	n.calls = append(n.calls, struct {
		slot       uint16
		key        string
		before, new int64
	}{slotID, key, before, new})
}

func TestApplyWritePublishesForwardMessage(t *testing.T) {
	bus := forward.NewBus(8)
	ch := bus.Subscribe(1)
	defer bus.Unsubscribe(ch)

	s := New(3, bus, nil)
	reply, err := s.ApplyWrite(&setCmd{key: "k", val: "v"}, 1000)
	if err != nil || reply != "OK" {
		t.Fatalf("ApplyWrite: reply=%v err=%v", reply, err)
	}

	msg := <-ch
	if msg.SlotID != 3 || msg.WriteID != 1 {
		t.Fatalf("got %+v, want slot=3 write_id=1", msg)
	}
}

func TestApplyReadSeesPriorWrite(t *testing.T) {
	s := New(0, nil, nil)
	if _, err := s.ApplyWrite(&setCmd{key: "k", val: "hello"}, 1000); err != nil {
		t.Fatalf("ApplyWrite: %v", err)
	}
	reply, err := s.ApplyRead(&getCmd{key: "k"}, 1000)
	if err != nil || reply != "hello" {
		t.Fatalf("ApplyRead: reply=%v err=%v", reply, err)
	}
}

func TestApplyExpiresWriteNotifiesScheduler(t *testing.T) {
	notifier := &recordingNotifier{}
	s := New(5, nil, notifier)
	if _, err := s.ApplyWrite(&setCmd{key: "k", val: "v"}, 1000); err != nil {
		t.Fatalf("ApplyWrite: %v", err)
	}

	if _, err := s.ApplyExpiresWrite(&expireCmd{key: "k", expireAt: 5000}, 1000); err != nil {
		t.Fatalf("ApplyExpiresWrite: %v", err)
	}

	if len(notifier.calls) != 1 {
		t.Fatalf("got %d notifications, want 1", len(notifier.calls))
	}
	call := notifier.calls[0]
	if call.slot != 5 || call.key != "k" || call.new != 5000 {
		t.Fatalf("got %+v, want slot=5 key=k new=5000", call)
	}
}

func TestApplyExpiresWriteSkipsNoopNotification(t *testing.T) {
	notifier := &recordingNotifier{}
	s := New(0, nil, notifier)
	// expires_at unset, expire to the same value (0 -> 0): Before == New, no notify.
	if _, err := s.ApplyExpiresWrite(&expireCmd{key: "missing", expireAt: 0}, 1000); err != nil {
		t.Fatalf("ApplyExpiresWrite: %v", err)
	}
	if len(notifier.calls) != 0 {
		t.Fatalf("got %d notifications, want 0 for a no-op expiry change", len(notifier.calls))
	}
}

func TestApplyReplicaWriteIDGapDetection(t *testing.T) {
	s := New(0, nil, nil)

	// write_id 1 is expected first; applying it advances the counter.
	if got := s.ApplyReplica(1, &setCmd{key: "k", val: "v1"}, 1000); got != ReplicaApplied {
		t.Fatalf("got %v, want ReplicaApplied", got)
	}
	// Replaying the same write_id must be recognized as already applied.
	if got := s.ApplyReplica(1, &setCmd{key: "k", val: "v2"}, 1000); got != ReplicaAlreadyApplied {
		t.Fatalf("got %v, want ReplicaAlreadyApplied", got)
	}
	// Skipping ahead must be reported as a gap, not silently applied.
	if got := s.ApplyReplica(3, &setCmd{key: "k", val: "v3"}, 1000); got != ReplicaGap {
		t.Fatalf("got %v, want ReplicaGap", got)
	}
	// The value from the skipped write_id=2 must never have been applied.
	reply, _ := s.ApplyRead(&getCmd{key: "k"}, 1000)
	if reply != "v1" {
		t.Fatalf("got %v, want v1 (write_id=3 must not have applied out of order)", reply)
	}
}

func TestApplyReplicaCommandDispatchesByInterface(t *testing.T) {
	s := New(0, nil, nil)

	if got := s.ApplyReplicaCommand(1, &setCmd{key: "k", val: "v"}, 1000); got != ReplicaApplied {
		t.Fatalf("got %v, want ReplicaApplied for a WriteCmd", got)
	}
	if got := s.ApplyReplicaCommand(2, &expireCmd{key: "k", expireAt: 9000}, 1000); got != ReplicaApplied {
		t.Fatalf("got %v, want ReplicaApplied for an ExpiresWriteCmd", got)
	}
}

func TestReplaceDictReturnsRearmList(t *testing.T) {
	s := New(0, nil, nil)
	d := dict.New()
	d.Insert("a", dict.Entry{Value: value.FromString("1"), ExpiresAt: 5000})
	d.Insert("b", dict.Entry{Value: value.FromString("2")})

	rearm := s.ReplaceDict(d)
	if len(rearm) != 1 || rearm[0].Key != "a" || rearm[0].New != 5000 {
		t.Fatalf("got %+v, want exactly one rearm entry for key=a new=5000", rearm)
	}

	reply, _ := s.ApplyRead(&getCmd{key: "b"}, 1000)
	if reply != "2" {
		t.Fatalf("ReplaceDict did not swap in the new dict: got %v", reply)
	}
}

func TestCloneDictIsolatesFromLiveWrites(t *testing.T) {
	s := New(0, nil, nil)
	if _, err := s.ApplyWrite(&setCmd{key: "k", val: "v1"}, 1000); err != nil {
		t.Fatalf("ApplyWrite: %v", err)
	}

	clone, writeID := s.CloneDict()
	if writeID != 1 {
		t.Fatalf("got write_id=%d, want 1", writeID)
	}

	if _, err := s.ApplyWrite(&setCmd{key: "k", val: "v2"}, 1000); err != nil {
		t.Fatalf("ApplyWrite: %v", err)
	}

	e, _ := clone.Get("k")
	if string(e.Value.Str) != "v1" {
		t.Fatalf("clone observed a write made after CloneDict returned: got %q", e.Value.Str)
	}
}

func TestRemoveIfExpiresMatchRequiresEquality(t *testing.T) {
	s := New(0, nil, nil)
	d := s.DictForTest()
	d.Insert("k", dict.Entry{Value: value.FromString("v"), ExpiresAt: 5000})

	if s.RemoveIfExpiresMatch("k", 9999) {
		t.Fatalf("removed despite a mismatched expires_at")
	}
	if !s.RemoveIfExpiresMatch("k", 5000) {
		t.Fatalf("failed to remove on a matching expires_at")
	}
	if _, ok := s.DictForTest().Get("k"); ok {
		t.Fatalf("key still present after a matching RemoveIfExpiresMatch")
	}
}

func TestPeekExpiresAt(t *testing.T) {
	s := New(0, nil, nil)
	if _, ok := s.PeekExpiresAt("missing"); ok {
		t.Fatalf("PeekExpiresAt on an absent key reported ok=true")
	}

	d := s.DictForTest()
	d.Insert("k", dict.Entry{Value: value.FromString("v"), ExpiresAt: 4242})
	at, ok := s.PeekExpiresAt("k")
	if !ok || at != 4242 {
		t.Fatalf("got (%d, %v), want (4242, true)", at, ok)
	}
}
