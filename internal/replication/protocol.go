// Package replication implements spec.md §4.H: a leader streams a full
// Dict dump per requested slot on SYNCSNAPSHOT, then fans out live
// ForwardMessages on SYNCCMD; a follower runs the opposite side of both
// and resyncs a single slot on a detected write-id gap.
//
// Grounded on the teacher's entire internal/replica package — its
// primary domain was "client replicating from a Dragonfly master";
// replicator.go's connect/handshake/tail-loop shape and flow_writer.go's
// keepalive pacing are reused here, inverted to "server replicating to
// followers of itself."
package replication

import (
	"bufio"
	"fmt"

	"rudis/internal/resp"
)

// Command names recognized by the server's connection loop as
// replication control verbs rather than ordinary data commands.
const (
	CmdSyncSnapshot = "SYNCSNAPSHOT"
	CmdSyncCmd      = "SYNCCMD"
)

// AllSlots is the SYNCSNAPSHOT argument requesting every slot, spelled
// the way spec.md's example shows it ("SYNCSNAPSHOT ALL").
const AllSlots = "ALL"

// writeSyncSnapshot sends "SYNCSNAPSHOT <arg>" as a RESP2 array, the
// same inline-command shape every other command uses.
func writeSyncSnapshot(w *bufio.Writer, arg string) error {
	return resp.WriteFrame(w, resp.Array([]resp.Frame{
		resp.BulkString(CmdSyncSnapshot),
		resp.BulkString(arg),
	}))
}

func writeSyncCmd(w *bufio.Writer) error {
	return resp.WriteFrame(w, resp.Array([]resp.Frame{resp.BulkString(CmdSyncCmd)}))
}

func readOK(p *resp.Parser) error {
	f, err := p.ReadFrame()
	if err != nil {
		return err
	}
	if f.Kind != resp.KindSimple || f.Str != "OK" {
		return fmt.Errorf("replication: expected +OK, got %v", f)
	}
	return nil
}

// snapshotRecordPresent and snapshotRecordDone tag each record in the
// SYNCSNAPSHOT binary tail:
// present means "one more slot dump follows", done terminates the
// stream (spec.md §4.H: "streams {Some(slot_id), dict}... then None").
const (
	snapshotRecordPresent byte = 1
	snapshotRecordDone    byte = 0
)
