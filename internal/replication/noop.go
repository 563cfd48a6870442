package replication

import (
	"rudis/internal/command"
	"rudis/internal/forward"
)

// noopCmd is the keepalive ForwardMessage a leader sends down an idle
// SYNCCMD tail so the follower's read loop never blocks indefinitely
// waiting to detect a dead connection (spec.md §4.H keepalive rule).
type noopCmd struct{}

func (noopCmd) OpCode() forward.OpCode                   { return command.OpNoop }
func (noopCmd) EncodeBody(w *forward.Writer) error       { return nil }
func decodeNoop(r *forward.Reader) (forward.Command, error) { return noopCmd{}, nil }

func init() { forward.RegisterDecoder(command.OpNoop, decodeNoop) }
