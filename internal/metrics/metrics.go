// Package metrics implements spec.md §4.N: process-wide counters for
// connections, commands, and forward-bus backlog depth, sampled
// periodically rather than computed on demand.
//
// Grounded on the teacher's internal/replica/metrics.go
// (metricsRecorder): a ticker-driven flush loop batching pending
// updates under a mutex. Reshaped here onto sync/atomic counters, since
// spec.md's metrics are simple monotonic counts/gauges rather than the
// teacher's named float map — and, per DESIGN.md, the teacher itself
// never reaches for a metrics library for this concern, so the ambient
// stack stays on sync/atomic rather than inventing a dependency the
// corpus doesn't show.
package metrics

import (
	"sync/atomic"
	"time"

	"rudis/internal/forward"
)

// Snapshot is a point-in-time read of every counter, suitable for
// logging or for a future INFO-style command.
type Snapshot struct {
	ConnectionsActive int64
	ConnectionsTotal  int64
	CommandsProcessed int64
	CommandErrors     int64
	ForwardBusDepth   int64
	ReplicaGaps       int64
	AOFMessagesWritten int64
}

// Counters is the process-wide metrics registry. Safe for concurrent use.
type Counters struct {
	connectionsActive  atomic.Int64
	connectionsTotal   atomic.Int64
	commandsProcessed  atomic.Int64
	commandErrors      atomic.Int64
	replicaGaps        atomic.Int64
	aofMessagesWritten atomic.Int64

	bus *forward.Bus // depth is read live, not accumulated
}

// New builds a Counters registry. bus may be nil in tests that don't
// exercise the forward bus.
func New(bus *forward.Bus) *Counters {
	return &Counters{bus: bus}
}

func (c *Counters) ConnectionOpened() {
	c.connectionsActive.Add(1)
	c.connectionsTotal.Add(1)
}

func (c *Counters) ConnectionClosed() { c.connectionsActive.Add(-1) }

func (c *Counters) CommandProcessed() { c.commandsProcessed.Add(1) }

func (c *Counters) CommandErrored() { c.commandErrors.Add(1) }

func (c *Counters) ReplicaGap() { c.replicaGaps.Add(1) }

func (c *Counters) AOFMessageWritten() { c.aofMessagesWritten.Add(1) }

// Snapshot reads every counter atomically-per-field (not as one
// transaction; acceptable for a metrics surface).
func (c *Counters) Snapshot() Snapshot {
	s := Snapshot{
		ConnectionsActive: c.connectionsActive.Load(),
		ConnectionsTotal:  c.connectionsTotal.Load(),
		CommandsProcessed: c.commandsProcessed.Load(),
		CommandErrors:     c.commandErrors.Load(),
		ReplicaGaps:       c.replicaGaps.Load(),
		AOFMessagesWritten: c.aofMessagesWritten.Load(),
	}
	if c.bus != nil {
		s.ForwardBusDepth = int64(c.bus.Depth())
	}
	return s
}

// Reporter periodically hands a Snapshot to sink, mirroring the
// teacher's ticker-driven flush loop shape.
type Reporter struct {
	counters *Counters
	interval time.Duration
	sink     func(Snapshot)
	stopCh   chan struct{}
}

// NewReporter starts a background goroutine calling sink every
// interval until Close.
func NewReporter(counters *Counters, interval time.Duration, sink func(Snapshot)) *Reporter {
	r := &Reporter{counters: counters, interval: interval, sink: sink, stopCh: make(chan struct{})}
	go r.loop()
	return r
}

func (r *Reporter) loop() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.sink(r.counters.Snapshot())
		case <-r.stopCh:
			r.sink(r.counters.Snapshot())
			return
		}
	}
}

// Close stops the reporter after one final flush.
func (r *Reporter) Close() { close(r.stopCh) }
