package pd

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"
)

type fixedRole struct{ role Role }

func (f fixedRole) Role() Role { return f.role }

func TestRoundTripSendsHeartbeatAndParsesAck(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	gotHB := make(chan Heartbeat, 1)
	go func() {
		var hb Heartbeat
		dec := json.NewDecoder(bufio.NewReader(serverConn))
		if err := dec.Decode(&hb); err != nil {
			return
		}
		gotHB <- hb
		enc := json.NewEncoder(serverConn)
		enc.Encode(HeartbeatAck{CurrentLeader: "node-2"})
	}()

	c := NewClient("unused", "group-a", "server-1", fixedRole{RoleFollower}, time.Second, nil)
	ack, err := c.roundTrip(clientConn)
	if err != nil {
		t.Fatalf("roundTrip: %v", err)
	}
	if ack.CurrentLeader != "node-2" {
		t.Fatalf("got CurrentLeader=%q, want node-2", ack.CurrentLeader)
	}

	select {
	case hb := <-gotHB:
		if hb.GroupID != "group-a" || hb.ServerID != "server-1" || hb.Role != RoleFollower {
			t.Fatalf("got heartbeat %+v", hb)
		}
	case <-time.After(time.Second):
		t.Fatal("server never received a heartbeat")
	}
}

func TestRunInvokesOnLeaderChangeWhenLeaderChanges(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	leaders := []string{"node-1", "node-1", "node-2"}
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		dec := json.NewDecoder(bufio.NewReader(conn))
		enc := json.NewEncoder(conn)
		for _, leader := range leaders {
			var hb Heartbeat
			if err := dec.Decode(&hb); err != nil {
				return
			}
			if err := enc.Encode(HeartbeatAck{CurrentLeader: leader}); err != nil {
				return
			}
		}
	}()

	var seen []string
	done := make(chan struct{})
	c := NewClient(ln.Addr().String(), "group-a", "server-1", fixedRole{RoleLeader}, 10*time.Millisecond, func(leader string) {
		seen = append(seen, leader)
		if len(seen) == 2 {
			close(done)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go c.Run(ctx)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("got %d leader-change callbacks, want 2: %v", len(seen), seen)
	}

	if seen[0] != "node-1" || seen[1] != "node-2" {
		t.Fatalf("got leader sequence %v, want [node-1 node-2]", seen)
	}
}
