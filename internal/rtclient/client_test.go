package rtclient

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"rudis/internal/resp"
)

// fakeServer answers PING with +PONG, GET k with a bulk "v" (or a null
// bulk for any other key) and every other command with +OK, enough to
// exercise Dial/Do/Ping/Close against go-redis's real RESP2 encoder.
func fakeServer(t *testing.T) net.Addr {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		br := bufio.NewReader(conn)
		bw := bufio.NewWriter(conn)
		p := resp.NewParser(br)
		for {
			f, err := p.ReadFrame()
			if err != nil {
				return
			}
			args := make([]string, 0, len(f.Array))
			for _, a := range f.Array {
				args = append(args, string(a.Bulk))
			}
			var reply resp.Frame
			if len(args) == 0 {
				reply = resp.Err("ERR empty command")
			} else {
				switch strings.ToUpper(args[0]) {
				case "PING":
					reply = resp.Simple("PONG")
				case "GET":
					if len(args) > 1 && args[1] == "k" {
						reply = resp.BulkString("v")
					} else {
						reply = resp.NullBulk()
					}
				default:
					reply = resp.OK()
				}
			}
			if err := resp.WriteFrame(bw, reply); err != nil {
				return
			}
			if err := bw.Flush(); err != nil {
				return
			}
		}
	}()
	return ln.Addr()
}

func TestPingSucceedsAgainstFakeServer(t *testing.T) {
	addr := fakeServer(t)
	c := Dial(addr.String(), time.Second)
	defer c.Close()

	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestDoSetReturnsOK(t *testing.T) {
	addr := fakeServer(t)
	c := Dial(addr.String(), time.Second)
	defer c.Close()

	got, err := c.Do(context.Background(), "SET", "k", "v")
	if err != nil {
		t.Fatalf("Do(SET): %v", err)
	}
	if got != "OK" {
		t.Fatalf("got %v, want OK", got)
	}
}

func TestDoGetReturnsStoredValue(t *testing.T) {
	addr := fakeServer(t)
	c := Dial(addr.String(), time.Second)
	defer c.Close()

	got, err := c.Do(context.Background(), "GET", "k")
	if err != nil {
		t.Fatalf("Do(GET): %v", err)
	}
	if got != "v" {
		t.Fatalf("got %v, want v", got)
	}
}

func TestDoGetMissingKeyReturnsNil(t *testing.T) {
	addr := fakeServer(t)
	c := Dial(addr.String(), time.Second)
	defer c.Close()

	got, err := c.Do(context.Background(), "GET", "missing")
	if err != nil {
		t.Fatalf("Do(GET missing): %v", err)
	}
	if got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}

func TestPingFailsAgainstUnreachableAddr(t *testing.T) {
	c := Dial("127.0.0.1:1", 100*time.Millisecond)
	defer c.Close()

	if err := c.Ping(context.Background()); err == nil {
		t.Fatalf("Ping against an unreachable address succeeded, want an error")
	}
}
