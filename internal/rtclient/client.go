// Package rtclient is a thin RESP client used by integration tests and
// cmd/rudis-cli to talk to a running rudis server — never by the server
// itself.
//
// Adapted from teacher's internal/redisx/client.go: same Do(cmd,
// args...) shape so test code reads the same way, but backed by
// github.com/redis/go-redis/v9 instead of the teacher's hand-rolled
// RESP reader, since go-redis already speaks exactly the wire format
// this server emits and the teacher's own go.mod already depends on it
// (it was previously wired only to the migration tool's "Target"
// cluster client; this is the first real exercise of it against our
// own server).
package rtclient

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps a go-redis.Client pointed at one rudis server instance.
type Client struct {
	rdb *redis.Client
}

// Dial connects to addr (host:port) with the given timeout.
func Dial(addr string, timeout time.Duration) *Client {
	return &Client{rdb: redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})}
}

// Close releases the underlying connection pool.
func (c *Client) Close() error { return c.rdb.Close() }

// Do issues one command and returns its reply as whatever native Go
// type go-redis decoded it into (string, int64, []interface{}, nil, or
// an error for RESP error replies).
func (c *Client) Do(ctx context.Context, args ...any) (any, error) {
	return c.rdb.Do(ctx, args...).Result()
}

// Ping issues PING and returns the error, if any.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
