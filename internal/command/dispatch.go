package command

import (
	"strings"

	"rudis/internal/resp"
	"rudis/internal/slot"
)

// Kind tells the caller which Slot method a Parsed command must be
// routed through.
type Kind int

const (
	KindRead Kind = iota
	KindWrite
	KindExpiresWrite
	KindPing
)

// Parsed is the result of dispatching one command line: exactly one of
// Read/Write/ExpiresWrite/Ping is populated, selected by Kind.
type Parsed struct {
	Kind         Kind
	Read         slot.ReadCmd
	Write        slot.ForwardWriteCmd
	ExpiresWrite slot.ForwardExpiresWriteCmd
	Ping         *Ping
}

// Dispatch resolves a command name to its Parse function, runs it
// against c, and wraps the result with the Kind the caller needs to
// route it through Slot. Grounded on
// original_source/component/connection/src/parse/mod.rs's
// name-to-handler table, reshaped as a single case-insensitive switch.
func Dispatch(name string, c *resp.Cursor) (Parsed, error) {
	switch strings.ToUpper(name) {
	case "PING":
		p, err := ParsePing(c)
		if err != nil {
			return Parsed{}, err
		}
		return Parsed{Kind: KindPing, Ping: p}, nil

	case "GET":
		return readCmd(ParseGet(c))
	case "SET":
		return expiresWriteCmd(ParseSet(c))
	case "SETEX":
		return expiresWriteCmd(ParseSetEx(c))
	case "PSETEX":
		return expiresWriteCmd(ParsePSetEx(c))
	case "DEL":
		return expiresWriteCmd(ParseDel(c))
	case "EXISTS":
		return readCmd(ParseExists(c))
	case "EXPIRE":
		return expiresWriteCmd(ParseExpire(c))
	case "PEXPIRE":
		return expiresWriteCmd(ParsePExpire(c))
	case "EXPIREAT":
		return expiresWriteCmd(ParseExpireAt(c))
	case "PEXPIREAT":
		return expiresWriteCmd(ParsePExpireAt(c))
	case "TTL":
		return readCmd(ParseTTL(c))
	case "PTTL":
		return readCmd(ParsePTTL(c))
	case "INCR":
		return writeCmd(ParseIncr(c))
	case "DECR":
		return writeCmd(ParseDecr(c))
	case "INCRBY":
		return writeCmd(ParseIncrBy(c))
	case "DECRBY":
		return writeCmd(ParseDecrBy(c))

	case "HSET":
		return writeCmd(ParseHSet(c))
	case "HSETNX":
		return writeCmd(ParseHSetNX(c))
	case "HDEL":
		return writeCmd(ParseHDel(c))
	case "HEXISTS":
		return readCmd(ParseHExists(c))
	case "HGET":
		return readCmd(ParseHGet(c))
	case "HMGET":
		return readCmd(ParseHMGet(c))
	case "HGETALL":
		return readCmd(ParseHGetAll(c))
	case "HINCRBY":
		return writeCmd(ParseHIncrBy(c))

	case "LPUSH":
		return writeCmd(ParseLPush(c))
	case "RPUSH":
		return writeCmd(ParseRPush(c))
	case "LPUSHX":
		return writeCmd(ParseLPushX(c))
	case "RPUSHX":
		return writeCmd(ParseRPushX(c))
	case "LPOP":
		return writeCmd(ParseLPop(c))
	case "RPOP":
		return writeCmd(ParseRPop(c))
	case "LLEN":
		return readCmd(ParseLLen(c))
	case "LRANGE":
		return readCmd(ParseLRange(c))

	case "SADD":
		return writeCmd(ParseSAdd(c))
	case "SREM":
		return writeCmd(ParseSRem(c))
	case "SISMEMBER":
		return readCmd(ParseSIsMember(c))
	case "SMISMEMBER":
		return readCmd(ParseSMIsMember(c))
	case "SMEMBERS":
		return readCmd(ParseSMembers(c))

	case "ZADD":
		return writeCmd(ParseZAdd(c))
	case "ZREM":
		return writeCmd(ParseZRem(c))
	case "ZRANK":
		return readCmd(ParseZRank(c))
	case "ZREVRANK":
		return readCmd(ParseZRevRank(c))
	case "ZRANGE":
		return readCmd(ParseZRange(c))
	case "ZREVRANGE":
		return readCmd(ParseZRevRange(c))
	case "ZRANGEBYSCORE":
		return readCmd(ParseZRangeByScore(c))
	case "ZREVRANGEBYSCORE":
		return readCmd(ParseZRevRangeByScore(c))
	case "ZRANGEBYLEX":
		return readCmd(ParseZRangeByLex(c))
	case "ZREVRANGEBYLEX":
		return readCmd(ParseZRevRangeByLex(c))
	case "ZREMRANGEBYRANK":
		return writeCmd(ParseZRemRangeByRank(c))
	case "ZREMRANGEBYSCORE":
		return writeCmd(ParseZRemRangeByScore(c))
	case "ZREMRANGEBYLEX":
		return writeCmd(ParseZRemRangeByLex(c))

	default:
		return Parsed{}, unknownCommandErr{name}
	}
}

// unknownCommandErr lets the server layer render resp.ErrUnknownCommand
// without Dispatch importing resp's Frame constructors as an error type.
type unknownCommandErr struct{ name string }

func (e unknownCommandErr) Error() string { return "ERR unknown command `" + e.name + "`" }

func (e unknownCommandErr) Name() string { return e.name }

func readCmd[T slot.ReadCmd](cmd T, err error) (Parsed, error) {
	if err != nil {
		return Parsed{}, err
	}
	return Parsed{Kind: KindRead, Read: cmd}, nil
}

func writeCmd[T slot.ForwardWriteCmd](cmd T, err error) (Parsed, error) {
	if err != nil {
		return Parsed{}, err
	}
	return Parsed{Kind: KindWrite, Write: cmd}, nil
}

func expiresWriteCmd[T slot.ForwardExpiresWriteCmd](cmd T, err error) (Parsed, error) {
	if err != nil {
		return Parsed{}, err
	}
	return Parsed{Kind: KindExpiresWrite, ExpiresWrite: cmd}, nil
}
