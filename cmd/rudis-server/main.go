// Command rudis-server is the process entry point (spec.md §4.M):
// parse flags, load configuration, wire every component together, and
// run until SIGINT/SIGTERM.
//
// Grounded on the teacher's cmd/df2redis/main.go + internal/cli's
// subcommand dispatch and signal wiring, narrowed to the one thing
// this server does: run. Flags use github.com/spf13/pflag instead of
// the teacher's stdlib flag package, since pflag already sits in the
// corpus's dependency surface (other example repos in the pack use it
// for the same GNU-style long-flag convention) and the teacher's own
// subcommand dispatcher has no equivalent left to imitate once
// migration subcommands are gone.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"rudis/internal/config"
	"rudis/internal/expire"
	"rudis/internal/forward"
	"rudis/internal/logger"
	"rudis/internal/metrics"
	"rudis/internal/pd"
	"rudis/internal/persist"
	"rudis/internal/replication"
	"rudis/internal/server"
	"rudis/internal/slot"
	"rudis/internal/store"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "", "path to config YAML file")
		addr       = pflag.StringP("addr", "a", "", "override server_addr from config")
		logDir     = pflag.String("log-dir", "logs", "directory for the log file")
		logLevel   = pflag.String("log-level", "info", "debug|info|warn|error")
	)
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *addr != "" {
		cfg.ServerAddr = *addr
	}

	if err := logger.Init(*logDir, parseLevel(*logLevel), "rudis-server"); err != nil {
		fmt.Fprintln(os.Stderr, "initializing logger:", err)
		os.Exit(1)
	}
	defer logger.Close()
	logger.Info("starting rudis-server: %s", cfg.Summary())

	if err := run(cfg); err != nil {
		logger.Error("server exited with error: %v", err)
		os.Exit(1)
	}
}

func parseLevel(s string) logger.Level {
	switch s {
	case "debug":
		return logger.DEBUG
	case "warn":
		return logger.WARN
	case "error":
		return logger.ERROR
	default:
		return logger.INFO
	}
}

// notifierSlot lets the expiration scheduler be constructed after the
// Db it schedules for, by deferring the real notifier until run assigns
// sched: slot.New needs an ExpireNotifier up front, but expire.New needs
// the Db (as a SlotSource) that store.New is about to build.
type notifierSlot struct {
	sched *expire.Scheduler
}

func (n *notifierSlot) NotifyUpdate(slotID uint16, key string, before, newAt int64) {
	if n.sched != nil {
		n.sched.NotifyUpdate(slotID, key, before, newAt)
	}
}

// dictAccess adapts Slot.RemoveIfExpiresMatch to expire.DictAccess.
type dictAccess struct{}

func (dictAccess) RemoveIfMatch(s *slot.Slot, key string, want int64) bool {
	return s.RemoveIfExpiresMatch(key, want)
}

func run(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	bus := forward.NewBus(cfg.ForwardMaxBacklog)

	notifier := &notifierSlot{}
	db, err := store.New(store.DefaultSlotCount, bus, notifier)
	if err != nil {
		return fmt.Errorf("building store: %w", err)
	}

	sched := expire.New(ctx, db, dictAccess{})
	notifier.sched = sched

	metricsCounters := metrics.New(bus)
	reporter := metrics.NewReporter(metricsCounters, pdHeartbeatInterval, func(s metrics.Snapshot) {
		logger.Debug("metrics: conns=%d/%d cmds=%d errs=%d bus_depth=%d", s.ConnectionsActive, s.ConnectionsTotal, s.CommandsProcessed, s.CommandErrors, s.ForwardBusDepth)
	})
	defer reporter.Close()

	var leader *replication.Leader
	if !cfg.IsFollower() {
		leader = replication.NewLeader(db, bus)
	}

	if cfg.HDP.SaveDir != "" || cfg.HDP.LoadDir != "" {
		dir := cfg.HDP.SaveDir
		if dir == "" {
			dir = cfg.HDP.LoadDir
		}
		mgr, err := persist.NewManager(dir, cfg.HDP.AOFCount, db, bus, sched)
		if err != nil {
			return fmt.Errorf("building persist manager: %w", err)
		}
		defer mgr.Close()

		if err := mgr.Recover(ctx); err != nil {
			logger.Warn("persistence recovery incomplete: %v", err)
		}
		go func() {
			if err := mgr.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("persist manager stopped: %v", err)
			}
		}()
	}

	var follower *replication.Follower
	if cfg.IsFollower() {
		follower = replication.NewFollower(db, sched)
		go func() {
			dial := func(dialCtx context.Context) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(dialCtx, "tcp", cfg.FromPD.Addr)
			}
			if err := follower.Run(ctx, dial); err != nil && ctx.Err() == nil {
				logger.Error("follower stopped: %v", err)
			}
		}()

		roleSource := roleSourceFunc(func() pd.Role { return pd.RoleFollower })
		pdClient := pd.NewClient(cfg.FromPD.Addr, cfg.FromPD.GroupID, cfg.ServerAddr, roleSource, pdHeartbeatInterval, func(string) {})
		go pdClient.Run(ctx)
	}

	ln, err := net.Listen("tcp", cfg.ServerAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.ServerAddr, err)
	}
	defer ln.Close()
	logger.Console("rudis-server listening on %s", cfg.ServerAddr)

	srv := server.New(db, bus, server.Config{MaxConnections: cfg.MaxConnections, ReadOnly: cfg.ReadOnly}, packageLogger{}, metricsCounters, leader)
	return srv.Serve(ctx, ln)
}

// packageLogger adapts the logger package's functions to
// server.Logger, since that package exposes state-free functions
// rather than a value.
type packageLogger struct{}

func (packageLogger) Printf(format string, args ...any) { logger.Printf(format, args...) }

type roleSourceFunc func() pd.Role

func (f roleSourceFunc) Role() pd.Role { return f() }

const pdHeartbeatInterval = 3 * time.Second
