// Command backcheck serves the backup compliance dashboard: it ingests
// backup-job exports, joins them against the server registry, and seals a
// compliance archive once per day.
//
//	@title			backcheck API
//	@version		1.0
//	@description	Backup compliance dashboard API
//	@BasePath		/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pbonnel/backcheck/internal/alerter"
	"github.com/pbonnel/backcheck/internal/api"
	"github.com/pbonnel/backcheck/internal/cache"
	"github.com/pbonnel/backcheck/internal/compliance"
	"github.com/pbonnel/backcheck/internal/config"
	"github.com/pbonnel/backcheck/internal/lock"
	"github.com/pbonnel/backcheck/internal/notify"
	"github.com/pbonnel/backcheck/internal/scheduler"
	"github.com/pbonnel/backcheck/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	setupLogging(cfg)

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	locker, err := lock.NewFileLocker(cfg.LockDir)
	if err != nil {
		return fmt.Errorf("creating lock dir: %w", err)
	}

	calc := compliance.NewCalculator(st, st, st, cfg.Compute.PeriodHours)
	arch := compliance.NewArchiver(st, st, st, locker,
		cfg.Archive.Hour, cfg.Archive.Minute, cfg.Archive.StrictLocking)
	resultCache := cache.New(calc.Compute, cfg.Compute.CacheTTL.Std())

	notifier := notify.FromConfig(cfg.Notify)
	alerts := alerter.New(cfg.Alerts, notifier, st)
	sched := scheduler.New(cfg, arch, resultCache, alerts, st)

	server := api.NewServer(cfg, st, resultCache, arch, sched)
	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runScheduler := acquireSchedulerLock(locker)
	if runScheduler {
		defer locker.Release(schedulerLockName)
	}

	g, ctx := errgroup.WithContext(ctx)
	if runScheduler {
		g.Go(func() error {
			return sched.Run(ctx)
		})
	}
	g.Go(func() error {
		slog.Info("listening", "addr", cfg.Listen)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// schedulerLockName guards the timer loop across processes sharing the lock
// directory. Only the holder runs the scheduler; the rest serve HTTP only.
const schedulerLockName = "scheduler"

// acquireSchedulerLock reports whether this process should run the timer
// loop. The flock has no expiry, so the TTL argument is nominal; the lock
// dies with the holding process.
func acquireSchedulerLock(locker *lock.FileLocker) bool {
	acquired, err := locker.TryAcquire(schedulerLockName, 0)
	if err != nil {
		slog.Warn("scheduler lock unavailable, running timers unprotected", "error", err)
		return true
	}
	if !acquired {
		slog.Info("scheduler lock held by another process, timers disabled")
		return false
	}
	return true
}

func setupLogging(cfg *config.Config) {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
