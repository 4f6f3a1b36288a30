// Package daemon enforces single-instance execution and owns the HTTP API
// and the background task loops.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"ludo/internal/config"
	"ludo/internal/downloader"
	"ludo/internal/grab"
	"ludo/internal/indexer"
	"ludo/internal/library"
	"ludo/internal/logging"
	"ludo/internal/scheduler"
	"ludo/internal/store"
	"ludo/internal/updates"
)

// Deps carries the wired services the daemon exposes.
type Deps struct {
	Store       *store.Store
	Gateway     indexer.Gateway
	Adapter     downloader.Adapter
	Engine      *library.Engine
	Coordinator *grab.Coordinator
	Detector    *updates.Detector
	Dispatcher  *updates.Dispatcher
	Scheduler   *scheduler.Scheduler
}

// Daemon coordinates the background services and the API server.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	deps   Deps
	api    *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a daemon. All Deps fields except Scheduler are required.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || deps.Store == nil || deps.Engine == nil || deps.Coordinator == nil {
		return nil, errors.New("daemon requires config, store, and wired services")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "ludod.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger.With(logging.String("component", "daemon")),
		deps:     deps,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the instance lock and launches the scheduler and API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another ludo daemon instance is already running")
	}

	ctx, d.cancel = context.WithCancel(ctx)
	if d.deps.Scheduler != nil {
		d.deps.Scheduler.Start(ctx)
	}
	if d.api != nil {
		if err := d.api.start(ctx); err != nil {
			d.teardown()
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts background processing and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.teardown()
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

func (d *Daemon) teardown() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.api != nil {
		d.api.stop()
	}
	if d.deps.Scheduler != nil {
		d.deps.Scheduler.Stop()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
}

// Running reports whether the daemon has started.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// LockPath returns the instance lock file location.
func (d *Daemon) LockPath() string {
	return d.lockPath
}
