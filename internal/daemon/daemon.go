package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"storesync/internal/api"
	"storesync/internal/cache"
	"storesync/internal/config"
	"storesync/internal/logging"
	"storesync/internal/mutation"
	"storesync/internal/queue"
	"storesync/internal/remote"
	"storesync/internal/replay"
	"storesync/internal/storage"
	"storesync/internal/syncstatus"
)

// Daemon owns the replay runtime and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *storage.Store

	queue    *queue.Queue
	conn     *remote.Connection
	client   *remote.Client
	prober   *remote.Prober
	reporter *syncstatus.Reporter
	cache    *cache.Registry
	engine   *replay.Engine
	runner   *replay.Runner
	service  *api.SyncService
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Online       bool
	StoragePath  string
	LockFilePath string
	APIAddress   string
}

// New constructs a daemon over an opened store.
func New(cfg *config.Config, store *storage.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	q := queue.Open(cfg, store, logger)
	conn := remote.NewConnection()
	client := remote.NewClientFromConfig(cfg, logger)
	reporter := syncstatus.NewReporter(cfg.SyncedDisplay())
	registry := cache.NewRegistry()
	engine := replay.NewEngine(conn, q, registry, reporter,
		replay.WithCallTimeout(cfg.CallTimeout()),
		replay.WithLogger(logger),
	)
	runner := replay.NewRunner(engine, conn, cfg.DrainLockPath(), logger)

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		queue:    q,
		conn:     conn,
		client:   client,
		prober:   remote.NewProber(conn, client, client, cfg.ProbeInterval(), logger),
		reporter: reporter,
		cache:    registry,
		engine:   engine,
		runner:   runner,
		lockPath: cfg.DaemonLockPath(),
		lock:     flock.New(cfg.DaemonLockPath()),
	}
	d.service = api.NewSyncService(api.SyncDeps{
		Queue:     q,
		Status:    reporter,
		Cache:     registry,
		Conn:      conn,
		Drainer:   runner,
		Submitter: mutation.NewSubmitter(conn, q, registry, logger),
	})

	srv, err := newAPIServer(cfg, d.service, logger)
	if err != nil {
		return nil, err
	}
	d.api = srv
	return d, nil
}

// Service exposes the operation set served over HTTP.
func (d *Daemon) Service() *api.SyncService {
	return d.service
}

// Start acquires the daemon lock and launches the prober, the replay runner,
// and the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another storesync daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		_ = d.runner.Run(runCtx)
	}()
	go func() {
		defer d.wg.Done()
		if d.cfg.Remote.BaseURL == "" {
			d.logger.Warn("remote.base_url not set; mutations will stay queued",
				logging.String(logging.FieldEventType, "remote_not_configured"))
			return
		}
		_ = d.prober.Run(runCtx)
	}()

	d.running.Store(true)
	d.logger.Info("storesync daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.api.address()),
		logging.Int("queue_length", d.queue.Len()),
	)
	return nil
}

// Stop stops background work and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("storesync daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Probe runs one availability check against the backend and reports whether
// the actor is now installed. It is false when no backend is configured.
func (d *Daemon) Probe(ctx context.Context) bool {
	if d.cfg.Remote.BaseURL == "" {
		return false
	}
	return d.prober.ProbeOnce(ctx)
}

// Status reports runtime information.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		Online:       d.conn.Available(),
		StoragePath:  d.cfg.StoragePath(),
		LockFilePath: d.lockPath,
		APIAddress:   d.api.address(),
	}
}
