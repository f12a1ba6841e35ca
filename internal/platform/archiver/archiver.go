// Package archiver runs best-effort durable writes on a worker pool. The
// core components (store, ledger, monitor) hand their write-through here so
// that a slow or failing backend never blocks or fails an in-memory
// operation; failures are logged and swallowed.
package archiver

import (
	"context"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/retailbank-ledger/internal/config"
)

type Archiver struct {
	pool    *ants.Pool
	timeout time.Duration
	logger  *slog.Logger
}

// New creates an archiver backed by an ants worker pool
func New(cfg config.ArchiverConfig, logger *slog.Logger) (*Archiver, error) {
	pool, err := ants.NewPool(cfg.PoolSize)
	if err != nil {
		return nil, err
	}

	return &Archiver{
		pool:    pool,
		timeout: cfg.WriteTimeout,
		logger:  logger,
	}, nil
}

// NewSynchronous creates an archiver that runs writes inline on the calling
// goroutine. Used in tests where write-through effects must be observable
// immediately.
func NewSynchronous(logger *slog.Logger) *Archiver {
	return &Archiver{
		timeout: 5 * time.Second,
		logger:  logger,
	}
}

// Submit schedules fn on the pool. The operation gets its own deadline,
// detached from the caller's context: the in-memory result has already been
// decided by the time the write runs.
func (a *Archiver) Submit(op string, fn func(ctx context.Context) error) {
	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			a.logger.Error("archive write failed", "op", op, "error", err)
		}
	}

	if a.pool == nil {
		run()
		return
	}

	if err := a.pool.Submit(run); err != nil {
		a.logger.Error("failed to submit archive write", "op", op, "error", err)
	}
}

// Running returns the number of in-flight archive writes
func (a *Archiver) Running() int {
	if a.pool == nil {
		return 0
	}
	return a.pool.Running()
}

// Close releases the worker pool. Pending writes that have not started are
// dropped; this runs during shutdown after the HTTP server has drained.
func (a *Archiver) Close() {
	if a.pool == nil {
		return
	}
	a.logger.Info("Shutting down archiver pool", "running_writes", a.pool.Running())
	a.pool.Release()
}
