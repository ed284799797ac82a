package remote

import (
	"context"
	"log/slog"
	"time"

	"storesync/internal/logging"
)

// HealthChecker reports whether the backend is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Prober installs actor on conn while health checks pass and clears it when
// they fail.
type Prober struct {
	checker  HealthChecker
	actor    Actor
	conn     *Connection
	interval time.Duration
	logger   *slog.Logger
}

// NewProber returns a prober. interval defaults to 15s.
func NewProber(conn *Connection, checker HealthChecker, actor Actor, interval time.Duration, logger *slog.Logger) *Prober {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Prober{
		checker:  checker,
		actor:    actor,
		conn:     conn,
		interval: interval,
		logger:   logging.NewComponentLogger(logger, "prober"),
	}
}

// Run probes immediately and then every interval until ctx is done.
func (p *Prober) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.ProbeOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.ProbeOnce(ctx)
		}
	}
}

// ProbeOnce runs one health check and updates the connection. It reports
// whether the backend is available.
func (p *Prober) ProbeOnce(ctx context.Context) bool {
	checkCtx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	was := p.conn.Available()
	if err := p.checker.Health(checkCtx); err != nil {
		if ctx.Err() != nil {
			return was
		}
		p.conn.Clear()
		if was {
			logging.WarnWithContext(p.logger, "storefront backend unreachable", "remote_unavailable",
				logging.String(logging.FieldErrorHint, "mutations will be queued until the backend answers health checks"),
				logging.Error(err),
			)
		} else {
			p.logger.Debug("health check failed", logging.Error(err))
		}
		return false
	}
	p.conn.Set(p.actor)
	if !was {
		p.logger.Info("storefront backend available")
	}
	return true
}
