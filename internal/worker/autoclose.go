package worker

import (
	"context"
	"log/slog"
	"time"

	"finanzas/internal/services"
)

// Closer settles the month of now when its billing cycle has closed.
// Satisfied by *services.AutoCloseProcessor.
type Closer interface {
	ProcessDue(ctx context.Context, now time.Time) (services.SettlementResult, error)
}

// AutoCloseLoop runs the monthly settlement periodically.
type AutoCloseLoop struct {
	closer   Closer
	interval time.Duration
	now      func() time.Time
}

func NewAutoCloseLoop(closer Closer, interval time.Duration) *AutoCloseLoop {
	return &AutoCloseLoop{closer: closer, interval: interval, now: time.Now}
}

// Run settles once immediately and then on every tick until ctx is done.
// Failed runs are logged; the next tick retries.
func (l *AutoCloseLoop) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "Auto-close loop started", "interval", l.interval)

	l.runOnce(ctx, l.now())

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Auto-close loop stopped")
			return nil
		case <-ticker.C:
			l.runOnce(ctx, l.now())
		}
	}
}

func (l *AutoCloseLoop) runOnce(ctx context.Context, now time.Time) {
	res, err := l.closer.ProcessDue(ctx, now)
	if err != nil {
		slog.ErrorContext(ctx, "Auto-close run failed",
			"month", res.Month.String(),
			"settled", res.Count(),
			"error", err)
		return
	}
	if !res.Closed {
		slog.DebugContext(ctx, "Billing cycle open, nothing to close", "month", res.Month.String())
		return
	}
	slog.InfoContext(ctx, "Auto-close run complete",
		"month", res.Month.String(),
		"settled", res.Count(),
		"next_check", now.Add(l.interval).Format("15:04:05"))
}
