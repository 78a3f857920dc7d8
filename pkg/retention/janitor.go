// Package retention enforces the "keep at most N newest rows per
// collection" rule §3 assigns to the periodic retention task.
package retention

import (
	"context"
	"log/slog"
	"time"

	"github.com/nervesparksdev05/aidevops-monitor/pkg/store"
)

// capEnforcer is the subset of *store.Store the janitor needs, narrowed so
// it can be faked in tests without a live database.
type capEnforcer interface {
	EnforceRetention(ctx context.Context, caps store.RetentionCaps) error
}

// Janitor periodically sweeps every collection down to its configured cap.
type Janitor struct {
	store    capEnforcer
	caps     store.RetentionCaps
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewJanitor builds a Janitor; it does nothing until Start is called.
func NewJanitor(s capEnforcer, caps store.RetentionCaps, interval time.Duration) *Janitor {
	return &Janitor{store: s, caps: caps, interval: interval}
}

// Start launches the background sweep loop, idempotent across repeated
// calls.
func (j *Janitor) Start(ctx context.Context) {
	if j.cancel != nil {
		return
	}
	ctx, j.cancel = context.WithCancel(ctx)
	j.done = make(chan struct{})

	go j.run(ctx)

	slog.Info("retention janitor started", "interval", j.interval)
}

// Stop signals the sweep loop to exit and waits for it to finish.
func (j *Janitor) Stop() {
	if j.cancel == nil {
		return
	}
	j.cancel()
	<-j.done
	slog.Info("retention janitor stopped")
}

func (j *Janitor) run(ctx context.Context) {
	defer close(j.done)

	j.sweep(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	if err := j.store.EnforceRetention(ctx, j.caps); err != nil {
		slog.Error("retention sweep failed", "error", err)
	}
}
