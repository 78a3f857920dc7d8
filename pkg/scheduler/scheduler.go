// Package scheduler reconciles the set of running per-tenant workers
// against the store's active-tenant list, per §4.9.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nervesparksdev05/aidevops-monitor/pkg/worker"
)

// reconcileInterval is the 300s tick §4.9 specifies.
const reconcileInterval = 300 * time.Second

// reconcileRetryInterval is the faster retry §7 requires after a scheduler-
// level exception (an ActiveTenants failure), distinct from the steady-state
// reconcileInterval cadence.
const reconcileRetryInterval = 60 * time.Second

// tenantLister is the subset of *store.Store the scheduler needs.
type tenantLister interface {
	ActiveTenants(ctx context.Context) ([]string, error)
}

// TenantWorker is the subset of *worker.Worker the scheduler manages.
type TenantWorker interface {
	Start(ctx context.Context)
	Stop()
	Health() worker.Health
}

// WorkerFactory builds a tenant worker for a given user id; injected so
// tests can substitute a fake without constructing the real LLM/store/notify
// stack.
type WorkerFactory func(userID string) TenantWorker

// Scheduler maintains one worker per tenant with an enabled target, adding
// and removing workers as the tenant set changes.
type Scheduler struct {
	list          tenantLister
	newWorker     WorkerFactory
	interval      time.Duration
	retryInterval time.Duration

	mu      sync.Mutex
	workers map[string]TenantWorker

	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a Scheduler; it does nothing until Start is called.
func New(list tenantLister, newWorker WorkerFactory) *Scheduler {
	return &Scheduler{
		list:          list,
		newWorker:     newWorker,
		interval:      reconcileInterval,
		retryInterval: reconcileRetryInterval,
		workers:       make(map[string]TenantWorker),
	}
}

// Start launches the reconciliation loop. Idempotent across repeated calls.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.run(ctx)
}

// Stop cancels the reconciliation loop and awaits its exit, then stops every
// running worker, awaiting each one's shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done

	s.mu.Lock()
	workers := make([]TenantWorker, 0, len(s.workers))
	for _, w := range s.workers {
		workers = append(workers, w)
	}
	s.workers = make(map[string]TenantWorker)
	s.mu.Unlock()

	for _, w := range workers {
		w.Stop()
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	next := s.interval
	if !s.reconcile(ctx) {
		next = s.retryInterval
	}

	timer := time.NewTimer(next)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			next = s.interval
			if !s.reconcile(ctx) {
				next = s.retryInterval
			}
			timer.Reset(next)
		}
	}
}

// reconcile implements §4.9 steps 1-3: query active tenants, start workers
// for newly-active ones, stop workers for ones no longer active. It reports
// false on a scheduler-level exception (the ActiveTenants query itself
// failing), so run can retry sooner than the steady-state interval per §7.
func (s *Scheduler) reconcile(ctx context.Context) bool {
	active, err := s.list.ActiveTenants(ctx)
	if err != nil {
		slog.Error("scheduler reconciliation failed, retrying in 60s", "error", err)
		return false
	}

	wanted := make(map[string]struct{}, len(active))
	for _, u := range active {
		wanted[u] = struct{}{}
	}

	s.mu.Lock()
	var toStart []string
	for u := range wanted {
		if _, ok := s.workers[u]; !ok {
			toStart = append(toStart, u)
		}
	}
	var toStop []TenantWorker
	var toStopIDs []string
	for u, w := range s.workers {
		if _, ok := wanted[u]; !ok {
			toStop = append(toStop, w)
			toStopIDs = append(toStopIDs, u)
			delete(s.workers, u)
		}
	}
	for _, u := range toStart {
		w := s.newWorker(u)
		w.Start(ctx)
		s.workers[u] = w
	}
	s.mu.Unlock()

	for _, w := range toStop {
		w.Stop()
	}

	if len(toStart) > 0 || len(toStopIDs) > 0 {
		slog.Info("scheduler reconciled tenant worker set", "started", toStart, "stopped", toStopIDs)
	}

	return true
}

// Health reports every running worker's health, keyed by tenant.
func (s *Scheduler) Health() map[string]worker.Health {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]worker.Health, len(s.workers))
	for u, w := range s.workers {
		out[u] = w.Health()
	}
	return out
}
