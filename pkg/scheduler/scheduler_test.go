package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nervesparksdev05/aidevops-monitor/pkg/worker"
)

type fakeLister struct {
	mu      sync.Mutex
	tenants []string
	err     error
	calls   int
}

func (f *fakeLister) set(tenants []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tenants = tenants
}

func (f *fakeLister) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeLister) ActiveTenants(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]string, len(f.tenants))
	copy(out, f.tenants)
	return out, nil
}

type fakeTenantWorker struct {
	mu      sync.Mutex
	started bool
	stopped bool
}

func (w *fakeTenantWorker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.started = true
}

func (w *fakeTenantWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
}

func (w *fakeTenantWorker) Health() worker.Health {
	return worker.Health{}
}

func (w *fakeTenantWorker) isStopped() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopped
}

func newTestScheduler(t *testing.T, list tenantLister) (*Scheduler, map[string]*fakeTenantWorker) {
	made := make(map[string]*fakeTenantWorker)
	var mu sync.Mutex
	s := New(list, func(userID string) TenantWorker {
		w := &fakeTenantWorker{}
		mu.Lock()
		made[userID] = w
		mu.Unlock()
		return w
	})
	s.interval = 10 * time.Millisecond
	return s, made
}

func TestReconcileStartsWorkersForNewTenants(t *testing.T) {
	lister := &fakeLister{tenants: []string{"a", "b"}}
	s, made := newTestScheduler(t, lister)

	s.reconcile(t.Context())

	assert.Len(t, made, 2)
	assert.Contains(t, made, "a")
	assert.Contains(t, made, "b")
}

func TestReconcileStopsWorkersForRemovedTenants(t *testing.T) {
	lister := &fakeLister{tenants: []string{"a", "b"}}
	s, made := newTestScheduler(t, lister)

	s.reconcile(t.Context())
	lister.set([]string{"b", "c"})
	s.reconcile(t.Context())

	require.Contains(t, made, "a")
	assert.True(t, made["a"].isStopped())
	assert.False(t, made["b"].isStopped())
	assert.Contains(t, made, "c")

	s.mu.Lock()
	_, stillTracked := s.workers["a"]
	s.mu.Unlock()
	assert.False(t, stillTracked)
}

func TestReconcileLeavesUnchangedTenantsRunning(t *testing.T) {
	lister := &fakeLister{tenants: []string{"a", "b"}}
	s, made := newTestScheduler(t, lister)

	s.reconcile(t.Context())
	first := made["b"]
	s.reconcile(t.Context())

	assert.Same(t, first, made["b"])
	assert.False(t, first.isStopped())
}

func TestReconcileReportsFailureOnActiveTenantsError(t *testing.T) {
	lister := &fakeLister{err: assert.AnError}
	s, made := newTestScheduler(t, lister)

	ok := s.reconcile(t.Context())

	assert.False(t, ok)
	assert.Empty(t, made)
}

func TestReconcileReportsSuccess(t *testing.T) {
	lister := &fakeLister{tenants: []string{"a"}}
	s, _ := newTestScheduler(t, lister)

	ok := s.reconcile(t.Context())

	assert.True(t, ok)
}

func TestRunRetriesSoonerThanSteadyStateIntervalAfterAnError(t *testing.T) {
	lister := &fakeLister{err: assert.AnError}
	s, made := newTestScheduler(t, lister)
	s.interval = time.Hour
	s.retryInterval = 10 * time.Millisecond

	s.Start(t.Context())
	defer s.Stop()

	require.Eventually(t, func() bool { return lister.callCount() >= 2 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, made)
}

func TestStartAndStopReconcilesOnTickerAndShutsDownAllWorkers(t *testing.T) {
	lister := &fakeLister{tenants: []string{"a", "b"}}
	s, made := newTestScheduler(t, lister)

	s.Start(t.Context())
	require.Eventually(t, func() bool { return len(made) == 2 }, time.Second, 5*time.Millisecond)

	lister.set([]string{"b", "c"})
	require.Eventually(t, func() bool { return made["a"] != nil && made["a"].isStopped() }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return made["c"] != nil }, time.Second, 5*time.Millisecond)

	s.Stop()

	for id, w := range made {
		assert.True(t, w.isStopped(), "worker %s should be stopped after scheduler.Stop", id)
	}
}
