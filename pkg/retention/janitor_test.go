package retention

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nervesparksdev05/aidevops-monitor/pkg/store"
)

type fakeEnforcer struct {
	calls atomic.Int32
}

func (f *fakeEnforcer) EnforceRetention(ctx context.Context, caps store.RetentionCaps) error {
	f.calls.Add(1)
	return nil
}

func TestJanitorSweepsImmediatelyAndOnEachTick(t *testing.T) {
	fe := &fakeEnforcer{}
	j := NewJanitor(fe, store.RetentionCaps{Incidents: 100}, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(t.Context())
	j.Start(ctx)
	defer cancel()

	require.Eventually(t, func() bool { return fe.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	j.Stop()
}

func TestJanitorStartIsIdempotent(t *testing.T) {
	fe := &fakeEnforcer{}
	j := NewJanitor(fe, store.RetentionCaps{}, time.Hour)

	j.Start(t.Context())
	j.Start(t.Context())

	assert.NotNil(t, j.cancel)
	j.Stop()
}
