package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSweeper struct {
	mu    sync.Mutex
	calls int
	ttl   time.Duration
}

func (f *fakeSweeper) SweepIdle(_ context.Context, ttl time.Duration) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.ttl = ttl
	return 1
}

func (f *fakeSweeper) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestSchedulerRunsSweep(t *testing.T) {
	sweeper := &fakeSweeper{}
	s := New(sweeper, "@every 1s", 30*time.Minute)

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())

	require.Eventually(t, func() bool { return sweeper.count() > 0 }, 3*time.Second, 20*time.Millisecond)
	s.Stop()

	assert.Equal(t, 30*time.Minute, sweeper.ttl)
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	s := New(&fakeSweeper{}, "every now and then", time.Minute)
	assert.Error(t, s.Start())
	s.Stop()
}

func TestSchedulerWithoutSweeper(t *testing.T) {
	s := New(nil, "@every 1s", time.Minute)
	require.NoError(t, s.Start())
	assert.False(t, s.IsRunning())
	s.Stop()
}

func TestRunOnce(t *testing.T) {
	sweeper := &fakeSweeper{}
	s := New(sweeper, "@every 1h", time.Minute)
	s.RunOnce()
	assert.Equal(t, 1, sweeper.count())
	s.Stop()
}
