// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Sweeper closes idle sessions and reports how many it dropped.
type Sweeper interface {
	SweepIdle(ctx context.Context, ttl time.Duration) int
}

// Scheduler drives the idle-session sweep.
type Scheduler struct {
	cron     *cron.Cron
	ctx      context.Context
	cancel   context.CancelFunc
	sweeper  Sweeper
	schedule string
	ttl      time.Duration
}

// New creates a scheduler that sweeps sessions idle for longer than ttl on
// the given cron spec ("@every 5m", "*/10 * * * *").
func New(sweeper Sweeper, schedule string, ttl time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		ctx:      ctx,
		cancel:   cancel,
		sweeper:  sweeper,
		schedule: schedule,
		ttl:      ttl,
	}
}

// Start registers the sweep job and starts the cron loop.
func (s *Scheduler) Start() error {
	if s.sweeper == nil {
		log.Warn().Str("component", "scheduler").Msg("no sweeper set, idle sessions will not expire")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.RunOnce); err != nil {
		return errors.Wrapf(err, "invalid sweep schedule %q", s.schedule)
	}

	s.cron.Start()
	log.Info().
		Str("component", "scheduler").
		Str("schedule", s.schedule).
		Dur("ttl", s.ttl).
		Msg("session sweeper started")
	return nil
}

// RunOnce performs a single sweep.
func (s *Scheduler) RunOnce() {
	closed := s.sweeper.SweepIdle(s.ctx, s.ttl)
	if closed > 0 {
		log.Info().Str("component", "scheduler").Int("closed", closed).Msg("idle sessions swept")
	}
}

// Stop waits for a running sweep to finish and stops the loop.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	log.Info().Str("component", "scheduler").Msg("session sweeper stopped")
}

// IsRunning reports whether a job is registered.
func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
