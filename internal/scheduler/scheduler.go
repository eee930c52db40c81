// Package scheduler runs the export pipeline once per day at a configured
// hour.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/DataNerdsMX/fuel-prices-mx/internal/exporter"
)

// Pipeline is the unit of work the scheduler triggers.
type Pipeline interface {
	Export(ctx context.Context) (exporter.Totals, error)
}

// Scheduler manages the daily export schedule.
type Scheduler struct {
	pipeline Pipeline
	runHour  int
	clock    clockwork.Clock
	logger   zerolog.Logger

	mu        sync.RWMutex
	nextRunAt time.Time
	lastRunAt *time.Time
	running   bool
}

// New creates a Scheduler that fires at runHour (0-23) local time.
func New(pipeline Pipeline, runHour int, clock clockwork.Clock, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		pipeline: pipeline,
		runHour:  runHour,
		clock:    clock,
		logger:   logger.With().Str("component", "scheduler").Logger(),
	}
}

// Start blocks until the context is cancelled, running the pipeline every day
// at the configured hour.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	nextRun := s.calculateNextRun()
	s.mu.Lock()
	s.nextRunAt = nextRun
	s.mu.Unlock()

	s.logger.Info().
		Int("runHour", s.runHour).
		Time("nextRun", nextRun).
		Msg("scheduler started")

	timer := s.clock.NewTimer(nextRun.Sub(s.clock.Now()))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("scheduler stopped")
			return ctx.Err()
		case <-timer.Chan():
			s.runPipeline(ctx)

			nextRun = s.calculateNextRun()
			s.mu.Lock()
			s.nextRunAt = nextRun
			s.mu.Unlock()

			s.logger.Info().Time("nextRun", nextRun).Msg("next run scheduled")
			timer.Reset(nextRun.Sub(s.clock.Now()))
		}
	}
}

// calculateNextRun returns the next occurrence of the run hour, today or
// tomorrow.
func (s *Scheduler) calculateNextRun() time.Time {
	now := s.clock.Now()

	nextRun := time.Date(now.Year(), now.Month(), now.Day(), s.runHour, 0, 0, 0, now.Location())
	if !now.Before(nextRun) {
		nextRun = nextRun.Add(24 * time.Hour)
	}
	return nextRun
}

func (s *Scheduler) runPipeline(ctx context.Context) {
	now := s.clock.Now()
	s.mu.Lock()
	s.lastRunAt = &now
	s.mu.Unlock()

	s.logger.Info().Msg("running scheduled export")

	if _, err := s.pipeline.Export(ctx); err != nil {
		s.logger.Error().Err(err).Msg("scheduled export failed")
		return
	}
	s.logger.Info().Msg("scheduled export completed")
}

// NextRunAt returns the time of the next scheduled run.
func (s *Scheduler) NextRunAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextRunAt
}

// LastRunAt returns the time of the last triggered run.
func (s *Scheduler) LastRunAt() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRunAt
}

// IsRunning returns whether the scheduler loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
