// Package scheduler drives the price monitoring engine on a fixed interval.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"price_bot/internal/engine"
)

// Engine runs one batch re-pricing cycle.
type Engine interface {
	RunCycle(ctx context.Context) engine.CycleReport
}

// Scheduler periodically runs the batch price updater, independent of
// request traffic.
type Scheduler struct {
	engine   Engine
	log      *slog.Logger
	interval time.Duration
}

// New creates a Scheduler that triggers a cycle every interval.
func New(eng Engine, interval time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{
		engine:   eng,
		log:      log,
		interval: interval,
	}
}

// Run starts the scheduler loop, blocking until ctx is cancelled. The first
// cycle runs immediately. Cycles execute inline in this loop, so the next
// tick cannot fire while the previous cycle, including its cooldown waits,
// is still in flight.
func (s *Scheduler) Run(ctx context.Context) {
	s.cycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.log.Debug("cycle starting")
	s.engine.RunCycle(ctx)
}
