package collect

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Scheduler invokes the collector on a timer and on demand, in-process.
// Both paths funnel through the collector's run lock, so an on-demand
// trigger landing during a timed run is rejected rather than stacked.
type Scheduler struct {
	collector *Collector
	interval  time.Duration
	logger    *zap.Logger
	trigger   chan struct{}
}

// NewScheduler creates a Scheduler that runs the collector every interval.
func NewScheduler(collector *Collector, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		collector: collector,
		interval:  interval,
		logger:    logger,
		trigger:   make(chan struct{}, 1),
	}
}

// Start runs an immediate first collection, then loops until the context
// is cancelled. It blocks; run it in its own goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		case <-s.trigger:
			s.runOnce(ctx)
		}
	}
}

// TriggerNow requests an immediate collection run. A request arriving
// while one is already pending is coalesced with it.
func (s *Scheduler) TriggerNow() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if _, err := s.collector.Run(ctx); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			s.logger.Info("skipping collection, a run is already active")
			return
		}
		s.logger.Error("collection run failed", zap.Error(err))
	}
}
