package syncer

import (
	"context"
	"sync"
	"time"

	"winrec/internal/infrastructure/logging"
)

// Scheduler runs a pass immediately and then on every interval tick
type Scheduler struct {
	orchestrator *Orchestrator
	interval     time.Duration
	logger       logging.Logger

	mu    sync.Mutex
	state State
}

func NewScheduler(orchestrator *Orchestrator, interval time.Duration, logger logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Scheduler{orchestrator: orchestrator, interval: interval, logger: logger}
}

// Run blocks until ctx is done or a pass hits a storage failure, which is returned
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Sync scheduler started", "interval", s.interval.String())
	for {
		if err := s.runOnce(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			s.logger.Info("Sync scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.orchestrator.RunPass(ctx, &s.state)
	if err == nil || ctx.Err() != nil {
		return nil
	}
	return err
}

// State returns a copy of the state carried between passes
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
