package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ItsAdel/morpho-apr/internal/domain/cycle"
)

type CycleRunner interface {
	RunDailyCycle(ctx context.Context, day time.Time) (*cycle.Summary, error)
}

// Scheduler owns the daily-cycle timer as an explicit handle: Start launches
// the tick loop, Stop tears it down. There is no ambient global timer.
type Scheduler struct {
	runner     CycleRunner
	interval   time.Duration
	runTimeout time.Duration
	logger     *slog.Logger

	mu      sync.Mutex
	stop    chan struct{}
	stopped chan struct{}
}

func NewScheduler(runner CycleRunner, interval, runTimeout time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if runTimeout <= 0 {
		runTimeout = 5 * time.Minute
	}
	return &Scheduler{
		runner:     runner,
		interval:   interval,
		runTimeout: runTimeout,
		logger:     logger,
	}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.stopped = make(chan struct{})
	go s.loop(s.stop, s.stopped)
	s.logger.Info("cycle scheduler started", "interval", s.interval.String())
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	stop, stopped := s.stop, s.stopped
	s.stop, s.stopped = nil, nil
	s.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-stopped
	s.logger.Info("cycle scheduler stopped")
}

func (s *Scheduler) loop(stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.runOnce()
		}
	}
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	summary, err := s.runner.RunDailyCycle(ctx, time.Time{})
	if err != nil {
		s.logger.Error("scheduled cycle run failed", "err", err)
		return
	}
	s.logger.Info("scheduled cycle run finished", "run_id", summary.RunID, "day", summary.Day.Format("2006-01-02"))
}
