package unit

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ItsAdel/morpho-apr/internal/domain/cycle"
	"github.com/ItsAdel/morpho-apr/internal/jobs"
	"github.com/google/uuid"
)

type countingRunner struct {
	runs atomic.Int64
}

func (r *countingRunner) RunDailyCycle(_ context.Context, day time.Time) (*cycle.Summary, error) {
	r.runs.Add(1)
	return &cycle.Summary{RunID: uuid.NewString(), Day: day}, nil
}

func TestSchedulerRunsOnInterval(t *testing.T) {
	runner := &countingRunner{}
	s := jobs.NewScheduler(runner, 10*time.Millisecond, time.Second, testLogger())

	s.Start()
	time.Sleep(60 * time.Millisecond)
	s.Stop()

	got := runner.runs.Load()
	if got < 2 {
		t.Fatalf("expected at least 2 scheduled runs, got %d", got)
	}

	// No further runs once stopped.
	time.Sleep(30 * time.Millisecond)
	if runner.runs.Load() != got {
		t.Fatalf("scheduler kept running after Stop")
	}
}

func TestSchedulerStartAndStopAreIdempotent(t *testing.T) {
	runner := &countingRunner{}
	s := jobs.NewScheduler(runner, time.Hour, time.Second, testLogger())

	s.Stop() // before Start: no-op
	s.Start()
	s.Start() // second Start must not spawn a second loop
	s.Stop()
	s.Stop()
}
