package cycle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ItsAdel/morpho-apr/internal/domain/snapshot"
	"github.com/google/uuid"
)

// SummaryChannel is the websocket channel cycle summaries are broadcast on.
const SummaryChannel = "cycle:summary"

type SnapshotEngine interface {
	ComputeSupplySnapshots(ctx context.Context, day time.Time) (*snapshot.RunReport, error)
	ComputeDebtSnapshots(ctx context.Context, day time.Time) (*snapshot.RunReport, error)
}

type ReimbursementCreator interface {
	CreateForDay(ctx context.Context, day time.Time) (int, error)
}

type Publisher interface {
	Publish(channel string, payload []byte)
}

type Summary struct {
	RunID                 string              `json:"run_id"`
	Day                   time.Time           `json:"day"`
	Supply                *snapshot.RunReport `json:"supply"`
	Debt                  *snapshot.RunReport `json:"debt"`
	ReimbursementsCreated int                 `json:"reimbursements_created"`
	StartedAt             time.Time           `json:"started_at"`
	FinishedAt            time.Time           `json:"finished_at"`
}

// Service sequences one daily cycle: supply snapshots, then debt snapshots,
// then reimbursement creation for the day. Per-entity failures stay inside
// the run reports; an error return means the cycle could not start or a
// whole phase failed before writing.
type Service struct {
	engine    SnapshotEngine
	creator   ReimbursementCreator
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(engine SnapshotEngine, creator ReimbursementCreator, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		engine:    engine,
		creator:   creator,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) RunDailyCycle(ctx context.Context, day time.Time) (*Summary, error) {
	if day.IsZero() {
		day = s.now()
	}
	day = snapshot.Day(day)

	summary := &Summary{
		RunID:     uuid.NewString(),
		Day:       day,
		StartedAt: s.now(),
	}

	supply, err := s.engine.ComputeSupplySnapshots(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("supply snapshot phase: %w", err)
	}
	summary.Supply = supply

	debt, err := s.engine.ComputeDebtSnapshots(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("debt snapshot phase: %w", err)
	}
	summary.Debt = debt

	created, err := s.creator.CreateForDay(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("reimbursement creation phase: %w", err)
	}
	summary.ReimbursementsCreated = created
	summary.FinishedAt = s.now()

	s.logger.Info("daily cycle finished",
		"run_id", summary.RunID,
		"day", day.Format("2006-01-02"),
		"supply_processed", supply.Processed,
		"supply_skipped", supply.Skipped,
		"debt_processed", debt.Processed,
		"debt_skipped", debt.Skipped,
		"reimbursements_created", created,
	)

	if s.publisher != nil {
		if payload, err := json.Marshal(map[string]any{"event": "cycle_summary", "data": summary}); err == nil {
			s.publisher.Publish(SummaryChannel, payload)
		}
	}
	return summary, nil
}
