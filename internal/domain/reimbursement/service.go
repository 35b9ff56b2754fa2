package reimbursement

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ItsAdel/morpho-apr/internal/payments"
)

type Service struct {
	repo     Repository
	executor payments.Executor
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, executor payments.Executor, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		executor: executor,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) CreateForDay(ctx context.Context, day time.Time) (int, error) {
	created, err := s.repo.CreateForDay(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("create reimbursements for %s: %w", day.Format("2006-01-02"), err)
	}
	if created > 0 {
		s.logger.Info("reimbursements created", "day", day.Format("2006-01-02"), "count", created)
	}
	return created, nil
}

// ProcessPending settles up to limit pending reimbursements, oldest first.
// Each item's outcome is independent: a payment failure marks that one row
// failed and the loop moves on.
func (s *Service) ProcessPending(ctx context.Context, limit int32) (*ProcessReport, error) {
	if limit <= 0 {
		limit = 50
	}
	items, err := s.repo.ListPending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending reimbursements: %w", err)
	}

	report := &ProcessReport{}
	for _, item := range items {
		txHash, payErr := s.executor.ExecuteReimbursement(ctx, item.PositionID, item.Amount, item.TokenSymbol)
		if payErr != nil {
			s.logger.Warn("reimbursement payment failed", "reimbursement_id", item.ID, "position_id", item.PositionID, "err", payErr)
			if err := s.repo.MarkFailed(ctx, item.ID, s.now()); err != nil {
				return report, fmt.Errorf("mark reimbursement %d failed: %w", item.ID, err)
			}
			report.Failed++
			continue
		}
		if err := s.repo.MarkCompleted(ctx, item.ID, txHash, s.now()); err != nil {
			return report, fmt.Errorf("mark reimbursement %d completed: %w", item.ID, err)
		}
		report.Processed++
		report.TotalAmount += item.Amount
	}
	return report, nil
}

// RetryFailed flips up to limit most-recently-failed reimbursements back to
// pending, clearing the stale payment reference. No payment is attempted.
func (s *Service) RetryFailed(ctx context.Context, limit int32) (int, error) {
	if limit <= 0 {
		limit = 50
	}
	reset, err := s.repo.ResetFailed(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("retry failed reimbursements: %w", err)
	}
	if reset > 0 {
		s.logger.Info("failed reimbursements reset to pending", "count", reset)
	}
	return reset, nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.GetStats(ctx)
}

func (s *Service) ForAddress(ctx context.Context, address string) (*AddressSummary, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("missing address")
	}
	return s.repo.ListForAddress(ctx, address)
}

func (s *Service) VaultPool(ctx context.Context, windowDays int32) ([]PoolEntry, error) {
	if windowDays <= 0 {
		windowDays = DefaultPoolWindowDays
	}
	since := s.now().AddDate(0, 0, -int(windowDays))
	return s.repo.GetVaultPool(ctx, since)
}
