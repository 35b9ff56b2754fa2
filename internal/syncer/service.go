package syncer

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ItsAdel/morpho-apr/internal/domain/borrower"
	"github.com/ItsAdel/morpho-apr/internal/domain/market"
	"github.com/ItsAdel/morpho-apr/internal/domain/position"
	"github.com/ItsAdel/morpho-apr/internal/ratesource"
	"golang.org/x/crypto/sha3"
)

// Service keeps stored borrower positions aligned with the live market: it
// pulls the current borrower set per market and corrects debt drift. Vault
// allocation amounts are refreshed the same way by operators; accrual never
// touches them.
type Service struct {
	markets   market.Repository
	borrowers borrower.Repository
	positions position.Repository
	rates     ratesource.Client
	logger    *slog.Logger
}

func NewService(markets market.Repository, borrowers borrower.Repository, positions position.Repository, rates ratesource.Client, logger *slog.Logger) *Service {
	return &Service{
		markets:   markets,
		borrowers: borrowers,
		positions: positions,
		rates:     rates,
		logger:    logger,
	}
}

// MarketKey derives the opaque market identifier from its asset pair the way
// the on-chain market id is derived, so seeded markets line up with the rate
// source's keys.
func MarketKey(loanAsset, collateralAsset string) string {
	input := fmt.Sprintf("%s/%s", strings.ToUpper(strings.TrimSpace(loanAsset)), strings.ToUpper(strings.TrimSpace(collateralAsset)))
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(input))
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

type MarketSyncResult struct {
	MarketID string `json:"market_id"`
	Synced   int    `json:"synced"`
	Skipped  int    `json:"skipped"`
}

func (s *Service) SyncMarketPositions(ctx context.Context, marketID string) (*MarketSyncResult, error) {
	if _, err := s.markets.GetByID(ctx, marketID); err != nil {
		return nil, fmt.Errorf("unknown market %s: %w", marketID, err)
	}

	remote, err := s.rates.GetBorrowerPositions(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("fetch borrower positions for %s: %w", marketID, err)
	}

	result := &MarketSyncResult{MarketID: marketID}
	for _, rp := range remote {
		address := strings.TrimSpace(rp.Address)
		if address == "" {
			result.Skipped++
			continue
		}
		b, err := s.borrowers.Upsert(ctx, address)
		if err != nil {
			s.logger.Warn("borrower upsert failed", "market_id", marketID, "address", address, "err", err)
			result.Skipped++
			continue
		}
		if _, err := s.positions.UpsertBorrowerPosition(ctx, marketID, b.ID, rp.CurrentDebt, rp.PrincipalAmount); err != nil {
			s.logger.Warn("position upsert failed", "market_id", marketID, "borrower_id", b.ID, "err", err)
			result.Skipped++
			continue
		}
		result.Synced++
	}
	return result, nil
}

// SyncAll walks every known market; a failing market is logged and skipped.
func (s *Service) SyncAll(ctx context.Context) ([]MarketSyncResult, error) {
	all, err := s.markets.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list markets: %w", err)
	}
	out := make([]MarketSyncResult, 0, len(all))
	for _, m := range all {
		res, err := s.SyncMarketPositions(ctx, m.MarketID)
		if err != nil {
			s.logger.Warn("market sync failed", "market_id", m.MarketID, "err", err)
			continue
		}
		out = append(out, *res)
	}
	return out, nil
}
