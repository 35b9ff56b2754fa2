package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ItsAdel/morpho-apr/internal/domain/market"
	"github.com/ItsAdel/morpho-apr/internal/domain/position"
	"github.com/ItsAdel/morpho-apr/internal/ratesource"
)

// Engine computes one calendar day of accrual for every active position.
// Per-entity problems (missing rate data, a malformed row) become skips in
// the run report; only store-level failures before the loop starts abort a
// run.
type Engine struct {
	markets   market.Repository
	positions position.Repository
	snapshots Repository
	rates     ratesource.Client
	logger    *slog.Logger
	now       func() time.Time
}

func NewEngine(markets market.Repository, positions position.Repository, snapshots Repository, rates ratesource.Client, logger *slog.Logger) *Engine {
	return &Engine{
		markets:   markets,
		positions: positions,
		snapshots: snapshots,
		rates:     rates,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (e *Engine) ComputeSupplySnapshots(ctx context.Context, day time.Time) (*RunReport, error) {
	return e.compute(ctx, day, position.KindVault)
}

func (e *Engine) ComputeDebtSnapshots(ctx context.Context, day time.Time) (*RunReport, error) {
	return e.compute(ctx, day, position.KindBorrower)
}

func (e *Engine) compute(ctx context.Context, day time.Time, kind position.OwnerKind) (*RunReport, error) {
	day = Day(day)

	marketsByID, err := e.loadMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("load markets: %w", err)
	}

	// The full position set is read up front: accrual for every entity uses
	// the balance as it was at the start of the run, so in-loop debt updates
	// cannot leak into later computations.
	entities, err := e.positions.ListActiveByKind(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("list active %s positions: %w", kind, err)
	}

	report := &RunReport{
		Day:             day,
		EntityKind:      kind,
		AboveCapByToken: map[string]float64{},
		Items:           make([]ItemOutcome, 0, len(entities)),
	}

	rateMemo := map[string]*ratesource.MarketState{}
	missingMemo := map[string]bool{}
	var rateSum float64

	for _, pos := range entities {
		outcome := ItemOutcome{
			EntityKind: kind,
			EntityID:   pos.Owner.ID,
			PositionID: pos.ID,
			MarketID:   pos.MarketID,
		}

		m, ok := marketsByID[pos.MarketID]
		if !ok {
			outcome.Skipped = true
			outcome.SkipReason = SkipUnknownMarket
			e.logger.Warn("skipping position with unknown market", "position_id", pos.ID, "market_id", pos.MarketID)
			report.Skipped++
			report.Items = append(report.Items, outcome)
			continue
		}
		outcome.TokenSymbol = m.LoanAsset

		state, skip := e.lookupRate(ctx, pos.MarketID, rateMemo, missingMemo)
		if skip {
			outcome.Skipped = true
			outcome.SkipReason = SkipNoRateData
			e.logger.Warn("skipping position without rate data", "position_id", pos.ID, "market_id", pos.MarketID)
			report.Skipped++
			report.Items = append(report.Items, outcome)
			continue
		}

		rate := state.BorrowAPY
		if kind == position.KindVault {
			rate = state.SupplyAPY
		}

		accrued, aboveCap := Accrue(pos.Principal(), rate, m.APRCap)
		outcome.Rate = rate
		outcome.InterestAccrued = accrued
		outcome.InterestAboveCap = aboveCap

		if err := e.persist(ctx, day, pos, m, rate, accrued, aboveCap); err != nil {
			outcome.Skipped = true
			outcome.SkipReason = SkipStoreError
			e.logger.Warn("failed to persist snapshot", "position_id", pos.ID, "market_id", pos.MarketID, "err", err)
			report.Skipped++
			report.Items = append(report.Items, outcome)
			continue
		}

		if kind == position.KindBorrower && accrued != 0 {
			if err := e.positions.UpdateDebt(ctx, pos.ID, Round6(pos.CurrentDebt+accrued)); err != nil {
				e.logger.Warn("failed to compound debt", "position_id", pos.ID, "err", err)
			}
		}

		report.Processed++
		report.TotalAccrued += accrued
		report.TotalAboveCap += aboveCap
		report.AboveCapByToken[m.LoanAsset] += aboveCap
		rateSum += rate
		report.Items = append(report.Items, outcome)
	}

	if report.Processed > 0 {
		report.AverageRate = rateSum / float64(report.Processed)
	}
	report.TotalAccrued = Round6(report.TotalAccrued)
	report.TotalAboveCap = Round6(report.TotalAboveCap)
	return report, nil
}

// Accrue computes one day of simple interest and the portion above the cap.
// A zero or negative cap means everything accrued is above it; a zero or
// negative principal accrues nothing but still yields a snapshot.
func Accrue(principal, annualRate, aprCap float64) (accrued, aboveCap float64) {
	if principal <= 0 {
		return 0, 0
	}
	accrued = Round6(principal * annualRate / DaysPerYear)
	if aprCap <= 0 {
		return accrued, accrued
	}
	capped := principal * aprCap / DaysPerYear
	aboveCap = Round6(principal*annualRate/DaysPerYear - capped)
	if aboveCap < 0 {
		aboveCap = 0
	}
	return accrued, aboveCap
}

func (e *Engine) loadMarkets(ctx context.Context) (map[string]market.Entity, error) {
	all, err := e.markets.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]market.Entity, len(all))
	for _, m := range all {
		out[m.MarketID] = m
	}
	return out, nil
}

// lookupRate memoizes rate source calls per market within one run. Any
// lookup failure, not-found included, is the recoverable no-data case.
func (e *Engine) lookupRate(ctx context.Context, marketID string, memo map[string]*ratesource.MarketState, missing map[string]bool) (*ratesource.MarketState, bool) {
	if missing[marketID] {
		return nil, true
	}
	if state, ok := memo[marketID]; ok {
		return state, false
	}
	state, err := e.rates.GetMarketState(ctx, marketID)
	if err != nil {
		missing[marketID] = true
		return nil, true
	}
	memo[marketID] = state
	return state, false
}

func (e *Engine) persist(ctx context.Context, day time.Time, pos position.Entity, m market.Entity, rate, accrued, aboveCap float64) error {
	if pos.Owner.Kind == position.KindVault {
		return e.snapshots.UpsertSupply(ctx, SupplySnapshot{
			VaultID:          pos.Owner.ID,
			MarketID:         pos.MarketID,
			SnapshotDate:     day,
			CurrentRate:      rate,
			CappedRate:       m.APRCap,
			InterestAccrued:  accrued,
			InterestAboveCap: aboveCap,
			TokenSymbol:      m.LoanAsset,
		})
	}
	return e.snapshots.UpsertInterest(ctx, InterestSnapshot{
		PositionID:       pos.ID,
		MarketID:         pos.MarketID,
		SnapshotDate:     day,
		CurrentRate:      rate,
		CappedRate:       m.APRCap,
		InterestAccrued:  accrued,
		InterestAboveCap: aboveCap,
		TokenSymbol:      m.LoanAsset,
	})
}
