package snapshot

import (
	"context"
	"math"
	"time"

	"github.com/ItsAdel/morpho-apr/internal/domain/position"
)

// DaysPerYear converts annualized rates to daily simple rates.
const DaysPerYear = 365.0

type InterestSnapshot struct {
	ID               int64     `json:"id"`
	PositionID       int64     `json:"position_id"`
	MarketID         string    `json:"market_id"`
	SnapshotDate     time.Time `json:"snapshot_date"`
	CurrentRate      float64   `json:"current_rate"`
	CappedRate       float64   `json:"capped_rate"`
	InterestAccrued  float64   `json:"interest_accrued"`
	InterestAboveCap float64   `json:"interest_above_cap"`
	TokenSymbol      string    `json:"token_symbol"`
	CreatedAt        time.Time `json:"created_at"`
}

type SupplySnapshot struct {
	ID               int64     `json:"id"`
	VaultID          int64     `json:"vault_id"`
	MarketID         string    `json:"market_id"`
	SnapshotDate     time.Time `json:"snapshot_date"`
	CurrentRate      float64   `json:"current_rate"`
	CappedRate       float64   `json:"capped_rate"`
	InterestAccrued  float64   `json:"interest_accrued"`
	InterestAboveCap float64   `json:"interest_above_cap"`
	TokenSymbol      string    `json:"token_symbol"`
	CreatedAt        time.Time `json:"created_at"`
}

type Repository interface {
	UpsertInterest(ctx context.Context, snap InterestSnapshot) error
	UpsertSupply(ctx context.Context, snap SupplySnapshot) error
	ListInterestForDay(ctx context.Context, day time.Time) ([]InterestSnapshot, error)
}

type SkipReason string

const (
	SkipNoRateData    SkipReason = "no_rate_data"
	SkipUnknownMarket SkipReason = "unknown_market"
	SkipStoreError    SkipReason = "store_error"
)

// ItemOutcome is the per-entity result of one accrual computation. Skips are
// explicit values here, not buried log lines.
type ItemOutcome struct {
	EntityKind       position.OwnerKind `json:"entity_kind"`
	EntityID         int64              `json:"entity_id"`
	PositionID       int64              `json:"position_id"`
	MarketID         string             `json:"market_id"`
	TokenSymbol      string             `json:"token_symbol"`
	Rate             float64            `json:"rate"`
	InterestAccrued  float64            `json:"interest_accrued"`
	InterestAboveCap float64            `json:"interest_above_cap"`
	Skipped          bool               `json:"skipped"`
	SkipReason       SkipReason         `json:"skip_reason,omitempty"`
}

type RunReport struct {
	Day              time.Time          `json:"day"`
	EntityKind       position.OwnerKind `json:"entity_kind"`
	Processed        int                `json:"processed"`
	Skipped          int                `json:"skipped"`
	TotalAccrued     float64            `json:"total_accrued"`
	TotalAboveCap    float64            `json:"total_above_cap"`
	AverageRate      float64            `json:"average_rate"`
	AboveCapByToken  map[string]float64 `json:"above_cap_by_token"`
	Items            []ItemOutcome      `json:"items"`
}

// Round6 rounds monetary values to six decimals before they are persisted.
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
