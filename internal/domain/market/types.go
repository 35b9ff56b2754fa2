package market

import (
	"context"
	"time"
)

// AlertMultiplier derives the alert threshold from the cap.
const AlertMultiplier = 2.0

type Entity struct {
	MarketID        string    `json:"market_id"`
	Name            string    `json:"name"`
	LoanAsset       string    `json:"loan_asset"`
	CollateralAsset string    `json:"collateral_asset"`
	APRCap          float64   `json:"apr_cap"`
	AlertThreshold  float64   `json:"alert_threshold"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type CreateInput struct {
	MarketID        string
	Name            string
	LoanAsset       string
	CollateralAsset string
	APRCap          float64
}

type Repository interface {
	Upsert(ctx context.Context, in CreateInput) (*Entity, error)
	GetByID(ctx context.Context, marketID string) (*Entity, error)
	List(ctx context.Context) ([]Entity, error)
	UpdateCap(ctx context.Context, marketID string, aprCap float64) (*Entity, error)
}
