package postgres

import (
	"context"

	"github.com/ItsAdel/morpho-apr/internal/domain/market"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MarketRepository struct {
	pool *pgxpool.Pool
}

func NewMarketRepository(pool *pgxpool.Pool) *MarketRepository {
	return &MarketRepository{pool: pool}
}

const marketColumns = `market_id, name, loan_asset, collateral_asset, apr_cap, alert_threshold, created_at, updated_at`

func scanMarket(row interface{ Scan(...any) error }) (*market.Entity, error) {
	out := &market.Entity{}
	err := row.Scan(
		&out.MarketID, &out.Name, &out.LoanAsset, &out.CollateralAsset,
		&out.APRCap, &out.AlertThreshold, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MarketRepository) Upsert(ctx context.Context, in market.CreateInput) (*market.Entity, error) {
	q := `
INSERT INTO markets (market_id, name, loan_asset, collateral_asset, apr_cap, alert_threshold)
VALUES ($1, $2, $3, $4, $5, $5 * $6)
ON CONFLICT (market_id) DO UPDATE
SET name = EXCLUDED.name,
    loan_asset = EXCLUDED.loan_asset,
    collateral_asset = EXCLUDED.collateral_asset,
    updated_at = NOW()
RETURNING ` + marketColumns
	return scanMarket(r.pool.QueryRow(ctx, q,
		in.MarketID, in.Name, in.LoanAsset, in.CollateralAsset, in.APRCap, market.AlertMultiplier,
	))
}

func (r *MarketRepository) GetByID(ctx context.Context, marketID string) (*market.Entity, error) {
	q := `SELECT ` + marketColumns + ` FROM markets WHERE market_id = $1`
	return scanMarket(r.pool.QueryRow(ctx, q, marketID))
}

func (r *MarketRepository) List(ctx context.Context) ([]market.Entity, error) {
	q := `SELECT ` + marketColumns + ` FROM markets ORDER BY created_at`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]market.Entity, 0)
	for rows.Next() {
		item, err := scanMarket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateCap takes effect on the next snapshot only; already-written
// snapshots keep the cap they were computed with.
func (r *MarketRepository) UpdateCap(ctx context.Context, marketID string, aprCap float64) (*market.Entity, error) {
	q := `
UPDATE markets
SET apr_cap = $2, alert_threshold = $2 * $3, updated_at = NOW()
WHERE market_id = $1
RETURNING ` + marketColumns
	return scanMarket(r.pool.QueryRow(ctx, q, marketID, aprCap, market.AlertMultiplier))
}
