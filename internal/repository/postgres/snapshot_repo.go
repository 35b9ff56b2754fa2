package postgres

import (
	"context"
	"time"

	"github.com/ItsAdel/morpho-apr/internal/domain/snapshot"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SnapshotRepository struct {
	pool *pgxpool.Pool
}

func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

// UpsertInterest overwrites all computed fields on conflict so a same-day
// rerun (for instance after a cap correction) replaces the row in place.
func (r *SnapshotRepository) UpsertInterest(ctx context.Context, snap snapshot.InterestSnapshot) error {
	q := `
INSERT INTO interest_snapshots (position_id, market_id, snapshot_date, current_rate, capped_rate, interest_accrued, interest_above_cap, token_symbol)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (position_id, snapshot_date) DO UPDATE
SET current_rate = EXCLUDED.current_rate,
    capped_rate = EXCLUDED.capped_rate,
    interest_accrued = EXCLUDED.interest_accrued,
    interest_above_cap = EXCLUDED.interest_above_cap,
    token_symbol = EXCLUDED.token_symbol
`
	_, err := r.pool.Exec(ctx, q,
		snap.PositionID, snap.MarketID, snap.SnapshotDate,
		snap.CurrentRate, snap.CappedRate, snap.InterestAccrued, snap.InterestAboveCap, snap.TokenSymbol,
	)
	return err
}

func (r *SnapshotRepository) UpsertSupply(ctx context.Context, snap snapshot.SupplySnapshot) error {
	q := `
INSERT INTO vault_supply_snapshots (vault_id, market_id, snapshot_date, current_rate, capped_rate, interest_accrued, interest_above_cap, token_symbol)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (vault_id, market_id, snapshot_date) DO UPDATE
SET current_rate = EXCLUDED.current_rate,
    capped_rate = EXCLUDED.capped_rate,
    interest_accrued = EXCLUDED.interest_accrued,
    interest_above_cap = EXCLUDED.interest_above_cap,
    token_symbol = EXCLUDED.token_symbol
`
	_, err := r.pool.Exec(ctx, q,
		snap.VaultID, snap.MarketID, snap.SnapshotDate,
		snap.CurrentRate, snap.CappedRate, snap.InterestAccrued, snap.InterestAboveCap, snap.TokenSymbol,
	)
	return err
}

func (r *SnapshotRepository) ListInterestForDay(ctx context.Context, day time.Time) ([]snapshot.InterestSnapshot, error) {
	q := `
SELECT id, position_id, market_id, snapshot_date, current_rate, capped_rate, interest_accrued, interest_above_cap, token_symbol, created_at
FROM interest_snapshots
WHERE snapshot_date = $1
ORDER BY position_id
`
	rows, err := r.pool.Query(ctx, q, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]snapshot.InterestSnapshot, 0)
	for rows.Next() {
		var item snapshot.InterestSnapshot
		if err := rows.Scan(
			&item.ID, &item.PositionID, &item.MarketID, &item.SnapshotDate,
			&item.CurrentRate, &item.CappedRate, &item.InterestAccrued, &item.InterestAboveCap,
			&item.TokenSymbol, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
