package postgres

import (
	"context"
	"fmt"

	"github.com/ItsAdel/morpho-apr/internal/domain/position"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PositionRepository struct {
	pool *pgxpool.Pool
}

func NewPositionRepository(pool *pgxpool.Pool) *PositionRepository {
	return &PositionRepository{pool: pool}
}

const positionColumns = `id, market_id, borrower_id, vault_id, principal_amount, current_debt, supply_assets, status, created_at, updated_at`

// scanPosition folds the nullable FK pair into the tagged Owner variant and
// rejects rows violating the exclusivity invariant at the store boundary.
func scanPosition(row interface{ Scan(...any) error }) (*position.Entity, error) {
	out := &position.Entity{}
	var borrowerID, vaultID *int64
	err := row.Scan(
		&out.ID, &out.MarketID, &borrowerID, &vaultID,
		&out.PrincipalAmount, &out.CurrentDebt, &out.SupplyAssets,
		&out.Status, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	switch {
	case borrowerID != nil && vaultID == nil:
		out.Owner = position.BorrowerOwner(*borrowerID)
	case vaultID != nil && borrowerID == nil:
		out.Owner = position.VaultOwner(*vaultID)
	default:
		return nil, fmt.Errorf("position %d: %w", out.ID, position.ErrInvalidOwner)
	}
	return out, nil
}

func ownerColumns(o position.Owner) (borrowerID, vaultID *int64) {
	if o.Kind == position.KindBorrower {
		return &o.ID, nil
	}
	return nil, &o.ID
}

func (r *PositionRepository) Create(ctx context.Context, in position.CreateInput) (*position.Entity, error) {
	if err := in.Owner.Validate(); err != nil {
		return nil, err
	}
	borrowerID, vaultID := ownerColumns(in.Owner)
	q := `
INSERT INTO borrower_positions (market_id, borrower_id, vault_id, principal_amount, current_debt, supply_assets)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + positionColumns
	return scanPosition(r.pool.QueryRow(ctx, q,
		in.MarketID, borrowerID, vaultID, in.PrincipalAmount, in.CurrentDebt, in.SupplyAssets,
	))
}

func (r *PositionRepository) GetByID(ctx context.Context, id int64) (*position.Entity, error) {
	q := `SELECT ` + positionColumns + ` FROM borrower_positions WHERE id = $1`
	return scanPosition(r.pool.QueryRow(ctx, q, id))
}

func (r *PositionRepository) ListActiveByKind(ctx context.Context, kind position.OwnerKind) ([]position.Entity, error) {
	ownerCol := "vault_id"
	if kind == position.KindBorrower {
		ownerCol = "borrower_id"
	}
	q := `SELECT ` + positionColumns + ` FROM borrower_positions WHERE status = 'active' AND ` + ownerCol + ` IS NOT NULL ORDER BY id`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]position.Entity, 0)
	for rows.Next() {
		item, err := scanPosition(rows)
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

func (r *PositionRepository) UpdateDebt(ctx context.Context, id int64, currentDebt float64) error {
	q := `UPDATE borrower_positions SET current_debt = $2, updated_at = NOW() WHERE id = $1 AND borrower_id IS NOT NULL`
	_, err := r.pool.Exec(ctx, q, id, currentDebt)
	return err
}

func (r *PositionRepository) SetSupplyAssets(ctx context.Context, id int64, supplyAssets float64) error {
	q := `UPDATE borrower_positions SET supply_assets = $2, updated_at = NOW() WHERE id = $1 AND vault_id IS NOT NULL`
	_, err := r.pool.Exec(ctx, q, id, supplyAssets)
	return err
}

// UpsertBorrowerPosition corrects debt drift against the live market via the
// owner/market uniqueness key.
func (r *PositionRepository) UpsertBorrowerPosition(ctx context.Context, marketID string, borrowerID int64, currentDebt, principalAmount float64) (*position.Entity, error) {
	q := `
INSERT INTO borrower_positions (market_id, borrower_id, principal_amount, current_debt)
VALUES ($1, $2, $3, $4)
ON CONFLICT (COALESCE(borrower_id, -1), COALESCE(vault_id, -1), market_id) DO UPDATE
SET current_debt = EXCLUDED.current_debt, updated_at = NOW()
RETURNING ` + positionColumns
	return scanPosition(r.pool.QueryRow(ctx, q, marketID, borrowerID, principalAmount, currentDebt))
}

func (r *PositionRepository) Close(ctx context.Context, id int64) error {
	q := `UPDATE borrower_positions SET status = 'closed', updated_at = NOW() WHERE id = $1 AND status = 'active'`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}
