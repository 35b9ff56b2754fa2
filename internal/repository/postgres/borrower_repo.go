package postgres

import (
	"context"

	"github.com/ItsAdel/morpho-apr/internal/domain/borrower"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BorrowerRepository struct {
	pool *pgxpool.Pool
}

func NewBorrowerRepository(pool *pgxpool.Pool) *BorrowerRepository {
	return &BorrowerRepository{pool: pool}
}

func (r *BorrowerRepository) Upsert(ctx context.Context, address string) (*borrower.Entity, error) {
	q := `
INSERT INTO borrowers (address)
VALUES ($1)
ON CONFLICT (address) DO UPDATE SET updated_at = NOW()
RETURNING id, address, created_at, updated_at
`
	out := &borrower.Entity{}
	err := r.pool.QueryRow(ctx, q, address).Scan(&out.ID, &out.Address, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BorrowerRepository) GetByAddress(ctx context.Context, address string) (*borrower.Entity, error) {
	q := `SELECT id, address, created_at, updated_at FROM borrowers WHERE address = $1`
	out := &borrower.Entity{}
	err := r.pool.QueryRow(ctx, q, address).Scan(&out.ID, &out.Address, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return out, nil
}
