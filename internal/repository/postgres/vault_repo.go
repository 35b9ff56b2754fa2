package postgres

import (
	"context"

	"github.com/ItsAdel/morpho-apr/internal/domain/vault"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VaultRepository struct {
	pool *pgxpool.Pool
}

func NewVaultRepository(pool *pgxpool.Pool) *VaultRepository {
	return &VaultRepository{pool: pool}
}

func (r *VaultRepository) Upsert(ctx context.Context, in vault.CreateInput) (*vault.Entity, error) {
	q := `
INSERT INTO vaults (address, name, token_symbol)
VALUES ($1, $2, $3)
ON CONFLICT (address) DO UPDATE
SET name = EXCLUDED.name, token_symbol = EXCLUDED.token_symbol, updated_at = NOW()
RETURNING id, address, name, token_symbol, created_at, updated_at
`
	out := &vault.Entity{}
	err := r.pool.QueryRow(ctx, q, in.Address, in.Name, in.TokenSymbol).Scan(
		&out.ID, &out.Address, &out.Name, &out.TokenSymbol, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *VaultRepository) GetByAddress(ctx context.Context, address string) (*vault.Entity, error) {
	q := `SELECT id, address, name, token_symbol, created_at, updated_at FROM vaults WHERE address = $1`
	out := &vault.Entity{}
	err := r.pool.QueryRow(ctx, q, address).Scan(
		&out.ID, &out.Address, &out.Name, &out.TokenSymbol, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *VaultRepository) List(ctx context.Context) ([]vault.Entity, error) {
	q := `SELECT id, address, name, token_symbol, created_at, updated_at FROM vaults ORDER BY id`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]vault.Entity, 0)
	for rows.Next() {
		var item vault.Entity
		if err := rows.Scan(&item.ID, &item.Address, &item.Name, &item.TokenSymbol, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
