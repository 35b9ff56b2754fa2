package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/ItsAdel/morpho-apr/internal/domain/position"
	"github.com/ItsAdel/morpho-apr/internal/domain/reimbursement"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReimbursementRepository struct {
	pool *pgxpool.Pool
}

func NewReimbursementRepository(pool *pgxpool.Pool) *ReimbursementRepository {
	return &ReimbursementRepository{pool: pool}
}

const reimbursementColumns = `id, position_id, amount, token_symbol, period_start, period_end, status, COALESCE(tx_hash, ''), created_at, processed_at`

func scanReimbursement(row interface{ Scan(...any) error }) (*reimbursement.Entity, error) {
	out := &reimbursement.Entity{}
	err := row.Scan(
		&out.ID, &out.PositionID, &out.Amount, &out.TokenSymbol,
		&out.PeriodStart, &out.PeriodEnd, &out.Status, &out.TxHash,
		&out.CreatedAt, &out.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateForDay turns the day's above-cap interest snapshots on active
// positions into pending reimbursements. The whole batch commits in one
// transaction; the per-row existence check keeps reruns from duplicating.
func (r *ReimbursementRepository) CreateForDay(ctx context.Context, day time.Time) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	qCandidates := `
SELECT s.position_id, s.interest_above_cap, s.token_symbol
FROM interest_snapshots s
JOIN borrower_positions p ON p.id = s.position_id
WHERE s.snapshot_date = $1 AND s.interest_above_cap > 0 AND p.status = 'active'
ORDER BY s.position_id
`
	rows, err := tx.Query(ctx, qCandidates, day)
	if err != nil {
		return 0, err
	}

	type candidate struct {
		positionID int64
		amount     float64
		token      string
	}
	candidates := make([]candidate, 0)
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.positionID, &c.amount, &c.token); err != nil {
			rows.Close()
			return 0, err
		}
		candidates = append(candidates, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	created := 0
	for _, c := range candidates {
		var exists bool
		qExists := `SELECT EXISTS (SELECT 1 FROM reimbursements WHERE position_id = $1 AND period_start = $2 AND period_end = $2)`
		if err := tx.QueryRow(ctx, qExists, c.positionID, day).Scan(&exists); err != nil {
			return 0, err
		}
		if exists {
			continue
		}
		qInsert := `
INSERT INTO reimbursements (position_id, amount, token_symbol, period_start, period_end, status)
VALUES ($1, $2, $3, $4, $4, 'pending')
`
		if _, err := tx.Exec(ctx, qInsert, c.positionID, c.amount, c.token, day); err != nil {
			return 0, err
		}
		created++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return created, nil
}

func (r *ReimbursementRepository) ListPending(ctx context.Context, limit int32) ([]reimbursement.Entity, error) {
	q := `SELECT ` + reimbursementColumns + ` FROM reimbursements WHERE status = 'pending' ORDER BY created_at, id LIMIT $1`
	return r.list(ctx, q, limit)
}

func (r *ReimbursementRepository) MarkCompleted(ctx context.Context, id int64, txHash string, processedAt time.Time) error {
	q := `UPDATE reimbursements SET status = 'completed', tx_hash = $2, processed_at = $3 WHERE id = $1 AND status = 'pending'`
	tag, err := r.pool.Exec(ctx, q, id, txHash, processedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reimbursement %d not pending", id)
	}
	return nil
}

func (r *ReimbursementRepository) MarkFailed(ctx context.Context, id int64, processedAt time.Time) error {
	q := `UPDATE reimbursements SET status = 'failed', tx_hash = NULL, processed_at = $2 WHERE id = $1 AND status = 'pending'`
	tag, err := r.pool.Exec(ctx, q, id, processedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reimbursement %d not pending", id)
	}
	return nil
}

func (r *ReimbursementRepository) ResetFailed(ctx context.Context, limit int32) (int, error) {
	q := `
UPDATE reimbursements
SET status = 'pending', tx_hash = NULL, processed_at = NULL
WHERE id IN (
  SELECT id FROM reimbursements
  WHERE status = 'failed'
  ORDER BY processed_at DESC NULLS LAST, id DESC
  LIMIT $1
)
`
	tag, err := r.pool.Exec(ctx, q, limit)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *ReimbursementRepository) GetStats(ctx context.Context) (*reimbursement.Stats, error) {
	q := `
SELECT
  COUNT(*) FILTER (WHERE status = 'pending')::bigint,
  COUNT(*) FILTER (WHERE status = 'completed')::bigint,
  COUNT(*) FILTER (WHERE status = 'failed')::bigint,
  COALESCE(SUM(amount) FILTER (WHERE status = 'pending'), 0)::float8,
  COALESCE(SUM(amount) FILTER (WHERE status = 'completed'), 0)::float8,
  COALESCE(SUM(amount) FILTER (WHERE status = 'failed'), 0)::float8
FROM reimbursements
`
	out := &reimbursement.Stats{}
	err := r.pool.QueryRow(ctx, q).Scan(
		&out.PendingCount, &out.CompletedCount, &out.FailedCount,
		&out.PendingAmount, &out.CompletedAmount, &out.FailedAmount,
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListForAddress resolves the address to its owner entity (vault or
// borrower) and returns that owner's reimbursements.
func (r *ReimbursementRepository) ListForAddress(ctx context.Context, address string) (*reimbursement.AddressSummary, error) {
	summary := &reimbursement.AddressSummary{Address: address, Items: []reimbursement.Entity{}}

	var borrowerID, vaultID *int64
	qOwner := `
SELECT b.id, v.id
FROM (SELECT 1) one
LEFT JOIN borrowers b ON b.address = $1
LEFT JOIN vaults v ON v.address = $1
`
	if err := r.pool.QueryRow(ctx, qOwner, address).Scan(&borrowerID, &vaultID); err != nil {
		return nil, err
	}

	var q string
	var ownerID int64
	switch {
	case borrowerID != nil:
		summary.OwnerKind = position.KindBorrower
		ownerID = *borrowerID
		q = `
SELECT ` + reimbursementColumns + `
FROM reimbursements
WHERE position_id IN (SELECT id FROM borrower_positions WHERE borrower_id = $1)
ORDER BY period_start DESC, id DESC`
	case vaultID != nil:
		summary.OwnerKind = position.KindVault
		ownerID = *vaultID
		q = `
SELECT ` + reimbursementColumns + `
FROM reimbursements
WHERE position_id IN (SELECT id FROM borrower_positions WHERE vault_id = $1)
ORDER BY period_start DESC, id DESC`
	default:
		return summary, nil
	}

	items, err := r.list(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	summary.Items = items
	for _, item := range items {
		summary.TotalAmount += item.Amount
	}
	return summary, nil
}

func (r *ReimbursementRepository) GetVaultPool(ctx context.Context, since time.Time) ([]reimbursement.PoolEntry, error) {
	q := `
SELECT token_symbol, COALESCE(SUM(interest_above_cap), 0)::float8, COUNT(DISTINCT vault_id)::bigint
FROM vault_supply_snapshots
WHERE snapshot_date >= $1 AND interest_above_cap > 0
GROUP BY token_symbol
ORDER BY 2 DESC
`
	rows, err := r.pool.Query(ctx, q, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]reimbursement.PoolEntry, 0)
	for rows.Next() {
		var item reimbursement.PoolEntry
		if err := rows.Scan(&item.TokenSymbol, &item.TotalAboveCap, &item.VaultCount); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ReimbursementRepository) ListProcessedSince(ctx context.Context, after time.Time, limit int32) ([]reimbursement.Entity, error) {
	q := `
SELECT ` + reimbursementColumns + `
FROM reimbursements
WHERE processed_at IS NOT NULL AND processed_at > $1
ORDER BY processed_at, id
LIMIT $2
`
	return r.list(ctx, q, after, limit)
}

func (r *ReimbursementRepository) list(ctx context.Context, q string, args ...any) ([]reimbursement.Entity, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]reimbursement.Entity, 0)
	for rows.Next() {
		item, err := scanReimbursement(rows)
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
