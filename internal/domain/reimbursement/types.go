package reimbursement

import (
	"context"
	"time"

	"github.com/ItsAdel/morpho-apr/internal/domain/position"
)

// Status lifecycle: pending -> completed, pending -> failed,
// failed -> pending (explicit retry). Completed is terminal.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const DefaultPoolWindowDays = 30

type Entity struct {
	ID          int64      `json:"id"`
	PositionID  int64      `json:"position_id"`
	Amount      float64    `json:"amount"`
	TokenSymbol string     `json:"token_symbol"`
	PeriodStart time.Time  `json:"period_start"`
	PeriodEnd   time.Time  `json:"period_end"`
	Status      string     `json:"status"`
	TxHash      string     `json:"tx_hash,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

type ProcessReport struct {
	Processed   int     `json:"processed"`
	Failed      int     `json:"failed"`
	TotalAmount float64 `json:"total_amount"`
}

type Stats struct {
	PendingCount    int64   `json:"pending_count"`
	CompletedCount  int64   `json:"completed_count"`
	FailedCount     int64   `json:"failed_count"`
	PendingAmount   float64 `json:"pending_amount"`
	CompletedAmount float64 `json:"completed_amount"`
	FailedAmount    float64 `json:"failed_amount"`
}

// AddressSummary joins reimbursements back to position ownership for one
// on-chain address (a vault or a borrower, never both).
type AddressSummary struct {
	Address     string             `json:"address"`
	OwnerKind   position.OwnerKind `json:"owner_kind"`
	TotalAmount float64            `json:"total_amount"`
	Items       []Entity           `json:"items"`
}

// PoolEntry is one token's share of the vault-side excess over a trailing
// window, read from the supply snapshots.
type PoolEntry struct {
	TokenSymbol   string  `json:"token_symbol"`
	TotalAboveCap float64 `json:"total_above_cap"`
	VaultCount    int64   `json:"vault_count"`
}

type Repository interface {
	// CreateForDay inserts one pending reimbursement per qualifying
	// (position, day) inside a single transaction, with per-row existence
	// checks so a rerun creates nothing new.
	CreateForDay(ctx context.Context, day time.Time) (int, error)
	ListPending(ctx context.Context, limit int32) ([]Entity, error)
	MarkCompleted(ctx context.Context, id int64, txHash string, processedAt time.Time) error
	MarkFailed(ctx context.Context, id int64, processedAt time.Time) error
	ResetFailed(ctx context.Context, limit int32) (int, error)
	GetStats(ctx context.Context) (*Stats, error)
	ListForAddress(ctx context.Context, address string) (*AddressSummary, error)
	GetVaultPool(ctx context.Context, since time.Time) ([]PoolEntry, error)
	ListProcessedSince(ctx context.Context, after time.Time, limit int32) ([]Entity, error)
}
