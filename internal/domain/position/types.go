package position

import (
	"context"
	"errors"
	"time"
)

const (
	StatusActive = "active"
	StatusClosed = "closed"
)

type OwnerKind string

const (
	KindVault    OwnerKind = "vault"
	KindBorrower OwnerKind = "borrower"
)

var ErrInvalidOwner = errors.New("position owner must be exactly one of vault or borrower")

// Owner is the tagged ownership variant: a position belongs to exactly one
// vault or exactly one borrower. The postgres repository maps it onto the
// two nullable FK columns and re-validates the XOR on every scan.
type Owner struct {
	Kind OwnerKind `json:"kind"`
	ID   int64     `json:"id"`
}

func VaultOwner(id int64) Owner    { return Owner{Kind: KindVault, ID: id} }
func BorrowerOwner(id int64) Owner { return Owner{Kind: KindBorrower, ID: id} }

func (o Owner) Validate() error {
	if (o.Kind != KindVault && o.Kind != KindBorrower) || o.ID <= 0 {
		return ErrInvalidOwner
	}
	return nil
}

type Entity struct {
	ID              int64     `json:"id"`
	MarketID        string    `json:"market_id"`
	Owner           Owner     `json:"owner"`
	PrincipalAmount float64   `json:"principal_amount"`
	CurrentDebt     float64   `json:"current_debt"`
	SupplyAssets    float64   `json:"supply_assets"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Principal returns the balance accrual is computed from: current debt for
// borrower positions, synced supply assets for vault allocations.
func (e Entity) Principal() float64 {
	if e.Owner.Kind == KindVault {
		return e.SupplyAssets
	}
	return e.CurrentDebt
}

type CreateInput struct {
	MarketID        string
	Owner           Owner
	PrincipalAmount float64
	CurrentDebt     float64
	SupplyAssets    float64
}

type Repository interface {
	Create(ctx context.Context, in CreateInput) (*Entity, error)
	GetByID(ctx context.Context, id int64) (*Entity, error)
	ListActiveByKind(ctx context.Context, kind OwnerKind) ([]Entity, error)
	UpdateDebt(ctx context.Context, id int64, currentDebt float64) error
	SetSupplyAssets(ctx context.Context, id int64, supplyAssets float64) error
	UpsertBorrowerPosition(ctx context.Context, marketID string, borrowerID int64, currentDebt, principalAmount float64) (*Entity, error)
	Close(ctx context.Context, id int64) error
}
