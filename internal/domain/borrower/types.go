package borrower

import (
	"context"
	"time"
)

type Entity struct {
	ID        int64     `json:"id"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Repository interface {
	Upsert(ctx context.Context, address string) (*Entity, error)
	GetByAddress(ctx context.Context, address string) (*Entity, error)
}
