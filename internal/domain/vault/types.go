package vault

import (
	"context"
	"time"
)

type Entity struct {
	ID          int64     `json:"id"`
	Address     string    `json:"address"`
	Name        string    `json:"name"`
	TokenSymbol string    `json:"token_symbol"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateInput struct {
	Address     string
	Name        string
	TokenSymbol string
}

type Repository interface {
	Upsert(ctx context.Context, in CreateInput) (*Entity, error)
	GetByAddress(ctx context.Context, address string) (*Entity, error)
	List(ctx context.Context) ([]Entity, error)
}
