package payments

import (
	"context"
	"fmt"
	"time"
)

// Executor settles one reimbursement and returns a transaction reference.
// A returned error marks the reimbursement failed; it is never retried
// automatically.
type Executor interface {
	ExecuteReimbursement(ctx context.Context, positionID int64, amount float64, tokenSymbol string) (string, error)
}

type StubExecutor struct{}

func NewStubExecutor() *StubExecutor {
	return &StubExecutor{}
}

func (e *StubExecutor) ExecuteReimbursement(_ context.Context, positionID int64, amount float64, tokenSymbol string) (string, error) {
	if positionID <= 0 {
		return "", fmt.Errorf("missing position id")
	}
	if amount <= 0 {
		return "", fmt.Errorf("non-positive reimbursement amount")
	}
	if tokenSymbol == "" {
		return "", fmt.Errorf("missing token symbol")
	}
	return fmt.Sprintf("0xstub%d%x", positionID, time.Now().UTC().UnixNano()), nil
}
