package payments

import (
	"fmt"
	"strings"

	"github.com/ItsAdel/morpho-apr/internal/config"
)

func NewExecutorFromConfig(cfg config.Config) (Executor, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.PaymentMode))
	if mode == "" || mode == "stub" {
		return NewStubExecutor(), nil
	}
	if mode != "real" {
		return nil, fmt.Errorf("invalid PAYMENT_MODE: %s", cfg.PaymentMode)
	}
	return NewRPCExecutor(cfg.PaymentHTTPRPC, cfg.PaymentFromAddress, cfg.PaymentContract, cfg.PaymentGasLimit)
}
