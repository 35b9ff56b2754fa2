package unit

import (
	"testing"
	"time"

	"github.com/ItsAdel/morpho-apr/internal/config"
)

func TestConfigDefaults(t *testing.T) {
	cfg := config.Load()

	if cfg.Port == "" {
		t.Fatalf("port default missing")
	}
	if cfg.CycleInterval != 24*time.Hour {
		t.Fatalf("cycle interval default = %v", cfg.CycleInterval)
	}
	if cfg.ProcessBatchSize != 50 {
		t.Fatalf("process batch size default = %d", cfg.ProcessBatchSize)
	}
	if cfg.PaymentMode != "stub" {
		t.Fatalf("payment mode default = %q", cfg.PaymentMode)
	}
}

func TestConfigEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("CYCLE_INTERVAL", "1h")
	t.Setenv("PROCESS_BATCH_SIZE", "7")
	t.Setenv("RATE_CACHE_TTL", "90s")

	cfg := config.Load()

	if cfg.Port != "9999" || cfg.Addr() != ":9999" {
		t.Fatalf("port override not applied: %q", cfg.Port)
	}
	if cfg.CycleInterval != time.Hour {
		t.Fatalf("cycle interval override not applied: %v", cfg.CycleInterval)
	}
	if cfg.ProcessBatchSize != 7 {
		t.Fatalf("batch size override not applied: %d", cfg.ProcessBatchSize)
	}
	if cfg.RateCacheTTL != 90*time.Second {
		t.Fatalf("cache ttl override not applied: %v", cfg.RateCacheTTL)
	}
}

func TestConfigIgnoresMalformedValues(t *testing.T) {
	t.Setenv("CYCLE_INTERVAL", "not-a-duration")
	t.Setenv("PROCESS_BATCH_SIZE", "many")

	cfg := config.Load()

	if cfg.CycleInterval != 24*time.Hour {
		t.Fatalf("malformed duration should fall back, got %v", cfg.CycleInterval)
	}
	if cfg.ProcessBatchSize != 50 {
		t.Fatalf("malformed int should fall back, got %d", cfg.ProcessBatchSize)
	}
}
