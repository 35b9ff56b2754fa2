package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ItsAdel/morpho-apr/internal/config"
	"github.com/ItsAdel/morpho-apr/internal/db"
	"github.com/ItsAdel/morpho-apr/internal/domain/cycle"
	"github.com/ItsAdel/morpho-apr/internal/domain/reimbursement"
	"github.com/ItsAdel/morpho-apr/internal/domain/snapshot"
	"github.com/ItsAdel/morpho-apr/internal/jobs"
	"github.com/ItsAdel/morpho-apr/internal/observability"
	"github.com/ItsAdel/morpho-apr/internal/payments"
	"github.com/ItsAdel/morpho-apr/internal/ratesource"
	postgresrepo "github.com/ItsAdel/morpho-apr/internal/repository/postgres"
	"github.com/ItsAdel/morpho-apr/internal/syncer"
)

func main() {
	cfg := config.Load()
	logger := observability.NewLogger(cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect postgres", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	rates, err := ratesource.NewFromConfig(cfg)
	if err != nil {
		logger.Error("failed to build rate source client", "err", err)
		os.Exit(1)
	}

	executor, err := payments.NewExecutorFromConfig(cfg)
	if err != nil {
		logger.Error("failed to build payment executor", "err", err)
		os.Exit(1)
	}

	marketRepo := postgresrepo.NewMarketRepository(pool)
	borrowerRepo := postgresrepo.NewBorrowerRepository(pool)
	positionRepo := postgresrepo.NewPositionRepository(pool)
	snapshotRepo := postgresrepo.NewSnapshotRepository(pool)
	reimbursementRepo := postgresrepo.NewReimbursementRepository(pool)

	engine := snapshot.NewEngine(marketRepo, positionRepo, snapshotRepo, rates, logger)
	reimbursementService := reimbursement.NewService(reimbursementRepo, executor, logger)
	cycleService := cycle.NewService(engine, reimbursementService, nil, logger)
	syncService := syncer.NewService(marketRepo, borrowerRepo, positionRepo, rates, logger)

	scheduler := jobs.NewScheduler(cycleService, cfg.CycleInterval, cfg.CycleRunTimeout, logger)
	scheduler.Start()
	defer scheduler.Stop()

	syncTicker := time.NewTicker(cfg.SyncInterval)
	defer syncTicker.Stop()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("worker started",
		"cycle_interval", cfg.CycleInterval.String(),
		"sync_interval", cfg.SyncInterval.String(),
	)
	for {
		select {
		case <-sigCtx.Done():
			logger.Info("worker stopped")
			return
		case <-syncTicker.C:
			runCtx, runCancel := context.WithTimeout(context.Background(), cfg.CycleRunTimeout)
			_, err := syncService.SyncAll(runCtx)
			runCancel()
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("position sync failed", "err", err)
			}
		}
	}
}
