package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ItsAdel/morpho-apr/internal/auth"
	"github.com/ItsAdel/morpho-apr/internal/config"
	"github.com/ItsAdel/morpho-apr/internal/db"
	"github.com/ItsAdel/morpho-apr/internal/domain/cycle"
	"github.com/ItsAdel/morpho-apr/internal/domain/reimbursement"
	"github.com/ItsAdel/morpho-apr/internal/domain/snapshot"
	"github.com/ItsAdel/morpho-apr/internal/http/handlers"
	"github.com/ItsAdel/morpho-apr/internal/observability"
	"github.com/ItsAdel/morpho-apr/internal/payments"
	"github.com/ItsAdel/morpho-apr/internal/ratesource"
	postgresrepo "github.com/ItsAdel/morpho-apr/internal/repository/postgres"
	"github.com/ItsAdel/morpho-apr/internal/server"
	"github.com/ItsAdel/morpho-apr/internal/syncer"
	"github.com/ItsAdel/morpho-apr/internal/ws"
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

	hub := ws.NewHub()
	engine := snapshot.NewEngine(marketRepo, positionRepo, snapshotRepo, rates, logger)
	reimbursementService := reimbursement.NewService(reimbursementRepo, executor, logger)
	cycleService := cycle.NewService(engine, reimbursementService, hub, logger)
	syncService := syncer.NewService(marketRepo, borrowerRepo, positionRepo, rates, logger)

	jwtManager := auth.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTSigningKey)

	notifier := ws.NewNotifier(reimbursementRepo, hub, cfg.NotifierPollInterval)
	notifierCtx, stopNotifier := context.WithCancel(context.Background())
	defer stopNotifier()
	go func() {
		if err := notifier.Run(notifierCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("reimbursement notifier stopped", "err", err)
		}
	}()

	r := server.NewRouter(cfg, logger, server.Dependencies{
		Pinger:               pool,
		AuthHandler:          handlers.NewAuthHandler(jwtManager, cfg.OperatorKey, cfg.JWTAccessTTL),
		CycleHandler:         handlers.NewCycleHandler(cycleService),
		ReimbursementHandler: handlers.NewReimbursementHandler(reimbursementService),
		MarketHandler:        handlers.NewMarketHandler(marketRepo),
		SyncHandler:          handlers.NewSyncHandler(syncService),
		WSHandler:            ws.NewHandler(hub),
		JWTManager:           jwtManager,
	})
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("api server starting", "addr", cfg.Addr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
	logger.Info("api server stopped")
}
