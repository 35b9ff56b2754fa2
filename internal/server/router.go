package server

import (
	"log/slog"
	"net/http"

	"github.com/ItsAdel/morpho-apr/internal/auth"
	"github.com/ItsAdel/morpho-apr/internal/config"
	"github.com/ItsAdel/morpho-apr/internal/http/handlers"
	"github.com/ItsAdel/morpho-apr/internal/http/middleware"
	"github.com/ItsAdel/morpho-apr/internal/version"
	"github.com/gin-gonic/gin"
)

type Dependencies struct {
	Pinger               handlers.Pinger
	AuthHandler          *handlers.AuthHandler
	CycleHandler         *handlers.CycleHandler
	ReimbursementHandler *handlers.ReimbursementHandler
	MarketHandler        *handlers.MarketHandler
	SyncHandler          *handlers.SyncHandler
	WSHandler            interface{ HandleWebSocket(c *gin.Context) }
	JWTManager           *auth.JWTManager
}

func NewRouter(cfg config.Config, logger *slog.Logger, deps Dependencies) *gin.Engine {
	if cfg.Env == "prod" || cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestBodyLimit(cfg.RequestBodyLimit))
	r.Use(func(c *gin.Context) {
		logger.Info("request", "method", c.Request.Method, "path", c.Request.URL.Path)
		c.Next()
	})

	health := handlers.NewHealthHandler(deps.Pinger)
	meta := handlers.NewMetaHandler(cfg.Env, version.Version)

	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	r.GET("/v1/meta", meta.GetMeta)

	if deps.AuthHandler != nil {
		r.POST("/v1/auth/login", deps.AuthHandler.Login)
	}

	if deps.ReimbursementHandler != nil {
		r.GET("/v1/reimbursements/stats", deps.ReimbursementHandler.GetStats)
		r.GET("/v1/reimbursements/address/:address", deps.ReimbursementHandler.GetForAddress)
		r.GET("/v1/reimbursements/pool", deps.ReimbursementHandler.GetVaultPool)
	}
	if deps.MarketHandler != nil {
		r.GET("/v1/markets", deps.MarketHandler.List)
	}

	if deps.JWTManager != nil {
		operator := r.Group("/v1")
		operator.Use(middleware.RequireOperator(deps.JWTManager))
		if deps.CycleHandler != nil {
			operator.POST("/cycle/run", deps.CycleHandler.RunCycle)
		}
		if deps.ReimbursementHandler != nil {
			operator.POST("/reimbursements/create", deps.ReimbursementHandler.CreateEntries)
			operator.POST("/reimbursements/process", deps.ReimbursementHandler.ProcessPending)
			operator.POST("/reimbursements/retry", deps.ReimbursementHandler.RetryFailed)
		}
		if deps.MarketHandler != nil {
			operator.POST("/markets", deps.MarketHandler.Create)
			operator.PATCH("/markets/:marketId/cap", deps.MarketHandler.UpdateCap)
		}
		if deps.SyncHandler != nil {
			operator.POST("/sync", deps.SyncHandler.SyncAll)
			operator.POST("/sync/:marketId", deps.SyncHandler.SyncMarket)
		}
	}

	if deps.WSHandler != nil {
		r.GET("/ws", deps.WSHandler.HandleWebSocket)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})

	return r
}
