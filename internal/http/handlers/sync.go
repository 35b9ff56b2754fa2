package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/ItsAdel/morpho-apr/internal/syncer"
	"github.com/gin-gonic/gin"
)

type SyncService interface {
	SyncMarketPositions(ctx context.Context, marketID string) (*syncer.MarketSyncResult, error)
	SyncAll(ctx context.Context) ([]syncer.MarketSyncResult, error)
}

type SyncHandler struct {
	service SyncService
}

func NewSyncHandler(service SyncService) *SyncHandler {
	return &SyncHandler{service: service}
}

func (h *SyncHandler) SyncMarket(c *gin.Context) {
	marketID := strings.TrimSpace(c.Param("marketId"))
	if marketID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_market_id"})
		return
	}
	result, err := h.service.SyncMarketPositions(c.Request.Context(), marketID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sync_failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *SyncHandler) SyncAll(c *gin.Context) {
	results, err := h.service.SyncAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sync_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
