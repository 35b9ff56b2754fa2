package handlers

import (
	"net/http"
	"strings"

	"github.com/ItsAdel/morpho-apr/internal/domain/market"
	"github.com/ItsAdel/morpho-apr/internal/syncer"
	"github.com/gin-gonic/gin"
)

type MarketHandler struct {
	repo market.Repository
}

func NewMarketHandler(repo market.Repository) *MarketHandler {
	return &MarketHandler{repo: repo}
}

func (h *MarketHandler) List(c *gin.Context) {
	items, err := h.repo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_markets_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *MarketHandler) Create(c *gin.Context) {
	var req struct {
		MarketID        string  `json:"market_id"`
		Name            string  `json:"name"`
		LoanAsset       string  `json:"loan_asset"`
		CollateralAsset string  `json:"collateral_asset"`
		APRCap          float64 `json:"apr_cap"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.LoanAsset) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	marketID := strings.TrimSpace(req.MarketID)
	if marketID == "" {
		marketID = syncer.MarketKey(req.LoanAsset, req.CollateralAsset)
	}

	created, err := h.repo.Upsert(c.Request.Context(), market.CreateInput{
		MarketID:        marketID,
		Name:            strings.TrimSpace(req.Name),
		LoanAsset:       strings.ToUpper(strings.TrimSpace(req.LoanAsset)),
		CollateralAsset: strings.ToUpper(strings.TrimSpace(req.CollateralAsset)),
		APRCap:          req.APRCap,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create_market_failed"})
		return
	}
	c.JSON(http.StatusOK, created)
}

// UpdateCap changes the rate ceiling; snapshots already written keep the old
// cap unless the day is explicitly recomputed.
func (h *MarketHandler) UpdateCap(c *gin.Context) {
	marketID := strings.TrimSpace(c.Param("marketId"))
	if marketID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_market_id"})
		return
	}
	var req struct {
		APRCap float64 `json:"apr_cap"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	updated, err := h.repo.UpdateCap(c.Request.Context(), marketID, req.APRCap)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "market_not_found"})
		return
	}
	c.JSON(http.StatusOK, updated)
}
