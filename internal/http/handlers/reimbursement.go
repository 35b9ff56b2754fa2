package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ItsAdel/morpho-apr/internal/domain/reimbursement"
	"github.com/gin-gonic/gin"
)

type ReimbursementService interface {
	CreateForDay(ctx context.Context, day time.Time) (int, error)
	ProcessPending(ctx context.Context, limit int32) (*reimbursement.ProcessReport, error)
	RetryFailed(ctx context.Context, limit int32) (int, error)
	Stats(ctx context.Context) (*reimbursement.Stats, error)
	ForAddress(ctx context.Context, address string) (*reimbursement.AddressSummary, error)
	VaultPool(ctx context.Context, windowDays int32) ([]reimbursement.PoolEntry, error)
}

type ReimbursementHandler struct {
	service ReimbursementService
}

func NewReimbursementHandler(service ReimbursementService) *ReimbursementHandler {
	return &ReimbursementHandler{service: service}
}

func (h *ReimbursementHandler) CreateEntries(c *gin.Context) {
	var req struct {
		Day string `json:"day"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Day) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_day"})
		return
	}
	day, err := time.Parse("2006-01-02", strings.TrimSpace(req.Day))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_day"})
		return
	}

	created, err := h.service.CreateForDay(c.Request.Context(), day)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}

func (h *ReimbursementHandler) ProcessPending(c *gin.Context) {
	var req struct {
		Limit int32 `json:"limit"`
	}
	_ = c.ShouldBindJSON(&req)

	report, err := h.service.ProcessPending(c.Request.Context(), req.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "process_failed"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReimbursementHandler) RetryFailed(c *gin.Context) {
	var req struct {
		Limit int32 `json:"limit"`
	}
	_ = c.ShouldBindJSON(&req)

	reset, err := h.service.RetryFailed(c.Request.Context(), req.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "retry_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reset": reset})
}

func (h *ReimbursementHandler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats_failed"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *ReimbursementHandler) GetForAddress(c *gin.Context) {
	address := strings.TrimSpace(c.Param("address"))
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_address"})
		return
	}
	summary, err := h.service.ForAddress(c.Request.Context(), address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "address_lookup_failed"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *ReimbursementHandler) GetVaultPool(c *gin.Context) {
	days, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("days", "30")), 10, 32)
	entries, err := h.service.VaultPool(c.Request.Context(), int32(days))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "pool_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"window_days": days, "entries": entries})
}
