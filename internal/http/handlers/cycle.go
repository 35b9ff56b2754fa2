package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ItsAdel/morpho-apr/internal/domain/cycle"
	"github.com/gin-gonic/gin"
)

type CycleService interface {
	RunDailyCycle(ctx context.Context, day time.Time) (*cycle.Summary, error)
}

type CycleHandler struct {
	service CycleService
}

func NewCycleHandler(service CycleService) *CycleHandler {
	return &CycleHandler{service: service}
}

// RunCycle is the manual-trigger escape hatch for the daily batch. An empty
// body runs the cycle for today.
func (h *CycleHandler) RunCycle(c *gin.Context) {
	var req struct {
		Day string `json:"day"`
	}
	_ = c.ShouldBindJSON(&req)

	var day time.Time
	if strings.TrimSpace(req.Day) != "" {
		parsed, err := time.Parse("2006-01-02", strings.TrimSpace(req.Day))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_day"})
			return
		}
		day = parsed
	}

	summary, err := h.service.RunDailyCycle(c.Request.Context(), day)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cycle_failed"})
		return
	}
	c.JSON(http.StatusOK, summary)
}
