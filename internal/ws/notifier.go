package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ItsAdel/morpho-apr/internal/domain/reimbursement"
)

const statusChannel = "reimbursements:status"

type ReimbursementFeed interface {
	ListProcessedSince(ctx context.Context, after time.Time, limit int32) ([]reimbursement.Entity, error)
}

// Notifier polls for freshly processed reimbursements and pushes their
// status changes to dashboard subscribers.
type Notifier struct {
	feed         ReimbursementFeed
	hub          *Hub
	pollInterval time.Duration
	lastSeen     time.Time
}

func NewNotifier(feed ReimbursementFeed, hub *Hub, pollInterval time.Duration) *Notifier {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &Notifier{
		feed:         feed,
		hub:          hub,
		pollInterval: pollInterval,
		lastSeen:     time.Now().UTC(),
	}
}

func (n *Notifier) Run(ctx context.Context) error {
	ticker := time.NewTicker(n.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := n.tick(ctx); err != nil {
				return err
			}
		}
	}
}

func (n *Notifier) tick(ctx context.Context) error {
	items, err := n.feed.ListProcessedSince(ctx, n.lastSeen, 100)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.ProcessedAt != nil && item.ProcessedAt.After(n.lastSeen) {
			n.lastSeen = *item.ProcessedAt
		}
		payload, _ := json.Marshal(map[string]any{
			"event": "reimbursement_processed",
			"data": map[string]any{
				"reimbursement_id": item.ID,
				"position_id":      item.PositionID,
				"amount":           item.Amount,
				"token_symbol":     item.TokenSymbol,
				"status":           item.Status,
				"tx_hash":          item.TxHash,
			},
		})
		n.hub.Publish(statusChannel, payload)
	}
	return nil
}
