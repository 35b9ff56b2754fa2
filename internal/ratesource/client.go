package ratesource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrMarketNotFound marks the recoverable lookup miss: the source has no
// rate data for the market. Callers skip the entity and continue.
var ErrMarketNotFound = errors.New("market not found in rate source")

type MarketState struct {
	BorrowAPY float64 `json:"borrowApy"`
	SupplyAPY float64 `json:"supplyApy"`
}

type BorrowerPosition struct {
	Address         string  `json:"address"`
	CurrentDebt     float64 `json:"currentDebt"`
	PrincipalAmount float64 `json:"principalAmount"`
}

type Client interface {
	GetMarketState(ctx context.Context, marketID string) (*MarketState, error)
	GetBorrowerPositions(ctx context.Context, marketID string) ([]BorrowerPosition, error)
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("missing RATE_SOURCE_BASE_URL")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *HTTPClient) GetMarketState(ctx context.Context, marketID string) (*MarketState, error) {
	out := &MarketState{}
	path := fmt.Sprintf("/v1/markets/%s/state", url.PathEscape(strings.TrimSpace(marketID)))
	if err := c.getJSON(ctx, path, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetBorrowerPositions(ctx context.Context, marketID string) ([]BorrowerPosition, error) {
	var payload struct {
		Items []BorrowerPosition `json:"items"`
	}
	path := fmt.Sprintf("/v1/markets/%s/positions", url.PathEscape(strings.TrimSpace(marketID)))
	if err := c.getJSON(ctx, path, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrMarketNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rate source status %d for %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode rate source response: %w", err)
	}
	return nil
}
