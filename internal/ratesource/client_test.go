package ratesource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientGetMarketState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/markets/0xm1/state":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"borrowApy":0.18,"supplyApy":0.07}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL, 5*time.Second)
	require.NoError(t, err)

	state, err := client.GetMarketState(context.Background(), "0xm1")
	require.NoError(t, err)
	assert.Equal(t, 0.18, state.BorrowAPY)
	assert.Equal(t, 0.07, state.SupplyAPY)

	_, err = client.GetMarketState(context.Background(), "0xunknown")
	require.ErrorIs(t, err, ErrMarketNotFound)
}

func TestHTTPClientGetBorrowerPositions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/markets/0xm1/positions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"address":"0xaaa","currentDebt":120.5,"principalAmount":100}]}`))
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL, 5*time.Second)
	require.NoError(t, err)

	items, err := client.GetBorrowerPositions(context.Background(), "0xm1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "0xaaa", items[0].Address)
	assert.Equal(t, 120.5, items[0].CurrentDebt)
}

func TestHTTPClientRejectsEmptyBaseURL(t *testing.T) {
	_, err := NewHTTPClient("   ", time.Second)
	require.Error(t, err)
}

func TestHTTPClientUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL, time.Second)
	require.NoError(t, err)

	_, err = client.GetMarketState(context.Background(), "0xm1")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrMarketNotFound)
}
