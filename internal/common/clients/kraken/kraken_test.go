package kraken

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/antonvlasov/papertrade/internal/common/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecimal(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func newTestClient(apiURL string, pairs ...string) *Client {
	return NewClient(&config.Kraken{
		APIURL:   apiURL,
		Timeout:  2 * time.Second,
		Pairs:    pairs,
		CacheTTL: time.Minute,
	})
}

func TestClient_GetPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/0/public/Ticker", r.URL.Path)
		assert.Equal(t, "BTC/USD", r.URL.Query().Get("pair"))

		w.Write([]byte(`{"error":[],"result":{"XXBTZUSD":{"c":["50123.40000","0.00100000"]}}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	price, err := client.GetPrice(context.Background(), "XBT/USD")
	require.NoError(t, err)
	assert.Equal(t, "50123.4", price.String())
}

func TestClient_GetPrice_EmptyAssetID(t *testing.T) {
	client := newTestClient("http://localhost")

	_, err := client.GetPrice(context.Background(), "")
	require.Error(t, err)
}

func TestClient_GetPrice_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":["EQuery:Unknown asset pair"],"result":{}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.GetPrice(context.Background(), "FAKE/USD")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EQuery:Unknown asset pair")
}

func TestClient_GetPrice_EmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":[],"result":{}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.GetPrice(context.Background(), "XBT/USD")
	require.Error(t, err)
}

func TestClient_GetPrice_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.GetPrice(context.Background(), "XBT/USD")
	require.Error(t, err)
}

func TestClient_GetPrice_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(&config.Kraken{
		APIURL:   server.URL,
		Timeout:  20 * time.Millisecond,
		CacheTTL: time.Minute,
	})

	_, err := client.GetPrice(context.Background(), "XBT/USD")
	require.Error(t, err)
}

func TestClient_Prices_UsesCache(t *testing.T) {
	var requests atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(`{"error":[],"result":{"XETHZUSD":{"c":["3000.00","1.00000000"]}}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "ETH/USD")

	first, err := client.Prices(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "ETH/USD", first[0].AssetID)
	assert.Equal(t, "3000", first[0].Price.String())

	second, err := client.Prices(context.Background())
	require.NoError(t, err)
	require.Len(t, second, 1)

	assert.Equal(t, int64(1), requests.Load())
}

func TestClient_Prices_SkipsFailingPairs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pair") == "FAKE/USD" {
			w.Write([]byte(`{"error":["EQuery:Unknown asset pair"],"result":{}}`))
			return
		}

		w.Write([]byte(`{"error":[],"result":{"XETHZUSD":{"c":["3000.00","1.00000000"]}}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "FAKE/USD", "ETH/USD")

	prices, err := client.Prices(context.Background())
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.Equal(t, "ETH/USD", prices[0].AssetID)
}

func TestClient_Prices_ReadsStreamUpdates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("cached price must not trigger a REST call")
	}))
	defer server.Close()

	client := newTestClient(server.URL, "XBT/USD")
	client.setCachedPrice("XBT/USD", mustDecimal("51000"))

	prices, err := client.Prices(context.Background())
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.Equal(t, "51000", prices[0].Price.String())
}

func TestTickerResponse_LastPrice_NonPositive(t *testing.T) {
	res := &tickerResponse{Result: map[string]tickerEntry{
		"XXBTZUSD": {Close: []string{"0.0", "0"}},
	}}

	_, err := res.LastPrice()
	require.Error(t, err)
}
