package kraken

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/antonvlasov/papertrade/internal/common/config"
	"github.com/antonvlasov/papertrade/internal/common/domain"
	"github.com/antonvlasov/papertrade/pkg/errs"
	"github.com/antonvlasov/papertrade/pkg/log"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Client struct {
	cfg        *config.Kraken
	httpClient *http.Client

	// marketCache holds display prices for the market list only. Trade
	// execution calls GetPrice directly and never reads from it.
	marketCache *cache.Cache
}

func NewClient(cfg *config.Kraken) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		marketCache: cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
	}
}

// GetPrice implements domain.PriceOracle with the last-trade price from
// Kraken's public ticker endpoint.
func (c *Client) GetPrice(ctx context.Context, assetID string) (decimal.Decimal, error) {
	if assetID == "" {
		return decimal.Decimal{}, errs.NewStack(errors.New("asset id is required"))
	}

	res, err := c.getTicker(ctx, assetID)
	if err != nil {
		return decimal.Decimal{}, errs.NewStack(err)
	}

	price, err := res.LastPrice()
	if err != nil {
		return decimal.Decimal{}, errs.NewStack(err)
	}

	return price, nil
}

func (c *Client) getTicker(ctx context.Context, assetID string) (*tickerResponse, error) {
	endpoint := fmt.Sprintf("%s/0/public/Ticker?pair=%s", c.cfg.APIURL, url.QueryEscape(normalizePair(assetID)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kraken ticker: unexpected status %d", resp.StatusCode)
	}

	res := &tickerResponse{}
	if err := json.NewDecoder(resp.Body).Decode(res); err != nil {
		return nil, fmt.Errorf("kraken ticker: %w", err)
	}

	if len(res.Error) > 0 {
		return nil, fmt.Errorf("kraken ticker: %s", res.Error[0])
	}

	return res, nil
}

// Prices returns the current prices for the configured pairs, for the
// market list in the UI. Entries come from the short-TTL cache when
// fresh; the cache is also fed by the websocket stream when enabled.
// Pairs that fail to resolve are skipped so one bad symbol does not
// empty the whole list.
func (c *Client) Prices(ctx context.Context) ([]*domain.AssetPrice, error) {
	prices := make([]*domain.AssetPrice, 0, len(c.cfg.Pairs))

	for _, pair := range c.cfg.Pairs {
		if cached, ok := c.marketCache.Get(pair); ok {
			prices = append(prices, cached.(*domain.AssetPrice))
			continue
		}

		price, err := c.GetPrice(ctx, pair)
		if err != nil {
			log.Warn("failed to get pair price", zap.String("pair", pair), zap.Error(err))
			continue
		}

		assetPrice := &domain.AssetPrice{
			AssetID: pair,
			Price:   price,
			At:      time.Now().UTC(),
		}

		c.marketCache.SetDefault(pair, assetPrice)
		prices = append(prices, assetPrice)
	}

	return prices, nil
}

func (c *Client) setCachedPrice(pair string, price decimal.Decimal) {
	c.marketCache.SetDefault(pair, &domain.AssetPrice{
		AssetID: pair,
		Price:   price,
		At:      time.Now().UTC(),
	})
}

// normalizePair maps UI symbols to Kraken REST pair names. Bitcoin is
// quoted as XBT in the UI list.
func normalizePair(assetID string) string {
	return strings.ReplaceAll(assetID, "XBT", "BTC")
}
