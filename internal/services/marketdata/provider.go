package marketdata

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"IndiLimit/internal/domain/models"
	drepo "IndiLimit/internal/domain/repository"
	"IndiLimit/internal/service/ratelimit"
	xhttp "IndiLimit/pkg/http"
	"IndiLimit/pkg/logger"
)

// Config holds the upstream endpoints and fallback constants of the HTTP
// market-data provider.
type Config struct {
	CoinGeckoURL   string
	FrankfurterURL string
	CryptoID       string
	HistoryDays    int
	Timeout        time.Duration

	FallbackBTCUSD float64
	FallbackUSDINR float64

	// Token-bucket settings shared by both upstreams.
	RateCapacity  float64
	RateRefillSec float64
}

// Provider fetches BTC/USD history from CoinGecko and USD/INR history from
// Frankfurter and joins them by calendar date. Live fetches degrade to fixed
// fallback rates instead of failing.
type Provider struct {
	cfg     Config
	client  *xhttp.Client
	limiter *ratelimit.Limiter
	log     *logger.Logger
}

func NewProvider(cfg Config, limiter *ratelimit.Limiter, log *logger.Logger) drepo.MarketData {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.CryptoID == "" {
		cfg.CryptoID = "bitcoin"
	}
	return &Provider{
		cfg:     cfg,
		client:  xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		limiter: limiter,
		log:     log,
	}
}

type marketChartResponse struct {
	Prices [][2]float64 `json:"prices"`
}

type fxRangeResponse struct {
	Rates map[string]map[string]float64 `json:"rates"`
}

type simplePriceResponse map[string]map[string]float64

type fxLatestResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// FetchHistory returns the joined price series for the requested number of
// days. Rows exist only for dates present in both upstream feeds.
func (p *Provider) FetchHistory(ctx context.Context, days int, g drepo.Granularity) (models.PriceSeries, error) {
	if days <= 0 {
		days = p.cfg.HistoryDays
	}
	if !p.allow("coingecko") || !p.allow("frankfurter") {
		return nil, fmt.Errorf("%w: upstream rate limit exhausted", models.ErrUpstreamData)
	}

	prices, err := p.fetchCryptoHistory(ctx, days, g)
	if err != nil {
		return nil, fmt.Errorf("%w: crypto history: %v", models.ErrUpstreamData, err)
	}
	fx, err := p.fetchFXHistory(ctx, days)
	if err != nil {
		return nil, fmt.Errorf("%w: fx history: %v", models.ErrUpstreamData, err)
	}

	series := joinByDate(prices, fx)
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: no overlapping dates between price and fx feeds", models.ErrUpstreamData)
	}
	return series, nil
}

// FetchLive returns the latest rates. Upstream failures are absorbed: the
// snapshot falls back to fixed constants and is flagged so callers can mark
// the recommendation as degraded.
func (p *Provider) FetchLive(ctx context.Context) (models.LiveRates, error) {
	fallback := models.LiveRates{
		BTCUSD:   p.cfg.FallbackBTCUSD,
		USDINR:   p.cfg.FallbackUSDINR,
		AsOf:     time.Now().UTC(),
		Fallback: true,
	}

	if !p.allow("coingecko") || !p.allow("frankfurter") {
		p.log.Warn("live rate fetch throttled, using fallback rates")
		return fallback, nil
	}

	btc, err := p.fetchLiveCrypto(ctx)
	if err != nil {
		p.log.Warn("live crypto rate unavailable, using fallback rates", logger.Error(err))
		return fallback, nil
	}
	inr, err := p.fetchLiveFX(ctx)
	if err != nil {
		p.log.Warn("live fx rate unavailable, using fallback rates", logger.Error(err))
		return fallback, nil
	}

	return models.LiveRates{BTCUSD: btc, USDINR: inr, AsOf: time.Now().UTC()}, nil
}

func (p *Provider) allow(upstream string) bool {
	if p.limiter == nil {
		return true
	}
	return p.limiter.Allow(upstream, p.cfg.RateCapacity, p.cfg.RateRefillSec)
}

func (p *Provider) fetchCryptoHistory(ctx context.Context, days int, g drepo.Granularity) (map[string]float64, error) {
	params := map[string][]string{
		"vs_currency": {"usd"},
		"days":        {strconv.Itoa(days)},
	}
	// CoinGecko auto-selects hourly points without the interval parameter.
	if g != drepo.GranHourly {
		params["interval"] = []string{"daily"}
	}

	var resp marketChartResponse
	err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         fmt.Sprintf("%s/coins/%s/market_chart", p.cfg.CoinGeckoURL, p.cfg.CryptoID),
		QueryParams: params,
	}, &resp)
	if err != nil {
		return nil, err
	}

	// Keep the last observation of each date.
	byDate := make(map[string]float64, len(resp.Prices))
	for _, pt := range resp.Prices {
		date := time.UnixMilli(int64(pt[0])).UTC().Format("2006-01-02")
		byDate[date] = pt[1]
	}
	if len(byDate) == 0 {
		return nil, fmt.Errorf("empty price response")
	}
	return byDate, nil
}

func (p *Provider) fetchFXHistory(ctx context.Context, days int) (map[string]float64, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	var resp fxRangeResponse
	err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL: fmt.Sprintf("%s/%s..%s", p.cfg.FrankfurterURL,
			start.Format("2006-01-02"), end.Format("2006-01-02")),
		QueryParams: map[string][]string{
			"from": {"USD"},
			"to":   {"INR"},
		},
	}, &resp)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]float64, len(resp.Rates))
	for date, rates := range resp.Rates {
		if inr, ok := rates["INR"]; ok {
			byDate[date] = inr
		}
	}
	if len(byDate) == 0 {
		return nil, fmt.Errorf("empty fx response")
	}
	return byDate, nil
}

func (p *Provider) fetchLiveCrypto(ctx context.Context) (float64, error) {
	var resp simplePriceResponse
	err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    p.cfg.CoinGeckoURL + "/simple/price",
		QueryParams: map[string][]string{
			"ids":           {p.cfg.CryptoID},
			"vs_currencies": {"usd"},
		},
	}, &resp)
	if err != nil {
		return 0, err
	}
	price, ok := resp[p.cfg.CryptoID]["usd"]
	if !ok || price <= 0 {
		return 0, fmt.Errorf("price missing from response")
	}
	return price, nil
}

func (p *Provider) fetchLiveFX(ctx context.Context) (float64, error) {
	var resp fxLatestResponse
	err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    p.cfg.FrankfurterURL + "/latest",
		QueryParams: map[string][]string{
			"from": {"USD"},
			"to":   {"INR"},
		},
	}, &resp)
	if err != nil {
		return 0, err
	}
	rate, ok := resp.Rates["INR"]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("fx rate missing from response")
	}
	return rate, nil
}

// FX rates only exist per calendar date, so the join is on date strings and
// drops dates either feed lacks (weekends on the fx side, mostly).
func joinByDate(prices, fx map[string]float64) models.PriceSeries {
	dates := make([]string, 0, len(prices))
	for date := range prices {
		if _, ok := fx[date]; ok {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)

	series := make(models.PriceSeries, 0, len(dates))
	for _, date := range dates {
		ts, _ := time.Parse("2006-01-02", date)
		series = append(series, models.RatePoint{
			Timestamp: ts.UTC(),
			BTCUSD:    prices[date],
			USDINR:    fx[date],
		})
	}
	return series
}
