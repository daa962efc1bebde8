package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IndiLimit/internal/domain/models"
	drepo "IndiLimit/internal/domain/repository"
	"IndiLimit/internal/service/ratelimit"
	"IndiLimit/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	require.NoError(t, err)
	return l
}

func newTestProvider(t *testing.T, coingecko, frankfurter string) drepo.MarketData {
	t.Helper()
	return NewProvider(Config{
		CoinGeckoURL:   coingecko,
		FrankfurterURL: frankfurter,
		CryptoID:       "bitcoin",
		HistoryDays:    30,
		Timeout:        2 * time.Second,
		FallbackBTCUSD: 100000.0,
		FallbackUSDINR: 83.0,
		RateCapacity:   100,
		RateRefillSec:  100,
	}, ratelimit.New(), testLogger(t))
}

func msFor(date string) int64 {
	ts, _ := time.Parse("2006-01-02", date)
	return ts.UnixMilli()
}

func TestFetchHistoryJoinsByDate(t *testing.T) {
	gecko := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/coins/bitcoin/market_chart")
		assert.Equal(t, "daily", r.URL.Query().Get("interval"))
		fmt.Fprintf(w, `{"prices":[[%d,50000],[%d,51000],[%d,52000]]}`,
			msFor("2025-06-02"), msFor("2025-06-03"), msFor("2025-06-04"))
	}))
	defer gecko.Close()

	// FX feed skips 2025-06-03, so the join must drop it.
	frank := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "USD", r.URL.Query().Get("from"))
		fmt.Fprint(w, `{"rates":{"2025-06-02":{"INR":83.1},"2025-06-04":{"INR":83.5}}}`)
	}))
	defer frank.Close()

	p := newTestProvider(t, gecko.URL, frank.URL)
	series, err := p.FetchHistory(context.Background(), 30, drepo.GranDaily)
	require.NoError(t, err)

	require.Len(t, series, 2)
	assert.True(t, series.IsOrdered())
	assert.Equal(t, 50000.0, series[0].BTCUSD)
	assert.Equal(t, 83.1, series[0].USDINR)
	assert.Equal(t, 52000.0, series[1].BTCUSD)
	assert.Equal(t, 83.5, series[1].USDINR)
}

func TestFetchHistoryUpstreamDown(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()

	p := newTestProvider(t, down.URL, down.URL)
	_, err := p.FetchHistory(context.Background(), 30, drepo.GranDaily)
	require.ErrorIs(t, err, models.ErrUpstreamData)
}

func TestFetchHistoryNoOverlap(t *testing.T) {
	gecko := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"prices":[[%d,50000]]}`, msFor("2025-06-02"))
	}))
	defer gecko.Close()
	frank := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"rates":{"2025-06-03":{"INR":83.1}}}`)
	}))
	defer frank.Close()

	p := newTestProvider(t, gecko.URL, frank.URL)
	_, err := p.FetchHistory(context.Background(), 30, drepo.GranDaily)
	require.ErrorIs(t, err, models.ErrUpstreamData)
}

func TestFetchHistoryRateLimited(t *testing.T) {
	p := NewProvider(Config{
		CoinGeckoURL:   "http://unused.invalid",
		FrankfurterURL: "http://unused.invalid",
		FallbackBTCUSD: 100000.0,
		FallbackUSDINR: 83.0,
		RateCapacity:   0,
		RateRefillSec:  0,
	}, ratelimit.New(), testLogger(t))

	_, err := p.FetchHistory(context.Background(), 30, drepo.GranDaily)
	require.ErrorIs(t, err, models.ErrUpstreamData)
}

func TestFetchLiveSuccess(t *testing.T) {
	gecko := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"bitcoin":{"usd":97500.5}}`)
	}))
	defer gecko.Close()
	frank := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"rates":{"INR":83.42}}`)
	}))
	defer frank.Close()

	p := newTestProvider(t, gecko.URL, frank.URL)
	live, err := p.FetchLive(context.Background())
	require.NoError(t, err)
	assert.False(t, live.Fallback)
	assert.Equal(t, 97500.5, live.BTCUSD)
	assert.Equal(t, 83.42, live.USDINR)
	assert.False(t, live.AsOf.IsZero())
}

func TestFetchLiveFallsBack(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()

	p := newTestProvider(t, down.URL, down.URL)
	live, err := p.FetchLive(context.Background())
	require.NoError(t, err, "live fetches never fail hard")
	assert.True(t, live.Fallback)
	assert.Equal(t, 100000.0, live.BTCUSD)
	assert.Equal(t, 83.0, live.USDINR)
}
