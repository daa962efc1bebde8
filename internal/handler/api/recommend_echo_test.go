package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IndiLimit/internal/domain/models"
	drepo "IndiLimit/internal/domain/repository"
	icache "IndiLimit/internal/service/cache"
	"IndiLimit/internal/usecase"
	xlogger "IndiLimit/pkg/logger"
)

type fakeProvider struct {
	mu           sync.Mutex
	historyCalls int
}

func (f *fakeProvider) FetchHistory(_ context.Context, days int, _ drepo.Granularity) (models.PriceSeries, error) {
	f.mu.Lock()
	f.historyCalls++
	f.mu.Unlock()

	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	out := make(models.PriceSeries, 60)
	for i := range out {
		out[i] = models.RatePoint{
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
			BTCUSD:    50000 + 120*float64(i),
			USDINR:    83.0,
		}
	}
	return out, nil
}

func (f *fakeProvider) FetchLive(context.Context) (models.LiveRates, error) {
	return models.LiveRates{BTCUSD: 97000, USDINR: 83.2, AsOf: time.Now().UTC()}, nil
}

type fakeForecaster struct{}

func (fakeForecaster) Predict(context.Context, []models.FeatureRow) float64 { return 0.15 }
func (fakeForecaster) MAE() (float64, float64)                              { return 0.08, 0.05 }

type noopMetrics struct{}

func (noopMetrics) RecordMessageSent(string, string) {}
func (noopMetrics) RecordError(string)               {}
func (noopMetrics) RecordLastRate(string, float64)   {}
func (noopMetrics) RecordLatency(string, float64)    {}
func (noopMetrics) RecordFallback(string)            {}
func (noopMetrics) RecordMAE(string, float64)        {}

func newTestServer(t *testing.T) (*echo.Echo, *fakeProvider) {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "console", Output: "stdout"})
	require.NoError(t, err)

	provider := &fakeProvider{}
	rec := usecase.NewRecommender(provider, nil, nil, fakeForecaster{}, noopMetrics{}, nil, l, 365, time.Minute)
	history := usecase.NewHistoryUseCase(nil, provider, l)

	h := NewRecommendHandler(l, rec, history)
	h.SetCache(icache.NewTTLCache())

	e := echo.New()
	h.RegisterRoutes(e)
	return e, provider
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doRequest(t *testing.T, e *echo.Echo, method, target string, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return rr, env
}

func TestRootListsEndpoints(t *testing.T) {
	e, _ := newTestServer(t)
	rr, env := doRequest(t, e, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, http.StatusOK, env.Status)
	assert.Contains(t, string(env.Data), "/api/recommend")
}

func TestRecommendQuerySuccess(t *testing.T) {
	e, _ := newTestServer(t)
	_, env := doRequest(t, e, http.MethodGet, "/api/recommend?balance=10000&risk_profile=moderate", "")
	require.Equal(t, http.StatusOK, env.Status)

	var body struct {
		BTCPriceUSD        float64 `json:"btc_price_usd"`
		HardLimitINR       float64 `json:"hard_limit_inr"`
		RecommendedPercent float64 `json:"recommended_percentage"`
		RiskProfile        string  `json:"risk_profile"`
		UsingFallbackRates bool    `json:"using_fallback_rates"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, 97000.0, body.BTCPriceUSD)
	assert.Greater(t, body.HardLimitINR, 0.0)
	assert.Equal(t, "moderate", body.RiskProfile)
	assert.False(t, body.UsingFallbackRates)
}

func TestRecommendPostBody(t *testing.T) {
	e, _ := newTestServer(t)
	_, env := doRequest(t, e, http.MethodPost, "/api/recommend",
		`{"balance": 25000, "first_time": true, "risk_profile": "aggressive"}`)
	require.Equal(t, http.StatusOK, env.Status)

	var body struct {
		HardLimitINR float64 `json:"hard_limit_inr"`
		RiskProfile  string  `json:"risk_profile"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, "aggressive", body.RiskProfile)
	assert.Greater(t, body.HardLimitINR, 0.0)
}

func TestRecommendValidation(t *testing.T) {
	e, _ := newTestServer(t)

	// Missing balance.
	_, env := doRequest(t, e, http.MethodGet, "/api/recommend", "")
	assert.Equal(t, http.StatusBadRequest, env.Status)

	// Negative balance.
	_, env = doRequest(t, e, http.MethodGet, "/api/recommend?balance=-5", "")
	assert.Equal(t, http.StatusBadRequest, env.Status)

	// Profile outside the allowed set.
	_, env = doRequest(t, e, http.MethodGet, "/api/recommend?balance=1000&risk_profile=wild", "")
	assert.Equal(t, http.StatusBadRequest, env.Status)
}

func TestRecommendDefaultProfile(t *testing.T) {
	e, _ := newTestServer(t)
	_, env := doRequest(t, e, http.MethodGet, "/api/recommend?balance=5000", "")
	require.Equal(t, http.StatusOK, env.Status)
	assert.Contains(t, string(env.Data), `"risk_profile":"moderate"`)
}

func TestRiskProfilesListing(t *testing.T) {
	e, _ := newTestServer(t)
	_, env := doRequest(t, e, http.MethodGet, "/api/risk-profiles", "")
	require.Equal(t, http.StatusOK, env.Status)

	var profiles map[string]struct {
		MaxAllocation  float64 `json:"max_allocation"`
		MaxSingleTrade float64 `json:"max_single_trade"`
		Description    string  `json:"description"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &profiles))
	require.Len(t, profiles, 3)
	assert.Equal(t, 0.25, profiles["moderate"].MaxAllocation)
	assert.NotEmpty(t, profiles["conservative"].Description)
}

func TestHistoryEndpoint(t *testing.T) {
	e, _ := newTestServer(t)
	_, env := doRequest(t, e, http.MethodGet, "/api/history?days=30&granularity=daily", "")
	require.Equal(t, http.StatusOK, env.Status)

	var body struct {
		Days        int    `json:"Days"`
		Granularity string `json:"Granularity"`
		Count       int    `json:"Count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, 30, body.Days)
	assert.Equal(t, "daily", body.Granularity)
	assert.Equal(t, 60, body.Count)
}

func TestHistoryCachesResponses(t *testing.T) {
	e, provider := newTestServer(t)
	doRequest(t, e, http.MethodGet, "/api/history?days=14", "")
	doRequest(t, e, http.MethodGet, "/api/history?days=14", "")

	provider.mu.Lock()
	defer provider.mu.Unlock()
	assert.Equal(t, 1, provider.historyCalls, "identical history queries hit the byte cache")
}

func TestHistoryValidatesDays(t *testing.T) {
	e, _ := newTestServer(t)
	_, env := doRequest(t, e, http.MethodGet, "/api/history?days=1", "")
	assert.Equal(t, http.StatusBadRequest, env.Status)
}
