package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IndiLimit/internal/domain/models"
	drepo "IndiLimit/internal/domain/repository"
	pkgcache "IndiLimit/pkg/cache"
	"IndiLimit/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	require.NoError(t, err)
	return l
}

func risingSeries(n int) models.PriceSeries {
	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	out := make(models.PriceSeries, n)
	for i := 0; i < n; i++ {
		out[i] = models.RatePoint{
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
			BTCUSD:    50000 + 150*float64(i),
			USDINR:    83.0,
		}
	}
	return out
}

type stubProvider struct {
	mu         sync.Mutex
	series     models.PriceSeries
	historyErr error
	live       models.LiveRates
	liveCalls  int
}

func (s *stubProvider) FetchHistory(context.Context, int, drepo.Granularity) (models.PriceSeries, error) {
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	return s.series, nil
}

func (s *stubProvider) FetchLive(context.Context) (models.LiveRates, error) {
	s.mu.Lock()
	s.liveCalls++
	s.mu.Unlock()
	return s.live, nil
}

type stubHistoryStore struct {
	series models.PriceSeries
	err    error
}

func (s *stubHistoryStore) Init(context.Context) error                     { return nil }
func (s *stubHistoryStore) Store(context.Context, *models.RateTick) error  { return nil }
func (s *stubHistoryStore) StoreBatch(context.Context, []*models.RateTick) error { return nil }
func (s *stubHistoryStore) History(context.Context, int, drepo.Granularity) (models.PriceSeries, error) {
	return s.series, s.err
}
func (s *stubHistoryStore) Health(context.Context) error { return nil }
func (s *stubHistoryStore) Close() error                 { return nil }

type stubFeatureStore struct {
	saved []models.FeatureRow
	rows  []models.FeatureRow
	err   error
}

func (s *stubFeatureStore) SaveFeatures(_ context.Context, rows []models.FeatureRow) error {
	s.saved = append(s.saved, rows...)
	return nil
}

func (s *stubFeatureStore) LatestFeatures(context.Context, int) ([]models.FeatureRow, error) {
	return s.rows, s.err
}

type stubForecaster struct {
	prediction float64
}

func (s *stubForecaster) Predict(context.Context, []models.FeatureRow) float64 { return s.prediction }
func (s *stubForecaster) MAE() (float64, float64)                              { return 0.08, 0.05 }

type recordingMetrics struct {
	mu        sync.Mutex
	fallbacks map[string]int
	maes      map[string]float64
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{fallbacks: make(map[string]int), maes: make(map[string]float64)}
}

func (m *recordingMetrics) RecordMessageSent(string, string)  {}
func (m *recordingMetrics) RecordError(string)                {}
func (m *recordingMetrics) RecordLastRate(string, float64)    {}
func (m *recordingMetrics) RecordLatency(string, float64)     {}
func (m *recordingMetrics) RecordFallback(stage string) {
	m.mu.Lock()
	m.fallbacks[stage]++
	m.mu.Unlock()
}
func (m *recordingMetrics) RecordMAE(model string, mae float64) {
	m.mu.Lock()
	m.maes[model] = mae
	m.mu.Unlock()
}

func (m *recordingMetrics) fallbackCount(stage string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fallbacks[stage]
}

func liveSnapshot() models.LiveRates {
	return models.LiveRates{BTCUSD: 97000, USDINR: 83.2, AsOf: time.Now().UTC()}
}

func TestRecommendUnknownProfile(t *testing.T) {
	rec := NewRecommender(&stubProvider{live: liveSnapshot()}, nil, nil,
		&stubForecaster{prediction: 0.15}, newRecordingMetrics(), nil, testLogger(t), 365, time.Minute)

	_, err := rec.RecommendLimit(context.Background(), models.UserContext{
		SpendingBalance: 10000,
		Profile:         models.RiskProfile("yolo"),
	})
	require.ErrorIs(t, err, models.ErrUnknownProfile)
}

func TestRecommendHappyPath(t *testing.T) {
	provider := &stubProvider{live: liveSnapshot()}
	store := &stubHistoryStore{series: risingSeries(60)}
	rec := NewRecommender(provider, store, nil,
		&stubForecaster{prediction: 0.18}, newRecordingMetrics(), nil, testLogger(t), 365, time.Minute)

	res, err := rec.RecommendLimit(context.Background(), models.UserContext{
		SpendingBalance: 10000,
		Profile:         models.RiskModerate,
	})
	require.NoError(t, err)

	assert.Equal(t, 97000.0, res.BTCUSD)
	assert.Equal(t, 83.2, res.USDINR)
	assert.False(t, res.UsingFallbackRates)
	assert.Equal(t, "moderate", res.RiskProfile)
	assert.Greater(t, res.HardLimit, 0.0)
	assert.LessOrEqual(t, res.HardLimit, 10000*0.20, "per-trade cap holds")
	assert.InDelta(t, res.HardLimit/10000*100, res.RecommendedPercent, 0.01)
	assert.Equal(t, 0.08, res.BaselineMAE)
	assert.Equal(t, 0.05, res.ModelMAE)
	assert.NotEmpty(t, res.MarketSentiment)
}

func TestRecommendFlatFallback(t *testing.T) {
	provider := &stubProvider{historyErr: models.ErrUpstreamData, live: liveSnapshot()}
	metrics := newRecordingMetrics()
	rec := NewRecommender(provider, nil, nil,
		&stubForecaster{prediction: 0.15}, metrics, nil, testLogger(t), 365, time.Minute)

	res, err := rec.RecommendLimit(context.Background(), models.UserContext{
		SpendingBalance: 10000,
		Profile:         models.RiskModerate,
	})
	require.NoError(t, err, "data trouble degrades, it does not fail")

	assert.Equal(t, 1500.0, res.HardLimit, "flat fallback fraction of the balance")
	assert.Equal(t, 15.0, res.RecommendedPercent)
	assert.Equal(t, "Neutral - Normal market conditions", res.MarketSentiment)
	assert.Equal(t, 1, metrics.fallbackCount("flat"))
	assert.Equal(t, 1, metrics.fallbackCount("history"))
}

func TestRecommendFeatureStoreFallback(t *testing.T) {
	provider := &stubProvider{historyErr: models.ErrUpstreamData, live: liveSnapshot()}
	rows := []models.FeatureRow{}
	for _, p := range risingSeries(40) {
		rows = append(rows, models.FeatureRow{
			Timestamp:     p.Timestamp,
			BTCUSD:        p.BTCUSD,
			BTCVolatility: 0.3,
			Sentiment:     50,
		})
	}
	metrics := newRecordingMetrics()
	rec := NewRecommender(provider, nil, &stubFeatureStore{rows: rows},
		&stubForecaster{prediction: 0.18}, metrics, nil, testLogger(t), 365, time.Minute)

	res, err := rec.RecommendLimit(context.Background(), models.UserContext{
		SpendingBalance: 10000,
		Profile:         models.RiskModerate,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, metrics.fallbackCount("feature_store"))
	assert.Zero(t, metrics.fallbackCount("flat"), "persisted features avoid the flat path")
	assert.Greater(t, res.HardLimit, 0.0)
}

func TestRecommendFallbackRatesFlagged(t *testing.T) {
	provider := &stubProvider{
		series: risingSeries(60),
		live:   models.LiveRates{BTCUSD: 100000, USDINR: 83, AsOf: time.Now().UTC(), Fallback: true},
	}
	metrics := newRecordingMetrics()
	rec := NewRecommender(provider, nil, nil,
		&stubForecaster{prediction: 0.15}, metrics, nil, testLogger(t), 365, time.Minute)

	res, err := rec.RecommendLimit(context.Background(), models.UserContext{
		SpendingBalance: 10000,
		Profile:         models.RiskConservative,
	})
	require.NoError(t, err)
	assert.True(t, res.UsingFallbackRates)
	assert.Equal(t, 1, metrics.fallbackCount("live_rates"))
}

func TestRecommendLiveRatesCached(t *testing.T) {
	provider := &stubProvider{series: risingSeries(60), live: liveSnapshot()}
	rec := NewRecommender(provider, nil, nil,
		&stubForecaster{prediction: 0.15}, newRecordingMetrics(),
		pkgcache.NewMemoryCache(), testLogger(t), 365, time.Minute)

	user := models.UserContext{SpendingBalance: 10000, Profile: models.RiskModerate}
	_, err := rec.RecommendLimit(context.Background(), user)
	require.NoError(t, err)
	_, err = rec.RecommendLimit(context.Background(), user)
	require.NoError(t, err)

	provider.mu.Lock()
	defer provider.mu.Unlock()
	assert.Equal(t, 1, provider.liveCalls, "second request must hit the cache")
}

func TestRecommendFallbackRatesNotCached(t *testing.T) {
	provider := &stubProvider{
		series: risingSeries(60),
		live:   models.LiveRates{BTCUSD: 100000, USDINR: 83, AsOf: time.Now().UTC(), Fallback: true},
	}
	rec := NewRecommender(provider, nil, nil,
		&stubForecaster{prediction: 0.15}, newRecordingMetrics(),
		pkgcache.NewMemoryCache(), testLogger(t), 365, time.Minute)

	user := models.UserContext{SpendingBalance: 10000, Profile: models.RiskModerate}
	_, err := rec.RecommendLimit(context.Background(), user)
	require.NoError(t, err)
	_, err = rec.RecommendLimit(context.Background(), user)
	require.NoError(t, err)

	provider.mu.Lock()
	defer provider.mu.Unlock()
	assert.Equal(t, 2, provider.liveCalls, "degraded snapshots are refetched immediately")
}

func TestRecommendationRounding(t *testing.T) {
	cfg, err := models.ProfileFor(models.RiskModerate)
	require.NoError(t, err)

	user := models.UserContext{SpendingBalance: 10000, Profile: models.RiskModerate}
	r := &Recommender{}

	rec := r.build(1234.56789154, user, cfg, liveSnapshot(), 50, 0.08, 0.05)
	assert.Equal(t, 1234.567892, rec.HardLimit)
	assert.Equal(t, 12.35, rec.RecommendedPercent)
}
