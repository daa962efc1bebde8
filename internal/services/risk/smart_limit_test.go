package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IndiLimit/internal/domain/models"
)

func profile(t *testing.T, p models.RiskProfile) models.ProfileConfig {
	t.Helper()
	cfg, err := models.ProfileFor(p)
	require.NoError(t, err)
	return cfg
}

func TestSmartLimitModerateBaseline(t *testing.T) {
	cfg := profile(t, models.RiskModerate)
	snap := Snapshot{Volatility: 0.3, Sentiment: 50, Trend: 0}

	// 10000 * 0.25 * 1/(1 + 1.5*0.3) with no holdings and neutral market.
	got := SmartLimit(snap, 10000, 0, cfg)
	assert.InDelta(t, 1724.14, got, 0.01)
}

func TestSmartLimitPerTradeCap(t *testing.T) {
	cfg := profile(t, models.RiskAggressive)
	snap := Snapshot{Volatility: 0, Sentiment: 10, Trend: 0}

	// Base 40% boosted by extreme fear would exceed the 35% per-trade cap.
	got := SmartLimit(snap, 10000, 0, cfg)
	assert.Equal(t, 10000*cfg.MaxSingleTrade, got)
}

func TestSmartLimitHoldingsReduce(t *testing.T) {
	cfg := profile(t, models.RiskModerate)
	snap := Snapshot{Volatility: 0.5, Sentiment: 50, Trend: 0}

	none := SmartLimit(snap, 10000, 0, cfg)
	some := SmartLimit(snap, 10000, 5000, cfg)
	lots := SmartLimit(snap, 10000, 15000, cfg)

	assert.Greater(t, none, some)
	assert.Greater(t, some, lots)
}

func TestSmartLimitExposureRatioCapped(t *testing.T) {
	cfg := profile(t, models.RiskModerate)
	snap := Snapshot{Volatility: 0.5, Sentiment: 50, Trend: 0}

	// Beyond twice the balance, extra holdings change nothing.
	atCap := SmartLimit(snap, 10000, 20000, cfg)
	beyond := SmartLimit(snap, 10000, 50000, cfg)
	assert.Equal(t, atCap, beyond)
}

func TestSmartLimitReductionFloor(t *testing.T) {
	cfg := profile(t, models.RiskConservative)
	snap := Snapshot{Volatility: 0, Sentiment: 50, Trend: 0}

	// Exposure ratio 2.0 with multiplier 0.5 would zero the reduction; the
	// profile floor keeps a minimum allocation alive.
	got := SmartLimit(snap, 10000, 20000, cfg)
	want := 10000 * cfg.MaxCryptoAllocation * cfg.ReductionFloor
	assert.InDelta(t, want, got, 1e-9)
}

func TestSmartLimitVolatilityMonotonic(t *testing.T) {
	cfg := profile(t, models.RiskModerate)
	prev := SmartLimit(Snapshot{Volatility: 0, Sentiment: 50}, 10000, 0, cfg)
	for _, vol := range []float64{0.2, 0.5, 1.0, 2.0} {
		got := SmartLimit(Snapshot{Volatility: vol, Sentiment: 50}, 10000, 0, cfg)
		assert.Less(t, got, prev, "higher volatility must never size up")
		prev = got
	}
}

func TestSmartLimitSentimentAdjustments(t *testing.T) {
	cfg := profile(t, models.RiskModerate)
	neutral := SmartLimit(Snapshot{Volatility: 0.4, Sentiment: 50}, 10000, 0, cfg)
	fear := SmartLimit(Snapshot{Volatility: 0.4, Sentiment: 15}, 10000, 0, cfg)
	greed := SmartLimit(Snapshot{Volatility: 0.4, Sentiment: 85}, 10000, 0, cfg)

	assert.Greater(t, fear, neutral)
	assert.Less(t, greed, neutral)
	assert.InDelta(t, neutral*cfg.FearBoost, fear, 1e-9)
	assert.InDelta(t, neutral*cfg.GreedCut, greed, 1e-9)
}

func TestSmartLimitTrendAdjustments(t *testing.T) {
	cfg := profile(t, models.RiskModerate)
	flat := SmartLimit(Snapshot{Volatility: 0.4, Sentiment: 50, Trend: 0.1}, 10000, 0, cfg)
	up := SmartLimit(Snapshot{Volatility: 0.4, Sentiment: 50, Trend: 0.2}, 10000, 0, cfg)
	down := SmartLimit(Snapshot{Volatility: 0.4, Sentiment: 50, Trend: -0.2}, 10000, 0, cfg)

	assert.Less(t, up, flat, "strong uptrend trims the limit")
	assert.Greater(t, down, flat, "strong drawdown adds to it")
}

func TestSmartLimitNeverNegativeNorAboveCap(t *testing.T) {
	for _, p := range []models.RiskProfile{models.RiskConservative, models.RiskModerate, models.RiskAggressive} {
		cfg := profile(t, p)
		for _, snap := range []Snapshot{
			{Volatility: 5, Sentiment: 0, Trend: -1},
			{Volatility: 0, Sentiment: 100, Trend: 1},
			{Volatility: 1.2, Sentiment: 50, Trend: 0},
		} {
			got := SmartLimit(snap, 10000, 30000, cfg)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 10000*cfg.MaxSingleTrade)
		}
	}
}

func TestSmartLimitZeroBalance(t *testing.T) {
	cfg := profile(t, models.RiskModerate)
	got := SmartLimit(Snapshot{Volatility: 0.3, Sentiment: 50}, 0, 0, cfg)
	assert.Zero(t, got)
}
