package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"IndiLimit/internal/domain/models"
)

func TestBlendConservativeSideWins(t *testing.T) {
	cfg := profile(t, models.RiskModerate)

	// Forecast smaller than the rule-based limit.
	got := Blend(2000, 0.10, 10000, false, cfg)
	assert.Equal(t, 1000.0, got)

	// Rule-based limit smaller than the forecast.
	got = Blend(800, 0.20, 10000, false, cfg)
	assert.Equal(t, 800.0, got)
}

func TestBlendFirstPurchaseBonus(t *testing.T) {
	cfg := profile(t, models.RiskModerate)

	// min(1000, 1500) * 1.3; the bonus applies after the blend.
	got := Blend(1000, 0.15, 10000, true, cfg)
	assert.InDelta(t, 1300.0, got, 1e-9)
}

func TestBlendNeverNegative(t *testing.T) {
	cfg := profile(t, models.RiskModerate)
	assert.Zero(t, Blend(-50, 0.15, 10000, false, cfg))
	assert.Zero(t, Blend(500, -0.2, 10000, true, cfg))
}

func TestFlatFallback(t *testing.T) {
	cfg := profile(t, models.RiskModerate)
	assert.Equal(t, 1500.0, FlatFallback(10000, cfg))
	assert.Zero(t, FlatFallback(-100, cfg))
	assert.Zero(t, FlatFallback(0, cfg))
}

func TestFlatFallbackPerProfile(t *testing.T) {
	for p, want := range map[models.RiskProfile]float64{
		models.RiskConservative: 1000,
		models.RiskModerate:     1500,
		models.RiskAggressive:   2500,
	} {
		cfg := profile(t, p)
		assert.Equal(t, want, FlatFallback(10000, cfg), string(p))
	}
}
