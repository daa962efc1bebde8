package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentimentLabelBuckets(t *testing.T) {
	cases := map[float64]string{
		0:    "Extreme Fear - Good buying opportunity",
		24.9: "Extreme Fear - Good buying opportunity",
		25:   "Fear - Cautious buying opportunity",
		44.9: "Fear - Cautious buying opportunity",
		45:   "Neutral - Normal market conditions",
		54.9: "Neutral - Normal market conditions",
		55:   "Greed - Exercise caution",
		74.9: "Greed - Exercise caution",
		75:   "Extreme Greed - High risk conditions",
		100:  "Extreme Greed - High risk conditions",
	}
	for v, want := range cases {
		assert.Equal(t, want, SentimentLabel(v), "sentiment %v", v)
	}
}

func TestProfileForKnownProfiles(t *testing.T) {
	for _, p := range []RiskProfile{RiskConservative, RiskModerate, RiskAggressive} {
		cfg, err := ProfileFor(p)
		require.NoError(t, err)
		assert.Greater(t, cfg.MaxCryptoAllocation, 0.0)
		assert.Greater(t, cfg.MaxSingleTrade, 0.0)
		assert.GreaterOrEqual(t, cfg.FirstTimeBonus, 1.0)
	}
}

func TestProfileForUnknown(t *testing.T) {
	_, err := ProfileFor(RiskProfile("degenerate"))
	require.ErrorIs(t, err, ErrUnknownProfile)
}

func TestProfilesReturnsCopy(t *testing.T) {
	a := Profiles()
	entry := a[RiskModerate]
	entry.MaxCryptoAllocation = 0.99
	a[RiskModerate] = entry

	b := Profiles()
	assert.Equal(t, 0.25, b[RiskModerate].MaxCryptoAllocation)
}

func TestPriceSeriesIsOrdered(t *testing.T) {
	s := PriceSeries{}
	assert.True(t, s.IsOrdered())

	base := RatePoint{BTCUSD: 1, USDINR: 1}
	a := base
	b := base
	a.Timestamp = a.Timestamp.Add(1)
	b.Timestamp = a.Timestamp.Add(1)
	assert.True(t, PriceSeries{base, a, b}.IsOrdered())
	assert.False(t, PriceSeries{a, a}.IsOrdered())
	assert.False(t, PriceSeries{b, a}.IsOrdered())
}
