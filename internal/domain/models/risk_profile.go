package models

// RiskProfile selects one of the static sizing configuration bundles.
type RiskProfile string

const (
	RiskConservative RiskProfile = "conservative"
	RiskModerate     RiskProfile = "moderate"
	RiskAggressive   RiskProfile = "aggressive"
)

// ProfileConfig bundles every sizing multiplier for one risk profile. The
// table is static configuration; callers receive copies and never mutate it.
type ProfileConfig struct {
	// MaxCryptoAllocation caps the base allocation as a fraction of the
	// spending balance.
	MaxCryptoAllocation float64
	// VolatilityPenalty dampens sizing as volatility rises (Kelly-inspired).
	VolatilityPenalty float64
	// MaxSingleTrade caps any single recommendation as a fraction of balance.
	MaxSingleTrade float64
	// ReductionMultiplier scales down new purchases per unit of existing
	// exposure; ReductionFloor bounds the reduction from below.
	ReductionMultiplier float64
	ReductionFloor      float64
	// Sentiment adjustments: boost under extreme fear, cut under greed.
	FearBoost float64
	GreedCut  float64
	// Trend adjustments: cut in strong uptrends, boost in drawdowns.
	UptrendCut     float64
	DowntrendBoost float64
	// FirstTimeBonus multiplies the blended limit on a first purchase.
	FirstTimeBonus float64
	// FlatFallback is the allocation fraction used when the engine cannot
	// compute a recommendation at all.
	FlatFallback float64
	Description  string
}

var riskProfiles = map[RiskProfile]ProfileConfig{
	RiskConservative: {
		MaxCryptoAllocation: 0.15,
		VolatilityPenalty:   2.0,
		MaxSingleTrade:      0.10,
		ReductionMultiplier: 0.5,
		ReductionFloor:      0.20,
		FearBoost:           1.1,
		GreedCut:            0.5,
		UptrendCut:          0.6,
		DowntrendBoost:      1.05,
		FirstTimeBonus:      1.2,
		FlatFallback:        0.10,
		Description:         "Max 15% crypto allocation, high volatility penalty",
	},
	RiskModerate: {
		MaxCryptoAllocation: 0.25,
		VolatilityPenalty:   1.5,
		MaxSingleTrade:      0.20,
		ReductionMultiplier: 0.3,
		ReductionFloor:      0.15,
		FearBoost:           1.2,
		GreedCut:            0.7,
		UptrendCut:          0.8,
		DowntrendBoost:      1.1,
		FirstTimeBonus:      1.3,
		FlatFallback:        0.15,
		Description:         "Max 25% crypto allocation, balanced approach",
	},
	RiskAggressive: {
		MaxCryptoAllocation: 0.40,
		VolatilityPenalty:   1.0,
		MaxSingleTrade:      0.35,
		ReductionMultiplier: 0.2,
		ReductionFloor:      0.10,
		FearBoost:           1.3,
		GreedCut:            0.8,
		UptrendCut:          0.9,
		DowntrendBoost:      1.2,
		FirstTimeBonus:      1.4,
		FlatFallback:        0.25,
		Description:         "Max 40% crypto allocation, lower volatility penalty",
	},
}

// ProfileFor returns the configuration for a profile. A lookup miss is a
// contract violation and returns ErrUnknownProfile, never a silent default.
func ProfileFor(p RiskProfile) (ProfileConfig, error) {
	cfg, ok := riskProfiles[p]
	if !ok {
		return ProfileConfig{}, ErrUnknownProfile
	}
	return cfg, nil
}

// Profiles returns a copy of the full profile table.
func Profiles() map[RiskProfile]ProfileConfig {
	out := make(map[RiskProfile]ProfileConfig, len(riskProfiles))
	for k, v := range riskProfiles {
		out[k] = v
	}
	return out
}
