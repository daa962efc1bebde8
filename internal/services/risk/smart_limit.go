package risk

import (
	"IndiLimit/internal/domain/models"
)

// Sentiment and trend thresholds of the rule-based sizing adjustments.
const (
	fearThreshold  = 20.0
	greedThreshold = 80.0
	trendThreshold = 0.15

	maxExposureRatio = 2.0
)

// Snapshot carries the current market-risk readings the sizing rules react
// to. It is derived from the latest feature row.
type Snapshot struct {
	Volatility float64
	Sentiment  float64
	Trend      float64
}

// SnapshotFrom reads the sizing inputs off the most recent feature row.
func SnapshotFrom(row models.FeatureRow) Snapshot {
	return Snapshot{
		Volatility: row.BTCVolatility,
		Sentiment:  row.Sentiment,
		Trend:      row.Trend,
	}
}

// SmartLimit computes the rule-based position size in local currency. The
// adjustments apply in a fixed order so results are reproducible:
// allocation base, existing-exposure reduction, volatility damping, sentiment
// and trend multipliers, then the per-trade cap and a zero floor.
func SmartLimit(snap Snapshot, balance, holdingsValue float64, cfg models.ProfileConfig) float64 {
	base := balance * cfg.MaxCryptoAllocation

	reduction := 1.0
	if holdingsValue > 0 && balance > 0 {
		exposure := holdingsValue / balance
		if exposure > maxExposureRatio {
			exposure = maxExposureRatio
		}
		reduction = 1 - exposure*cfg.ReductionMultiplier
		if reduction < cfg.ReductionFloor {
			reduction = cfg.ReductionFloor
		}
	}

	volatilityFactor := 1 / (1 + cfg.VolatilityPenalty*snap.Volatility)

	sentimentFactor := 1.0
	switch {
	case snap.Sentiment < fearThreshold:
		sentimentFactor = cfg.FearBoost
	case snap.Sentiment > greedThreshold:
		sentimentFactor = cfg.GreedCut
	}

	trendFactor := 1.0
	switch {
	case snap.Trend > trendThreshold:
		trendFactor = cfg.UptrendCut
	case snap.Trend < -trendThreshold:
		trendFactor = cfg.DowntrendBoost
	}

	limit := base * reduction * volatilityFactor * sentimentFactor * trendFactor

	if cap := balance * cfg.MaxSingleTrade; limit > cap {
		limit = cap
	}
	if limit < 0 {
		limit = 0
	}
	return limit
}
