package models

import "time"

// RatePoint is one joint observation of the BTC/USD price and the USD/INR
// exchange rate. Series are ordered by strictly increasing timestamps.
type RatePoint struct {
	Timestamp time.Time
	BTCUSD    float64
	USDINR    float64
}

// PriceSeries is an immutable, time-ordered sequence of rate points as
// delivered by a market data provider or the history store.
type PriceSeries []RatePoint

// IsOrdered reports whether timestamps are strictly increasing with no
// duplicates.
func (s PriceSeries) IsOrdered() bool {
	for i := 1; i < len(s); i++ {
		if !s[i].Timestamp.After(s[i-1].Timestamp) {
			return false
		}
	}
	return true
}

// RateTick is a single streamed observation for one symbol. Symbols are
// "BTC-USD" for the asset price and "USD-INR" for the fiat rate.
type RateTick struct {
	Symbol    string
	Timestamp int64 // unix seconds
	Price     float64
	Volume    float64
}

// LiveRates is the latest market snapshot used for pricing a recommendation.
// Fallback marks the snapshot as built from fixed constants because the
// upstream feed was unreachable.
type LiveRates struct {
	BTCUSD   float64
	USDINR   float64
	AsOf     time.Time
	Fallback bool
}

// FeatureRow holds the derived market-risk indicators for one timestamp.
// A row exists only when every rolling window behind it is fully populated.
type FeatureRow struct {
	Timestamp     time.Time
	BTCUSD        float64
	BTCReturn     float64
	FXReturn      float64
	BTCVolatility float64
	FXVolatility  float64
	Trend         float64
	Sentiment     float64
}

// Vector returns the model feature vector in its canonical order.
func (r FeatureRow) Vector() []float64 {
	return []float64{r.BTCVolatility, r.Sentiment, r.Trend, r.FXVolatility}
}

// NumFeatures is the width of FeatureRow.Vector.
const NumFeatures = 4

// LabeledRow is a FeatureRow paired with its training target, the ideal
// allocation fraction derived from forward-looking risk-adjusted returns.
type LabeledRow struct {
	FeatureRow
	Target float64
}
