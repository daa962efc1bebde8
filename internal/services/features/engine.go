package features

import (
	"math"

	"IndiLimit/internal/domain/models"
)

// Rolling window lengths for the derived indicators.
const (
	VolatilityWindow = 30
	TrendWindow      = 20
	SentimentWindow  = 14

	// MinRows is the shortest series that yields at least one feature row:
	// one return plus a full volatility window.
	MinRows = VolatilityWindow + 1
)

// AnnualizationFactor scales rolling return volatility. It must match the
// periodicity convention of the upstream feed.
var AnnualizationFactor = math.Sqrt(24)

// Compute derives one FeatureRow per timestamp where every rolling input is
// fully populated; earlier rows are dropped, never zero-filled. The input
// series is not mutated and repeated calls yield identical output.
func Compute(series models.PriceSeries) ([]models.FeatureRow, error) {
	if len(series) < MinRows {
		return nil, models.ErrInsufficientData
	}

	n := len(series)
	btcReturns := make([]float64, n) // index i holds return p[i]/p[i-1]-1, valid for i >= 1
	fxReturns := make([]float64, n)
	for i := 1; i < n; i++ {
		btcReturns[i] = series[i].BTCUSD/series[i-1].BTCUSD - 1
		fxReturns[i] = series[i].USDINR/series[i-1].USDINR - 1
	}

	// The volatility window is the longest dependency, so the first fully
	// populated row is at index VolatilityWindow.
	out := make([]models.FeatureRow, 0, n-VolatilityWindow)
	for i := VolatilityWindow; i < n; i++ {
		row := models.FeatureRow{
			Timestamp:     series[i].Timestamp,
			BTCUSD:        series[i].BTCUSD,
			BTCReturn:     btcReturns[i],
			FXReturn:      fxReturns[i],
			BTCVolatility: sampleStd(btcReturns[i-VolatilityWindow+1:i+1]) * AnnualizationFactor,
			FXVolatility:  sampleStd(fxReturns[i-VolatilityWindow+1:i+1]) * AnnualizationFactor,
		}

		ma := mean(prices(series[i-TrendWindow+1 : i+1]))
		row.Trend = (series[i].BTCUSD - ma) / ma

		row.Sentiment = sentiment(series, i)

		out = append(out, row)
	}
	return out, nil
}

// sentiment computes a 14-period relative-strength oscillator at index i.
// A zero average loss maps to 100 rather than relying on float division.
func sentiment(series models.PriceSeries, i int) float64 {
	var gain, loss float64
	for j := i - SentimentWindow + 1; j <= i; j++ {
		delta := series[j].BTCUSD - series[j-1].BTCUSD
		if delta > 0 {
			gain += delta
		} else {
			loss -= delta
		}
	}
	avgGain := gain / float64(SentimentWindow)
	avgLoss := loss / float64(SentimentWindow)
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

func prices(points []models.RatePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.BTCUSD
	}
	return out
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStd is the n-1 denominator standard deviation.
func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	sum2 := 0.0
	for _, x := range xs {
		d := x - m
		sum2 += d * d
	}
	v := sum2 / float64(len(xs)-1)
	if v < 0 {
		v = 0
	}
	return math.Sqrt(v)
}
