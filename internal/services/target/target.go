package target

import (
	"math"
	"sort"

	"IndiLimit/internal/domain/models"
)

const (
	// DefaultLookforward is the horizon, in periods, of the forward-looking
	// risk-adjusted return proxy.
	DefaultLookforward = 7

	// MaxAllocation bounds the training target.
	MaxAllocation = 0.25

	// volEpsilon keeps the score finite when forward volatility is near zero.
	volEpsilon = 0.01
)

// Label builds training rows from a feature sequence. For each row t it
// scores future_return(t..t+lookforward) against the volatility of the next
// lookforward returns, then rescales all scores by the dataset-level 10th and
// 90th percentiles into [0, MaxAllocation]. The trailing lookforward rows
// cannot see their future and are dropped.
//
// The percentile bounds are a property of the training set: retraining on a
// different window recomputes them.
func Label(rows []models.FeatureRow, lookforward int) ([]models.LabeledRow, error) {
	if lookforward <= 0 {
		lookforward = DefaultLookforward
	}
	if len(rows) <= lookforward {
		return nil, models.ErrInsufficientData
	}

	n := len(rows) - lookforward
	scores := make([]float64, n)
	for t := 0; t < n; t++ {
		futureReturn := rows[t+lookforward].BTCUSD/rows[t].BTCUSD - 1

		window := make([]float64, 0, lookforward)
		for j := t + 1; j <= t+lookforward; j++ {
			window = append(window, rows[j].BTCReturn)
		}
		futureVol := sampleStd(window)

		scores[t] = futureReturn / (futureVol + volEpsilon)
	}

	p10 := percentile(scores, 0.10)
	p90 := percentile(scores, 0.90)
	spread := p90 - p10
	if spread <= 0 {
		// Degenerate training set: every score identical. All targets zero.
		spread = math.Inf(1)
	}

	out := make([]models.LabeledRow, n)
	for t := 0; t < n; t++ {
		target := (scores[t] - p10) / spread * MaxAllocation
		if target < 0 {
			target = 0
		}
		if target > MaxAllocation {
			target = MaxAllocation
		}
		out[t] = models.LabeledRow{FeatureRow: rows[t], Target: target}
	}
	return out, nil
}

// percentile is the linearly interpolated q-quantile, q in [0,1].
func percentile(xs []float64, q float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	m := sum / float64(len(xs))
	sum2 := 0.0
	for _, x := range xs {
		d := x - m
		sum2 += d * d
	}
	return math.Sqrt(sum2 / float64(len(xs)-1))
}
