package target

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IndiLimit/internal/domain/models"
)

func makeRows(n int, price func(i int) float64) []models.FeatureRow {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.FeatureRow, n)
	prev := price(0)
	for i := 0; i < n; i++ {
		p := price(i)
		ret := 0.0
		if i > 0 && prev != 0 {
			ret = p/prev - 1
		}
		out[i] = models.FeatureRow{
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
			BTCUSD:    p,
			BTCReturn: ret,
			Sentiment: 50,
		}
		prev = p
	}
	return out
}

func TestLabelTooFewRows(t *testing.T) {
	rows := makeRows(DefaultLookforward, func(i int) float64 { return 50000 })
	_, err := Label(rows, DefaultLookforward)
	require.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestLabelDropsTrailingRows(t *testing.T) {
	rows := makeRows(30, func(i int) float64 { return 50000 + 100*float64(i) })
	labeled, err := Label(rows, DefaultLookforward)
	require.NoError(t, err)
	require.Len(t, labeled, 30-DefaultLookforward)
	assert.Equal(t, rows[0].Timestamp, labeled[0].Timestamp)
}

func TestLabelBounds(t *testing.T) {
	rows := makeRows(60, func(i int) float64 { return 50000 + 3000*math.Sin(float64(i)/4) })
	labeled, err := Label(rows, DefaultLookforward)
	require.NoError(t, err)

	var sawTop, sawBottom bool
	for _, row := range labeled {
		assert.GreaterOrEqual(t, row.Target, 0.0)
		assert.LessOrEqual(t, row.Target, MaxAllocation)
		if row.Target == MaxAllocation {
			sawTop = true
		}
		if row.Target == 0 {
			sawBottom = true
		}
	}
	// The percentile rescale clamps scores beyond the 10th and 90th
	// percentiles, so a varied dataset hits both rails.
	assert.True(t, sawTop, "best-scoring rows should saturate at the cap")
	assert.True(t, sawBottom, "worst-scoring rows should floor at zero")
}

func TestLabelDegenerateSeries(t *testing.T) {
	rows := makeRows(40, func(i int) float64 { return 50000 })
	labeled, err := Label(rows, DefaultLookforward)
	require.NoError(t, err)
	for _, row := range labeled {
		assert.Zero(t, row.Target, "identical scores collapse to zero targets")
	}
}

func TestLabelZeroLookforwardUsesDefault(t *testing.T) {
	rows := makeRows(30, func(i int) float64 { return 50000 + 50*float64(i) })
	labeled, err := Label(rows, 0)
	require.NoError(t, err)
	assert.Len(t, labeled, 30-DefaultLookforward)
}

func TestPercentileInterpolation(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.InDelta(t, 1.9, percentile(xs, 0.10), 1e-9)
	assert.InDelta(t, 9.1, percentile(xs, 0.90), 1e-9)
	assert.Equal(t, 1.0, percentile(xs, 0))
	assert.Equal(t, 10.0, percentile(xs, 1))
	assert.Equal(t, 0.0, percentile(nil, 0.5))
}
