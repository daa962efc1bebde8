package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IndiLimit/internal/domain/models"
)

func makeSeries(n int, price func(i int) float64) models.PriceSeries {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make(models.PriceSeries, n)
	for i := 0; i < n; i++ {
		out[i] = models.RatePoint{
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
			BTCUSD:    price(i),
			USDINR:    83.0 + 0.01*float64(i%5),
		}
	}
	return out
}

func TestComputeTooFewRows(t *testing.T) {
	series := makeSeries(MinRows-1, func(i int) float64 { return 50000 })
	_, err := Compute(series)
	require.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestComputeRowAlignment(t *testing.T) {
	series := makeSeries(40, func(i int) float64 { return 50000 + 100*float64(i) })
	rows, err := Compute(series)
	require.NoError(t, err)

	// One row per index with a full volatility window behind it.
	require.Len(t, rows, 40-VolatilityWindow)
	assert.Equal(t, series[VolatilityWindow].Timestamp, rows[0].Timestamp)
	assert.Equal(t, series[39].Timestamp, rows[len(rows)-1].Timestamp)
	assert.Equal(t, series[VolatilityWindow].BTCUSD, rows[0].BTCUSD)
}

func TestComputeConstantPrices(t *testing.T) {
	series := makeSeries(45, func(i int) float64 { return 50000 })
	for i := range series {
		series[i].USDINR = 83.0
	}
	rows, err := Compute(series)
	require.NoError(t, err)

	for _, row := range rows {
		assert.Zero(t, row.BTCReturn)
		assert.Zero(t, row.BTCVolatility)
		assert.Zero(t, row.FXVolatility)
		assert.Zero(t, row.Trend)
		// No losses in the oscillator window maps to 100, not NaN.
		assert.Equal(t, 100.0, row.Sentiment)
	}
}

func TestComputeRisingMarket(t *testing.T) {
	series := makeSeries(50, func(i int) float64 { return 50000 * math.Pow(1.01, float64(i)) })
	rows, err := Compute(series)
	require.NoError(t, err)

	last := rows[len(rows)-1]
	assert.Greater(t, last.Trend, 0.0, "price above its moving average in a steady climb")
	assert.Equal(t, 100.0, last.Sentiment, "no down periods in the window")
	assert.Greater(t, last.BTCReturn, 0.0)
}

func TestComputeVolatilityOrdering(t *testing.T) {
	calm := makeSeries(50, func(i int) float64 { return 50000 + 10*float64(i%2) })
	wild := makeSeries(50, func(i int) float64 { return 50000 + 5000*float64(i%2) })

	calmRows, err := Compute(calm)
	require.NoError(t, err)
	wildRows, err := Compute(wild)
	require.NoError(t, err)

	assert.Greater(t, wildRows[len(wildRows)-1].BTCVolatility, calmRows[len(calmRows)-1].BTCVolatility)
}

func TestComputeDeterministic(t *testing.T) {
	series := makeSeries(60, func(i int) float64 { return 50000 + 300*math.Sin(float64(i)/3) })
	a, err := Compute(series)
	require.NoError(t, err)
	b, err := Compute(series)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestComputeNoNaNs(t *testing.T) {
	series := makeSeries(70, func(i int) float64 { return 40000 + 2000*math.Sin(float64(i)/5) })
	rows, err := Compute(series)
	require.NoError(t, err)
	for _, row := range rows {
		for _, v := range row.Vector() {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "feature vector must stay finite")
		}
	}
}
