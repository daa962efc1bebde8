package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitScalerBounds(t *testing.T) {
	s, err := FitScaler([][]float64{
		{1, 10},
		{5, -10},
		{3, 0},
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, -10}, s.Min)
	assert.Equal(t, []float64{5, 10}, s.Max)
	assert.Equal(t, 2, s.Width())
	assert.True(t, s.Valid())
}

func TestFitScalerEmptyAndRagged(t *testing.T) {
	_, err := FitScaler(nil)
	require.Error(t, err)
	_, err = FitScaler([][]float64{{}})
	require.Error(t, err)
	_, err = FitScaler([][]float64{{1, 2}, {1}})
	require.Error(t, err)
}

func TestTransformUnitInterval(t *testing.T) {
	s, err := FitScaler([][]float64{{0, 100}, {10, 200}})
	require.NoError(t, err)

	got := s.Transform([]float64{5, 150})
	assert.InDelta(t, 0.5, got[0], 1e-9)
	assert.InDelta(t, 0.5, got[1], 1e-9)

	// Out-of-range inputs clamp instead of escaping [0,1].
	got = s.Transform([]float64{-5, 500})
	assert.Equal(t, 0.0, got[0])
	assert.Equal(t, 1.0, got[1])
}

func TestTransformZeroSpreadColumn(t *testing.T) {
	s, err := FitScaler([][]float64{{7, 1}, {7, 2}})
	require.NoError(t, err)
	got := s.Transform([]float64{7, 1.5})
	assert.Equal(t, 0.0, got[0])
	assert.InDelta(t, 0.5, got[1], 1e-9)
}

func TestInverseRoundTrip(t *testing.T) {
	s, err := FitScaler([][]float64{{0, -4}, {0.25, 4}})
	require.NoError(t, err)

	for _, v := range []float64{0, 0.08, 0.19, 0.25} {
		scaled := s.Transform([]float64{v, 0})[0]
		assert.InDelta(t, v, s.Inverse(0, scaled), 1e-9)
	}
}

func TestScalerValid(t *testing.T) {
	var nilScaler *MinMaxScaler
	assert.False(t, nilScaler.Valid())
	assert.False(t, (&MinMaxScaler{}).Valid())
	assert.False(t, (&MinMaxScaler{Min: []float64{1}, Max: []float64{1, 2}}).Valid())
	assert.False(t, (&MinMaxScaler{Min: []float64{2}, Max: []float64{1}}).Valid())
	assert.True(t, (&MinMaxScaler{Min: []float64{1}, Max: []float64{1}}).Valid())
}
