package forecast

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IndiLimit/internal/domain/models"
	"IndiLimit/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	require.NoError(t, err)
	return l
}

func makeLabeled(n int) []models.LabeledRow {
	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.LabeledRow, n)
	for i := 0; i < n; i++ {
		phase := float64(i) / 5
		out[i] = models.LabeledRow{
			FeatureRow: models.FeatureRow{
				Timestamp:     start.Add(time.Duration(i) * 24 * time.Hour),
				BTCUSD:        50000 + 2000*math.Sin(phase),
				BTCVolatility: 0.3 + 0.1*math.Sin(phase),
				FXVolatility:  0.05 + 0.02*math.Cos(phase),
				Trend:         0.1 * math.Sin(phase/2),
				Sentiment:     50 + 20*math.Sin(phase),
			},
			Target: 0.05 + 0.15*(math.Sin(phase)+1)/2,
		}
	}
	return out
}

func TestTrainEmptyInput(t *testing.T) {
	tr := NewTrainer(testLogger(t), 8, 10, 1)
	_, err := tr.Train(nil)
	require.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestTrainTooFewWindows(t *testing.T) {
	tr := NewTrainer(testLogger(t), 14, 10, 1)

	// 25 rows make 11 windows, below the training minimum. This is not an
	// error: a model-less artifact with reference errors is returned.
	art, err := tr.Train(makeLabeled(25))
	require.NoError(t, err)
	assert.False(t, art.HasModel())
	assert.Equal(t, 0.08, art.BaselineMAE)
	assert.Equal(t, 0.05, art.ModelMAE)
	assert.Equal(t, 14, art.Window)
	assert.Equal(t, models.NumFeatures, art.FeatureWidth)
}

func TestTrainProducesServableModel(t *testing.T) {
	tr := NewTrainer(testLogger(t), 8, 30, 1)
	art, err := tr.Train(makeLabeled(80))
	require.NoError(t, err)

	require.True(t, art.HasModel())
	assert.True(t, art.FeatureScaler.Valid())
	assert.True(t, art.TargetScaler.Valid())
	assert.Equal(t, 1, art.TargetScaler.Width())
	assert.True(t, art.Network.ShapeValid(models.NumFeatures))
	assert.False(t, math.IsNaN(art.ModelMAE))
	assert.GreaterOrEqual(t, art.ModelMAE, 0.0)
	assert.GreaterOrEqual(t, art.BaselineMAE, 0.0)
}

func TestTrainDeterministicForSeed(t *testing.T) {
	rows := makeLabeled(80)
	a, err := NewTrainer(testLogger(t), 8, 15, 42).Train(rows)
	require.NoError(t, err)
	b, err := NewTrainer(testLogger(t), 8, 15, 42).Train(rows)
	require.NoError(t, err)
	assert.Equal(t, a.ModelMAE, b.ModelMAE)
	assert.Equal(t, a.BaselineMAE, b.BaselineMAE)
}

func TestPredictFallbacks(t *testing.T) {
	ref := NewModelRef()
	f := NewForecaster(testLogger(t), ref)
	ctx := context.Background()

	rows := make([]models.FeatureRow, 20)

	// No artifact loaded at all.
	assert.Equal(t, FallbackPrediction, f.Predict(ctx, rows))

	// Model-less artifact.
	ref.Swap(&Artifact{Window: 14, FeatureWidth: models.NumFeatures, BaselineMAE: 0.08, ModelMAE: 0.05})
	assert.Equal(t, FallbackPrediction, f.Predict(ctx, rows))

	// Trained artifact but not enough history for one window.
	tr := NewTrainer(testLogger(t), 8, 10, 1)
	art, err := tr.Train(makeLabeled(80))
	require.NoError(t, err)
	ref.Swap(art)
	assert.Equal(t, FallbackPrediction, f.Predict(ctx, rows[:5]))

	// Exactly window-sized history is still one row short of a usable window.
	assert.Equal(t, FallbackPrediction, f.Predict(ctx, rows[:8]))
}

func TestPredictWithinTargetRange(t *testing.T) {
	tr := NewTrainer(testLogger(t), 8, 20, 1)
	art, err := tr.Train(makeLabeled(80))
	require.NoError(t, err)

	ref := NewModelRef()
	ref.Swap(art)
	f := NewForecaster(testLogger(t), ref)

	rows := make([]models.FeatureRow, 0, 20)
	for _, row := range makeLabeled(20) {
		rows = append(rows, row.FeatureRow)
	}

	got := f.Predict(context.Background(), rows)
	assert.GreaterOrEqual(t, got, 0.0)
	assert.LessOrEqual(t, got, 0.25)
}

func TestMAEWithoutArtifact(t *testing.T) {
	f := NewForecaster(testLogger(t), NewModelRef())
	baseline, model := f.MAE()
	assert.Equal(t, 0.08, baseline)
	assert.Equal(t, 0.05, model)
}

func TestArtifactSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	tr := NewTrainer(testLogger(t), 8, 10, 1)
	art, err := tr.Train(makeLabeled(80))
	require.NoError(t, err)

	require.NoError(t, SaveArtifact(dir, art))

	loaded, err := LoadArtifact(dir)
	require.NoError(t, err)
	assert.Equal(t, art.Window, loaded.Window)
	assert.Equal(t, art.FeatureWidth, loaded.FeatureWidth)
	assert.Equal(t, art.ModelMAE, loaded.ModelMAE)
	require.True(t, loaded.HasModel())

	// The reloaded model must predict identically.
	rows := make([][]float64, 8)
	for i := range rows {
		rows[i] = []float64{0.3, 50, 0, 0.05}
	}
	seq := art.FeatureScaler.TransformAll(rows)
	assert.Equal(t, art.Network.Forward(seq), loaded.Network.Forward(seq))
}

func TestLoadArtifactMissing(t *testing.T) {
	_, err := LoadArtifact(t.TempDir())
	require.ErrorIs(t, err, models.ErrModelUnavailable)
}

func TestLoadArtifactCorrupted(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ArtifactFile), []byte("not json"), 0o644))
	_, err := LoadArtifact(dir)
	require.ErrorIs(t, err, models.ErrModelUnavailable)
}

func TestLoadArtifactShapeMismatch(t *testing.T) {
	dir := t.TempDir()
	tr := NewTrainer(testLogger(t), 8, 10, 1)
	art, err := tr.Train(makeLabeled(80))
	require.NoError(t, err)

	// Claim a different feature width than the network was built with.
	art.FeatureWidth = 7
	data, err := json.Marshal(art)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ArtifactFile), data, 0o644))

	_, err = LoadArtifact(dir)
	require.ErrorIs(t, err, models.ErrModelUnavailable)
}

func TestModelRefSwap(t *testing.T) {
	ref := NewModelRef()
	assert.Nil(t, ref.Load())

	a := &Artifact{Window: 14, FeatureWidth: models.NumFeatures}
	ref.Swap(a)
	assert.Same(t, a, ref.Load())

	b := &Artifact{Window: 10, FeatureWidth: models.NumFeatures}
	ref.Swap(b)
	assert.Same(t, b, ref.Load())
}
