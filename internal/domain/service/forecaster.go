package service

import (
	"context"

	"IndiLimit/internal/domain/models"
)

// AllocationForecaster predicts the spending allocation fraction from recent
// feature history. Predict never fails: on any internal error it degrades to
// the fixed fallback fraction and reports the condition through logging and
// metrics only.
type AllocationForecaster interface {
	Predict(ctx context.Context, rows []models.FeatureRow) float64
	// MAE returns the baseline and model mean-absolute-error from the most
	// recent training run (fixed defaults when no model is loaded).
	MAE() (baseline, model float64)
}
