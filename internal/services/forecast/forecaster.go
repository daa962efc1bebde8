package forecast

import (
	"context"
	"math"
	"math/rand"
	"time"

	"IndiLimit/internal/domain/models"
	"IndiLimit/pkg/logger"
)

const (
	// FallbackPrediction is served whenever no usable model exists.
	FallbackPrediction = 0.15

	// minTrainWindows is the smallest dataset worth fitting. Below it the
	// trainer persists an artifact with reference errors and no network.
	minTrainWindows = 20

	// Reference validation errors reported when training was skipped.
	noModelBaselineMAE = 0.08
	noModelMAE         = 0.05

	// baselineConstant is the naive always-the-same prediction that the
	// trained model is measured against.
	baselineConstant = 0.10

	DefaultEpochs = 50

	learningRate      = 0.01
	earlyStopPatience = 10
	validationShare   = 0.2
)

// Trainer fits the sequence regressor on labeled feature rows and produces a
// serveable artifact.
type Trainer struct {
	log    *logger.Logger
	window int
	epochs int
	seed   int64
}

func NewTrainer(log *logger.Logger, window, epochs int, seed int64) *Trainer {
	if window <= 0 {
		window = DefaultWindow
	}
	if epochs <= 0 {
		epochs = DefaultEpochs
	}
	return &Trainer{log: log, window: window, epochs: epochs, seed: seed}
}

// Train builds sliding windows from the labeled rows, fits the network on a
// chronological 80/20 split with early stopping, and returns the artifact.
// Datasets too small to produce minTrainWindows windows yield a model-less
// artifact rather than an error.
func (t *Trainer) Train(labeled []models.LabeledRow) (*Artifact, error) {
	if len(labeled) == 0 {
		return nil, models.ErrInsufficientData
	}

	vectors := make([][]float64, len(labeled))
	targets := make([]float64, len(labeled))
	for i, row := range labeled {
		vectors[i] = row.Vector()
		targets[i] = row.Target
	}

	if len(labeled) <= t.window || len(labeled)-t.window < minTrainWindows {
		t.log.Warn("not enough windows to train, persisting reference errors",
			logger.Int("rows", len(labeled)),
			logger.Int("window", t.window))
		return &Artifact{
			TrainedAt:    time.Now().UTC(),
			Window:       t.window,
			FeatureWidth: models.NumFeatures,
			BaselineMAE:  noModelBaselineMAE,
			ModelMAE:     noModelMAE,
		}, nil
	}

	featScaler, err := FitScaler(vectors)
	if err != nil {
		return nil, err
	}
	targetCols := make([][]float64, len(targets))
	for i, v := range targets {
		targetCols[i] = []float64{v}
	}
	targetScaler, err := FitScaler(targetCols)
	if err != nil {
		return nil, err
	}

	scaledRows := featScaler.TransformAll(vectors)
	scaledTargets := make([]float64, len(targets))
	for i := range targets {
		scaledTargets[i] = targetScaler.Transform(targetCols[i])[0]
	}

	seqs, labels := MakeWindows(scaledRows, scaledTargets, t.window)
	valStart := len(seqs) - int(math.Ceil(float64(len(seqs))*validationShare))
	trainSeqs, trainLabels := seqs[:valStart], labels[:valStart]
	valSeqs, valLabels := seqs[valStart:], labels[valStart:]

	rng := rand.New(rand.NewSource(t.seed))
	net := NewNetwork(models.NumFeatures, t.window, rng)

	best := net.Clone()
	bestLoss := math.Inf(1)
	sinceImproved := 0
	order := make([]int, len(trainSeqs))
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < t.epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		trainLoss := 0.0
		for _, idx := range order {
			trainLoss += net.trainSample(trainSeqs[idx], trainLabels[idx], learningRate)
		}
		trainLoss /= float64(len(order))

		valLoss := 0.0
		for i, seq := range valSeqs {
			diff := net.Forward(seq) - valLabels[i]
			valLoss += diff * diff
		}
		valLoss /= float64(len(valSeqs))

		if valLoss < bestLoss {
			bestLoss = valLoss
			best = net.Clone()
			sinceImproved = 0
		} else {
			sinceImproved++
			if sinceImproved >= earlyStopPatience {
				t.log.Info("early stopping",
					logger.Int("epoch", epoch),
					logger.Any("val_loss", bestLoss))
				break
			}
		}

		t.log.Debug("epoch complete",
			logger.Int("epoch", epoch),
			logger.Any("train_loss", trainLoss),
			logger.Any("val_loss", valLoss))
	}
	net = best

	// Validation errors in target units, against the constant baseline.
	var modelErr, baselineErr float64
	for i, seq := range valSeqs {
		actual := targetScaler.Inverse(0, valLabels[i])
		pred := targetScaler.Inverse(0, net.Forward(seq))
		modelErr += math.Abs(pred - actual)
		baselineErr += math.Abs(baselineConstant - actual)
	}
	modelErr /= float64(len(valSeqs))
	baselineErr /= float64(len(valSeqs))

	t.log.Info("training complete",
		logger.Int("windows", len(seqs)),
		logger.Any("baseline_mae", baselineErr),
		logger.Any("model_mae", modelErr))

	return &Artifact{
		TrainedAt:     time.Now().UTC(),
		Window:        t.window,
		FeatureWidth:  models.NumFeatures,
		BaselineMAE:   baselineErr,
		ModelMAE:      modelErr,
		FeatureScaler: featScaler,
		TargetScaler:  targetScaler,
		Network:       net,
	}, nil
}

// Forecaster serves allocation fractions from the currently loaded artifact.
// It never fails: any missing model, short history, or malformed input
// degrades to FallbackPrediction.
type Forecaster struct {
	log *logger.Logger
	ref *ModelRef
}

func NewForecaster(log *logger.Logger, ref *ModelRef) *Forecaster {
	return &Forecaster{log: log, ref: ref}
}

// Predict returns the forecast allocation fraction for the latest window of
// feature rows.
func (f *Forecaster) Predict(_ context.Context, rows []models.FeatureRow) float64 {
	art := f.ref.Load()
	if !art.HasModel() {
		f.log.Debug("no model loaded, serving fallback prediction")
		return FallbackPrediction
	}

	vectors := make([][]float64, len(rows))
	for i, row := range rows {
		vectors[i] = row.Vector()
	}
	window, ok := LatestWindow(vectors, art.Window)
	if !ok {
		f.log.Debug("history shorter than model window, serving fallback prediction",
			logger.Int("rows", len(rows)),
			logger.Int("window", art.Window))
		return FallbackPrediction
	}

	seq := art.FeatureScaler.TransformAll(window)
	out := art.Network.Forward(seq)
	return art.TargetScaler.Inverse(0, out)
}

// MAE reports the validation errors of the served model. Without a loaded
// artifact the reference errors are returned.
func (f *Forecaster) MAE() (baseline, model float64) {
	art := f.ref.Load()
	if art == nil {
		return noModelBaselineMAE, noModelMAE
	}
	return art.BaselineMAE, art.ModelMAE
}
