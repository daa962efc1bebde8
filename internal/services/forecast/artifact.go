package forecast

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"IndiLimit/internal/domain/models"
)

// ArtifactFile is the file name the trainer writes and the server loads.
const ArtifactFile = "allocation_model.json"

// Artifact bundles everything needed to serve predictions: the trained
// network, the scalers fitted on the training data, and the validation
// errors reported alongside each recommendation.
type Artifact struct {
	TrainedAt     time.Time     `json:"trained_at"`
	Window        int           `json:"window"`
	FeatureWidth  int           `json:"feature_width"`
	BaselineMAE   float64       `json:"baseline_mae"`
	ModelMAE      float64       `json:"model_mae"`
	FeatureScaler *MinMaxScaler `json:"feature_scaler"`
	TargetScaler  *MinMaxScaler `json:"target_scaler"`
	Network       *Network      `json:"network,omitempty"`
}

// HasModel reports whether the artifact carries a usable network. Training
// runs that skipped model fitting still persist their validation errors.
func (a *Artifact) HasModel() bool {
	return a != nil && a.Network != nil
}

func (a *Artifact) validate() error {
	if a.Window <= 0 || a.FeatureWidth <= 0 {
		return fmt.Errorf("artifact has invalid dimensions (window=%d width=%d)", a.Window, a.FeatureWidth)
	}
	if a.Network != nil {
		if !a.Network.ShapeValid(a.FeatureWidth) {
			return fmt.Errorf("network shape does not match feature width %d", a.FeatureWidth)
		}
		if a.FeatureScaler == nil || !a.FeatureScaler.Valid() || a.FeatureScaler.Width() != a.FeatureWidth {
			return fmt.Errorf("feature scaler missing or malformed")
		}
		if a.TargetScaler == nil || !a.TargetScaler.Valid() || a.TargetScaler.Width() != 1 {
			return fmt.Errorf("target scaler missing or malformed")
		}
	}
	return nil
}

// SaveArtifact writes the artifact atomically so a crashed write never
// corrupts a previously good model file.
func SaveArtifact(dir string, a *Artifact) error {
	if err := a.validate(); err != nil {
		return fmt.Errorf("refusing to save artifact: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}

	path := filepath.Join(dir, ArtifactFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace artifact: %w", err)
	}
	return nil
}

// LoadArtifact reads and validates a persisted artifact. A missing,
// unreadable, or shape-mismatched file yields ErrModelUnavailable so callers
// can fall back to baseline recommendations.
func LoadArtifact(dir string) (*Artifact, error) {
	path := filepath.Join(dir, ArtifactFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", models.ErrModelUnavailable, path, err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", models.ErrModelUnavailable, path, err)
	}
	if err := a.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrModelUnavailable, err)
	}
	return &a, nil
}

// ModelRef holds the currently served artifact and allows lock-free reads
// while a retrain swaps in a fresh model.
type ModelRef struct {
	v atomic.Value
}

// NewModelRef returns an empty reference. Load returns nil until the first
// Swap.
func NewModelRef() *ModelRef { return &ModelRef{} }

// Swap publishes a new artifact to all readers.
func (r *ModelRef) Swap(a *Artifact) {
	r.v.Store(a)
}

// Load returns the current artifact, or nil when no model has been loaded.
func (r *ModelRef) Load() *Artifact {
	a, _ := r.v.Load().(*Artifact)
	return a
}
