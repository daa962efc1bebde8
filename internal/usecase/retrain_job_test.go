package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrainJobContract(t *testing.T) {
	provider := &stubProvider{series: risingSeries(150)}
	tr, _, _ := newTestTrainer(t, provider, nil, nil, newRecordingMetrics())
	job := NewRetrainJob(tr, testLogger(t))

	assert.Equal(t, "model-retrain", job.Name())
	assert.Equal(t, RetrainMessageType, job.Type())
}

func TestRetrainJobHandlesTypedPayload(t *testing.T) {
	provider := &stubProvider{series: risingSeries(150)}
	tr, ref, _ := newTestTrainer(t, provider, nil, nil, newRecordingMetrics())
	job := NewRetrainJob(tr, testLogger(t))

	require.NoError(t, job.Handle(context.Background(), &RetrainPayload{Days: 90}))
	assert.NotNil(t, ref.Load())
}

func TestRetrainJobHandlesMapPayload(t *testing.T) {
	provider := &stubProvider{series: risingSeries(150)}
	tr, ref, _ := newTestTrainer(t, provider, nil, nil, newRecordingMetrics())
	job := NewRetrainJob(tr, testLogger(t))

	require.NoError(t, job.Handle(context.Background(), map[string]interface{}{"days": 120}))
	assert.NotNil(t, ref.Load())
}

func TestRetrainJobMalformedPayloadUsesDefaults(t *testing.T) {
	provider := &stubProvider{series: risingSeries(150)}
	tr, ref, _ := newTestTrainer(t, provider, nil, nil, newRecordingMetrics())
	job := NewRetrainJob(tr, testLogger(t))

	// An unparseable payload falls back to the configured span instead of
	// dropping the retrain.
	require.NoError(t, job.Handle(context.Background(), 42))
	assert.NotNil(t, ref.Load())
}
