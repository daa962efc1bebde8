package usecase

import (
	"context"

	"IndiLimit/pkg/logger"
	"IndiLimit/pkg/queue"
)

// RetrainMessageType is the queue message type that triggers a training run.
const RetrainMessageType = "model.retrain"

// RetrainPayload optionally overrides the history span for one run.
type RetrainPayload struct {
	Days int `json:"days,omitempty"`
}

// RetrainJob runs the trainer when a retrain message arrives on the queue.
type RetrainJob struct {
	trainer *Trainer
	log     *logger.Logger
}

func NewRetrainJob(trainer *Trainer, log *logger.Logger) *RetrainJob {
	return &RetrainJob{trainer: trainer, log: log}
}

func (j *RetrainJob) Name() string { return "model-retrain" }

func (j *RetrainJob) Type() string { return RetrainMessageType }

func (j *RetrainJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[RetrainPayload](payload)
	if err != nil {
		j.log.Warn("retrain payload malformed, using defaults", logger.Error(err))
		p = &RetrainPayload{}
	}
	j.log.Info("retrain triggered", logger.Int("days", p.Days))
	return j.trainer.RunDays(ctx, p.Days)
}

var _ queue.Job = (*RetrainJob)(nil)
