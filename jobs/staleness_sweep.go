package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/backhouse-hq/backhouse/internal/observability"
	"github.com/backhouse-hq/backhouse/internal/outflow"
)

// StalenessSweepJob hosts the sweeper on the worker.
type StalenessSweepJob struct {
	sweeper *outflow.Sweeper
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewStalenessSweepJob constructs a job handler. metrics may be nil.
func NewStalenessSweepJob(sweeper *outflow.Sweeper, logger *slog.Logger, metrics *observability.Metrics) *StalenessSweepJob {
	return &StalenessSweepJob{sweeper: sweeper, logger: logger, metrics: metrics}
}

// Handle fulfils the asynq.HandlerFunc contract. Row-level failures are
// already logged and skipped inside the sweep; only a failure to scan the
// ledger at all is retryable.
func (j *StalenessSweepJob) Handle(ctx context.Context, task *asynq.Task) error {
	var payload StalenessSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	report, err := j.sweeper.Sweep(ctx)
	if err != nil {
		if j.logger != nil {
			j.logger.Error("staleness sweep", slog.Any("error", err))
		}
		return err
	}
	j.metrics.AddSweepPromotions(report.Promoted)
	if j.logger != nil {
		j.logger.Info("staleness sweep finished",
			slog.String("reason", payload.Reason),
			slog.Int("scanned", report.Scanned),
			slog.Int("promoted", report.Promoted),
			slog.Int("skipped", report.Skipped),
			slog.Int("failed", report.Failed))
	}
	return nil
}
