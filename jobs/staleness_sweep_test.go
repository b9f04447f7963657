package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/backhouse-hq/backhouse/internal/outflow"
)

type stubLedger struct {
	open []outflow.PendingOutflow
}

func (s *stubLedger) Insert(ctx context.Context, o outflow.PendingOutflow) error { return nil }

func (s *stubLedger) Get(ctx context.Context, restaurantID, id uuid.UUID) (outflow.PendingOutflow, error) {
	return outflow.PendingOutflow{}, nil
}

func (s *stubLedger) ListOpen(ctx context.Context, restaurantID uuid.UUID) ([]outflow.PendingOutflow, error) {
	return nil, nil
}

func (s *stubLedger) ListOpenIssuedBefore(ctx context.Context, cutoff time.Time) ([]outflow.PendingOutflow, error) {
	return s.open, nil
}

func (s *stubLedger) Promote(ctx context.Context, id uuid.UUID, from, to outflow.Status) (bool, error) {
	for i, o := range s.open {
		if o.ID == id && o.Status == from {
			s.open[i].Status = to
			return true, nil
		}
	}
	return false, nil
}

func (s *stubLedger) VoidIfVersion(ctx context.Context, id uuid.UUID, reason string, at time.Time, version int64) (bool, error) {
	return false, nil
}

func (s *stubLedger) DeleteIfOpen(ctx context.Context, restaurantID, id uuid.UUID) (bool, error) {
	return false, nil
}

func (s *stubLedger) UpdateNotes(ctx context.Context, restaurantID, id uuid.UUID, notes string) (bool, error) {
	return false, nil
}

func (s *stubLedger) SumOpenAmount(ctx context.Context, restaurantID uuid.UUID) (int64, error) {
	return 0, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSweepTaskPayloadRoundTrip(t *testing.T) {
	task, err := NewStalenessSweepTask(StalenessSweepPayload{Reason: "manual"})
	require.NoError(t, err)
	require.Equal(t, TaskStalenessSweep, task.Type())
	require.JSONEq(t, `{"reason":"manual"}`, string(task.Payload()))
}

func TestHandleMalformedPayloadSkipsRetry(t *testing.T) {
	sweeper := outflow.NewSweeper(&stubLedger{}, quietLogger())
	job := NewStalenessSweepJob(sweeper, quietLogger(), nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskStalenessSweep, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleRunsSweep(t *testing.T) {
	now := time.Date(2026, 3, 15, 4, 0, 0, 0, time.UTC)
	ledger := &stubLedger{open: []outflow.PendingOutflow{{
		ID:        uuid.New(),
		Status:    outflow.StatusPending,
		IssueDate: now.AddDate(0, 0, -45),
	}}}
	sweeper := outflow.NewSweeper(ledger, quietLogger()).WithClock(func() time.Time { return now })
	job := NewStalenessSweepJob(sweeper, quietLogger(), nil)

	task, err := NewStalenessSweepTask(StalenessSweepPayload{Reason: "cron"})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, outflow.StatusStale30, ledger.open[0].Status)
}
