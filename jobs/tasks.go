package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStalenessSweep promotes aging open outflows through staleness tiers.
	TaskStalenessSweep = "outflow:staleness_sweep"
)

// StalenessSweepPayload configures one sweep run. Empty payload means a full
// pass; the job is idempotent so re-enqueueing is always safe.
type StalenessSweepPayload struct {
	Reason string `json:"reason,omitempty"`
}

// NewStalenessSweepTask constructs an Asynq task.
func NewStalenessSweepTask(payload StalenessSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStalenessSweep, data), nil
}
