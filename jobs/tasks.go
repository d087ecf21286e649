// Package jobs defines the background tasks and the Asynq worker hosting them.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPermissionsWarmup pre-populates the permission cache for active
	// employees.
	TaskPermissionsWarmup = "permissions:warmup"
)

// PermissionsWarmupPayload parameterizes a warmup run.
type PermissionsWarmupPayload struct {
	// Concurrency bounds the warmup fan-out. Zero means the default.
	Concurrency int `json:"concurrency,omitempty"`
}

// NewPermissionsWarmupTask constructs an Asynq task.
func NewPermissionsWarmupTask(payload PermissionsWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPermissionsWarmup, data), nil
}
