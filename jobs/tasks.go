package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskGatePassExpiry cancels issued gate passes past their validity.
	TaskGatePassExpiry = "gate:expire_passes"
	// TaskStockSnapshot captures a daily copy of stock balances.
	TaskStockSnapshot = "inventory:stock_snapshot"
	// TaskIdempotencyCleanup prunes aged idempotency keys.
	TaskIdempotencyCleanup = "shared:idempotency_cleanup"
)

// SweepPayload carries scheduling metadata shared by the periodic sweeps.
type SweepPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewGatePassExpiryTask constructs the gate pass expiry sweep task.
func NewGatePassExpiryTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(SweepPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGatePassExpiry, body, asynq.Queue(QueueDefault)), nil
}

// NewStockSnapshotTask constructs the daily stock snapshot task.
func NewStockSnapshotTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(SweepPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockSnapshot, body, asynq.Queue(QueueDefault)), nil
}

// NewIdempotencyCleanupTask constructs the idempotency key cleanup task.
func NewIdempotencyCleanupTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(SweepPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}
