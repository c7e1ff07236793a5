package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Idempotency keys older than this are safe to prune; retried receipts
// land well within the window.
const idempotencyRetention = 7 * 24 * time.Hour

// GatePassExpirer cancels issued gate passes past their validity window.
type GatePassExpirer interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}

// StockSnapshotter copies current stock balances into the snapshot table.
type StockSnapshotter interface {
	Snapshot(ctx context.Context, takenAt time.Time) (int64, error)
}

// IdempotencyCleaner prunes aged idempotency keys.
type IdempotencyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// Handlers bundles the task handlers and their dependencies.
type Handlers struct {
	Gate   GatePassExpirer
	Stock  StockSnapshotter
	Idem   IdempotencyCleaner
	Logger *slog.Logger
}

// HandleGatePassExpiry processes TaskGatePassExpiry tasks.
func (h *Handlers) HandleGatePassExpiry(ctx context.Context, t *asynq.Task) error {
	var payload SweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	n, err := h.Gate.ExpireOverdue(ctx)
	if err != nil {
		h.Logger.Error("gate pass expiry sweep failed", "error", err)
		return err
	}
	h.Logger.Info("gate pass expiry sweep", "expired", n,
		"scheduled_for", payload.ScheduledFor)
	return nil
}

// HandleStockSnapshot processes TaskStockSnapshot tasks.
func (h *Handlers) HandleStockSnapshot(ctx context.Context, t *asynq.Task) error {
	var payload SweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	n, err := h.Stock.Snapshot(ctx, payload.ScheduledFor)
	if err != nil {
		h.Logger.Error("stock snapshot failed", "error", err)
		return err
	}
	h.Logger.Info("stock snapshot taken", "rows", n,
		"scheduled_for", payload.ScheduledFor)
	return nil
}

// HandleIdempotencyCleanup processes TaskIdempotencyCleanup tasks.
func (h *Handlers) HandleIdempotencyCleanup(ctx context.Context, t *asynq.Task) error {
	var payload SweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if err := h.Idem.Cleanup(ctx, idempotencyRetention); err != nil {
		h.Logger.Error("idempotency cleanup failed", "error", err)
		return err
	}
	h.Logger.Info("idempotency keys pruned", "retention", idempotencyRetention.String())
	return nil
}
