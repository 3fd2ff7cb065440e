package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeTokenCleanup deletes refresh token rows past their expiry.
	TaskTypeTokenCleanup = "auth:token_cleanup"
	// TaskTypeAuditPrune trims old auth audit log rows.
	TaskTypeAuditPrune = "auth:audit_prune"
)

// TokenCleaner is the slice of the auth service the cleanup task needs.
type TokenCleaner interface {
	CleanupExpiredRefreshTokens(ctx context.Context) (int64, error)
}

// AuditPruner removes audit rows older than the retention window.
type AuditPruner interface {
	PruneAuditLogs(ctx context.Context, retentionDays int) (int64, error)
}

// AuditPrunePayload carries the retention setting for one prune run.
type AuditPrunePayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewTokenCleanupTask constructs the cleanup task. No payload; the task is a
// trigger, not a message.
func NewTokenCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeTokenCleanup, nil)
}

// NewAuditPruneTask constructs an audit prune task.
func NewAuditPruneTask(payload AuditPrunePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAuditPrune, data), nil
}

// NewTokenCleanupHandler returns the handler for TaskTypeTokenCleanup.
func NewTokenCleanupHandler(cleaner TokenCleaner, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		removed, err := cleaner.CleanupExpiredRefreshTokens(ctx)
		if err != nil {
			logger.Error("token cleanup", slog.Any("error", err))
			return err
		}
		logger.Info("token cleanup complete", slog.Int64("removed", removed))
		return nil
	}
}

// NewAuditPruneHandler returns the handler for TaskTypeAuditPrune.
func NewAuditPruneHandler(pruner AuditPruner, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload AuditPrunePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.RetentionDays <= 0 {
			payload.RetentionDays = 90
		}
		removed, err := pruner.PruneAuditLogs(ctx, payload.RetentionDays)
		if err != nil {
			logger.Error("audit prune", slog.Any("error", err))
			return err
		}
		logger.Info("audit prune complete", slog.Int64("removed", removed))
		return nil
	}
}
