package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLog represents a record stored in auth_audit_logs.
type AuditLog struct {
	ActorID int64
	CourtID string
	Action  string
	Email   string
	Meta    map[string]any
	At      time.Time
}

// AuditLogger writes authentication events into auth_audit_logs.
// Recording is best effort; callers treat failures as non-fatal.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil || l.pool == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" {
		return errors.New("audit log requires action")
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO auth_audit_logs (actor_id, court_id, action, email, meta, occurred_at) VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`, log.ActorID, log.CourtID, log.Action, log.Email, metaJSON, log.At)
	return err
}

// PruneAuditLogs deletes entries older than the retention window and returns
// how many rows were removed.
func (l *AuditLogger) PruneAuditLogs(ctx context.Context, retentionDays int) (int64, error) {
	if l == nil || l.pool == nil {
		return 0, errors.New("audit logger not initialised")
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	tag, err := l.pool.Exec(ctx, `DELETE FROM auth_audit_logs WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
