package auth

import (
	"context"
	"time"
)

// Maintenance exposes the repository operations the background worker runs.
// The worker needs no token signing or OAuth wiring, so it gets this instead
// of a full Service.
type Maintenance struct {
	repo Repository
	now  func() time.Time
}

// NewMaintenance returns the worker-facing maintenance surface.
func NewMaintenance(repo Repository) *Maintenance {
	return &Maintenance{repo: repo, now: time.Now}
}

// CleanupExpiredRefreshTokens deletes refresh token rows past their expiry.
func (m *Maintenance) CleanupExpiredRefreshTokens(ctx context.Context) (int64, error) {
	return m.repo.DeleteExpiredRefreshTokens(ctx, m.now())
}
