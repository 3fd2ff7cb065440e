package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gavelhq/gavel/internal/shared"
)

// Repository is the persistence surface the auth service depends on.
type Repository interface {
	FindUserByID(ctx context.Context, id int64) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	FindUserByProvider(ctx context.Context, provider, providerID string) (*User, error)
	UpsertOAuthUser(ctx context.Context, info *OAuthUserInfo) (*User, error)
	CourtRoles(ctx context.Context, userID int64) (map[string]string, error)
	PromoteAdmin(ctx context.Context, userID int64) error

	StoreRefreshToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error
	FindRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeUserRefreshTokens(ctx context.Context, userID int64) error
	DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error)
}

// PGRepository implements Repository on Postgres.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository returns a Postgres-backed repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, email, display_name, password_hash, global_role, oauth_provider, oauth_id, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.GlobalRole,
		&u.OAuthProvider, &u.OAuthID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("auth: scan user: %w", err)
	}
	return &u, nil
}

func (r *PGRepository) FindUserByID(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *PGRepository) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	return scanUser(row)
}

func (r *PGRepository) FindUserByProvider(ctx context.Context, provider, providerID string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE oauth_provider = $1 AND oauth_id = $2`, provider, providerID)
	return scanUser(row)
}

// UpsertOAuthUser links an external identity to an account, creating the
// account on first login. An existing account with the same email is claimed
// by the provider identity rather than duplicated.
func (r *PGRepository) UpsertOAuthUser(ctx context.Context, info *OAuthUserInfo) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, display_name, password_hash, global_role, oauth_provider, oauth_id, is_active)
		VALUES (lower($1), $2, '', 'attorney', $3, $4, TRUE)
		ON CONFLICT (email) DO UPDATE
		SET oauth_provider = EXCLUDED.oauth_provider,
		    oauth_id = EXCLUDED.oauth_id,
		    display_name = CASE WHEN users.display_name = '' THEN EXCLUDED.display_name ELSE users.display_name END,
		    updated_at = NOW()
		RETURNING `+userColumns,
		info.Email, info.DisplayName, info.Provider, info.ProviderID,
	)
	u, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Provider identity raced another login; fetch the winner.
			return r.FindUserByProvider(ctx, info.Provider, info.ProviderID)
		}
		return nil, err
	}
	return u, nil
}

// CourtRoles loads the caller's per-court role assignments. The result is
// snapshotted into issued tokens; it is not consulted per request.
func (r *PGRepository) CourtRoles(ctx context.Context, userID int64) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT court_id, role FROM court_memberships WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("auth: query court roles: %w", err)
	}
	defer rows.Close()

	roles := make(map[string]string)
	for rows.Next() {
		var courtID, role string
		if err := rows.Scan(&courtID, &role); err != nil {
			return nil, fmt.Errorf("auth: scan court role: %w", err)
		}
		roles[courtID] = role
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("auth: iterate court roles: %w", err)
	}
	return roles, nil
}

// PromoteAdmin sets the global role to admin. Idempotent.
func (r *PGRepository) PromoteAdmin(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET global_role = 'admin', updated_at = NOW() WHERE id = $1 AND global_role <> 'admin'`, userID)
	if err != nil {
		return fmt.Errorf("auth: promote admin: %w", err)
	}
	return nil
}

func (r *PGRepository) StoreRefreshToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, revoked, expires_at)
		VALUES ($1, $2, FALSE, $3)`,
		userID, tokenHash, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("auth: store refresh token: %w", err)
	}
	return nil
}

func (r *PGRepository) FindRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	var t RefreshToken
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, token_hash, revoked, expires_at, created_at
		FROM refresh_tokens WHERE token_hash = $1`,
		tokenHash,
	).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.Revoked, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("auth: find refresh token: %w", err)
	}
	return &t, nil
}

func (r *PGRepository) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	_, err := r.pool.Exec(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return fmt.Errorf("auth: revoke refresh token: %w", err)
	}
	return nil
}

func (r *PGRepository) RevokeUserRefreshTokens(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE user_id = $1 AND NOT revoked`, userID)
	if err != nil {
		return fmt.Errorf("auth: revoke user refresh tokens: %w", err)
	}
	return nil
}

// DeleteExpiredRefreshTokens drops rows past their expiry. Run from the
// maintenance worker.
func (r *PGRepository) DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("auth: delete expired refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
