package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gavelhq/gavel/internal/shared"
)

// Token type discriminator. Prevents a refresh token being presented as an
// access token or vice versa.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenConfig carries the signing secret and lifetimes for issued tokens.
type TokenConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenManager mints and verifies HS256 tokens. Verification is a pure
// function of the token bytes, the secret, and the clock; it performs no I/O.
type TokenManager struct {
	cfg TokenConfig
	now func() time.Time
}

// TokenManagerOption configures a TokenManager.
type TokenManagerOption func(*TokenManager)

// WithTokenNow overrides the clock, primarily for tests.
func WithTokenNow(now func() time.Time) TokenManagerOption {
	return func(m *TokenManager) {
		m.now = now
	}
}

// NewTokenManager constructs a TokenManager. An empty secret is a fatal
// misconfiguration and is rejected here so the process fails before serving
// traffic.
func NewTokenManager(cfg TokenConfig, opts ...TokenManagerOption) (*TokenManager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("auth: token signing secret must be configured")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	m := &TokenManager{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// IssueAccess mints an access token for the user with the court-role snapshot
// embedded in the claims.
func (m *TokenManager) IssueAccess(user *User, courtRoles map[string]string) (string, error) {
	return m.issue(user, courtRoles, TokenTypeAccess, m.cfg.AccessTTL)
}

// IssueRefresh mints a refresh token and returns its expiry for persistence.
func (m *TokenManager) IssueRefresh(user *User, courtRoles map[string]string) (string, time.Time, error) {
	expiresAt := m.now().Add(m.cfg.RefreshTTL)
	token, err := m.issue(user, courtRoles, TokenTypeRefresh, m.cfg.RefreshTTL)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (m *TokenManager) issue(user *User, courtRoles map[string]string, tokenType string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := &Claims{
		Email:      user.Email,
		Role:       user.GlobalRole,
		TokenType:  tokenType,
		CourtRoles: courtRoles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.cfg.Secret)
}

// VerifyAccess validates signature and expiry and decodes the claims.
// A refresh token presented here is rejected. Errors are terminal for the
// request; the caller must re-authenticate.
func (m *TokenManager) VerifyAccess(raw string) (*Claims, error) {
	claims, err := m.verify(raw)
	if err != nil {
		return nil, err
	}
	if claims.TokenType == TokenTypeRefresh {
		return nil, shared.ErrTokenMalformed
	}
	return claims, nil
}

// VerifyRefresh validates a refresh token. Access tokens and tokens without a
// type claim are rejected.
func (m *TokenManager) VerifyRefresh(raw string) (*Claims, error) {
	claims, err := m.verify(raw)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return nil, shared.ErrTokenMalformed
	}
	return claims, nil
}

func (m *TokenManager) verify(raw string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	claims := &Claims{}
	token, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.cfg.Secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, shared.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, shared.ErrTokenSignature
		default:
			return nil, shared.ErrTokenMalformed
		}
	}
	if !token.Valid {
		return nil, shared.ErrTokenMalformed
	}
	return claims, nil
}

// HashToken returns the hex SHA-256 of a raw token. Refresh tokens are stored
// only by hash; the raw value lives solely in the client cookie.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
