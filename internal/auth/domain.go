package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gavelhq/gavel/internal/shared"
)

// User represents an account row. CourtRoles is loaded from court memberships
// at login time and snapshotted into the issued token; it is not re-queried
// per request.
type User struct {
	ID            int64
	Email         string
	DisplayName   string
	PasswordHash  string
	GlobalRole    string
	OAuthProvider string
	OAuthID       string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RefreshToken is the persisted record for one issued refresh token.
// Only the SHA-256 hash of the raw token is stored.
type RefreshToken struct {
	ID        int64
	UserID    int64
	TokenHash string
	Revoked   bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Claims is the decoded, verified token payload. CourtRoles maps court id to
// the role name held there, snapshotted at issue time.
type Claims struct {
	Email      string            `json:"email"`
	Role       string            `json:"role"`
	TokenType  string            `json:"typ"`
	CourtRoles map[string]string `json:"court_roles,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the numeric subject. Returns 0 for client-credential or
// malformed subjects.
func (c *Claims) UserID() int64 {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// Principal converts verified claims into the request principal.
func (c *Claims) Principal() *shared.Principal {
	return &shared.Principal{
		UserID:     c.UserID(),
		Email:      c.Email,
		GlobalRole: c.Role,
	}
}
