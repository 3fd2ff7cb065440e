package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/gavelhq/gavel/internal/shared"
)

// TokenPair is the result of a successful authentication.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Service implements the authentication flows: password login, the OAuth
// handshake, refresh rotation, and logout.
type Service struct {
	repo        Repository
	tokens      *TokenManager
	handshakes  *HandshakeStore
	revocations *RevocationList
	oauth       OAuthConfig
	audit       *shared.AuditLogger
	logger      *slog.Logger
	adminEmail  string
	httpClient  *http.Client
	now         func() time.Time

	// exchange swaps an authorization code for a provider access token.
	// Replaced in tests to avoid network calls.
	exchange func(ctx context.Context, cfg *oauth2.Config, code, verifier string) (string, error)
}

// NewService wires the auth service.
func NewService(
	repo Repository,
	tokens *TokenManager,
	handshakes *HandshakeStore,
	revocations *RevocationList,
	oauth OAuthConfig,
	audit *shared.AuditLogger,
	logger *slog.Logger,
	adminEmail string,
) *Service {
	return &Service{
		repo:        repo,
		tokens:      tokens,
		handshakes:  handshakes,
		revocations: revocations,
		oauth:       oauth,
		audit:       audit,
		logger:      logger,
		adminEmail:  adminEmail,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		now:         time.Now,
		exchange:    exchangeCode,
	}
}

func exchangeCode(ctx context.Context, cfg *oauth2.Config, code, verifier string) (string, error) {
	tok, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return "", fmt.Errorf("auth: exchange authorization code: %w", err)
	}
	return tok.AccessToken, nil
}

// LoginWithPassword authenticates by email and password. Every failure mode
// collapses to ErrInvalidCredentials so the response does not reveal whether
// the account exists.
func (s *Service) LoginWithPassword(ctx context.Context, email, password string) (*TokenPair, *User, error) {
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, shared.ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !user.IsActive || user.PasswordHash == "" {
		return nil, nil, shared.ErrInvalidCredentials
	}
	if !VerifyPassword(password, user.PasswordHash) {
		return nil, nil, shared.ErrInvalidCredentials
	}

	s.maybePromoteAdmin(ctx, user)

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	s.recordAudit(ctx, user, "auth.login", map[string]any{"method": "password"})
	return pair, user, nil
}

// BeginOAuth starts the handshake with a provider and returns the URL to send
// the browser to. The PKCE verifier never leaves the server.
func (s *Service) BeginOAuth(ctx context.Context, provider, redirectAfter string) (string, error) {
	cfg, err := s.oauth.clientFor(provider)
	if err != nil {
		return "", err
	}
	verifier := oauth2.GenerateVerifier()
	state, err := s.handshakes.Begin(verifier, redirectAfter)
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(
		ComposeOAuthState(state, redirectAfter),
		oauth2.S256ChallengeOption(verifier),
	), nil
}

// CompleteOAuth finishes the handshake: the state token is consumed exactly
// once, the code is exchanged, and the provider identity is linked to a local
// account. Returns the token pair, the user, and the post-login redirect path.
func (s *Service) CompleteOAuth(ctx context.Context, provider, stateParam, code string) (*TokenPair, *User, string, error) {
	cfg, err := s.oauth.clientFor(provider)
	if err != nil {
		return nil, nil, "", err
	}

	state, _ := ParseOAuthState(stateParam)
	verifier, redirectAfter, ok := s.handshakes.Complete(state)
	if !ok {
		return nil, nil, "", shared.ErrHandshakeUnknown
	}

	accessToken, err := s.exchange(ctx, cfg, code, verifier)
	if err != nil {
		return nil, nil, "", err
	}

	info, err := fetchUserInfo(ctx, s.httpClient, provider, accessToken)
	if err != nil {
		return nil, nil, "", err
	}
	if info.Email == "" {
		return nil, nil, "", fmt.Errorf("auth: provider %s returned no email", provider)
	}
	info.Email = NormalizeEmail(info.Email)

	user, err := s.repo.UpsertOAuthUser(ctx, info)
	if err != nil {
		return nil, nil, "", err
	}
	if !user.IsActive {
		return nil, nil, "", shared.ErrInvalidCredentials
	}

	s.maybePromoteAdmin(ctx, user)

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, nil, "", err
	}
	s.recordAudit(ctx, user, "auth.login", map[string]any{"method": "oauth", "provider": provider})
	return pair, user, redirectAfter, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a fresh
// pair is issued with a current court-role snapshot. Unknown, revoked, and
// expired tokens all fail identically.
func (s *Service) Refresh(ctx context.Context, rawRefresh string) (*TokenPair, *User, error) {
	claims, err := s.tokens.VerifyRefresh(rawRefresh)
	if err != nil {
		return nil, nil, err
	}

	hash := HashToken(rawRefresh)
	record, err := s.repo.FindRefreshToken(ctx, hash)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, shared.ErrTokenMalformed
		}
		return nil, nil, err
	}
	if record.Revoked {
		return nil, nil, shared.ErrTokenMalformed
	}
	if s.now().After(record.ExpiresAt) {
		return nil, nil, shared.ErrTokenExpired
	}

	user, err := s.repo.FindUserByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, shared.ErrTokenMalformed
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, shared.ErrTokenMalformed
	}

	if err := s.repo.RevokeRefreshToken(ctx, hash); err != nil {
		return nil, nil, err
	}
	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// Logout revokes the presented refresh token and denylists the access token's
// id until it would have expired. Both steps are best effort.
func (s *Service) Logout(ctx context.Context, rawRefresh string, accessClaims *Claims) {
	if rawRefresh != "" {
		if err := s.repo.RevokeRefreshToken(ctx, HashToken(rawRefresh)); err != nil {
			s.logger.Warn("revoke refresh token on logout", slog.Any("error", err))
		}
	}
	if accessClaims != nil && accessClaims.ExpiresAt != nil {
		if err := s.revocations.Revoke(ctx, accessClaims.ID, accessClaims.ExpiresAt.Time); err != nil {
			s.logger.Warn("denylist access token on logout", slog.Any("error", err))
		}
		s.recordAudit(ctx, &User{ID: accessClaims.UserID(), Email: accessClaims.Email}, "auth.logout", nil)
	}
}

// CleanupExpiredRefreshTokens removes rows whose expiry has passed. Called by
// the maintenance worker.
func (s *Service) CleanupExpiredRefreshTokens(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredRefreshTokens(ctx, s.now())
}

func (s *Service) issuePair(ctx context.Context, user *User) (*TokenPair, error) {
	courtRoles, err := s.repo.CourtRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	access, err := s.tokens.IssueAccess(user, courtRoles)
	if err != nil {
		return nil, err
	}
	refresh, expiresAt, err := s.tokens.IssueRefresh(user, courtRoles)
	if err != nil {
		return nil, err
	}
	if err := s.repo.StoreRefreshToken(ctx, user.ID, HashToken(refresh), expiresAt); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, RefreshExpiresAt: expiresAt}, nil
}

// maybePromoteAdmin elevates the configured bootstrap admin on login.
// Promotion failure is logged but never blocks authentication.
func (s *Service) maybePromoteAdmin(ctx context.Context, user *User) {
	if !IsAdminEmail(user.Email, s.adminEmail) || user.GlobalRole == "admin" {
		return
	}
	if err := s.repo.PromoteAdmin(ctx, user.ID); err != nil {
		s.logger.Warn("promote bootstrap admin", slog.String("email", user.Email), slog.Any("error", err))
		return
	}
	user.GlobalRole = "admin"
	s.logger.Info("promoted bootstrap admin", slog.String("email", user.Email))
}

func (s *Service) recordAudit(ctx context.Context, user *User, action string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	log := shared.AuditLog{ActorID: user.ID, Action: action, Email: user.Email, Meta: meta, At: s.now()}
	if err := s.audit.Record(ctx, log); err != nil {
		s.logger.Warn("record auth audit log", slog.String("action", action), slog.Any("error", err))
	}
}
