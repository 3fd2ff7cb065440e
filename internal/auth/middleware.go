package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gavelhq/gavel/internal/observability"
	"github.com/gavelhq/gavel/internal/shared"
)

// Court identifier sources, in priority order.
const (
	courtHeader         = "X-Court-ID"
	courtDistrictHeader = "X-Court-District"
	courtQueryParam     = "court"
)

// ExtractCourtID resolves the court a request is addressed to. Sources are
// consulted in a fixed priority order: explicit header, district header, host
// subdomain, query parameter. Returns "" when no source yields a usable id.
func ExtractCourtID(r *http.Request) string {
	if id := sanitizeCourtID(r.Header.Get(courtHeader)); id != "" {
		return id
	}
	if id := sanitizeCourtID(r.Header.Get(courtDistrictHeader)); id != "" {
		return id
	}
	if id := sanitizeCourtID(subdomain(r.Host)); id != "" {
		return id
	}
	return sanitizeCourtID(r.URL.Query().Get(courtQueryParam))
}

// sanitizeCourtID lowercases and strips everything outside [a-z0-9-]. A value
// that sanitizes to nothing is treated as absent.
func sanitizeCourtID(raw string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(strings.TrimSpace(raw)) {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

func subdomain(host string) string {
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		return ""
	}
	sub := parts[0]
	if sub == "www" || sub == "app" || sub == "api" {
		return ""
	}
	return sub
}

// TokenVerifier validates an access token. Satisfied by TokenManager.
type TokenVerifier interface {
	VerifyAccess(raw string) (*Claims, error)
}

// TokenRefresher rotates a refresh token into a new pair. Satisfied by Service.
type TokenRefresher interface {
	Refresh(ctx context.Context, rawRefresh string) (*TokenPair, *User, error)
}

// RevocationChecker answers whether a token id has been denylisted.
// Satisfied by RevocationList.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Boundary assembles the per-request authorization context. It is the only
// place tokens are inspected; everything downstream reads the context.
type Boundary struct {
	Verifier    TokenVerifier
	Refresher   TokenRefresher
	Revocations RevocationChecker
	Cookies     CookieWriter
	Logger      *slog.Logger
	Metrics     *observability.Metrics
}

// RequireCourt rejects requests that carry no court identifier. It runs
// before token verification: a request not addressed to a court is rejected
// without spending any verification work on it.
func (b *Boundary) RequireCourt(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		courtID := ExtractCourtID(r)
		if courtID == "" {
			shared.RespondError(w, http.StatusBadRequest, shared.ErrTenantMissing, "request must identify a court")
			return
		}
		authz := shared.AuthzFromContext(r.Context())
		authz.CourtID = courtID
		next.ServeHTTP(w, r.WithContext(shared.ContextWithAuthz(r.Context(), authz)))
	})
}

// Authenticate verifies the access token, if any, and installs the
// authorization context.
//
// An absent token yields the Public role so unrestricted endpoints keep
// working. A token that is present but fails verification is terminal for the
// request, with one exception: an expired access token accompanied by a valid
// refresh cookie is rotated transparently and the request proceeds under the
// new identity.
func (b *Boundary) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		authz := shared.AuthzFromContext(ctx)

		raw := ExtractAccessToken(r)
		if raw == "" {
			authz.Role = ResolveCourtRole(nil, authz.CourtID)
			next.ServeHTTP(w, r.WithContext(shared.ContextWithAuthz(ctx, authz)))
			return
		}

		claims, err := b.Verifier.VerifyAccess(raw)
		if err != nil {
			claims = b.tryTransparentRefresh(w, r, err)
			if claims == nil {
				b.observeVerification("rejected")
				shared.RespondError(w, http.StatusUnauthorized, err, "access token rejected")
				return
			}
		}

		if b.isRevoked(ctx, claims.ID) {
			b.observeVerification("revoked")
			shared.RespondError(w, http.StatusUnauthorized, shared.ErrTokenExpired, "access token revoked")
			return
		}

		b.observeVerification("ok")
		authz.Principal = claims.Principal()
		authz.Role = ResolveCourtRole(claims, authz.CourtID)
		next.ServeHTTP(w, r.WithContext(shared.ContextWithAuthz(ctx, authz)))
	})
}

// tryTransparentRefresh attempts refresh rotation for a browser client whose
// access token expired mid-session. Returns the new access claims, or nil if
// the failure stands.
func (b *Boundary) tryTransparentRefresh(w http.ResponseWriter, r *http.Request, verifyErr error) *Claims {
	if !errors.Is(verifyErr, shared.ErrTokenExpired) || b.Refresher == nil {
		return nil
	}
	rawRefresh := ExtractRefreshToken(r)
	if rawRefresh == "" {
		return nil
	}
	pair, _, err := b.Refresher.Refresh(r.Context(), rawRefresh)
	if err != nil {
		return nil
	}
	claims, err := b.Verifier.VerifyAccess(pair.AccessToken)
	if err != nil {
		return nil
	}
	b.Cookies.Set(w, pair)
	return claims
}

// isRevoked checks the denylist. A denylist outage fails open with a warning:
// access tokens are short-lived, and locking every user out on a cache
// failure is the worse trade.
func (b *Boundary) isRevoked(ctx context.Context, jti string) bool {
	if b.Revocations == nil {
		return false
	}
	revoked, err := b.Revocations.IsRevoked(ctx, jti)
	if err != nil {
		if b.Logger != nil {
			b.Logger.Warn("revocation check unavailable", slog.Any("error", err))
		}
		return false
	}
	return revoked
}

func (b *Boundary) observeVerification(outcome string) {
	if b.Metrics != nil {
		b.Metrics.ObserveTokenVerification(outcome)
	}
}

// RequireRole guards a subtree behind a minimum effective role. An anonymous
// caller gets 401; an authenticated caller whose role does not satisfy the
// requirement gets 403.
func RequireRole(required shared.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := shared.AuthzFromContext(r.Context())
			if authz.Role.Satisfies(required) {
				next.ServeHTTP(w, r)
				return
			}
			if !authz.Authenticated() {
				shared.RespondError(w, http.StatusUnauthorized, shared.ErrUnauthenticated, "authentication required")
				return
			}
			shared.RespondError(w, http.StatusForbidden, shared.ErrForbidden, "insufficient role for this court")
		})
	}
}
