package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTenantMissing occurs when a request carries no court identifier.
	ErrTenantMissing = errors.New("court identifier missing")
	// ErrTokenMalformed occurs when a token cannot be parsed.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenSignature occurs when a token signature does not verify.
	ErrTokenSignature = errors.New("token signature invalid")
	// ErrTokenExpired occurs when a token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrHandshakeUnknown occurs when an OAuth state token is unknown or expired.
	ErrHandshakeUnknown = errors.New("handshake unknown or expired")
	// ErrRateLimited occurs when the admission controller rejects a request.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnauthenticated occurs when a protected operation is attempted
	// without a verified identity.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden occurs when an authenticated caller lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation occurs when a request body fails validation.
	ErrValidation = errors.New("validation failed")
)

// ErrorKind maps a trust-layer error to its machine-readable kind string.
// Unrecognized errors collapse to "Internal" so no detail leaks to clients.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrTenantMissing):
		return "TenantMissing"
	case errors.Is(err, ErrTokenMalformed), errors.Is(err, ErrTokenSignature), errors.Is(err, ErrTokenExpired):
		return "TokenInvalid"
	case errors.Is(err, ErrHandshakeUnknown):
		return "HandshakeUnknownOrExpired"
	case errors.Is(err, ErrRateLimited):
		return "RateLimited"
	case errors.Is(err, ErrInvalidCredentials):
		return "InvalidCredentials"
	case errors.Is(err, ErrUnauthenticated):
		return "Unauthenticated"
	case errors.Is(err, ErrForbidden):
		return "Forbidden"
	case errors.Is(err, ErrValidation):
		return "Validation"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	default:
		return "Internal"
	}
}
