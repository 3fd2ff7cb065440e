package shared

import "context"

// Principal is the authenticated identity carried by a verified token.
// Immutable for the lifetime of the request.
type Principal struct {
	UserID     int64
	Email      string
	GlobalRole string
}

// AuthzContext is the per-request authorization context assembled at the
// request boundary and consumed by domain handlers. Handlers must scope every
// read and write by CourtID; the trust layer does not execute queries itself.
type AuthzContext struct {
	Principal *Principal
	CourtID   string
	Role      Role
}

// Authenticated reports whether the request carried a verified identity.
func (a AuthzContext) Authenticated() bool {
	return a.Principal != nil
}

type authzContextKey struct{}

// ContextWithAuthz stores the authorization context in ctx.
func ContextWithAuthz(ctx context.Context, authz AuthzContext) context.Context {
	return context.WithValue(ctx, authzContextKey{}, authz)
}

// AuthzFromContext extracts the authorization context. The zero value carries
// the Public role and no principal, so a missing context never grants access.
func AuthzFromContext(ctx context.Context) AuthzContext {
	authz, _ := ctx.Value(authzContextKey{}).(AuthzContext)
	return authz
}
