package auth

import "github.com/gavelhq/gavel/internal/shared"

// ResolveCourtRole derives the caller's effective role within one court from
// verified claims. Pure function: no I/O, no error path, a defined output for
// every input.
//
// A global admin bypasses court membership entirely. Otherwise the court's
// entry in the claims snapshot decides; unknown role names and absent
// memberships both fall back to the least-privileged role.
func ResolveCourtRole(claims *Claims, courtID string) shared.Role {
	if claims == nil {
		return shared.RolePublic
	}
	if shared.RoleFromString(claims.Role) == shared.RoleAdmin {
		return shared.RoleAdmin
	}
	name, ok := claims.CourtRoles[courtID]
	if !ok {
		return shared.RolePublic
	}
	return shared.RoleFromString(name)
}
