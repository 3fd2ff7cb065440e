package shared

import "strings"

// Role is the closed set of effective roles a principal can hold within a
// court. The zero value is RolePublic, the least privileged.
type Role int

const (
	// RolePublic grants view-only access to public records.
	RolePublic Role = iota
	// RoleAttorney can file documents and view attorney-sealed records.
	RoleAttorney
	// RoleClerk can manage dockets, seal and unseal records.
	RoleClerk
	// RoleJudge can issue orders, seal and unseal records.
	RoleJudge
	// RoleAdmin has full access across all courts.
	RoleAdmin
)

// RoleFromString parses a role name from claims. Unknown names fall back to
// RolePublic, never to an elevated role.
func RoleFromString(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "attorney":
		return RoleAttorney
	case "clerk":
		return RoleClerk
	case "judge":
		return RoleJudge
	case "admin":
		return RoleAdmin
	default:
		return RolePublic
	}
}

// String returns the lowercase name used in claims and logs.
func (r Role) String() string {
	switch r {
	case RoleAttorney:
		return "attorney"
	case RoleClerk:
		return "clerk"
	case RoleJudge:
		return "judge"
	case RoleAdmin:
		return "admin"
	default:
		return "public"
	}
}

// Satisfies reports whether r grants the access level of required.
// Admin satisfies everything. Clerk and Judge are peers: each covers
// Attorney and Public but not the other.
func (r Role) Satisfies(required Role) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleClerk:
		return required == RoleClerk || required == RoleAttorney || required == RolePublic
	case RoleJudge:
		return required == RoleJudge || required == RoleAttorney || required == RolePublic
	case RoleAttorney:
		return required == RoleAttorney || required == RolePublic
	default:
		return required == RolePublic
	}
}
