package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gavelhq/gavel/internal/shared"
)

func TestResolveCourtRoleNilClaims(t *testing.T) {
	assert.Equal(t, shared.RolePublic, ResolveCourtRole(nil, "north-district"))
}

func TestResolveCourtRoleAdminBypassesMembership(t *testing.T) {
	claims := &Claims{Role: "admin", CourtRoles: map[string]string{}}
	assert.Equal(t, shared.RoleAdmin, ResolveCourtRole(claims, "north-district"))
	assert.Equal(t, shared.RoleAdmin, ResolveCourtRole(claims, "any-other-court"))
}

func TestResolveCourtRoleMembership(t *testing.T) {
	claims := &Claims{
		Role: "attorney",
		CourtRoles: map[string]string{
			"north-district": "clerk",
			"south-district": "judge",
		},
	}
	assert.Equal(t, shared.RoleClerk, ResolveCourtRole(claims, "north-district"))
	assert.Equal(t, shared.RoleJudge, ResolveCourtRole(claims, "south-district"))
}

func TestResolveCourtRoleAbsentMembership(t *testing.T) {
	claims := &Claims{
		Role:       "attorney",
		CourtRoles: map[string]string{"north-district": "clerk"},
	}
	assert.Equal(t, shared.RolePublic, ResolveCourtRole(claims, "east-district"))
}

func TestResolveCourtRoleUnknownRoleName(t *testing.T) {
	claims := &Claims{
		Role:       "attorney",
		CourtRoles: map[string]string{"north-district": "stenographer"},
	}
	assert.Equal(t, shared.RolePublic, ResolveCourtRole(claims, "north-district"))
}

func TestResolveCourtRoleNilMap(t *testing.T) {
	claims := &Claims{Role: "attorney"}
	assert.Equal(t, shared.RolePublic, ResolveCourtRole(claims, "north-district"))
}
