package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleFromString(t *testing.T) {
	cases := map[string]Role{
		"attorney": RoleAttorney,
		"clerk":    RoleClerk,
		"judge":    RoleJudge,
		"admin":    RoleAdmin,
		"Admin":    RoleAdmin,
		" clerk ":  RoleClerk,
		"public":   RolePublic,
		"":         RolePublic,
		"bailiff":  RolePublic,
	}
	for input, want := range cases {
		assert.Equal(t, want, RoleFromString(input), "input %q", input)
	}
}

func TestSatisfiesLattice(t *testing.T) {
	tests := []struct {
		holder   Role
		required Role
		want     bool
	}{
		{RoleAdmin, RoleJudge, true},
		{RoleAdmin, RoleClerk, true},
		{RoleAdmin, RoleAdmin, true},
		{RoleClerk, RoleClerk, true},
		{RoleClerk, RoleAttorney, true},
		{RoleClerk, RolePublic, true},
		{RoleClerk, RoleJudge, false},
		{RoleClerk, RoleAdmin, false},
		{RoleJudge, RoleJudge, true},
		{RoleJudge, RoleAttorney, true},
		{RoleJudge, RoleClerk, false},
		{RoleAttorney, RoleAttorney, true},
		{RoleAttorney, RolePublic, true},
		{RoleAttorney, RoleClerk, false},
		{RolePublic, RolePublic, true},
		{RolePublic, RoleAttorney, false},
	}
	for _, tc := range tests {
		got := tc.holder.Satisfies(tc.required)
		assert.Equal(t, tc.want, got, "%s satisfies %s", tc.holder, tc.required)
	}
}

func TestSatisfiesReflexive(t *testing.T) {
	for _, r := range []Role{RolePublic, RoleAttorney, RoleClerk, RoleJudge, RoleAdmin} {
		assert.True(t, r.Satisfies(r), "%s should satisfy itself", r)
	}
}

func TestAuthzContextZeroValue(t *testing.T) {
	var authz AuthzContext
	assert.False(t, authz.Authenticated())
	assert.Equal(t, RolePublic, authz.Role)
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "TenantMissing", ErrorKind(ErrTenantMissing))
	assert.Equal(t, "TokenInvalid", ErrorKind(ErrTokenExpired))
	assert.Equal(t, "TokenInvalid", ErrorKind(ErrTokenSignature))
	assert.Equal(t, "TokenInvalid", ErrorKind(ErrTokenMalformed))
	assert.Equal(t, "HandshakeUnknownOrExpired", ErrorKind(ErrHandshakeUnknown))
	assert.Equal(t, "RateLimited", ErrorKind(ErrRateLimited))
	assert.Equal(t, "Internal", ErrorKind(assert.AnError))
}
