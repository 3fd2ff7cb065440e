package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "judge@court.gov", NormalizeEmail("Judge@Court.GOV"))
	assert.Equal(t, "judge@court.gov", NormalizeEmail("  judge@court.gov  "))
	assert.Equal(t, "no-at-sign", NormalizeEmail("No-At-Sign"))
}

func TestIsAdminEmail(t *testing.T) {
	assert.True(t, IsAdminEmail("admin@court.gov", "admin@court.gov"))
	assert.True(t, IsAdminEmail("Admin@Court.gov", "admin@court.gov"))
	assert.False(t, IsAdminEmail("someone@court.gov", "admin@court.gov"))
}

func TestIsAdminEmailEmptyConfig(t *testing.T) {
	// No configured admin means nothing matches, the empty string included.
	assert.False(t, IsAdminEmail("admin@court.gov", ""))
	assert.False(t, IsAdminEmail("", ""))
	assert.False(t, IsAdminEmail("", "admin@court.gov"))
}
