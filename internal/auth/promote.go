package auth

import (
	"strings"

	"golang.org/x/text/secure/precis"
)

// NormalizeEmail canonicalizes an email address for comparison. The local
// part goes through the UsernameCaseMapped profile, which also catches
// confusable Unicode; addresses the profile rejects fall back to a plain
// case fold so login never breaks on an odd but deliverable address.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	local, domain, found := strings.Cut(email, "@")
	if !found {
		return strings.ToLower(email)
	}
	normalized, err := precis.UsernameCaseMapped.String(local)
	if err != nil {
		normalized = strings.ToLower(local)
	}
	return normalized + "@" + strings.ToLower(domain)
}

// IsAdminEmail reports whether email matches the configured bootstrap admin
// address. An empty configuration means no bootstrap admin; nothing matches.
func IsAdminEmail(email, adminEmail string) bool {
	if adminEmail == "" || email == "" {
		return false
	}
	return NormalizeEmail(email) == NormalizeEmail(adminEmail)
}
