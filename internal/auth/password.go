package auth

import "github.com/alexedwards/argon2id"

// HashPassword hashes a password with argon2id and a fresh random salt.
// The same password yields a different hash on every call.
func HashPassword(password string) (string, error) {
	return argon2id.CreateHash(password, argon2id.DefaultParams)
}

// VerifyPassword reports whether password matches the stored hash. Malformed
// hash strings verify as false; this never panics or returns an error, so a
// corrupt stored hash fails closed.
func VerifyPassword(password, hash string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		return false
	}
	return match
}
