package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// HashPassword will generate a password hash. The output self-describes the
// algorithm and cost factor; the only input it rejects is an empty string.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost())
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext password against
// the stored hash. Every failure, mismatch or malformed hash alike, comes
// back as ErrMismatchedHashAndPassword so callers cannot distinguish them.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrMismatchedHashAndPassword
	}
	return nil
}
