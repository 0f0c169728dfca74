package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	auth "github.com/promptcraft/auth-service"
)

func TestHashPassword(t *testing.T) {
	t.Run("produces a self-describing bcrypt hash", func(t *testing.T) {
		hash, err := auth.HashPassword("Secret123!")

		assert.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$2"), "hash should carry the bcrypt prefix: %s", hash)
		assert.NotContains(t, hash, "Secret123!")
	})

	t.Run("salts every hash", func(t *testing.T) {
		first, err := auth.HashPassword("Secret123!")
		assert.NoError(t, err)

		second, err := auth.HashPassword("Secret123!")
		assert.NoError(t, err)

		assert.NotEqual(t, first, second)
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, err := auth.HashPassword("")
		assert.ErrorIs(t, err, auth.ErrNoEmptyString)
	})
}

func TestComparePasswordAndHash(t *testing.T) {
	hash := quickHash("Secret123!")

	t.Run("matches the original password", func(t *testing.T) {
		assert.NoError(t, auth.ComparePasswordAndHash("Secret123!", hash))
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		err := auth.ComparePasswordAndHash("secret123!", hash)
		assert.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
	})

	t.Run("treats a malformed hash as a mismatch", func(t *testing.T) {
		err := auth.ComparePasswordAndHash("Secret123!", "not-a-bcrypt-hash")
		assert.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
	})

	t.Run("treats an empty hash as a mismatch", func(t *testing.T) {
		err := auth.ComparePasswordAndHash("Secret123!", "")
		assert.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
	})
}
