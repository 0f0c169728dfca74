package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	auth "github.com/promptcraft/auth-service"
)

func TestVerificationRequestHandler(t *testing.T) {
	newFixture := func() (*memoryRepo, *recordingDispatcher, *auth.VerificationRequestHandler, *auth.TokenService) {
		repo := newMemoryRepo()
		dispatcher := newRecordingDispatcher()
		tokens := auth.NewTokenService(testConfig(), silentLogger{})
		h := auth.NewVerificationRequestHandler(repo, tokens).
			WithLogger(silentLogger{}).
			WithEmailDispatcher(dispatcher).
			WithVerificationBaseURL("https://promptcraft.aiw3.ai/verify-email")
		return repo, dispatcher, h, tokens
	}

	t.Run("unknown email reports NotFound", func(t *testing.T) {
		_, _, h, _ := newFixture()

		err := h.Execute(context.Background(), auth.VerificationRequestMessage{Email: "nobody@x.com"})
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})

	t.Run("verified account reports AlreadyVerified", func(t *testing.T) {
		repo, _, h, _ := newFixture()
		seedUser(t, repo, &auth.User{
			Email: "ada@x.com", Username: "ada",
			PasswordHash: quickHash("Secret123!"),
			IsActive:     true, IsVerified: true,
		})

		err := h.Execute(context.Background(), auth.VerificationRequestMessage{Email: "ada@x.com"})
		assert.ErrorIs(t, err, auth.ErrAlreadyVerified)
	})

	t.Run("dispatches a valid verification token", func(t *testing.T) {
		repo, dispatcher, h, tokens := newFixture()
		seedUser(t, repo, &auth.User{
			Email: "ada@x.com", Username: "ada",
			PasswordHash: quickHash("Secret123!"),
			IsActive:     true, IsVerified: false,
		})

		err := h.Execute(context.Background(), auth.VerificationRequestMessage{Email: "ada@x.com"})
		assert.NoError(t, err)

		raw := dispatcher.verificationToken("ada@x.com")
		subject, ok := tokens.VerifyPurpose(raw, auth.PurposeEmailVerification)
		assert.True(t, ok)
		assert.Equal(t, "ada@x.com", subject)
	})

	t.Run("a failed dispatch is an error for an explicit request", func(t *testing.T) {
		repo, dispatcher, h, _ := newFixture()
		dispatcher.failVerification = true
		seedUser(t, repo, &auth.User{
			Email: "ada@x.com", Username: "ada",
			PasswordHash: quickHash("Secret123!"),
			IsActive:     true, IsVerified: false,
		})

		err := h.Execute(context.Background(), auth.VerificationRequestMessage{Email: "ada@x.com"})
		assert.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrUserNotFound)
	})
}

func TestVerifyEmailHandler(t *testing.T) {
	newFixture := func() (*memoryRepo, *auth.VerifyEmailHandler, *auth.TokenService) {
		repo := newMemoryRepo()
		tokens := auth.NewTokenService(testConfig(), silentLogger{})
		h := auth.NewVerifyEmailHandler(repo, tokens).WithLogger(silentLogger{})
		return repo, h, tokens
	}

	t.Run("flips the verified flag exactly once", func(t *testing.T) {
		repo, h, tokens := newFixture()
		user := seedUser(t, repo, &auth.User{
			Email: "ada@x.com", Username: "ada",
			PasswordHash: quickHash("Secret123!"),
			IsActive:     true, IsVerified: false,
		})

		raw, err := tokens.IssuePurposeToken("ada@x.com", auth.PurposeEmailVerification, 0)
		assert.NoError(t, err)

		assert.NoError(t, h.Execute(context.Background(), auth.VerifyEmailMessage{Token: raw}))

		stored, err := repo.Users().GetByID(context.Background(), user.ID)
		assert.NoError(t, err)
		assert.True(t, stored.IsVerified)
	})

	t.Run("verifying twice is idempotent success", func(t *testing.T) {
		repo, h, tokens := newFixture()
		user := seedUser(t, repo, &auth.User{
			Email: "ada@x.com", Username: "ada",
			PasswordHash: quickHash("Secret123!"),
			IsActive:     true, IsVerified: false,
		})

		first, err := tokens.IssuePurposeToken("ada@x.com", auth.PurposeEmailVerification, 0)
		assert.NoError(t, err)
		second, err := tokens.IssuePurposeToken("ada@x.com", auth.PurposeEmailVerification, 0)
		assert.NoError(t, err)

		assert.NoError(t, h.Execute(context.Background(), auth.VerifyEmailMessage{Token: first}))
		assert.NoError(t, h.Execute(context.Background(), auth.VerifyEmailMessage{Token: second}))

		stored, err := repo.Users().GetByID(context.Background(), user.ID)
		assert.NoError(t, err)
		assert.True(t, stored.IsVerified)
	})

	t.Run("garbage token is invalid", func(t *testing.T) {
		_, h, _ := newFixture()

		err := h.Execute(context.Background(), auth.VerifyEmailMessage{Token: "garbage"})
		assert.ErrorIs(t, err, auth.ErrInvalidOrExpiredToken)
	})

	t.Run("valid token for a missing user is the same failure class", func(t *testing.T) {
		_, h, tokens := newFixture()

		raw, err := tokens.IssuePurposeToken("ghost@x.com", auth.PurposeEmailVerification, 0)
		assert.NoError(t, err)

		err = h.Execute(context.Background(), auth.VerifyEmailMessage{Token: raw})
		assert.ErrorIs(t, err, auth.ErrInvalidOrExpiredToken)
	})

	t.Run("a reset token never verifies an email", func(t *testing.T) {
		repo, h, tokens := newFixture()
		user := seedUser(t, repo, &auth.User{
			Email: "ada@x.com", Username: "ada",
			PasswordHash: quickHash("Secret123!"),
			IsActive:     true, IsVerified: false,
		})

		raw, err := tokens.IssuePurposeToken("ada@x.com", auth.PurposePasswordReset, 0)
		assert.NoError(t, err)

		err = h.Execute(context.Background(), auth.VerifyEmailMessage{Token: raw})
		assert.ErrorIs(t, err, auth.ErrInvalidOrExpiredToken)

		stored, err := repo.Users().GetByID(context.Background(), user.ID)
		assert.NoError(t, err)
		assert.False(t, stored.IsVerified)
	})
}
