package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type claims. Access and refresh tokens share a signing key; the type
// claim is what keeps them from ever being interchangeable.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Purpose claims restrict a token to one specific non-access operation.
const (
	PurposeEmailVerification = "email_verification"
	PurposePasswordReset     = "password_reset"
)

// TokenClaims is the claim set for every token this service signs.
// Exactly one of TokenType or Purpose is set.
type TokenClaims struct {
	jwt.RegisteredClaims
	TokenType string `json:"type,omitempty"`
	Purpose   string `json:"purpose,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Subject returns the sub claim: the user id for login tokens, the email for
// verification tokens, the user id for reset tokens.
func (c *TokenClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID parses the subject as a user id. Only meaningful for login and
// reset tokens, where sub carries the integer surrogate.
func (c *TokenClaims) UserID() (int64, bool) {
	id, err := strconv.ParseInt(c.RegisteredClaims.Subject, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Expires returns the expiration time, zero when the claim is absent
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedTime returns the issued at time, zero when the claim is absent
func (c *TokenClaims) IssuedTime() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = newTokenID()
	}
}
