package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenService signs and verifies the four token kinds the service issues.
// The signing key and per-purpose lifetimes are fixed at construction.
type TokenService struct {
	signingKey      []byte
	issuer          string
	accessTTL       time.Duration
	refreshTTL      time.Duration
	verificationTTL time.Duration
	resetTTL        time.Duration
	logger          Logger
	now             func() time.Time
}

// NewTokenService creates a new TokenService instance
func NewTokenService(cfg TokenConfig, logger Logger) *TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenService{
		signingKey:      []byte(cfg.GetSigningKey()),
		issuer:          cfg.GetIssuer(),
		accessTTL:       cfg.GetAccessTokenTTL(),
		refreshTTL:      cfg.GetRefreshTokenTTL(),
		verificationTTL: cfg.GetVerificationTokenTTL(),
		resetTTL:        cfg.GetResetTokenTTL(),
		logger:          logger,
		now:             time.Now,
	}
}

// WithClock overrides the time source used at issuance
func (ts *TokenService) WithClock(now func() time.Time) *TokenService {
	if now != nil {
		ts.now = now
	}
	return ts
}

// IssueAccess mints a short-lived access token with sub set to the user id
// and an auxiliary username claim.
func (ts *TokenService) IssueAccess(subject, username string) (string, error) {
	return ts.issueTyped(subject, username, TokenTypeAccess, ts.accessTTL)
}

// IssueRefresh mints a refresh token. Same key as access tokens, but the
// type claim keeps the two apart on every decode path.
func (ts *TokenService) IssueRefresh(subject, username string) (string, error) {
	return ts.issueTyped(subject, username, TokenTypeRefresh, ts.refreshTTL)
}

func (ts *TokenService) issueTyped(subject, username, tokenType string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", ErrNoEmptyString
	}

	now := ts.now()
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: tokenType,
		Username:  username,
	}

	ensureTokenID(&claims.RegisteredClaims)

	return ts.SignClaims(claims)
}

// IssuePurposeToken mints a single-purpose token (email verification or
// password reset). A zero ttl falls back to the configured default for the
// given purpose.
func (ts *TokenService) IssuePurposeToken(subject, purpose string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", ErrNoEmptyString
	}

	if ttl <= 0 {
		switch purpose {
		case PurposeEmailVerification:
			ttl = ts.verificationTTL
		case PurposePasswordReset:
			ttl = ts.resetTTL
		default:
			return "", errors.New("unknown token purpose", errors.CategoryBadInput).
				WithMetadata(map[string]any{"purpose": purpose})
		}
	}

	now := ts.now()
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Purpose: purpose,
	}

	ensureTokenID(&claims.RegisteredClaims)

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary claims using the configured signing key
func (ts *TokenService) SignClaims(claims *TokenClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Decode verifies signature and expiry, nothing else. Any failure, bad
// signature, malformed structure, or elapsed expiry, yields the same empty
// result so callers cannot turn decode outcomes into an oracle. The reason
// is logged and goes no further.
func (ts *TokenService) Decode(raw string) (*TokenClaims, bool) {
	parserOptions := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(raw, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService decode encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		ts.logger.Debug("TokenService decode failed", "error", err)
		return nil, false
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService decode could not map claims")
		return nil, false
	}

	return claims, true
}

// VerifyPurpose decodes a token and additionally requires the purpose claim
// to match and the expiry to still be in the future at check time. The extra
// expiry check is deliberate belt and suspenders on top of parser
// enforcement. Returns the embedded subject only on a full match.
func (ts *TokenService) VerifyPurpose(raw, expectedPurpose string) (string, bool) {
	claims, ok := ts.Decode(raw)
	if !ok {
		return "", false
	}

	if claims.Purpose != expectedPurpose {
		ts.logger.Warn("token purpose mismatch", "purpose", claims.Purpose, "expected", expectedPurpose)
		return "", false
	}

	if claims.RegisteredClaims.ExpiresAt == nil || !claims.Expires().After(ts.now()) {
		ts.logger.Warn("token expired at purpose check", "purpose", expectedPurpose)
		return "", false
	}

	return claims.Subject(), true
}

func newTokenID() string {
	return uuid.NewString()
}
