package auth

import (
	"context"
	"strconv"

	"github.com/goliatone/go-errors"
)

// Auther composes the credential store, token service, and user repository
// into the login flow and the request-time authorization gate. It holds no
// mutable state beyond its wiring; every method is safe for concurrent use.
type Auther struct {
	repo   RepositoryManager
	tokens *TokenService
	logger Logger
}

// NewAuthenticator returns a new Auther
func NewAuthenticator(repo RepositoryManager, tokens *TokenService) *Auther {
	return &Auther{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// TokenService returns the TokenService instance used by this Auther
func (s *Auther) TokenService() *TokenService {
	return s.tokens
}

// Login authenticates an identifier (username or email) and password and
// issues an access/refresh pair. A missing user and a wrong password produce
// the exact same error; the active check runs before the verified check, so
// an inactive unverified account is always reported as inactive.
func (s *Auther) Login(ctx context.Context, identifier, password string) (*TokenPair, error) {
	user, kind, err := resolveIdentifier(ctx, s.repo.Users(), identifier)
	if err != nil {
		s.logger.Error("Login identifier resolution error", "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during login").
			WithCode(errors.CodeInternal)
	}

	if kind == IdentifierNotFound {
		s.logger.Warn("Login failed, unknown identifier", "identifier", identifier)
		return nil, ErrInvalidCredentials
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.logger.Warn("Login failed, password mismatch", "identifier", identifier, "resolved_by", kind.String())
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		s.logger.Warn("Login blocked, inactive account", "user_id", user.ID)
		return nil, ErrAccountInactive
	}

	if !user.IsVerified {
		s.logger.Warn("Login blocked, unverified account", "user_id", user.ID)
		return nil, ErrAccountUnverified
	}

	subject := strconv.FormatInt(user.ID, 10)

	access, err := s.tokens.IssueAccess(subject, user.Username)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to issue access token")
	}

	refresh, err := s.tokens.IssueRefresh(subject, user.Username)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to issue refresh token")
	}

	s.logger.Info("Login succeeded", "user_id", user.ID, "username", user.Username)

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}

// IdentityFromAccessToken is the authorization gate: a linear chain of
// checks that must run in exactly this order. Token validity first, then
// subject resolution, then the account-state checks, active strictly before
// verified. Every token-shaped failure collapses into ErrUnauthenticated.
func (s *Auther) IdentityFromAccessToken(ctx context.Context, raw string) (*User, error) {
	claims, ok := s.tokens.Decode(raw)
	if !ok {
		return nil, ErrUnauthenticated
	}

	if claims.TokenType != TokenTypeAccess {
		s.logger.Warn("gate rejected non-access token", "type", claims.TokenType, "purpose", claims.Purpose)
		return nil, ErrUnauthenticated
	}

	id, ok := claims.UserID()
	if !ok {
		s.logger.Warn("gate rejected token with non-integer subject", "sub", claims.Subject())
		return nil, ErrUnauthenticated
	}

	user, err := s.repo.Users().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.logger.Warn("gate could not resolve token subject", "user_id", id)
			return nil, ErrUnauthenticated
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load token subject").
			WithCode(errors.CodeInternal)
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	if !user.IsVerified {
		return nil, ErrAccountUnverified
	}

	return user, nil
}
