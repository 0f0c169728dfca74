package auth

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
)

// IdentifierKind tags how a login identifier resolved. The precedence is
// explicit so it stays auditable: username lookup first, email second.
type IdentifierKind int

const (
	IdentifierNotFound IdentifierKind = iota
	IdentifierUsername
	IdentifierEmail
)

func (k IdentifierKind) String() string {
	switch k {
	case IdentifierUsername:
		return "username"
	case IdentifierEmail:
		return "email"
	default:
		return "not_found"
	}
}

// resolveIdentifier looks a user up by username, then by email. A miss on
// both is reported through the kind, not an error; errors are reserved for
// storage failures.
func resolveIdentifier(ctx context.Context, store Users, identifier string) (*User, IdentifierKind, error) {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil, IdentifierNotFound, nil
	}

	user, err := store.GetByUsername(ctx, trimmed)
	if err == nil {
		return user, IdentifierUsername, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, IdentifierNotFound, err
	}

	user, err = store.GetByEmail(ctx, trimmed)
	if err == nil {
		return user, IdentifierEmail, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, IdentifierNotFound, err
	}

	return nil, IdentifierNotFound, nil
}
