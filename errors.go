package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// ErrInvalidCredentials covers both an unknown identifier and a wrong
// password. Callers must not be able to tell the two apart.
var ErrInvalidCredentials = errors.New("incorrect username/email or password", errors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(errors.CodeUnauthorized)

// ErrDuplicateEmail is returned when registering an email that already exists
var ErrDuplicateEmail = errors.New("email already registered", errors.CategoryConflict).
	WithTextCode("DUPLICATE_EMAIL").
	WithCode(errors.CodeBadRequest)

// ErrDuplicateUsername is returned when registering a username that already exists
var ErrDuplicateUsername = errors.New("username already exists", errors.CategoryConflict).
	WithTextCode("DUPLICATE_USERNAME").
	WithCode(errors.CodeBadRequest)

// ErrAccountInactive blocks login and gated requests for deactivated accounts
var ErrAccountInactive = errors.New("inactive user account", errors.CategoryAuth).
	WithTextCode("INACTIVE_ACCOUNT").
	WithCode(errors.CodeBadRequest)

// ErrAccountUnverified blocks login and gated requests until the email is verified
var ErrAccountUnverified = errors.New("email address not verified", errors.CategoryAuth).
	WithTextCode("UNVERIFIED_ACCOUNT").
	WithCode(errors.CodeForbidden)

// ErrUnauthenticated is the single failure the gate reports for a missing,
// malformed, expired, or wrong-type bearer token, and for a token whose
// subject no longer resolves to a user.
var ErrUnauthenticated = errors.New("could not validate credentials", errors.CategoryAuth).
	WithTextCode("UNAUTHENTICATED").
	WithCode(errors.CodeUnauthorized)

// ErrInvalidOrExpiredToken covers verification and reset tokens that fail
// purpose validation, and valid tokens whose subject no longer exists. One
// failure class so responses do not leak account existence.
var ErrInvalidOrExpiredToken = errors.New("invalid or expired token", errors.CategoryValidation).
	WithTextCode("INVALID_TOKEN").
	WithCode(errors.CodeBadRequest)

// ErrUserNotFound is returned by flows that may acknowledge account existence
var ErrUserNotFound = errors.New("user with this email not found", errors.CategoryNotFound).
	WithTextCode("USER_NOT_FOUND").
	WithCode(errors.CodeNotFound)

// ErrAlreadyVerified is returned when requesting verification for a verified account
var ErrAlreadyVerified = errors.New("email is already verified", errors.CategoryConflict).
	WithTextCode("ALREADY_VERIFIED").
	WithCode(errors.CodeBadRequest)

// ErrStorageUnavailable is the generic boundary error for unexpected store failures
var ErrStorageUnavailable = errors.New("storage unavailable", errors.CategoryInternal).
	WithTextCode("STORAGE_UNAVAILABLE").
	WithCode(errors.CodeInternal)

// ErrMismatchedHashAndPassword is the single outcome for any password
// comparison failure, including a malformed stored hash.
var ErrMismatchedHashAndPassword = errors.New("mismatched password", errors.CategoryAuth).
	WithTextCode("PASSWORD_MISMATCH").
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty input where a value is mandatory
var ErrNoEmptyString = errors.New("value should not be an empty string", errors.CategoryValidation).
	WithTextCode("EMPTY_VALUE").
	WithCode(errors.CodeBadRequest)

// IsDuplicateConstraintError checks a storage error for a unique constraint
// violation on the users table. The column name decides which duplicate
// outcome the caller should surface.
func IsDuplicateConstraintError(err error, column string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") &&
		!strings.Contains(msg, "constraint failed") {
		return false
	}
	return strings.Contains(msg, column)
}
