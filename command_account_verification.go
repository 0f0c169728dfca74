package auth

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

type VerificationRequestMessage struct {
	Email string `json:"email"`
}

func (e VerificationRequestMessage) Type() string { return "user.verification_request" }

func (e VerificationRequestMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
	)
}

// VerificationRequestHandler issues a fresh email-verification token for an
// unverified account and dispatches it. Unlike the registration side effect,
// an explicit request that cannot be delivered is an error.
type VerificationRequestHandler struct {
	repo    RepositoryManager
	tokens  *TokenService
	mailer  EmailDispatcher
	logger  Logger
	baseURL string
}

// NewVerificationRequestHandler creates a handler with sane defaults.
func NewVerificationRequestHandler(repo RepositoryManager, tokens *TokenService) *VerificationRequestHandler {
	return &VerificationRequestHandler{
		repo:   repo,
		tokens: tokens,
		mailer: NewLogEmailDispatcher(nil),
		logger: defLogger{},
	}
}

func (h *VerificationRequestHandler) WithEmailDispatcher(mailer EmailDispatcher) *VerificationRequestHandler {
	if mailer != nil {
		h.mailer = mailer
	}
	return h
}

func (h *VerificationRequestHandler) WithLogger(logger Logger) *VerificationRequestHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *VerificationRequestHandler) WithVerificationBaseURL(baseURL string) *VerificationRequestHandler {
	h.baseURL = baseURL
	return h
}

func (h *VerificationRequestHandler) Execute(ctx context.Context, event VerificationRequestMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during verification request")
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerificationRequestHandler) execute(ctx context.Context, event VerificationRequestMessage) error {
	user, err := h.repo.Users().GetByEmail(ctx, event.Email)
	if err != nil {
		if goerrors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for verification request")
	}

	if user.IsVerified {
		return ErrAlreadyVerified
	}

	token, err := h.tokens.IssuePurposeToken(user.Email, PurposeEmailVerification, 0)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue verification token")
	}

	link := verificationLink(h.baseURL, token)
	h.logger.Info("issued verification link", "user_id", user.ID)

	if err := h.mailer.SendVerificationEmail(ctx, user.Email, link); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to send verification email")
	}

	return nil
}

type VerifyEmailMessage struct {
	Token string `json:"token"`
}

func (e VerifyEmailMessage) Type() string { return "user.verify_email" }

func (e VerifyEmailMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Token, validation.Required),
	)
}

// VerifyEmailHandler consumes an email-verification token and flips the
// verified flag. A token that fails purpose validation and a valid token
// whose subject no longer exists are the same failure class, so responses
// never confirm whether an address has an account.
type VerifyEmailHandler struct {
	repo   RepositoryManager
	tokens *TokenService
	logger Logger
}

// NewVerifyEmailHandler creates a handler with sane defaults.
func NewVerifyEmailHandler(repo RepositoryManager, tokens *TokenService) *VerifyEmailHandler {
	return &VerifyEmailHandler{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

func (h *VerifyEmailHandler) WithLogger(logger Logger) *VerifyEmailHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during email verification")
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	email, ok := h.tokens.VerifyPurpose(event.Token, PurposeEmailVerification)
	if !ok {
		return ErrInvalidOrExpiredToken
	}

	user, err := h.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if goerrors.Is(err, ErrUserNotFound) {
			h.logger.Warn("verification token subject not found", "email", email)
			return ErrInvalidOrExpiredToken
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for email verification")
	}

	// Verifying twice is a success, not a conflict.
	if user.IsVerified {
		return nil
	}

	if err := h.repo.Users().SetVerified(ctx, user.ID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark email verified")
	}

	h.logger.Info("email verified", "user_id", user.ID)

	return nil
}
