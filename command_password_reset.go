package auth

import (
	"context"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

type PasswordResetRequestMessage struct {
	Email string `json:"email"`
}

func (e PasswordResetRequestMessage) Type() string { return "user.password_reset_request" }

func (e PasswordResetRequestMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
	)
}

// PasswordResetRequestHandler mints a password-reset token (sub is the user
// id, one hour by default) and dispatches it to the account email.
type PasswordResetRequestHandler struct {
	repo    RepositoryManager
	tokens  *TokenService
	mailer  EmailDispatcher
	logger  Logger
	baseURL string
}

// NewPasswordResetRequestHandler creates a handler with sane defaults.
func NewPasswordResetRequestHandler(repo RepositoryManager, tokens *TokenService) *PasswordResetRequestHandler {
	return &PasswordResetRequestHandler{
		repo:   repo,
		tokens: tokens,
		mailer: NewLogEmailDispatcher(nil),
		logger: defLogger{},
	}
}

func (h *PasswordResetRequestHandler) WithEmailDispatcher(mailer EmailDispatcher) *PasswordResetRequestHandler {
	if mailer != nil {
		h.mailer = mailer
	}
	return h
}

func (h *PasswordResetRequestHandler) WithLogger(logger Logger) *PasswordResetRequestHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *PasswordResetRequestHandler) WithResetBaseURL(baseURL string) *PasswordResetRequestHandler {
	h.baseURL = baseURL
	return h
}

func (h *PasswordResetRequestHandler) Execute(ctx context.Context, event PasswordResetRequestMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during password reset request")
	default:
		return h.execute(ctx, event)
	}
}

func (h *PasswordResetRequestHandler) execute(ctx context.Context, event PasswordResetRequestMessage) error {
	user, err := h.repo.Users().GetByEmail(ctx, event.Email)
	if err != nil {
		if goerrors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	subject := strconv.FormatInt(user.ID, 10)
	token, err := h.tokens.IssuePurposeToken(subject, PurposePasswordReset, 0)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue password reset token")
	}

	link := verificationLink(h.baseURL, token)
	h.logger.Info("issued password reset link", "user_id", user.ID)

	if err := h.mailer.SendPasswordResetEmail(ctx, user.Email, link); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to send password reset email")
	}

	return nil
}

type FinalizePasswordResetMessage struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (e FinalizePasswordResetMessage) Type() string { return "user.password_reset_finalize" }

func (e FinalizePasswordResetMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Token, validation.Required),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 128)),
	)
}

// FinalizePasswordResetHandler consumes a reset token and replaces the
// stored hash. Token failures and a missing subject are one failure class.
type FinalizePasswordResetHandler struct {
	repo   RepositoryManager
	tokens *TokenService
	logger Logger
}

// NewFinalizePasswordResetHandler creates a handler with sane defaults.
func NewFinalizePasswordResetHandler(repo RepositoryManager, tokens *TokenService) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

func (h *FinalizePasswordResetHandler) WithLogger(logger Logger) *FinalizePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during password reset finalization")
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	subject, ok := h.tokens.VerifyPurpose(event.Token, PurposePasswordReset)
	if !ok {
		return ErrInvalidOrExpiredToken
	}

	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		h.logger.Warn("reset token subject is not a user id", "sub", subject)
		return ErrInvalidOrExpiredToken
	}

	user, err := h.repo.Users().GetByID(ctx, id)
	if err != nil {
		if goerrors.Is(err, ErrUserNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	hash, err := HashPassword(event.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash new password")
	}

	if err := h.repo.Users().ResetPassword(ctx, user.ID, hash); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user password")
	}

	h.logger.Info("password reset finalized", "user_id", user.ID)

	return nil
}
