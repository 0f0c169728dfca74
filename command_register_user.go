package auth

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate will run validation rules
func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(
			&e.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&e.Username,
			validation.Required,
			validation.Length(3, 50),
		),
		validation.Field(
			&e.Password,
			validation.Required,
			validation.Length(8, 128),
		),
	)
}

type RegisterUserHandler struct {
	repo    RepositoryManager
	tokens  *TokenService
	mailer  EmailDispatcher
	logger  Logger
	baseURL string
}

// NewRegisterUserHandler creates a handler with sane defaults.
func NewRegisterUserHandler(repo RepositoryManager, tokens *TokenService) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:   repo,
		tokens: tokens,
		mailer: NewLogEmailDispatcher(nil),
		logger: defLogger{},
	}
}

// WithEmailDispatcher sets the dispatcher used for the verification email.
func (h *RegisterUserHandler) WithEmailDispatcher(mailer EmailDispatcher) *RegisterUserHandler {
	if mailer != nil {
		h.mailer = mailer
	}
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithVerificationBaseURL sets the frontend URL the emailed token is appended to.
func (h *RegisterUserHandler) WithVerificationBaseURL(baseURL string) *RegisterUserHandler {
	h.baseURL = baseURL
	return h
}

// Execute registers a new account. Duplicate checks run first, but the
// unique constraints are the real concurrency guard: a constraint violation
// at insert time surfaces as the same duplicate outcome. The verification
// email is best effort; the created record is authoritative and a resend is
// always available through the verification request flow.
func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	username := getUsername(event.Username, event.Email)
	if l := len(username); l < 3 || l > 50 {
		return nil, goerrors.New("username must be between 3 and 50 characters", goerrors.CategoryValidation).
			WithTextCode("INVALID_USERNAME").
			WithCode(goerrors.CodeBadRequest)
	}

	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := h.repo.Users().GetByEmailTx(ctx, tx, event.Email); err == nil {
			return ErrDuplicateEmail
		} else if !goerrors.Is(err, ErrUserNotFound) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email uniqueness")
		}

		if _, err := h.repo.Users().GetByUsernameTx(ctx, tx, username); err == nil {
			return ErrDuplicateUsername
		} else if !goerrors.Is(err, ErrUserNotFound) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check username uniqueness")
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.Email = event.Email
		user.Username = username
		user.PasswordHash = hash
		user.FullName = event.FullName
		user.IsActive = true
		user.IsVerified = false

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	h.sendVerificationEmail(ctx, user)

	return user, nil
}

func (h *RegisterUserHandler) sendVerificationEmail(ctx context.Context, user *User) {
	token, err := h.tokens.IssuePurposeToken(user.Email, PurposeEmailVerification, 0)
	if err != nil {
		h.logger.Error("failed to issue verification token after registration", "user_id", user.ID, "error", err)
		return
	}

	link := verificationLink(h.baseURL, token)
	if err := h.mailer.SendVerificationEmail(ctx, user.Email, link); err != nil {
		h.logger.Error("failed to send verification email after registration", "user_id", user.ID, "error", err)
	}
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}

func verificationLink(baseURL, token string) string {
	if baseURL == "" {
		return token
	}
	if strings.Contains(baseURL, "?") {
		return baseURL + "&token=" + token
	}
	return baseURL + "?token=" + token
}
