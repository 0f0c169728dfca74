package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// AuthController exposes the auth flows over HTTP. All responses are JSON;
// login additionally accepts a form-encoded body whose username field takes
// an email too.
type AuthController struct {
	Logger           Logger
	Auther           *Auther
	Register         *RegisterUserHandler
	VerificationReq  *VerificationRequestHandler
	VerifyEmail      *VerifyEmailHandler
	PasswordResetReq *PasswordResetRequestHandler
	PasswordReset    *FinalizePasswordResetHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Auther in auth controller...")
	}

	if c.Register == nil || c.VerificationReq == nil || c.VerifyEmail == nil ||
		c.PasswordResetReq == nil || c.PasswordReset == nil {
		panic("Missing flow handlers in auth controller...")
	}

	return c
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithAuther(auther *Auther) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithFlowHandlers(
	register *RegisterUserHandler,
	verificationReq *VerificationRequestHandler,
	verifyEmail *VerifyEmailHandler,
	resetReq *PasswordResetRequestHandler,
	resetFinalize *FinalizePasswordResetHandler,
) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Register = register
		c.VerificationReq = verificationReq
		c.VerifyEmail = verifyEmail
		c.PasswordResetReq = resetReq
		c.PasswordReset = resetFinalize
		return c
	}
}

// RegisterAuthRoutes mounts the auth surface under /auth
func RegisterAuthRoutes(app *fiber.App, controller *AuthController) {
	grp := app.Group("/auth")

	grp.Post("/register", controller.RegisterPost)
	grp.Post("/login", controller.LoginPost)
	grp.Post("/request-email-verification", controller.VerificationRequestPost)
	grp.Post("/verify-email", controller.VerifyEmailPost)
	grp.Post("/request-password-reset", controller.PasswordResetRequestPost)
	grp.Post("/reset-password", controller.PasswordResetPost)
	grp.Get("/users/me", controller.Auther.Protected(), controller.UsersMe)
}

func (a *AuthController) RegisterPost(c *fiber.Ctx) error {
	payload := RegisterUserMessage{}
	if err := c.BodyParser(&payload); err != nil {
		return renderError(c, a.Logger, errors.Wrap(err, errors.CategoryBadInput, "could not parse registration payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return renderValidationError(c, err)
	}

	user, err := a.Register.Execute(c.UserContext(), payload)
	if err != nil {
		return renderError(c, a.Logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

// LoginRequest payload. The username field accepts an email as well.
type LoginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := LoginRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return renderError(c, a.Logger, errors.Wrap(err, errors.CategoryBadInput, "could not parse login payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return renderValidationError(c, err)
	}

	pair, err := a.Auther.Login(c.UserContext(), payload.Username, payload.Password)
	if err != nil {
		return renderError(c, a.Logger, err)
	}

	return c.JSON(pair)
}

func (a *AuthController) VerificationRequestPost(c *fiber.Ctx) error {
	payload := VerificationRequestMessage{}
	if err := c.BodyParser(&payload); err != nil {
		return renderError(c, a.Logger, errors.Wrap(err, errors.CategoryBadInput, "could not parse verification request").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return renderValidationError(c, err)
	}

	if err := a.VerificationReq.Execute(c.UserContext(), payload); err != nil {
		return renderError(c, a.Logger, err)
	}

	return c.JSON(fiber.Map{"message": "Verification email has been sent successfully."})
}

func (a *AuthController) VerifyEmailPost(c *fiber.Ctx) error {
	payload := VerifyEmailMessage{}
	if err := c.BodyParser(&payload); err != nil {
		return renderError(c, a.Logger, errors.Wrap(err, errors.CategoryBadInput, "could not parse verification payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return renderValidationError(c, err)
	}

	if err := a.VerifyEmail.Execute(c.UserContext(), payload); err != nil {
		return renderError(c, a.Logger, err)
	}

	return c.JSON(fiber.Map{"message": "Email successfully verified."})
}

func (a *AuthController) PasswordResetRequestPost(c *fiber.Ctx) error {
	payload := PasswordResetRequestMessage{}
	if err := c.BodyParser(&payload); err != nil {
		return renderError(c, a.Logger, errors.Wrap(err, errors.CategoryBadInput, "could not parse password reset request").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return renderValidationError(c, err)
	}

	if err := a.PasswordResetReq.Execute(c.UserContext(), payload); err != nil {
		return renderError(c, a.Logger, err)
	}

	return c.JSON(fiber.Map{"message": "Password reset email has been sent successfully."})
}

func (a *AuthController) PasswordResetPost(c *fiber.Ctx) error {
	payload := FinalizePasswordResetMessage{}
	if err := c.BodyParser(&payload); err != nil {
		return renderError(c, a.Logger, errors.Wrap(err, errors.CategoryBadInput, "could not parse password reset payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return renderValidationError(c, err)
	}

	if err := a.PasswordReset.Execute(c.UserContext(), payload); err != nil {
		return renderError(c, a.Logger, err)
	}

	return c.JSON(fiber.Map{"message": "Password has been reset successfully."})
}

// UsersMe returns the identity established by the gate
func (a *AuthController) UsersMe(c *fiber.Ctx) error {
	user, ok := UserFromLocals(c)
	if !ok {
		return renderError(c, a.Logger, ErrUnauthenticated)
	}

	a.Logger.Debug("users/me accessed for user %d", user.ID)

	return c.JSON(user)
}

func renderValidationError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"detail": err.Error(),
		"code":   "VALIDATION_ERROR",
	})
}

// renderError maps the error taxonomy onto HTTP. Expected outcomes carry
// their own status and message; anything else is logged with full context
// and surfaced as a generic internal error.
func renderError(c *fiber.Ctx, logger Logger, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	status := richErr.Code
	if status == 0 {
		status = fiber.StatusInternalServerError
	}

	if status >= fiber.StatusInternalServerError {
		logger.Error(
			"request failed: %s category=%s details=%s",
			richErr.Message,
			richErr.Category,
			print.MaybePrettyJSON(richErr.Metadata),
		)
		return c.Status(status).JSON(fiber.Map{
			"detail": "An unexpected server error occurred",
			"code":   "INTERNAL_ERROR",
		})
	}

	return c.Status(status).JSON(fiber.Map{
		"detail": richErr.Message,
		"code":   richErr.TextCode,
	})
}
