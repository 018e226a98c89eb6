package access

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// Middleware is the route-guarding surface of the HTTP authenticator.
type Middleware interface {
	Impersonate(c router.Context, identifier string) error
	ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc
}

// HTTPAuthenticator is the cookie-session surface the controller talks to.
type HTTPAuthenticator interface {
	Middleware
	Login(c router.Context, payload LoginPayload) error
	Logout(c router.Context)
	SetSessionToken(c router.Context, token string)
	MakeClientRouteAuthErrorHandler(optionalAuth bool) func(c router.Context, err error) error
}

// GetRouterSession projects the claims a ProtectedRoute stored in the router
// context into a session object.
func GetRouterSession(c router.Context, key string) (*SessionObject, error) {
	cookie := c.Locals(key)
	if cookie == nil {
		return nil, ErrUnableToFindSession
	}

	claims, ok := cookie.(AuthClaims)
	if claims == nil || !ok {
		return nil, ErrUnableToDecodeSession
	}

	return sessionFromAuthClaims(claims)
}

// RegisterAuthRoutes mounts the authentication endpoints: credential login,
// logout, token inspection with optional renewal, and user registration.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	app.
		Post(controller.Routes.Login, controller.LoginPost).
		SetName("sign-in.post")

	app.
		Get(controller.Routes.Logout, controller.LogOut).
		SetName("sign-out.get")

	app.
		Get(controller.Routes.TokenCheck, controller.TokenCheck).
		SetName("token-check.get")

	app.
		Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("register.post")
}

type AuthControllerRoutes struct {
	Login      string
	Logout     string
	TokenCheck string
	Register   string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Routes       *AuthControllerRoutes
	Auther       HTTPAuthenticator
	Renewer      *Renewer
	Config       Config
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther HTTPAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerRenewer(renewer *Renewer) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Renewer = renewer
		return c
	}
}

func WithControllerConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = cfg
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		Routes: &AuthControllerRoutes{
			Login:      "/login",
			Logout:     "/logout",
			TokenCheck: "/token-check",
			Register:   "/register",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	if c.Config == nil {
		panic("Missing Config in auth controller...")
	}

	if c.Renewer == nil {
		panic("Missing Renewer in auth controller...")
	}

	return c
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Identifier
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: ", "error", err)
		return ctx.JSON(fiber.StatusBadRequest, router.ViewContext{
			"error": "failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(fiber.StatusBadRequest, router.ViewContext{
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		a.Logger.Debug("login payload: %s", print.MaybePrettyJSON(payload))
	}

	if err := a.Auther.Login(ctx, payload); err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, router.ViewContext{
		"success": true,
	})
}

func (a *AuthController) LogOut(ctx router.Context) error {
	a.Auther.Logout(ctx)
	return ctx.JSON(fiber.StatusOK, router.ViewContext{
		"success": true,
	})
}

// TokenCheck reports the decoded claims of the presented token. With
// ?renew=true and a token inside its renewal window, it also mints a
// replacement and swaps the session cookie.
func (a *AuthController) TokenCheck(ctx router.Context) error {
	extractors := GetTokenExtractors(a.Config.GetTokenLookup(), a.Config.GetAuthScheme())

	raw, err := ExtractRawToken(ctx, extractors)
	if err != nil {
		return a.renderError(ctx, err)
	}

	requested := isTruthy(ctx.Query("renew", ""))

	result, err := a.Renewer.Renew(ctx.Context(), raw, requested)
	if err != nil {
		return a.renderError(ctx, err)
	}

	if result.Renewed {
		a.Auther.SetSessionToken(ctx, result.Token)
	}

	return ctx.JSON(fiber.StatusOK, router.ViewContext{
		"user_id":    result.Claims.UserID(),
		"role":       result.Claims.Role(),
		"issued_at":  result.Claims.IssuedAt(),
		"expires_at": result.Claims.Expires(),
		"state":      result.State.String(),
		"renewed":    result.Renewed,
	})
}

// RegistrationCreatePayload is the registration payload
type RegistrationCreatePayload struct {
	Username        string `form:"username" json:"username"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(12, 128)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(12, 128),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload: ", "error", err)
		return ctx.JSON(fiber.StatusBadRequest, router.ViewContext{
			"error": "failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload: ", "error", err)
		return ctx.JSON(fiber.StatusBadRequest, router.ViewContext{
			"validation": FormatValidationErrorToMap(err),
		})
	}

	req := RegisterUserMessage{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
	}

	registerUser := RegisterUserHandler{repo: a.Repo}
	if err := registerUser.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register user error: ", "error", err)
		return a.renderError(ctx, err)
	}

	return ctx.JSON(fiber.StatusCreated, router.ViewContext{
		"success": true,
	})
}

func (a *AuthController) renderError(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		a.Logger.Error("unexpected controller error", "error", err)
		return ctx.JSON(fiber.StatusInternalServerError, router.ViewContext{
			"error": "internal server error",
		})
	}

	status := fiber.StatusInternalServerError
	switch richErr.Category {
	case goerrors.CategoryAuth:
		status = fiber.StatusUnauthorized
	case goerrors.CategoryAuthz:
		status = fiber.StatusForbidden
	case goerrors.CategoryNotFound:
		status = fiber.StatusNotFound
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		status = fiber.StatusBadRequest
	case goerrors.CategoryConflict:
		status = fiber.StatusConflict
	}

	return ctx.JSON(status, router.ViewContext{
		"error":     richErr.Message,
		"text_code": richErr.TextCode,
	})
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// FormatValidationErrorToMap flattens ozzo validation errors into a map that
// serializes cleanly for API clients.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}

	out["error"] = err.Error()
	return out
}

func isTruthy(v string) bool {
	switch v {
	case "1", "true", "yes":
		return true
	}
	return false
}

func defaultErrHandler(c router.Context, err error) error {
	return c.JSON(fiber.StatusInternalServerError, router.ViewContext{
		"message": err.Error(),
	})
}
