package uptask

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// GetRouterSession extracts the verified session the JWT middleware stored in
// the router locals
func GetRouterSession(c router.Context, key string) (*SessionObject, error) {
	cookie := c.Locals(key)
	if cookie == nil {
		return nil, ErrUnableToFindSession
	}

	token, ok := cookie.(*jwt.Token)
	if token == nil || !ok {
		return nil, ErrUnableToDecodeSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if claims == nil || !ok {
		return nil, ErrUnableToParseData
	}

	return sessionFromClaims(claims)
}

// HTTPAuthenticator is the surface the controllers need from the route
// authenticator
type HTTPAuthenticator interface {
	Login(ctx router.Context, identifier, password string) (string, error)
	Logout(ctx router.Context)
	ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc
	MakeAuthErrorHandler(optional bool) func(router.Context, error) error
}

type AuthControllerRoutes struct {
	Register       string
	ConfirmAccount string
	Login          string
	RequestCode    string
	ForgotPassword string
	ValidateToken  string
	UpdatePassword string
	User           string
	Profile        string
	ChangePassword string
	CheckPassword  string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Notifier     Notifier
	Routes       *AuthControllerRoutes
	Auther       HTTPAuthenticator
	Config       Config
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		Notifier:     NoopNotifier{},
		ErrorHandler: WriteError,
		Routes: &AuthControllerRoutes{
			Register:       "/register",
			ConfirmAccount: "/confirm-account",
			Login:          "/login",
			RequestCode:    "/request-code",
			ForgotPassword: "/forgot-password",
			ValidateToken:  "/validate-token",
			UpdatePassword: "/update-password",
			User:           "/user",
			Profile:        "/profile",
			ChangePassword: "/password",
			CheckPassword:  "/check-password",
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

	return c
}

func WithAuthControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithAuthControllerAuther(auther HTTPAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithAuthControllerConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = cfg
		return c
	}
}

func WithAuthControllerNotifier(n Notifier) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if n != nil {
			c.Notifier = n
		}
		return c
	}
}

func WithAuthControllerLogger(l Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

// RegisterAuthRoutes mounts the account lifecycle API
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("auth.register")
	app.Post(controller.Routes.ConfirmAccount, controller.ConfirmAccount).
		SetName("auth.confirm")
	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login")
	app.Post(controller.Routes.RequestCode, controller.RequestCode).
		SetName("auth.request-code")
	app.Post(controller.Routes.ForgotPassword, controller.ForgotPassword).
		SetName("auth.forgot-password")
	app.Post(controller.Routes.ValidateToken, controller.ValidateToken).
		SetName("auth.validate-token")
	app.Post(controller.Routes.UpdatePassword+"/:token", controller.UpdatePasswordWithToken).
		SetName("auth.update-password")

	protected := controller.Auther.ProtectedRoute(
		controller.Config,
		controller.Auther.MakeAuthErrorHandler(false),
	)

	app.Get(controller.Routes.User, controller.CurrentUser, protected).
		SetName("auth.user")
	app.Put(controller.Routes.Profile, controller.UpdateProfile, protected).
		SetName("auth.profile")
	app.Post(controller.Routes.ChangePassword, controller.ChangePassword, protected).
		SetName("auth.password")
	app.Post(controller.Routes.CheckPassword, controller.CheckPassword, protected).
		SetName("auth.check-password")
}

// RegistrationCreatePayload is the account signup payload
type RegistrationCreatePayload struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload: ", "error", err)
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload: ", "error", err)
		return WriteValidationError(ctx, err)
	}

	debugDump(a.Debug, "AUTH REGISTER", payload)

	registerUser := NewRegisterUserHandler(a.Repo, a.Notifier).WithLogger(a.Logger)

	req := RegisterUserMessage{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
	}

	if err := registerUser.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register user error: ", "error", err)
		return WriteError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, map[string]string{
		"message": "Account created, check your email to confirm it",
	})
}

// TokenPayload carries a verification code
type TokenPayload struct {
	Token string `json:"token"`
}

func (r TokenPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
	)
}

func (a *AuthController) ConfirmAccount(ctx router.Context) error {
	payload := new(TokenPayload)

	if err := ctx.Bind(payload); err != nil {
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return WriteValidationError(ctx, err)
	}

	confirm := NewConfirmAccountHandler(a.Repo)

	if err := confirm.Execute(ctx.Context(), ConfirmAccountMessage{Token: payload.Token}); err != nil {
		a.Logger.Error("confirm account error: ", "error", err)
		return WriteError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"message": "Account confirmed, you can log in now",
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return WriteValidationError(ctx, err)
	}

	debugDump(a.Debug, "AUTH LOGIN", payload)

	token, err := a.Auther.Login(ctx, payload.Email, payload.Password)
	if err != nil {
		return WriteError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"token": token,
	})
}

// EmailPayload carries a lone account email
type EmailPayload struct {
	Email string `json:"email"`
}

func (r EmailPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// RequestCode mails a fresh confirmation code to an unconfirmed account
func (a *AuthController) RequestCode(ctx router.Context) error {
	payload := new(EmailPayload)

	if err := ctx.Bind(payload); err != nil {
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return WriteValidationError(ctx, err)
	}

	request := NewRequestConfirmationHandler(a.Repo, a.Notifier).WithLogger(a.Logger)

	if err := request.Execute(ctx.Context(), RequestConfirmationMessage{Email: payload.Email}); err != nil {
		a.Logger.Error("request code error: ", "error", err)
		return WriteError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"message": "A new confirmation code was sent to your email",
	})
}

// ForgotPassword starts the password reset flow
func (a *AuthController) ForgotPassword(ctx router.Context) error {
	payload := new(EmailPayload)

	if err := ctx.Bind(payload); err != nil {
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return WriteValidationError(ctx, err)
	}

	initReset := NewInitializePasswordResetHandler(a.Repo, a.Notifier).WithLogger(a.Logger)

	if err := initReset.Execute(ctx.Context(), InitializePasswordResetMessage{Email: payload.Email}); err != nil {
		a.Logger.Error("forgot password error: ", "error", err)
		return WriteError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"message": "Check your email for reset instructions",
	})
}

// ValidateToken checks a reset code without consuming it
func (a *AuthController) ValidateToken(ctx router.Context) error {
	payload := new(TokenPayload)

	if err := ctx.Bind(payload); err != nil {
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return WriteValidationError(ctx, err)
	}

	verify := NewVerifyPasswordResetHandler(a.Repo)

	if err := verify.Execute(ctx.Context(), VerifyPasswordResetMessage{Token: payload.Token}); err != nil {
		a.Logger.Error("validate token error: ", "error", err)
		return WriteError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"message": "Valid code, set your new password",
	})
}

// PasswordPayload carries a new password plus its confirmation
type PasswordPayload struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (r PasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

// UpdatePasswordWithToken finalizes a password reset
func (a *AuthController) UpdatePasswordWithToken(ctx router.Context) error {
	token := ctx.Param("token", "")
	payload := new(PasswordPayload)

	if err := ctx.Bind(payload); err != nil {
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return WriteValidationError(ctx, err)
	}

	finalize := NewFinalizePasswordResetHandler(a.Repo)

	input := FinalizePasswordResetMessage{
		Token:    token,
		Password: payload.Password,
	}

	if err := finalize.Execute(ctx.Context(), input); err != nil {
		a.Logger.Error("update password with token error: ", "error", err)
		return WriteError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"message": "Password updated, you can log in now",
	})
}

// CurrentUser returns the account behind the session
func (a *AuthController) CurrentUser(ctx router.Context) error {
	user, err := a.sessionUser(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, user)
}

// ProfilePayload updates name and email
type ProfilePayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (r ProfilePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) UpdateProfile(ctx router.Context) error {
	user, err := a.sessionUser(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	payload := new(ProfilePayload)

	if err := ctx.Bind(payload); err != nil {
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return WriteValidationError(ctx, err)
	}

	var res *UpdateProfileResponse
	update := NewUpdateProfileHandler(a.Repo)

	input := UpdateProfileMessage{
		UserID: user.ID,
		Name:   payload.Name,
		Email:  payload.Email,
		OnResponse: func(resp *UpdateProfileResponse) {
			res = resp
		},
	}

	if err := update.Execute(ctx.Context(), input); err != nil {
		a.Logger.Error("update profile error: ", "error", err)
		return WriteError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, res.User)
}

// ChangePasswordPayload swaps the password for a logged in account
type ChangePasswordPayload struct {
	CurrentPassword string `json:"current_password"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (r ChangePasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) ChangePassword(ctx router.Context) error {
	user, err := a.sessionUser(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	payload := new(ChangePasswordPayload)

	if err := ctx.Bind(payload); err != nil {
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return WriteValidationError(ctx, err)
	}

	change := NewChangePasswordHandler(a.Repo)

	input := ChangePasswordMessage{
		UserID:          user.ID,
		CurrentPassword: payload.CurrentPassword,
		Password:        payload.Password,
	}

	if err := change.Execute(ctx.Context(), input); err != nil {
		a.Logger.Error("change password error: ", "error", err)
		return WriteError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"message": "Password updated",
	})
}

// CheckPasswordPayload re-proves the current password before destructive
// actions
type CheckPasswordPayload struct {
	Password string `json:"password"`
}

func (r CheckPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) CheckPassword(ctx router.Context) error {
	user, err := a.sessionUser(ctx)
	if err != nil {
		return WriteError(ctx, err)
	}

	payload := new(CheckPasswordPayload)

	if err := ctx.Bind(payload); err != nil {
		return WriteError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return WriteValidationError(ctx, err)
	}

	if err := ComparePasswordAndHash(payload.Password, user.PasswordHash); err != nil {
		return WriteError(ctx, ErrMismatchedHashAndPassword)
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"message": "Password is correct",
	})
}

// sessionUser loads the full user record behind the verified session
func (a *AuthController) sessionUser(ctx router.Context) (*User, error) {
	session, err := GetRouterSession(ctx, a.Config.GetContextKey())
	if err != nil {
		return nil, ErrSessionInvalid
	}

	id, err := session.GetUserUUID()
	if err != nil {
		return nil, ErrSessionInvalid
	}

	user, err := a.Repo.Users().GetByID(ctx.Context(), id.String())
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load session user")
	}

	return user, nil
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return validation.NewError("validation_match", "values must match")
		}
		return nil
	}
}
