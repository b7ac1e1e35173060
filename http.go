package uptask

import (
	"errors"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-uptask/middleware/jwtware"
)

type RouteAuthenticator struct {
	auth           Authenticator
	cfg            Config
	cookieDuration time.Duration
	Logger         Logger
	ErrorHandler   func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	cookieDuration := time.Duration(DefaultSessionHours) * time.Hour
	if cfg.GetTokenExpiration() > 0 {
		cookieDuration = time.Duration(cfg.GetTokenExpiration()) * time.Hour
	}

	a := &RouteAuthenticator{
		cfg:            cfg,
		auth:           auther,
		Logger:         defLogger{},
		cookieDuration: cookieDuration,
	}

	a.ErrorHandler = WriteError

	return a, nil
}

func (a RouteAuthenticator) GetCookieDuration() time.Duration {
	return a.cookieDuration
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

func (a *RouteAuthenticator) ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return jwtware.New(jwtware.Config{
			ErrorHandler: errorHandler,
			SigningKey: jwtware.SigningKey{
				Key:    []byte(cfg.GetSigningKey()),
				JWTAlg: "HS256",
			},
			AuthScheme:  cfg.GetAuthScheme(),
			ContextKey:  cfg.GetContextKey(),
			TokenLookup: cfg.GetTokenLookup(),
		})
	}
}

// Login exchanges credentials for a session token and mirrors it into an
// http-only cookie for browser clients
func (a *RouteAuthenticator) Login(ctx router.Context, identifier, password string) (string, error) {
	token, err := a.auth.Login(ctx.Context(), identifier, password)
	if err != nil {
		a.Logger.Error("Login error: %s", err)
		return "", err
	}

	a.setCookieToken(ctx, token, a.cookieDuration)
	return token, nil
}

func (a *RouteAuthenticator) Logout(ctx router.Context) {
	a.cookieDel(ctx, a.cfg.GetContextKey())
}

// MakeAuthErrorHandler builds the jwtware error handler. Optional auth lets
// the request through without a session, everything else collapses to 401.
func (a *RouteAuthenticator) MakeAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		if optional {
			a.Logger.Info("optional auth failed, proceeding: %v", err)
			return ctx.Next()
		}

		var richErr *goerrors.Error

		if IsTokenExpiredError(err) || IsMalformedError(err) {
			richErr = ErrSessionInvalid
		} else {
			richErr = goerrors.Wrap(err, goerrors.CategoryAuth, "invalid authentication token").
				WithCode(goerrors.CodeUnauthorized)
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

func (a *RouteAuthenticator) setCookieToken(c router.Context, val string, duration time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     a.cfg.GetContextKey(),
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

// WriteError renders any error as a JSON payload. Rich errors keep their
// status code and text code, everything else becomes a 500.
func WriteError(c router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	status := richErr.Code
	if status < http.StatusBadRequest || status > 599 {
		status = statusForCategory(richErr.Category)
	}

	return c.JSON(status, map[string]any{
		"error": map[string]any{
			"message":   richErr.Message,
			"text_code": richErr.TextCode,
		},
	})
}

func statusForCategory(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteValidationError renders ozzo validation failures as a 400 with the
// per-field breakdown
func WriteValidationError(c router.Context, err error) error {
	return c.JSON(http.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"message":   "validation failed",
			"text_code": "VALIDATION",
			"fields":    FormatValidationErrorToMap(err),
		},
	})
}

// FormatValidationErrorToMap flattens ozzo validation errors into a field to
// message map
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

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

func debugDump(enabled bool, label string, v any) {
	if !enabled {
		return
	}
	println("======= " + label + " ======")
	println(print.MaybePrettyJSON(v))
	println("=========================")
}
