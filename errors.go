package uptask

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// TextCodeTokenExpired marks verification tokens redeemed outside their window
const TextCodeTokenExpired = "TOKEN_EXPIRED"

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound).
	WithTextCode("IDENTITY_NOT_FOUND")

// ErrEmailTaken is returned when a registration or profile update collides
// with an existing account's email
var ErrEmailTaken = goerrors.New("email is already registered", goerrors.CategoryConflict).
	WithCode(goerrors.CodeConflict).
	WithTextCode("EMAIL_TAKEN")

// ErrMismatchedHashAndPassword is the single bad-credential outcome
var ErrMismatchedHashAndPassword = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode("BAD_CREDENTIAL")

// ErrAccountNotConfirmed gates login until the account's email is confirmed.
// Login reports it before the password is ever checked.
var ErrAccountNotConfirmed = goerrors.New("account has not been confirmed, we sent a new confirmation code", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode("ACCOUNT_NOT_CONFIRMED")

// ErrAlreadyConfirmed is returned when a confirmation code is requested for
// an account that already went through confirmation
var ErrAlreadyConfirmed = goerrors.New("account is already confirmed", goerrors.CategoryConflict).
	WithCode(goerrors.CodeConflict).
	WithTextCode("ALREADY_CONFIRMED")

// ErrTokenNotFound is returned when a verification token does not exist,
// which includes tokens already redeemed
var ErrTokenNotFound = goerrors.New("invalid verification token", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound).
	WithTextCode("TOKEN_NOT_FOUND")

// ErrTokenExpired is returned when a verification token is present but its
// validity window has elapsed
var ErrTokenExpired = goerrors.New("verification token has expired", goerrors.CategoryValidation).
	WithTextCode(TextCodeTokenExpired)

// ErrSessionInvalid collapses every session token failure (bad signature,
// malformed payload, expired) into a single outcome so we leak nothing about
// which check failed
var ErrSessionInvalid = goerrors.New("invalid or expired session", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode("SESSION_INVALID")

// ErrProjectNotFound doubles as the authorization denial for projects: a
// stranger asking for a project by id gets the same answer as asking for a
// project that does not exist
var ErrProjectNotFound = goerrors.New("project not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound).
	WithTextCode("PROJECT_NOT_FOUND")

// ErrTaskNotFound covers both missing tasks and tasks outside the requested project
var ErrTaskNotFound = goerrors.New("task not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound).
	WithTextCode("TASK_NOT_FOUND")

// ErrNoteNotFound covers missing notes and notes the actor may not touch
var ErrNoteNotFound = goerrors.New("note not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound).
	WithTextCode("NOTE_NOT_FOUND")

// ErrNoEmptyString guards against hashing empty passwords
var ErrNoEmptyString = errors.New("value should not be an empty string")

// ErrUnableToFindSession is the error when our reequest has no cookie
var ErrUnableToFindSession = errors.New("unable to find session")

// ErrUnableToDecodeSession unable to decode JWT from session cookie
var ErrUnableToDecodeSession = errors.New("unable to decode session")

// ErrUnableToParseData parse error
var ErrUnableToParseData = errors.New("unable to parse data")

// IsInvalidTokenError reports whether err is one of the verification token
// redemption failures (absent or expired)
func IsInvalidTokenError(err error) bool {
	return errors.Is(err, ErrTokenNotFound) || errors.Is(err, ErrTokenExpired)
}

// IsTokenExpiredError will check for expired session tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
