package access

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeIncorrectCredentials = "INCORRECT_CREDENTIALS"
	textCodeTokenExpired         = "TOKEN_EXPIRED"
	textCodeTokenMalformed       = "TOKEN_MALFORMED"
	textCodeRecordNotFound       = "RECORD_NOT_FOUND"
	textCodeUnauthorized         = "UNAUTHORIZED"
)

// The error taxonomy is closed: every failure the core reports at the
// boundary is one of these four families. None of them are retried.

// ErrIncorrectCredentials is returned when password verification fails.
var ErrIncorrectCredentials = goerrors.New("incorrect credentials", goerrors.CategoryAuth).
	WithTextCode(textCodeIncorrectCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned on the strict validation path when a token's
// expiry has passed.
var ErrTokenExpired = goerrors.New("bearer token is expired", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned when signature verification fails or the
// payload cannot be decoded.
var ErrTokenMalformed = goerrors.New("bearer token is tampered or invalid", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrRecordNotFound is returned when an identity or resource is absent.
var ErrRecordNotFound = goerrors.New("record not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeRecordNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrUnauthorized is returned when the authorization engine denies an action.
var ErrUnauthorized = goerrors.New("you cannot perform this action", goerrors.CategoryAuthz).
	WithTextCode(textCodeUnauthorized).
	WithCode(goerrors.CodeForbidden)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found")

// ErrUnableToFindSession is the error when our request has no cookie
var ErrUnableToFindSession = errors.New("unable to find session")

// ErrUnableToDecodeSession unable to decode JWT from session cookie
var ErrUnableToDecodeSession = errors.New("unable to decode session")

// ErrUnableToParseData parse error
var ErrUnableToParseData = errors.New("unable to parse data")

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = errors.New("password must not be empty")

// ErrTooManyLoginAttempts is returned when an identity is inside the
// login attempt cool down period
var ErrTooManyLoginAttempts = goerrors.New("too many login attempts", goerrors.CategoryAuth).
	WithTextCode("TOO_MANY_LOGIN_ATTEMPTS").
	WithCode(goerrors.CodeUnauthorized)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for tampered or undecodable tokens
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == textCodeTokenMalformed {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed")
}

// IsUnauthorizedError reports whether err is an authorization engine denial.
func IsUnauthorizedError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
