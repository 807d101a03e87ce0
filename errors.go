package travito

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation covers missing or malformed input the user can correct.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidCredentials is returned for a wrong email/password pair and for
	// password sign-in attempts against OAuth-only accounts alike.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrDuplicateAccount = errors.New("user with this email already exists")

	// ErrAccountNotLinked is returned when an OAuth sign-in presents an email
	// that already belongs to an account without a link to that provider.
	ErrAccountNotLinked = errors.New("account exists with a different sign-in method")

	ErrPersistence   = errors.New("persistence failure")
	ErrConfiguration = errors.New("configuration error")

	ErrUserNotFound    = errors.New("user not found")
	ErrAccountNotFound = errors.New("account not found")
)

// Error codes used in JSON error bodies
const (
	ErrCodeMissingField   = "missing_field"
	ErrCodeInvalidEmail   = "invalid_email"
	ErrCodeTooLong        = "too_long"
	ErrCodeInvalidCreds   = "invalid_credentials"
	ErrCodeEmailExists    = "duplicate_account"
	ErrCodeNotLinked      = "account_not_linked"
	ErrCodeRateLimited    = "rate_limit_exceeded"
	ErrCodeInternal       = "internal_error"
	ErrCodeInvalidPayload = "parse_error"
)

// Error codes carried on the sign-in page redirect (?error=...)
const (
	SignInErrorCredentials   = "CredentialsSignin"
	SignInErrorNotLinked     = "OAuthAccountNotLinked"
	SignInErrorOAuthCallback = "OAuthCallback"
	SignInErrorConfiguration = "Configuration"
)

// AuthError is the user-facing rendering of an authentication failure.
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Field   string `json:"field,omitempty"`

	err error
}

func NewAuthError(code, message, field string) *AuthError {
	return &AuthError{Code: code, Message: message, Field: field}
}

func (e *AuthError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AuthError) Unwrap() error { return e.err }

// Wrap attaches the sentinel this AuthError renders.
func (e *AuthError) Wrap(err error) *AuthError {
	e.err = err
	return e
}

// SignInErrorCode maps an authentication failure to the code shown on the sign-in page.
func SignInErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrAccountNotLinked):
		return SignInErrorNotLinked
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrValidation):
		return SignInErrorCredentials
	case errors.Is(err, ErrConfiguration):
		return SignInErrorConfiguration
	default:
		return SignInErrorOAuthCallback
	}
}
