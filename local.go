package travito

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// CredentialsProviderID is the provider id of email/password sign-in.
const CredentialsProviderID = "credentials"

// Allows local email/password based authentication
type LocalAuth struct {
	// Validates credentials during sign-in
	ValidateCredentials CredentialsValidator

	// Creates a new user (for registration)
	CreateUser CreateUserFunc

	// Handler called after successful authentication, usually Auth.SaveUserAndRedirect
	HandleUser SignedInFunc

	// Optional rate limiter applied per client address and email
	RateLimiter RateLimiter

	// Builds the redirect for failed form sign-ins. Defaults to
	// /auth/signin?error=CredentialsSignin&callbackUrl=...
	SignInErrorURL func(code, callbackURL string) string

	// Optional observers
	OnLoginFailure func(email string, r *http.Request, err error)
	OnSignup       func(user *User, r *http.Request, err error)
}

// ServeHTTP handles credential sign-in posts (form or JSON)
func (a *LocalAuth) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if a.ValidateCredentials == nil || a.HandleUser == nil {
		writeJSON(w, http.StatusInternalServerError, NewAuthError(ErrCodeInternal, "Sign-in not configured", ""))
		return
	}

	creds, err := a.parseLoginForm(r)
	if err != nil {
		a.handleLoginError(creds, NewAuthError(ErrCodeInvalidPayload, err.Error(), "").Wrap(ErrValidation), w, r)
		return
	}

	if a.RateLimiter != nil && !a.RateLimiter.Allow(rateLimitKey(r, creds.Email)) {
		writeJSON(w, http.StatusTooManyRequests, NewAuthError(ErrCodeRateLimited, "Too many sign-in attempts", ""))
		return
	}

	user, err := a.ValidateCredentials(r.Context(), creds.Email, creds.Password)
	if err != nil || user == nil {
		if err == nil {
			err = ErrInvalidCredentials
		}
		if a.OnLoginFailure != nil {
			a.OnLoginFailure(creds.Email, r, err)
		}
		a.handleLoginError(creds, loginAuthError(err), w, r)
		return
	}

	if creds.CallbackURL != "" {
		r = r.WithContext(WithCallbackURL(r.Context(), creds.CallbackURL))
	}
	a.HandleUser(CredentialsProviderID, user, w, r)
}

func loginAuthError(err error) *AuthError {
	switch {
	case errors.Is(err, ErrValidation):
		return NewAuthError(ErrCodeMissingField, "Email and password are required", "").Wrap(err)
	case errors.Is(err, ErrInvalidCredentials):
		return NewAuthError(ErrCodeInvalidCreds, "Invalid credentials", "password").Wrap(err)
	default:
		slog.Error("error validating credentials", "error", err)
		return NewAuthError(ErrCodeInternal, "An error occurred during sign-in", "").Wrap(err)
	}
}

func (a *LocalAuth) parseLoginForm(r *http.Request) (*SignInCredentials, error) {
	creds := &SignInCredentials{}
	if isJSONBody(r) {
		if err := json.NewDecoder(r.Body).Decode(creds); err != nil {
			return creds, fmt.Errorf("invalid post body")
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return creds, fmt.Errorf("error parsing form")
		}
		creds.Email = r.PostFormValue("email")
		creds.Password = r.PostFormValue("password")
		creds.CallbackURL = r.PostFormValue("callbackUrl")
	}
	creds.Email = strings.TrimSpace(creds.Email)
	return creds, nil
}

// handleLoginError redirects form posts back to the sign-in page and
// answers JSON callers with {error, code, field}.
func (a *LocalAuth) handleLoginError(creds *SignInCredentials, err *AuthError, w http.ResponseWriter, r *http.Request) {
	if !isJSONBody(r) {
		callbackURL := ""
		if creds != nil {
			callbackURL = SanitizeCallbackURL(creds.CallbackURL)
		}
		http.Redirect(w, r, a.signInErrorURL(SignInErrorCredentials, callbackURL), http.StatusFound)
		return
	}
	// Use 400 for validation errors, 401 for invalid credentials
	statusCode := http.StatusUnauthorized
	switch {
	case errors.Is(err, ErrValidation):
		statusCode = http.StatusBadRequest
	case !errors.Is(err, ErrInvalidCredentials):
		statusCode = http.StatusInternalServerError
	}
	writeJSON(w, statusCode, err)
}

func (a *LocalAuth) signInErrorURL(code, callbackURL string) string {
	if a.SignInErrorURL != nil {
		return a.SignInErrorURL(code, callbackURL)
	}
	return (&Auth{}).SignInErrorURL(code, callbackURL)
}
