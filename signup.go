package travito

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// SignupResponse is the body of a successful registration
type SignupResponse struct {
	Message string     `json:"message"`
	User    SignupUser `json:"user"`
}

type SignupUser struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	EmailVerified *time.Time `json:"emailVerified"`
}

// HandleSignup processes user registration. It never signs the new user
// in; the client follows up with a credential sign-in.
func (a *LocalAuth) HandleSignup(w http.ResponseWriter, r *http.Request) {
	if a.CreateUser == nil {
		writeJSON(w, http.StatusInternalServerError, NewAuthError(ErrCodeInternal, "Signup not configured", ""))
		return
	}

	reg, parseErr := a.parseSignupForm(r)
	if parseErr != nil {
		a.handleSignupError(parseErr, w, r)
		return
	}

	if a.RateLimiter != nil && !a.RateLimiter.Allow(rateLimitKey(r, "signup")) {
		writeJSON(w, http.StatusTooManyRequests, NewAuthError(ErrCodeRateLimited, "Too many registration attempts", ""))
		return
	}

	user, err := a.CreateUser(r.Context(), reg)
	if a.OnSignup != nil {
		a.OnSignup(user, r, err)
	}
	if err != nil {
		a.handleSignupError(signupAuthError(err), w, r)
		return
	}

	writeJSON(w, http.StatusCreated, SignupResponse{
		Message: "User created successfully",
		User: SignupUser{
			ID:            user.ID,
			Name:          user.Name,
			Email:         user.Email,
			EmailVerified: user.EmailVerified,
		},
	})
}

func (a *LocalAuth) parseSignupForm(r *http.Request) (*Registration, *AuthError) {
	reg := &Registration{}
	if isJSONBody(r) {
		if err := json.NewDecoder(r.Body).Decode(reg); err != nil {
			return nil, NewAuthError(ErrCodeInvalidPayload, "Invalid request body", "").Wrap(ErrValidation)
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return nil, NewAuthError(ErrCodeInvalidPayload, "Invalid form data", "").Wrap(ErrValidation)
		}
		reg.Name = r.PostFormValue("name")
		reg.Email = r.PostFormValue("email")
		reg.Password = r.PostFormValue("password")
	}
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = strings.TrimSpace(reg.Email)
	return reg, nil
}

func signupAuthError(err error) *AuthError {
	var authErr *AuthError
	switch {
	case errors.As(err, &authErr):
		if authErr.Code == ErrCodeMissingField {
			return NewAuthError(ErrCodeMissingField, "Name, email, and password are required", authErr.Field).Wrap(err)
		}
		return authErr
	case errors.Is(err, ErrDuplicateAccount):
		return NewAuthError(ErrCodeEmailExists, "User with this email already exists", "email").Wrap(err)
	case errors.Is(err, ErrValidation):
		return NewAuthError(ErrCodeMissingField, "Name, email, and password are required", "").Wrap(err)
	default:
		slog.Error("registration error", "error", err)
		return NewAuthError(ErrCodeInternal, "An error occurred during registration", "").Wrap(err)
	}
}

// handleSignupError answers 400 for anything the user can correct and 500
// for everything else. Internal detail never reaches the body.
func (a *LocalAuth) handleSignupError(err *AuthError, w http.ResponseWriter, r *http.Request) {
	statusCode := http.StatusInternalServerError
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrDuplicateAccount) {
		statusCode = http.StatusBadRequest
	}
	writeJSON(w, statusCode, err)
}
