package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
)

const (
	csrfCookieName = "travito.csrf-token"
	csrfHeaderName = "X-CSRF-Token"

	// CSRFFormField is the hidden form field that carries the token.
	CSRFFormField = "csrfToken"
)

// CSRFConfig configures the CSRF token cookie.
type CSRFConfig struct {
	CookieSecure bool
}

type csrfKey struct{}

// CSRF implements double-submit tokens: the token lives in a cookie and the
// same value must come back in the X-CSRF-Token header or the csrfToken form
// field of a state-changing request.
type CSRF struct {
	config CSRFConfig
}

func NewCSRF(config CSRFConfig) *CSRF {
	return &CSRF{config: config}
}

// CSRFToken returns the token Issue placed on the request context.
func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(csrfKey{}).(string)
	return token
}

// Issue makes sure the client holds a token cookie and exposes the token to
// handlers through CSRFToken so pages can embed it in their forms.
func (c *CSRF) Issue(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := cookieToken(r)
		if token == "" {
			var err error
			if token, err = generateCSRFToken(); err != nil {
				slog.ErrorContext(r.Context(), "failed to generate CSRF token", "error", err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     csrfCookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   86400,
				HttpOnly: true,
				Secure:   c.config.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfKey{}, token)))
	})
}

// Verify rejects state-changing requests whose submitted token does not
// match the cookie.
func (c *CSRF) Verify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isSafeMethod(r.Method) {
			next.ServeHTTP(w, r)
			return
		}
		expected := cookieToken(r)
		submitted := r.Header.Get(csrfHeaderName)
		if submitted == "" {
			submitted = r.PostFormValue(CSRFFormField)
		}
		if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(submitted)) != 1 {
			slog.WarnContext(r.Context(), "CSRF validation failed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Bool("has_cookie", expected != ""),
			)
			http.Error(w, "CSRF token validation failed", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HandleToken serves GET /api/auth/csrf for script clients that cannot read
// the HttpOnly cookie. It must run behind Issue.
func (c *CSRF) HandleToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{CSRFFormField: CSRFToken(r.Context())})
}

func cookieToken(r *http.Request) string {
	c, err := r.Cookie(csrfCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
