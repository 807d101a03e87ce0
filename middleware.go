package travito

import (
	"context"
	"net/http"
	"net/url"
)

// Reasons reported to Middleware.OnRedirect
const (
	RedirectAnonymous     = "anonymous"
	RedirectAuthenticated = "authenticated"
)

type sessionKey struct{}

// SessionGetter resolves the current session of a request. *Auth implements it.
type SessionGetter interface {
	GetSession(r *http.Request) *Session
}

// Middleware is the route guard. It holds no state of its own: every check
// reads the session from the request and branches.
type Middleware struct {
	Sessions SessionGetter

	// Sign-in page path, defaults to /auth/signin
	SignInURL string

	// Query parameter carrying the original path, defaults to callbackUrl
	CallbackURLParam string

	// Where authenticated visitors of the sign-in page are sent, defaults to /
	HomeURL string

	// Optional, called with the reason for every redirect issued
	OnRedirect func(reason string, r *http.Request)
}

func (m *Middleware) signInURL() string {
	if m.SignInURL != "" {
		return m.SignInURL
	}
	return "/auth/signin"
}

func (m *Middleware) callbackParam() string {
	if m.CallbackURLParam != "" {
		return m.CallbackURLParam
	}
	return "callbackUrl"
}

func (m *Middleware) homeURL() string {
	if m.HomeURL != "" {
		return m.HomeURL
	}
	return "/"
}

// Check returns where the request must be redirected, or "" when it may
// proceed. Anonymous requests for pages that require auth go to the sign-in
// page with the original path as callback; authenticated requests for the
// sign-in page go home.
func (m *Middleware) Check(r *http.Request, requiresAuth bool) string {
	target, _ := m.check(r, m.Sessions.GetSession(r), requiresAuth)
	return target
}

func (m *Middleware) check(r *http.Request, session *Session, requiresAuth bool) (target, reason string) {
	if session != nil && r.URL.Path == m.signInURL() {
		return m.homeURL(), RedirectAuthenticated
	}
	if session == nil && requiresAuth {
		return m.signInURL() + "?" + m.callbackParam() + "=" + url.QueryEscape(r.URL.RequestURI()), RedirectAnonymous
	}
	return "", ""
}

func (m *Middleware) guard(next http.Handler, requiresAuth bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := m.Sessions.GetSession(r)
		target, reason := m.check(r, session, requiresAuth)
		if target != "" {
			if m.OnRedirect != nil {
				m.OnRedirect(reason, r)
			}
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		if session != nil {
			r = r.WithContext(ContextWithSession(r.Context(), session))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSession redirects anonymous requests to the sign-in page.
func (m *Middleware) RequireSession(next http.Handler) http.Handler {
	return m.guard(next, true)
}

// RedirectIfAuthenticated sends signed-in visitors of the sign-in page home.
func (m *Middleware) RedirectIfAuthenticated(next http.Handler) http.Handler {
	return m.guard(next, false)
}

/**
 * Loads the current session, if any, into the request context so handlers
 * can read it with SessionFromContext.
 *
 * This never redirects. Use RequireSession for pages that need a user.
 */
func (m *Middleware) ExtractSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, m.withSession(r))
	})
}

func (m *Middleware) withSession(r *http.Request) *http.Request {
	if SessionFromContext(r.Context()) != nil {
		return r
	}
	session := m.Sessions.GetSession(r)
	if session == nil {
		return r
	}
	return r.WithContext(ContextWithSession(r.Context(), session))
}

func ContextWithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session loaded by the middleware, or nil.
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}
