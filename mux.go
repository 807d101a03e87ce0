package travito

import (
	"context"
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// DefaultSessionCookieName is the cookie that carries the session token.
const DefaultSessionCookieName = "travito.session-token"

// HandleUserFunc is called by OAuth provider callbacks once the provider has
// confirmed an identity. userInfo is the normalized profile map.
type HandleUserFunc func(authtype string, provider string, token *oauth2.Token, userInfo map[string]any, w http.ResponseWriter, r *http.Request)

// SignedInFunc is called once a local user has been authenticated by any mechanism.
type SignedInFunc func(provider string, user *User, w http.ResponseWriter, r *http.Request)

// Auth ties the Session Issuer to HTTP: it sets and clears the session
// cookie, resolves the current session, and serves the session endpoints.
type Auth struct {
	Issuer *SessionIssuer

	// Resolves OAuth identities to local users. Required for OAuth providers.
	EnsureOAuthUser EnsureOAuthUserFunc

	// Enabled providers, reported by HandleProviders
	Providers *ProviderRegistry

	// Absolute base URL of the site, used to accept same-origin absolute
	// callback URLs and to build provider URLs.
	BaseURL string

	CookieName    string
	SecureCookies bool

	// Defaults to /auth/signin
	SignInURL string

	// Optional observers
	OnLoginSuccess func(provider string, user *User, r *http.Request)
	OnLoginFailure func(provider string, r *http.Request, err error)
}

func (a *Auth) cookieName() string {
	if a.CookieName != "" {
		return a.CookieName
	}
	return DefaultSessionCookieName
}

func (a *Auth) signInURL() string {
	if a.SignInURL != "" {
		return a.SignInURL
	}
	return "/auth/signin"
}

// GetSession returns the current session, looking at the session cookie
// first and then an Authorization: Bearer header. Returns nil when anonymous.
func (a *Auth) GetSession(r *http.Request) *Session {
	if s := SessionFromContext(r.Context()); s != nil {
		return s
	}
	if c, err := r.Cookie(a.cookieName()); err == nil && c.Value != "" {
		if s := a.Issuer.Session(r.Context(), c.Value); s != nil {
			return s
		}
	}
	if token := bearerToken(r); token != "" {
		return a.Issuer.Session(r.Context(), token)
	}
	return nil
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// SaveUserAndRedirect mints a session for user, sets the session cookie and
// sends the browser on to the callback URL. JSON callers get
// {"url": ..., "user": ...} instead of a redirect.
func (a *Auth) SaveUserAndRedirect(provider string, user *User, w http.ResponseWriter, r *http.Request) {
	token, expires, err := a.Issuer.Mint(user)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to mint session", "provider", provider, "error", err)
		a.FailSignIn(provider, err, w, r)
		return
	}
	a.setSessionCookie(w, token, expires)

	if a.OnLoginSuccess != nil {
		a.OnLoginSuccess(provider, user, r)
	}
	slog.InfoContext(r.Context(), "user signed in", "provider", provider, "user_id", user.ID)

	callbackURL := a.callbackURL(r)
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{
			"url":  callbackURL,
			"user": user.Public(),
		})
		return
	}
	http.Redirect(w, r, callbackURL, http.StatusFound)
}

// HandleOAuthUser is the HandleUserFunc given to OAuth providers. It resolves
// the provider identity to a local user and signs them in.
func (a *Auth) HandleOAuthUser(authtype string, provider string, token *oauth2.Token, userInfo map[string]any, w http.ResponseWriter, r *http.Request) {
	if a.EnsureOAuthUser == nil {
		a.FailSignIn(provider, ErrConfiguration, w, r)
		return
	}
	user, err := a.EnsureOAuthUser(r.Context(), provider, ProfileFromUserInfo(userInfo))
	if err != nil {
		a.FailSignIn(provider, err, w, r)
		return
	}
	a.SaveUserAndRedirect(provider, user, w, r)
}

// FailSignIn sends the browser back to the sign-in page with an error code.
// The callback URL survives so that a retry lands where the user started.
func (a *Auth) FailSignIn(provider string, err error, w http.ResponseWriter, r *http.Request) {
	code := SignInErrorCode(err)
	if code == SignInErrorCredentials && provider != CredentialsProviderID {
		// A provider profile without an email is not a password problem.
		code = SignInErrorOAuthCallback
	}
	if code == SignInErrorOAuthCallback || code == SignInErrorConfiguration {
		slog.ErrorContext(r.Context(), "sign-in failed", "provider", provider, "error", err)
	} else {
		slog.InfoContext(r.Context(), "sign-in rejected", "provider", provider, "error", err)
	}
	if a.OnLoginFailure != nil {
		a.OnLoginFailure(provider, r, err)
	}
	http.Redirect(w, r, a.SignInErrorURL(code, a.callbackURL(r)), http.StatusFound)
}

// SignInErrorURL builds /auth/signin?error=<code>&callbackUrl=<url>.
func (a *Auth) SignInErrorURL(code, callbackURL string) string {
	q := url.Values{}
	q.Set("error", code)
	if callbackURL != "" && callbackURL != "/" {
		q.Set("callbackUrl", callbackURL)
	}
	return a.signInURL() + "?" + q.Encode()
}

// HandleSignOut clears the session cookie, revokes the token when a
// revocation list is configured, and redirects to the callback URL.
func (a *Auth) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(a.cookieName()); err == nil && c.Value != "" {
		if err := a.Issuer.Revoke(r.Context(), c.Value); err != nil {
			// The cookie is cleared regardless; the token just stays valid until expiry.
			slog.WarnContext(r.Context(), "failed to revoke session", "error", err)
		}
	}
	a.clearSessionCookie(w)

	callbackURL := a.callbackURL(r)
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{"url": callbackURL})
		return
	}
	http.Redirect(w, r, callbackURL, http.StatusFound)
}

// HandleSession serves GET /api/auth/session: the current session as JSON,
// or an empty object when anonymous.
func (a *Auth) HandleSession(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	s := a.GetSession(r)
	if s == nil {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"id":    s.Subject,
			"name":  s.Name,
			"email": s.Email,
			"image": s.Image,
		},
		"expires": s.Expires.UTC().Format(time.RFC3339),
	})
}

// HandleProviders serves GET /api/auth/providers.
func (a *Auth) HandleProviders(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{}
	if a.Providers != nil {
		for _, p := range a.Providers.Active() {
			entry := map[string]any{
				"id":          p.ID,
				"name":        p.Name,
				"type":        p.Kind,
				"callbackUrl": a.BaseURL + "/api/auth/callback/" + p.ID,
			}
			if p.Kind == ProviderKindOAuth {
				entry["signinUrl"] = a.BaseURL + "/api/auth/signin/" + p.ID
			} else {
				entry["signinUrl"] = a.BaseURL + a.signInURL()
			}
			out[p.ID] = entry
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *Auth) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName(),
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   a.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *Auth) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   a.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// callbackURL picks the post-sign-in destination: one carried in the request
// context by an OAuth flow, else a callbackUrl form or query value.
func (a *Auth) callbackURL(r *http.Request) string {
	raw := CallbackURLFromContext(r.Context())
	if raw == "" {
		raw = r.URL.Query().Get("callbackUrl")
	}
	if raw == "" && r.Method == http.MethodPost && isForm(r) {
		raw = r.PostFormValue("callbackUrl")
	}
	return a.SanitizeCallbackURL(raw)
}

// SanitizeCallbackURL accepts same-origin absolute URLs (rewritten to their
// path) and relative paths. Anything else becomes "/".
func (a *Auth) SanitizeCallbackURL(raw string) string {
	if a.BaseURL != "" && strings.HasPrefix(raw, a.BaseURL) {
		raw = strings.TrimPrefix(raw, strings.TrimSuffix(a.BaseURL, "/"))
		if raw == "" {
			return "/"
		}
	}
	return SanitizeCallbackURL(raw)
}

// SanitizeCallbackURL returns raw when it is a relative path on this site,
// otherwise "/".
func SanitizeCallbackURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return raw
}

type callbackURLKey struct{}

// WithCallbackURL carries the post-sign-in destination through an OAuth
// callback into SaveUserAndRedirect.
func WithCallbackURL(ctx context.Context, callbackURL string) context.Context {
	return context.WithValue(ctx, callbackURLKey{}, callbackURL)
}

func CallbackURLFromContext(ctx context.Context) string {
	v, _ := ctx.Value(callbackURLKey{}).(string)
	return v
}

func isForm(r *http.Request) bool {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return ct == "application/x-www-form-urlencoded" || ct == "multipart/form-data"
}

func isJSONBody(r *http.Request) bool {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return ct == "application/json"
}

// wantsJSON reports whether the caller is an API client rather than a browser form.
func wantsJSON(r *http.Request) bool {
	if isJSONBody(r) {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("failed to write json response", "error", err)
	}
}
