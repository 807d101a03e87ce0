package oauth2

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/travito/travito"
	"golang.org/x/oauth2"
)

// Keys of the handshake values kept in the flow session
const (
	stateSessionKey       = "oauth.state"
	callbackURLSessionKey = "oauth.callbackUrl"
)

var (
	ErrInvalidState   = errors.New("oauth state mismatch")
	ErrProviderDenied = errors.New("provider denied the authorization request")
	ErrCodeExchange   = errors.New("authorization code exchange failed")
	ErrUserInfo       = errors.New("failed to fetch user info")
)

// FailureFunc is called when the handshake fails before a user could be resolved.
type FailureFunc func(provider string, err error, w http.ResponseWriter, r *http.Request)

// userInfoFunc fetches the provider profile and returns it normalized to
// {"id", "email", "name", "picture"}.
type userInfoFunc func(ctx context.Context, token *oauth2.Token) (map[string]any, error)

// BaseOAuth2 implements the authorization code handshake shared by all
// providers. The state nonce and the callback URL live in the scs flow
// session, so Login and Callback must run behind Sessions.LoadAndSave.
type BaseOAuth2 struct {
	Provider     string
	ClientId     string
	ClientSecret string
	CallbackURL  string

	HandleUser travito.HandleUserFunc
	OnFailure  FailureFunc

	Sessions *scs.SessionManager

	// Optional client for token exchange and userinfo calls. Tests point it at a mock provider.
	HTTPClient *http.Client

	oauthConfig oauth2.Config
}

func NewBaseOAuth2(provider, clientId, clientSecret, callbackUrl string, sessions *scs.SessionManager, handleUser travito.HandleUserFunc) *BaseOAuth2 {
	if sessions == nil {
		sessions = NewFlowSessions(false)
	}
	return &BaseOAuth2{
		Provider:     provider,
		ClientId:     clientId,
		ClientSecret: clientSecret,
		CallbackURL:  callbackUrl,
		HandleUser:   handleUser,
		Sessions:     sessions,
		oauthConfig: oauth2.Config{
			ClientID:     clientId,
			ClientSecret: clientSecret,
			RedirectURL:  callbackUrl,
		},
	}
}

// Config exposes the underlying oauth2 configuration, e.g. to override the
// endpoint in tests.
func (b *BaseOAuth2) Config() *oauth2.Config {
	return &b.oauthConfig
}

// Login starts the handshake: it stores a fresh state nonce and the
// sanitized callbackUrl in the flow session and redirects to the provider.
func (b *BaseOAuth2) Login(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		b.fail(w, r, fmt.Errorf("generate state: %w", err))
		return
	}
	ctx := r.Context()
	// A new handshake always gets a new session token.
	if err := b.Sessions.RenewToken(ctx); err != nil {
		b.fail(w, r, fmt.Errorf("renew flow session: %w", err))
		return
	}
	b.Sessions.Put(ctx, stateSessionKey, state)
	b.Sessions.Put(ctx, callbackURLSessionKey, travito.SanitizeCallbackURL(r.URL.Query().Get("callbackUrl")))

	http.Redirect(w, r, b.oauthConfig.AuthCodeURL(state), http.StatusFound)
}

// callback verifies the state, exchanges the code, fetches the profile and
// hands it to HandleUser with the stored callback URL in the request context.
func (b *BaseOAuth2) callback(w http.ResponseWriter, r *http.Request, fetch userInfoFunc) {
	ctx := r.Context()
	expected := b.Sessions.PopString(ctx, stateSessionKey)
	callbackURL := b.Sessions.PopString(ctx, callbackURLSessionKey)
	if callbackURL != "" {
		r = r.WithContext(travito.WithCallbackURL(ctx, callbackURL))
		ctx = r.Context()
	}

	query := r.URL.Query()
	if e := query.Get("error"); e != "" {
		b.fail(w, r, fmt.Errorf("%w: %s", ErrProviderDenied, e))
		return
	}
	state := query.Get("state")
	if expected == "" || subtle.ConstantTimeCompare([]byte(state), []byte(expected)) != 1 {
		b.fail(w, r, ErrInvalidState)
		return
	}

	ctx = b.clientContext(ctx)
	token, err := b.oauthConfig.Exchange(ctx, query.Get("code"))
	if err != nil {
		b.fail(w, r, fmt.Errorf("%w: %w", ErrCodeExchange, err))
		return
	}
	userInfo, err := fetch(ctx, token)
	if err != nil {
		b.fail(w, r, fmt.Errorf("%w: %w", ErrUserInfo, err))
		return
	}
	b.HandleUser("oauth", b.Provider, token, userInfo, w, r)
}

// clientContext makes the oauth2 library use HTTPClient when one is set.
func (b *BaseOAuth2) clientContext(ctx context.Context) context.Context {
	if b.HTTPClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, b.HTTPClient)
}

func (b *BaseOAuth2) fail(w http.ResponseWriter, r *http.Request, err error) {
	slog.WarnContext(r.Context(), "oauth handshake failed", "provider", b.Provider, "error", err)
	if b.OnFailure != nil {
		b.OnFailure(b.Provider, err, w, r)
		return
	}
	http.Redirect(w, r, "/auth/signin?error="+travito.SignInErrorOAuthCallback, http.StatusFound)
}
