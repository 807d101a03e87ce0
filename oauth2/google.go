package oauth2

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/travito/travito"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ErrUnverifiedEmail is returned when Google reports the account email as unverified.
var ErrUnverifiedEmail = errors.New("provider email is not verified")

type GoogleOAuth2 struct {
	*BaseOAuth2

	// UserInfoURL defaults to Google's v2 userinfo endpoint.
	UserInfoURL string
}

type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func NewGoogleOAuth2(clientId, clientSecret, callbackUrl string, sessions *scs.SessionManager, handleUser travito.HandleUserFunc) *GoogleOAuth2 {
	out := &GoogleOAuth2{
		BaseOAuth2:  NewBaseOAuth2("google", clientId, clientSecret, callbackUrl, sessions, handleUser),
		UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
	}
	out.oauthConfig.Endpoint = google.Endpoint
	out.oauthConfig.Scopes = []string{
		"https://www.googleapis.com/auth/userinfo.email",
		"https://www.googleapis.com/auth/userinfo.profile",
	}
	return out
}

// Callback completes the Google handshake.
func (g *GoogleOAuth2) Callback(w http.ResponseWriter, r *http.Request) {
	g.callback(w, r, g.getUserData)
}

func (g *GoogleOAuth2) getUserData(ctx context.Context, token *oauth2.Token) (map[string]any, error) {
	var user googleUser
	if err := getJSON(ctx, &g.oauthConfig, token, g.UserInfoURL, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, fmt.Errorf("google user has no id")
	}
	if user.Email != "" && !user.VerifiedEmail {
		return nil, ErrUnverifiedEmail
	}
	return map[string]any{
		"id":      user.ID,
		"email":   user.Email,
		"name":    user.Name,
		"picture": user.Picture,
	}, nil
}
