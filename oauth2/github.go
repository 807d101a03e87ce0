package oauth2

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/alexedwards/scs/v2"
	"github.com/travito/travito"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

type GithubOAuth2 struct {
	*BaseOAuth2

	// UserInfoURL and EmailsURL default to GitHub's API.
	// Can be overridden for testing.
	UserInfoURL string
	EmailsURL   string
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func NewGithubOAuth2(clientId, clientSecret, callbackUrl string, sessions *scs.SessionManager, handleUser travito.HandleUserFunc) *GithubOAuth2 {
	out := &GithubOAuth2{
		BaseOAuth2:  NewBaseOAuth2("github", clientId, clientSecret, callbackUrl, sessions, handleUser),
		UserInfoURL: "https://api.github.com/user",
		EmailsURL:   "https://api.github.com/user/emails",
	}
	out.oauthConfig.Endpoint = github.Endpoint
	out.oauthConfig.Scopes = []string{"read:user", "user:email"}
	return out
}

// Callback completes the GitHub handshake.
func (g *GithubOAuth2) Callback(w http.ResponseWriter, r *http.Request) {
	g.callback(w, r, g.getUserData)
}

func (g *GithubOAuth2) getUserData(ctx context.Context, token *oauth2.Token) (map[string]any, error) {
	var user githubUser
	if err := getJSON(ctx, &g.oauthConfig, token, g.UserInfoURL, &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("github user has no id")
	}

	email := user.Email
	if email == "" {
		// No public email on the profile; fall back to the primary verified address.
		var emails []githubEmail
		if err := getJSON(ctx, &g.oauthConfig, token, g.EmailsURL, &emails); err != nil {
			return nil, err
		}
		email = primaryEmail(emails)
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}
	return map[string]any{
		"id":      strconv.FormatInt(user.ID, 10),
		"email":   email,
		"name":    name,
		"picture": user.AvatarURL,
		"login":   user.Login,
	}, nil
}

func primaryEmail(emails []githubEmail) string {
	fallback := ""
	for _, e := range emails {
		if !e.Verified {
			continue
		}
		if e.Primary {
			return e.Email
		}
		if fallback == "" {
			fallback = e.Email
		}
	}
	return fallback
}
