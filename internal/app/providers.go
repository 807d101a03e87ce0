package app

import (
	"net/http"

	"github.com/travito/travito"
	travitooauth "github.com/travito/travito/oauth2"
)

// providerSpecs declares every identity provider. Which ones are enabled
// is decided here, once, from the configuration.
func (a *App) providerSpecs(client *http.Client) []travito.ProviderSpec {
	cfg := a.Config
	return []travito.ProviderSpec{
		{
			ID:      travito.CredentialsProviderID,
			Name:    "Credentials",
			Kind:    travito.ProviderKindCredentials,
			Enabled: true,
			Factory: func() travito.ProviderHandlers {
				return travito.ProviderHandlers{Callback: a.Local.ServeHTTP}
			},
		},
		{
			ID:      "github",
			Name:    "GitHub",
			Kind:    travito.ProviderKindOAuth,
			Enabled: cfg.GitHubEnabled(),
			Factory: func() travito.ProviderHandlers {
				gh := travitooauth.NewGithubOAuth2(cfg.GitHubClientID, cfg.GitHubClientSecret,
					a.callbackURL("github"), a.flow, a.Auth.HandleOAuthUser)
				gh.OnFailure = a.Auth.FailSignIn
				gh.HTTPClient = client
				return travito.ProviderHandlers{Login: gh.Login, Callback: gh.Callback}
			},
		},
		{
			ID:      "google",
			Name:    "Google",
			Kind:    travito.ProviderKindOAuth,
			Enabled: cfg.GoogleEnabled(),
			Factory: func() travito.ProviderHandlers {
				g := travitooauth.NewGoogleOAuth2(cfg.GoogleClientID, cfg.GoogleClientSecret,
					a.callbackURL("google"), a.flow, a.Auth.HandleOAuthUser)
				g.OnFailure = a.Auth.FailSignIn
				g.HTTPClient = client
				return travito.ProviderHandlers{Login: g.Login, Callback: g.Callback}
			},
		},
	}
}

func (a *App) callbackURL(provider string) string {
	return a.Config.BaseURL + "/api/auth/callback/" + provider
}
