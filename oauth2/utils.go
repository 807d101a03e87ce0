package oauth2

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"golang.org/x/oauth2"
)

// FlowSessionLifetime bounds how long a user may take at the provider.
const FlowSessionLifetime = 10 * time.Minute

// NewFlowSessions returns a session manager for OAuth handshakes. It uses
// the scs in-memory store; the cookie must survive the top-level redirect
// back from the provider, hence SameSite=Lax.
func NewFlowSessions(secure bool) *scs.SessionManager {
	sm := scs.New()
	sm.Lifetime = FlowSessionLifetime
	sm.IdleTimeout = FlowSessionLifetime
	sm.Cookie.Name = "travito.oauth-flow"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Path = "/api/auth"
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = secure
	sm.Cookie.Persist = false
	return sm
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// getJSON performs an authenticated GET and decodes the JSON response into out.
func getJSON(ctx context.Context, config *oauth2.Config, token *oauth2.Token, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	// config.Client picks up oauth2.HTTPClient from ctx and adds the bearer header.
	response, err := config.Client(ctx, token).Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return fmt.Errorf("request %s: status %d: %s", url, response.StatusCode, body)
	}
	if err := json.NewDecoder(io.LimitReader(response.Body, 1<<20)).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
