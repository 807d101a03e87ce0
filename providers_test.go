package travito_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/travito/travito"
)

func TestProviderRegistry(t *testing.T) {
	built := map[string]int{}
	factory := func(id string) func() travito.ProviderHandlers {
		return func() travito.ProviderHandlers {
			built[id]++
			return travito.ProviderHandlers{Login: func(w http.ResponseWriter, r *http.Request) {}}
		}
	}

	reg := travito.NewProviderRegistry([]travito.ProviderSpec{
		{ID: "credentials", Name: "Credentials", Kind: travito.ProviderKindCredentials, Enabled: true, Factory: factory("credentials")},
		{ID: "github", Name: "GitHub", Kind: travito.ProviderKindOAuth, Enabled: false, Factory: factory("github")},
		{ID: "google", Name: "Google", Kind: travito.ProviderKindOAuth, Enabled: true, Factory: factory("google")},
		{ID: "google", Name: "Google again", Kind: travito.ProviderKindOAuth, Enabled: true, Factory: factory("google")},
	})

	active := reg.Active()
	if len(active) != 2 || active[0].ID != "credentials" || active[1].ID != "google" {
		t.Fatalf("Expected [credentials google], got %+v", active)
	}
	if built["github"] != 0 {
		t.Error("Disabled providers must not be built")
	}
	if built["google"] != 1 {
		t.Errorf("Expected google to be built once, got %d", built["google"])
	}

	if _, ok := reg.Get("github"); ok {
		t.Error("Expected github to be absent")
	}
	p, ok := reg.Get("google")
	if !ok || p.Name != "Google" || p.Handlers.Login == nil {
		t.Errorf("Expected the first google spec with handlers, got %+v", p)
	}

	oauth := reg.OAuth()
	if len(oauth) != 1 || oauth[0].ID != "google" {
		t.Errorf("Expected only google as OAuth provider, got %+v", oauth)
	}

	// Active hands out a copy
	active[0].ID = "mutated"
	if reg.Active()[0].ID != "credentials" {
		t.Error("Registry must not be mutable through Active")
	}
}

func TestCheckStartup(t *testing.T) {
	credentialsOnly := travito.NewProviderRegistry([]travito.ProviderSpec{
		{ID: "credentials", Kind: travito.ProviderKindCredentials, Enabled: true},
	})
	empty := travito.NewProviderRegistry(nil)

	tests := []struct {
		name         string
		production   bool
		hasSecret    bool
		reg          *travito.ProviderRegistry
		wantErr      bool
		wantWarnings int
	}{
		{"production, fully configured", true, true, credentialsOnly, false, 0},
		{"production, no secret", true, false, credentialsOnly, true, 0},
		{"production, no providers", true, true, empty, true, 0},
		{"development, no secret", false, false, credentialsOnly, false, 1},
		{"development, nothing", false, false, empty, false, 2},
		{"development, fully configured", false, true, credentialsOnly, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings, err := travito.CheckStartup(tt.production, tt.hasSecret, tt.reg)
			if tt.wantErr {
				if !errors.Is(err, travito.ErrConfiguration) {
					t.Errorf("Expected ErrConfiguration, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(warnings) != tt.wantWarnings {
				t.Errorf("Expected %d warnings, got %v", tt.wantWarnings, warnings)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "10.0.0.1:5555", "10.0.0.1"},
		{"forwarded for, first hop", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2"}, "10.0.0.1:5555", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.1:5555", "198.51.100.4"},
		{"remote without port", nil, "10.0.0.9", "10.0.0.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := travito.ClientIP(r); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}
