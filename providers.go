package travito

import (
	"fmt"
	"log/slog"
	"net/http"
)

type ProviderKind string

const (
	ProviderKindCredentials ProviderKind = "credentials"
	ProviderKindOAuth       ProviderKind = "oauth"
)

// ProviderHandlers are the HTTP entry points of an identity provider.
// Credentials providers only have a Callback (the form post target).
type ProviderHandlers struct {
	Login    http.HandlerFunc
	Callback http.HandlerFunc
}

// ProviderSpec declares a provider and whether its configuration is present.
// Factory is only called for enabled providers.
type ProviderSpec struct {
	ID      string
	Name    string
	Kind    ProviderKind
	Enabled bool
	Factory func() ProviderHandlers
}

// Provider is an enabled provider with its handlers built.
type Provider struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Kind ProviderKind `json:"type"`

	Handlers ProviderHandlers `json:"-"`
}

// ProviderRegistry is the set of providers enabled at startup. It is
// immutable once built.
type ProviderRegistry struct {
	active []Provider
	byID   map[string]int
}

// NewProviderRegistry filters specs to the enabled set and builds their handlers.
func NewProviderRegistry(specs []ProviderSpec) *ProviderRegistry {
	reg := &ProviderRegistry{byID: make(map[string]int)}
	for _, spec := range specs {
		if !spec.Enabled {
			slog.Debug("provider disabled", "provider", spec.ID)
			continue
		}
		if _, dup := reg.byID[spec.ID]; dup {
			slog.Warn("duplicate provider ignored", "provider", spec.ID)
			continue
		}
		p := Provider{ID: spec.ID, Name: spec.Name, Kind: spec.Kind}
		if spec.Factory != nil {
			p.Handlers = spec.Factory()
		}
		reg.byID[spec.ID] = len(reg.active)
		reg.active = append(reg.active, p)
		slog.Info("provider enabled", "provider", spec.ID, "kind", spec.Kind)
	}
	return reg
}

// Active returns the enabled providers in declaration order.
func (r *ProviderRegistry) Active() []Provider {
	out := make([]Provider, len(r.active))
	copy(out, r.active)
	return out
}

// Get returns an enabled provider by id.
func (r *ProviderRegistry) Get(id string) (Provider, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Provider{}, false
	}
	return r.active[i], true
}

// OAuth returns the enabled OAuth providers.
func (r *ProviderRegistry) OAuth() []Provider {
	var out []Provider
	for _, p := range r.active {
		if p.Kind == ProviderKindOAuth {
			out = append(out, p)
		}
	}
	return out
}

// CheckStartup applies the startup policy: in production a missing signing
// secret or an empty provider set is fatal, elsewhere it only warns.
func CheckStartup(production, hasSecret bool, reg *ProviderRegistry) (warnings []string, err error) {
	var problems []string
	if !hasSecret {
		problems = append(problems, "session signing secret is not set")
	}
	if reg == nil || len(reg.active) == 0 {
		problems = append(problems, "no identity provider is enabled")
	}
	if len(problems) == 0 {
		return nil, nil
	}
	if production {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, problems)
	}
	return problems, nil
}
