package app

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/travito/travito"
	"github.com/travito/travito/internal/metrics"
	"github.com/travito/travito/internal/middleware"
	"github.com/travito/travito/internal/pages"
)

// routes builds the router.
//
// Middleware order: Recovery -> SecurityHeaders -> ExtractSession -> CSRF
// issue -> Logging.
// The session is loaded once per request so the log line carries the user
// and the route guard does not verify the token again. The OAuth login and
// callback routes additionally run inside the flow session.
func (a *App) routes(pageHandler *pages.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware(a.Config.CookieSecure))
	r.Use(a.Guard.ExtractSession)
	r.Use(a.csrf.Issue)
	r.Use(middleware.NewLoggingMiddleware(a.logger, a.Metrics))

	r.Get("/healthz", a.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.SetupMetricsRoute(a.registry))

	r.Route("/api/auth", func(r chi.Router) {
		r.Get("/session", a.Auth.HandleSession)
		r.Get("/providers", a.Auth.HandleProviders)
		r.Get("/csrf", a.csrf.HandleToken)
		r.Post("/register", a.Local.HandleSignup)
		r.With(a.csrf.Verify).Post("/signout", a.Auth.HandleSignOut)
		r.With(a.csrf.Verify).Post("/callback/{provider}", a.providerPost)

		r.Group(func(r chi.Router) {
			r.Use(a.flow.LoadAndSave)
			r.Get("/signin/{provider}", a.providerLogin)
			r.Get("/callback/{provider}", a.providerCallback)
		})
	})

	if !a.Config.IsProduction() {
		r.Get("/api/env-test", a.handleEnvTest)
	}

	pageHandler.Mount(r)
	return r
}

func (a *App) provider(r *http.Request, kind travito.ProviderKind) (travito.Provider, bool) {
	p, ok := a.Providers.Get(chi.URLParam(r, "provider"))
	if !ok || p.Kind != kind {
		return travito.Provider{}, false
	}
	return p, true
}

// providerLogin starts an OAuth handshake.
func (a *App) providerLogin(w http.ResponseWriter, r *http.Request) {
	p, ok := a.provider(r, travito.ProviderKindOAuth)
	if !ok || p.Handlers.Login == nil {
		http.NotFound(w, r)
		return
	}
	p.Handlers.Login(w, r)
}

// providerCallback receives the redirect back from an OAuth provider.
func (a *App) providerCallback(w http.ResponseWriter, r *http.Request) {
	p, ok := a.provider(r, travito.ProviderKindOAuth)
	if !ok || p.Handlers.Callback == nil {
		http.NotFound(w, r)
		return
	}
	p.Handlers.Callback(w, r)
}

// providerPost receives credential sign-in posts.
func (a *App) providerPost(w http.ResponseWriter, r *http.Request) {
	p, ok := a.provider(r, travito.ProviderKindCredentials)
	if !ok || p.Handlers.Callback == nil {
		http.NotFound(w, r)
		return
	}
	p.Handlers.Callback(w, r)
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := a.db.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		a.logger.ErrorContext(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleEnvTest reports which recognized variables are set. Values are never echoed.
func (a *App) handleEnvTest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Config.EnvReport())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
