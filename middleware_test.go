package travito_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/travito/travito"
)

// staticSessions returns the same session for every request.
type staticSessions struct {
	session *travito.Session
	calls   int
}

func (s *staticSessions) GetSession(r *http.Request) *travito.Session {
	s.calls++
	return s.session
}

func TestMiddleware_Check(t *testing.T) {
	signedIn := &travito.Session{Subject: "user-1"}

	tests := []struct {
		name         string
		session      *travito.Session
		target       string
		requiresAuth bool
		want         string
	}{
		{"anonymous on protected page", nil, "/trips", true, "/auth/signin?callbackUrl=%2Ftrips"},
		{"anonymous keeps query in callback", nil, "/trips?tab=past", true, "/auth/signin?callbackUrl=%2Ftrips%3Ftab%3Dpast"},
		{"anonymous on public page", nil, "/about", false, ""},
		{"anonymous on sign-in page", nil, "/auth/signin", false, ""},
		{"signed in on protected page", signedIn, "/trips", true, ""},
		{"signed in on sign-in page", signedIn, "/auth/signin?callbackUrl=/trips", false, "/"},
		{"signed in on public page", signedIn, "/about", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &travito.Middleware{Sessions: &staticSessions{session: tt.session}}
			got := m.Check(httptest.NewRequest(http.MethodGet, tt.target, nil), tt.requiresAuth)
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestMiddleware_CustomURLs(t *testing.T) {
	m := &travito.Middleware{
		Sessions:         &staticSessions{},
		SignInURL:        "/login",
		CallbackURLParam: "next",
		HomeURL:          "/dashboard",
	}
	got := m.Check(httptest.NewRequest(http.MethodGet, "/trips", nil), true)
	if got != "/login?next=%2Ftrips" {
		t.Errorf("Expected /login?next=%%2Ftrips, got %s", got)
	}

	m.Sessions = &staticSessions{session: &travito.Session{Subject: "u"}}
	if got := m.Check(httptest.NewRequest(http.MethodGet, "/login", nil), false); got != "/dashboard" {
		t.Errorf("Expected /dashboard, got %s", got)
	}
}

func TestMiddleware_RequireSession(t *testing.T) {
	var reasons []string
	var seen *travito.Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = travito.SessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	sessions := &staticSessions{}
	m := &travito.Middleware{
		Sessions:   sessions,
		OnRedirect: func(reason string, r *http.Request) { reasons = append(reasons, reason) },
	}
	h := m.RequireSession(next)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/trips", nil))
	if rr.Code != http.StatusFound {
		t.Fatalf("Expected 302, got %d", rr.Code)
	}
	loc, _ := url.Parse(rr.Header().Get("Location"))
	if loc.Path != "/auth/signin" || loc.Query().Get("callbackUrl") != "/trips" {
		t.Errorf("Unexpected redirect %s", loc)
	}

	sessions.session = &travito.Session{Subject: "user-1"}
	sessions.calls = 0
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/trips", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if seen == nil || seen.Subject != "user-1" {
		t.Errorf("Expected the session in the handler context, got %+v", seen)
	}
	if sessions.calls != 1 {
		t.Errorf("Expected the session to be resolved once, got %d", sessions.calls)
	}

	if len(reasons) != 1 || reasons[0] != travito.RedirectAnonymous {
		t.Errorf("Expected one anonymous redirect, got %v", reasons)
	}
}

func TestMiddleware_RedirectIfAuthenticated(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	sessions := &staticSessions{session: &travito.Session{Subject: "user-1"}}
	var reasons []string
	m := &travito.Middleware{
		Sessions:   sessions,
		OnRedirect: func(reason string, r *http.Request) { reasons = append(reasons, reason) },
	}
	h := m.RedirectIfAuthenticated(next)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth/signin", nil))
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/" {
		t.Errorf("Expected redirect home, got %d %s", rr.Code, rr.Header().Get("Location"))
	}
	if len(reasons) != 1 || reasons[0] != travito.RedirectAuthenticated {
		t.Errorf("Expected one authenticated redirect, got %v", reasons)
	}

	sessions.session = nil
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth/signin", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("Expected anonymous visitors to see the sign-in page, got %d", rr.Code)
	}
}

func TestMiddleware_ExtractSession(t *testing.T) {
	sessions := &staticSessions{session: &travito.Session{Subject: "user-1"}}
	m := &travito.Middleware{Sessions: sessions}

	var seen *travito.Session
	inner := m.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = travito.SessionFromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	m.ExtractSession(inner).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/trips", nil))
	if seen == nil || seen.Subject != "user-1" {
		t.Fatalf("Expected the session in context, got %+v", seen)
	}

	// ExtractSession never redirects
	sessions.session = nil
	seen = nil
	rr = httptest.NewRecorder()
	m.ExtractSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = travito.SessionFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth/signin", nil))
	if rr.Code != http.StatusNoContent || seen != nil {
		t.Errorf("Expected anonymous pass-through, got %d %+v", rr.Code, seen)
	}
}
