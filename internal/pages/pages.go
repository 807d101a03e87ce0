// Package pages serves the informational pages of the site. Protected pages
// go through the route guard; every page sees the current session.
package pages

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"

	"github.com/travito/travito"
	"github.com/travito/travito/internal/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page describes one page route.
type Page struct {
	Path         string
	Title        string
	Description  string
	RequiresAuth bool

	template string
}

const SignInPath = "/auth/signin"

// Table lists every page. The route guard reads RequiresAuth from here.
var Table = []Page{
	{Path: "/", Title: "Plan Your Perfect Journey", Description: "Plan trips, discover destinations and travel with confidence.", template: "home.html"},
	{Path: "/about", Title: "About Us", Description: "Learn more about Travito and our mission to make travel planning easy and enjoyable.", template: "about.html"},
	{Path: "/contact", Title: "Contact Us", Description: "Get in touch with the Travito team for any questions or feedback.", template: "contact.html"},
	{Path: "/destinations", Title: "Popular Destinations", Description: "Explore our most popular travel destinations and plan your next trip.", template: "destinations.html"},
	{Path: "/tours", Title: "Guided Tours", Description: "Book amazing guided tours for your next adventure with Travito.", template: "tours.html"},
	{Path: "/explore", Title: "Explore Destinations", Description: "Discover amazing travel destinations around the world with Travito.", template: "explore.html"},
	{Path: "/trips", Title: "My Trips", Description: "View and manage your upcoming and past trips with Travito.", RequiresAuth: true, template: "trips.html"},
	{Path: SignInPath, Title: "Sign In", Description: "Sign in to your Travito account.", template: "signin.html"},
}

// Lookup returns the page registered for path.
func Lookup(path string) (Page, bool) {
	for _, p := range Table {
		if p.Path == path {
			return p, true
		}
	}
	return Page{}, false
}

// Handler renders the pages.
type Handler struct {
	Guard     *travito.Middleware
	Providers *travito.ProviderRegistry
	Contacts  travito.ContactStore
	Logger    *slog.Logger

	// Protect wraps form posts, typically with CSRF verification.
	Protect func(http.Handler) http.Handler

	sanitizer *bluemonday.Policy
	templates map[string]*template.Template
	now       func() time.Time
}

// New parses the embedded templates. contacts may be nil, in which case
// contact submissions are logged and dropped.
func New(guard *travito.Middleware, providers *travito.ProviderRegistry, contacts travito.ContactStore, logger *slog.Logger) (*Handler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		Guard:     guard,
		Providers: providers,
		Contacts:  contacts,
		Logger:    logger,
		sanitizer: bluemonday.StrictPolicy(),
		templates: make(map[string]*template.Template),
		now:       time.Now,
	}
	for _, p := range Table {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+p.template)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", p.template, err)
		}
		h.templates[p.template] = t
	}
	return h, nil
}

// Mount registers every page on r.
func (h *Handler) Mount(r chi.Router) {
	for _, p := range Table {
		r.Method(http.MethodGet, p.Path, h.guarded(p, h.handlerFor(p)))
	}
	contact, _ := Lookup("/contact")
	var submit http.Handler = http.HandlerFunc(h.submitContact)
	if h.Protect != nil {
		submit = h.Protect(submit)
	}
	r.Method(http.MethodPost, "/contact", h.guarded(contact, submit))
}

func (h *Handler) guarded(p Page, next http.Handler) http.Handler {
	switch {
	case p.RequiresAuth:
		return h.Guard.RequireSession(next)
	case p.Path == SignInPath:
		return h.Guard.RedirectIfAuthenticated(next)
	default:
		return h.Guard.ExtractSession(next)
	}
}

func (h *Handler) handlerFor(p Page) http.Handler {
	switch p.Path {
	case "/":
		return h.render(p, func(r *http.Request) any { return homeData{Features: features} })
	case "/destinations":
		return h.render(p, destinationsData)
	case "/contact":
		return h.render(p, func(r *http.Request) any {
			return contactData{Sent: r.URL.Query().Get("sent") == "1", Info: contactInfo}
		})
	case SignInPath:
		return h.render(p, h.signInData)
	default:
		return h.render(p, nil)
	}
}

type view struct {
	Page      Page
	Session   *travito.Session
	CSRFToken string
	Year      int
	Data      any
}

func (h *Handler) newView(r *http.Request, p Page, data any) view {
	return view{
		Page:      p,
		Session:   travito.SessionFromContext(r.Context()),
		CSRFToken: middleware.CSRFToken(r.Context()),
		Year:      h.now().Year(),
		Data:      data,
	}
}

func (h *Handler) render(p Page, data func(r *http.Request) any) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var d any
		if data != nil {
			d = data(r)
		}
		h.write(w, r, http.StatusOK, p, h.newView(r, p, d))
	})
}

// write buffers the page so a template error still yields a clean 500.
func (h *Handler) write(w http.ResponseWriter, r *http.Request, status int, p Page, v view) {
	var buf bytes.Buffer
	if err := h.templates[p.template].ExecuteTemplate(&buf, "layout", v); err != nil {
		h.Logger.ErrorContext(r.Context(), "render page", "path", p.Path, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type feature struct {
	Title       string
	Description string
}

type homeData struct {
	Features []feature
}

var features = []feature{
	{"Plan Your Route", "Create detailed travel itineraries with multiple destinations and activities."},
	{"Discover Places", "Explore recommended destinations and points of interest around the world."},
	{"Navigate Easily", "Get turn-by-turn directions and travel times between locations."},
	{"Share Plans", "Collaborate with friends and share your travel plans with ease."},
	{"Stay Organized", "Keep track of your travel dates, bookings, and important details."},
	{"Travel Together", "Coordinate group trips and manage shared expenses."},
}
