// Package web serves the challenge's public pages, the OAuth connect
// flow, and the admin area.
package web

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"strava-challenge/internal/stats"
	"strava-challenge/internal/store"
)

const sessionName = "challenge_session"

// Store is the slice of the data layer the web surface reads and writes.
type Store interface {
	LoadSnapshot(ctx context.Context) (*stats.Snapshot, error)
	ReadAll(ctx context.Context) (map[int64]*store.Credential, error)
	Upsert(ctx context.Context, cred *store.Credential) error
}

// Admin covers the administrative actions routed through the collector's
// run lock.
type Admin interface {
	RemoveAthlete(ctx context.Context, athleteID int64) error
}

// Trigger requests an immediate collection run.
type Trigger interface {
	TriggerNow()
}

// Server hosts all HTTP routes.
type Server struct {
	store         Store
	admin         Admin
	trigger       Trigger
	oauthCfg      *oauth2.Config
	sessionStore  *sessions.CookieStore
	adminPassword string
	challengeName string
	logger        *zap.Logger

	landingTmpl *template.Template
	adminTmpl   *template.Template
	loginTmpl   *template.Template
}

// Config carries the server's wiring.
type Config struct {
	Store         Store
	Admin         Admin
	Trigger       Trigger
	OAuthConfig   *oauth2.Config
	SessionSecret string
	AdminPassword string
	ChallengeName string
	Logger        *zap.Logger
}

// NewServer builds the server and parses its templates.
func NewServer(cfg Config) *Server {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int((12 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &Server{
		store:         cfg.Store,
		admin:         cfg.Admin,
		trigger:       cfg.Trigger,
		oauthCfg:      cfg.OAuthConfig,
		sessionStore:  sessionStore,
		adminPassword: cfg.AdminPassword,
		challengeName: cfg.ChallengeName,
		logger:        cfg.Logger,
		landingTmpl: template.Must(template.New("landing").
			Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
			Parse(landingHTML)),
		adminTmpl:     template.Must(template.New("admin").Parse(adminHTML)),
		loginTmpl:     template.Must(template.New("login").Parse(loginHTML)),
	}
}

// Routes returns the chi router for the whole surface.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Get("/", s.handleLanding)
	r.Get("/stats", s.handleStats)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Get("/auth/connect", s.handleConnect)
	r.Get("/auth/callback", s.handleCallback)

	r.Get("/admin/login", s.handleLoginPage)
	r.Post("/admin/login", s.handleLogin)
	r.Post("/admin/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Get("/admin", s.handleAdmin)
		r.Post("/admin/remove/{athleteID}", s.handleRemove)
		r.Post("/admin/collect", s.handleCollectNow)
	})

	return r
}
