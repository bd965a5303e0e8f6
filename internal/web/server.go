package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/Chqrety/reservation/internal/backend"
	"github.com/Chqrety/reservation/internal/config"
	"github.com/Chqrety/reservation/internal/events"
	"github.com/Chqrety/reservation/internal/models"
	"github.com/Chqrety/reservation/internal/page"
	"github.com/Chqrety/reservation/internal/session"

	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templateFS embed.FS

// pages lists the page templates; each is parsed together with base.html.
var pages = []string{
	"landing", "book", "check", "login", "dashboard",
	"categories", "locations", "reservations", "confirm", "error",
}

// Deps are the collaborators of the web front-end.
type Deps struct {
	Config   config.Config
	Backend  *backend.Backend
	Sessions *session.Manager
	Registry *page.Registry
	Bus      *events.Bus
	Logger   *zerolog.Logger
}

// Server renders the public booking pages and the admin back-office.
type Server struct {
	cfg       config.Config
	backend   *backend.Backend
	sessions  *session.Manager
	registry  *page.Registry
	bus       *events.Bus
	limiter   *rateLimiter
	templates map[string]*template.Template
	mux       *http.ServeMux
	server    *http.Server
	logger    zerolog.Logger
	now       func() time.Time
}

func NewServer(deps Deps) (*Server, error) {
	l := zerolog.Nop()
	if deps.Logger != nil {
		l = deps.Logger.With().Str("component", "web").Logger()
	}
	registry := deps.Registry
	if registry == nil {
		registry = page.NewRegistry()
	}
	trusted, err := deps.Config.HTTP.TrustedProxyPrefixes()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      deps.Config,
		backend:  deps.Backend,
		sessions: deps.Sessions,
		registry: registry,
		bus:      deps.Bus,
		limiter:  newRateLimiter(deps.Config.RateLimit.CheckOrderRPS, deps.Config.RateLimit.CheckOrderBurst, trusted),
		mux:      http.NewServeMux(),
		logger:   l,
		now:      time.Now,
	}

	if err := s.parseTemplates(); err != nil {
		return nil, err
	}
	s.registerRoutes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Config.HTTP.Port),
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("GET /{$}", s.public(s.handleLanding))
	s.mux.HandleFunc("GET /locations/{id}/book", s.public(s.handleBookForm))
	s.mux.HandleFunc("POST /locations/{id}/book", s.public(s.handleBookSubmit))
	s.mux.HandleFunc("GET /check", s.public(s.handleCheckForm))
	s.mux.HandleFunc("POST /check", s.public(s.handleCheckSubmit))

	s.mux.HandleFunc("GET /login", s.public(s.handleLoginForm))
	s.mux.HandleFunc("POST /login", s.public(s.handleLogin))
	s.mux.HandleFunc("POST /logout", s.public(s.handleLogout))

	s.mux.HandleFunc("GET /admin", s.admin(s.handleDashboard))

	s.mux.HandleFunc("GET /admin/categories", s.admin(s.handleCategories))
	s.mux.HandleFunc("POST /admin/categories", s.admin(s.handleCategorySave))
	s.mux.HandleFunc("POST /admin/categories/{id}", s.admin(s.handleCategorySave))
	s.mux.HandleFunc("GET /admin/categories/{id}/delete", s.admin(s.handleCategoryConfirm))
	s.mux.HandleFunc("POST /admin/categories/{id}/delete", s.admin(s.handleCategoryDelete))

	s.mux.HandleFunc("GET /admin/locations", s.admin(s.handleLocations))
	s.mux.HandleFunc("POST /admin/locations", s.admin(s.handleLocationSave))
	s.mux.HandleFunc("POST /admin/locations/{id}", s.admin(s.handleLocationSave))
	s.mux.HandleFunc("GET /admin/locations/{id}/delete", s.admin(s.handleLocationConfirm))
	s.mux.HandleFunc("POST /admin/locations/{id}/delete", s.admin(s.handleLocationDelete))

	s.mux.HandleFunc("GET /admin/reservations", s.admin(s.handleReservations))
	s.mux.HandleFunc("GET /admin/reservations/rows", s.admin(s.handleReservationRows))
	s.mux.HandleFunc("GET /admin/reservations/export", s.admin(s.handleReservationExport))
	s.mux.HandleFunc("GET /admin/reservations/{id}/delete", s.admin(s.handleReservationConfirm))
	s.mux.HandleFunc("POST /admin/reservations/{id}/delete", s.admin(s.handleReservationDelete))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID(s.logger, requestLogger(securityHeaders(s.mux))).ServeHTTP(w, r)
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("web server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) parseTemplates() error {
	funcs := template.FuncMap{
		"inc":   func(i int) int { return i + 1 },
		"first": func(v models.ValidationErrors, field string) string { return v.First(field) },
		"upper": strings.ToUpper,
	}
	s.templates = make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return fmt.Errorf("parse template %s: %w", name, err)
		}
		s.templates[name] = tmpl
	}
	return nil
}

// view is the data every page template receives.
type view struct {
	Title  string
	User   *models.User
	Notice *models.Notice
	Data   any
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, v view) {
	s.execute(w, r, status, name, "base", v)
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request, status int, name, block string, data any) {
	tmpl, ok := s.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	var buf strings.Builder
	if err := tmpl.ExecuteTemplate(&buf, block, data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("template", name).Msg("render failed")
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}
