// Package web provides the HTTP server, pages and JSON API for the courier site.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/evcraddock/courier-site/internal/contact"
	"github.com/evcraddock/courier-site/internal/geo"
	"github.com/evcraddock/courier-site/internal/inquiry"
	"github.com/evcraddock/courier-site/internal/logging"
	"github.com/evcraddock/courier-site/internal/mapsession"
	"github.com/evcraddock/courier-site/internal/office"
	"github.com/evcraddock/courier-site/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Options configures a Server.
type Options struct {
	Registry *office.Registry
	// Provider is the map provider. Leave it nil when maps are disabled.
	Provider mapsession.Provider
	Relay    contact.Relay
	// RelayName is recorded with each inquiry.
	RelayName      string
	DestinationKey string
	// Inquiries records submissions when set.
	Inquiries *inquiry.Repository
	// Sessions is created from the fields above when nil.
	Sessions *session.Store

	MapZoom     int
	ClientRate  float64
	ClientBurst int
	DevMode     bool
	Logger      *slog.Logger
}

// Server is the site's HTTP server.
type Server struct {
	registry       *office.Registry
	sessions       *session.Store
	inquiries      *inquiry.Repository
	validator      *contact.Validator
	limiter        *IPRateLimiter
	templates      *template.Template
	mux            *http.ServeMux
	log            *slog.Logger
	relayName      string
	destinationKey string
	mapAvailable   bool
	mapCenter      geo.Coordinate
	mapZoom        int
	devMode        bool
}

// NewServer creates the web server.
func NewServer(opts Options) (*Server, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("office registry is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ClientRate <= 0 {
		opts.ClientRate = 2
	}
	if opts.ClientBurst <= 0 {
		opts.ClientBurst = 10
	}
	if opts.MapZoom <= 0 {
		opts.MapZoom = 5
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewStore(opts.Provider, opts.Registry, opts.Relay, opts.Logger)
	}

	funcMap := template.FuncMap{
		"formatDistance": tmplFormatDistance,
		"formatDuration": tmplFormatDuration,
		"fieldValue":     tmplFieldValue,
		"lower":          strings.ToLower,
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	s := &Server{
		registry:       opts.Registry,
		sessions:       opts.Sessions,
		inquiries:      opts.Inquiries,
		validator:      contact.NewValidator(),
		limiter:        NewIPRateLimiter(rate.Limit(opts.ClientRate), opts.ClientBurst),
		templates:      tmpl,
		mux:            http.NewServeMux(),
		log:            opts.Logger,
		relayName:      opts.RelayName,
		destinationKey: opts.DestinationKey,
		mapAvailable:   opts.Provider != nil,
		mapCenter:      opts.Registry.Bounds().Center(),
		mapZoom:        opts.MapZoom,
		devMode:        opts.DevMode,
	}

	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("creating static sub-fs: %w", err)
	}

	limit := s.limiter.Limit

	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))
	s.mux.HandleFunc("GET /health", s.handleHealth)

	// Pages
	s.mux.HandleFunc("GET /{$}", s.handleHome)
	s.mux.HandleFunc("GET /offices/{id}", s.handleOffice)
	s.mux.HandleFunc("POST /contact", limit(s.handleContactPost))
	s.mux.HandleFunc("POST /contact/reset", s.handleContactReset)

	// Offices
	s.mux.HandleFunc("GET /api/offices", s.apiListOffices)
	s.mux.HandleFunc("GET /api/offices/{id}", s.apiGetOffice)

	// Map session
	s.mux.HandleFunc("GET /api/map", s.apiMap)
	s.mux.HandleFunc("POST /api/map/search", limit(s.apiSearch))
	s.mux.HandleFunc("POST /api/map/route", limit(s.apiRoute))
	s.mux.HandleFunc("POST /api/map/reset", s.apiReset)
	s.mux.HandleFunc("POST /api/map/markers/{overlay}/click", s.apiMarkerClick)
	s.mux.HandleFunc("DELETE /api/map/selection", s.apiDismiss)

	// Contact form
	s.mux.HandleFunc("GET /api/contact", s.apiContactState)
	s.mux.HandleFunc("POST /api/contact", limit(s.apiContactSubmit))
	s.mux.HandleFunc("POST /api/contact/reset", s.apiContactReset)

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Handler returns the server wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return logging.RequestLogger(s)
}

// Sessions exposes the visitor store for background maintenance.
func (s *Server) Sessions() *session.Store {
	return s.sessions
}

// Limiter exposes the per-IP limiter for background maintenance.
func (s *Server) Limiter() *IPRateLimiter {
	return s.limiter
}

// HTTPServer builds an http.Server for addr with conservative timeouts.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]any{
		"status":   "ok",
		"offices":  s.registry.Len(),
		"visitors": s.sessions.Len(),
		"map":      s.mapAvailable,
	}, http.StatusOK)
}

// Template helper functions

func tmplFormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

func tmplFormatDuration(seconds float64) string {
	d := time.Duration(seconds) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%d h %d min", h, m)
	}
	return fmt.Sprintf("%d min", m)
}

func tmplFieldValue(fields contact.Fields, name string) string {
	return fields.Get(name)
}
