// Package httptransport is the portal's HTTP surface. Handlers stay thin and delegate
// to the dashboard service and role authority; access control is applied as route
// middleware.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clubportal/internal/dashboard"
	"clubportal/internal/guard"
	"clubportal/internal/i18n"
	"clubportal/internal/platform/metrics"
	"clubportal/internal/role"
	id "clubportal/pkg/domain"
	authmw "clubportal/pkg/platform/middleware/auth"
	"clubportal/pkg/platform/middleware/metadata"
	"clubportal/pkg/platform/middleware/requesttime"
)

// Roles is the role authority as seen by the HTTP layer.
type Roles interface {
	guard.Checker
	Resolve(ctx context.Context, principalID id.PrincipalID) (role.Role, error)
}

// RoleAdmin manages role assignments from the admin panel.
type RoleAdmin interface {
	List(ctx context.Context) ([]role.Assignment, error)
	SetRole(ctx context.Context, principalID id.PrincipalID, r role.Role) error
}

// Config carries the router's collaborators.
type Config struct {
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
	Tokens        authmw.TokenValidator
	Roles         Roles
	Assignments   RoleAdmin
	Dashboard     *dashboard.Service
	Catalog       *i18n.Catalog
	FallbackRoute string
	SignInRoute   string
	CheckTimeout  time.Duration
	SecureCookies bool
	Health        func(ctx context.Context) error
}

// Handler implements the portal endpoints.
type Handler struct {
	logger        *slog.Logger
	roles         Roles
	assignments   RoleAdmin
	dashboard     *dashboard.Service
	catalog       *i18n.Catalog
	tokens        authmw.TokenValidator
	secureCookies bool
	health        func(ctx context.Context) error
}

// NewRouter wires every route. Public pages are open to all; /dashboard requires
// member, /admin requires admin and role assignment requires superadmin.
func NewRouter(cfg Config) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Catalog == nil {
		cfg.Catalog = i18n.NewCatalog()
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.SignInRoute == "" {
		cfg.SignInRoute = "/signin"
	}
	h := &Handler{
		logger:        cfg.Logger,
		roles:         cfg.Roles,
		assignments:   cfg.Assignments,
		dashboard:     cfg.Dashboard,
		catalog:       cfg.Catalog,
		tokens:        cfg.Tokens,
		secureCookies: cfg.SecureCookies,
		health:        cfg.Health,
	}
	requireRole := func(min role.Role) func(http.Handler) http.Handler {
		return guard.RequireRole(cfg.Roles, min,
			guard.WithFallback(cfg.FallbackRoute),
			guard.WithTimeout(cfg.CheckTimeout),
			guard.WithLogger(cfg.Logger),
			guard.WithMetrics(cfg.Metrics),
		)
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(metadata.RequestLogger(cfg.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(i18n.Middleware(cfg.Catalog))

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))

	r.Post("/auth/session", h.handleSignIn)
	r.Post("/auth/signout", h.handleSignOut)

	r.Group(func(r chi.Router) {
		r.Use(authmw.Authenticate(cfg.Tokens, cfg.SignInRoute, cfg.Logger))

		for _, page := range publicPages {
			r.Get(page.path, h.handlePage(page.key))
		}
		r.Get("/auth/session", h.handleSession)

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(requireRole(role.Member))
			r.Get("/", h.handleDashboard)
			r.Get("/{tab}", h.handleTab)
			r.Get("/messages", h.handleListMessages)
			r.Post("/messages", h.handlePostMessage)
			r.Get("/profile", h.handleGetProfile)
			r.Put("/profile", h.handleUpdateProfile)
			r.Get("/search", h.handleSearch)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireRole(role.Admin))
			r.Get("/", h.handleAdmin)
			r.With(requireRole(role.SuperAdmin)).Put("/roles/{principalID}", h.handleAssignRole)
		})
	})
	return r
}

type publicPage struct {
	path string
	key  string
}

var publicPages = []publicPage{
	{path: "/", key: "home"},
	{path: "/partners", key: "partners"},
	{path: "/events", key: "events"},
	{path: "/news", key: "news"},
	{path: "/join-us", key: "join-us"},
	{path: "/signin", key: "signin"},
}
