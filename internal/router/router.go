package router

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"fpc-portal/internal/config"
	"fpc-portal/internal/handler"
	"fpc-portal/internal/metrics"
	"fpc-portal/internal/middleware"
	"fpc-portal/internal/model"
	"fpc-portal/internal/navigation"
)

type Handlers struct {
	Pages        *handler.Pages
	Auth         *handler.AuthHandler
	Dashboard    *handler.DashboardHandler
	FPO          *handler.FPOHandler
	AgriBusiness *handler.AgriBusinessHandler
	Districts    *handler.DistrictHandler
	API          *handler.APIHandler
	Health       *handler.HealthHandler
}

// New assembles the portal. metrics may be nil, which leaves /metrics
// unmounted.
func New(cfg *config.Config, keys config.Keys, sessions *middleware.SessionMiddleware, h Handlers, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.NotFound(h.Pages.NotFound)
	r.MethodNotAllowed(h.Pages.MethodNotAllowed)

	r.Get("/health", h.Health.Health)
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	forbidden := http.HandlerFunc(h.Pages.Forbidden)
	nav := func(path string) func(http.Handler) http.Handler {
		return middleware.RequireNav(path, forbidden)
	}

	r.Group(func(web chi.Router) {
		web.Use(middleware.Timeout(cfg.RequestTimeout))
		web.Use(sessions.Load)
		web.Use(middleware.CSRF(keys.CSRF, cfg.SessionCookieSecure, trustedHosts(cfg.CORSOrigins), http.HandlerFunc(h.Pages.CSRFFailure)))

		web.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, navigation.DashboardPath, http.StatusSeeOther)
		})
		web.Get(middleware.LoginPath, h.Auth.LoginForm)
		web.Post(middleware.LoginPath, h.Auth.Login)

		web.Group(func(app chi.Router) {
			app.Use(middleware.RequireSession)

			app.Post("/logout", h.Auth.Logout)
			app.Get(navigation.DashboardPath, h.Dashboard.Show)

			app.With(nav(navigation.PathFPORegistry)).Get(navigation.PathFPORegistry, h.FPO.Registry)
			app.With(nav(navigation.PathPending)).Get(navigation.PathPending, h.FPO.Pending)
			app.With(nav(navigation.PathRegisterFPO)).Get(navigation.PathRegisterFPO, h.FPO.RegisterForm)
			app.With(nav(navigation.PathRegisterFPO)).Post(navigation.PathRegisterFPO, h.FPO.Register)
			app.With(nav(navigation.PathFPORegistry)).Get("/fpo/{id}", h.FPO.Detail)
			app.With(nav(navigation.PathPending)).Post("/fpo/{id}/approve", h.FPO.Approve)
			app.With(nav(navigation.PathPending)).Post("/fpo/{id}/reject", h.FPO.Reject)

			app.With(nav(navigation.PathAgriBusiness)).Get(navigation.PathAgriBusiness, h.AgriBusiness.List)
			app.With(nav(navigation.PathAddTurnover)).Get(navigation.PathAddTurnover, h.AgriBusiness.NewForm)
			app.With(nav(navigation.PathAddTurnover)).Post(navigation.PathAddTurnover, h.AgriBusiness.Create)

			app.With(nav(navigation.PathDistrictsData)).Get(navigation.PathDistrictsData, h.Districts.List)
		})
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.CORS(cfg.CORSOrigins))
		api.Use(middleware.Timeout(cfg.RequestTimeout))
		api.Use(sessions.Load)

		api.Get("/session", h.API.Session)
		api.With(middleware.RequireSession).Get("/navigation", h.API.Navigation)
		api.With(middleware.RequireSession, middleware.RequireRoles(model.RoleSuperAdmin)).Get("/audit", h.API.Audit)
	})

	return r
}

// trustedHosts turns CORS origins into the host list the CSRF referer check
// compares against.
func trustedHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, origin := range origins {
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			continue
		}
		hosts = append(hosts, u.Host)
	}
	return hosts
}
