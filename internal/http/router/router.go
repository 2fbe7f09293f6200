package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"moto-dispatch/internal/http/handlers"
	mw "moto-dispatch/internal/http/middleware"
	"moto-dispatch/internal/logx"
)

// Deps is everything the router mounts.
type Deps struct {
	Logger     logx.Logger
	Base       *handlers.Handlers
	Auth       *handlers.AuthHandler
	Users      *handlers.UserHandler
	Zones      *handlers.ZoneHandler
	Deliveries *handlers.DeliveryHandler
	Stats      *handlers.StatsHandler

	Tokens mw.TokenParser
	// RateLimit guards the whole API; AuthRateLimit is the stricter limiter for /auth.
	RateLimit     func(http.Handler) http.Handler
	AuthRateLimit func(http.Handler) http.Handler
	// Metrics defaults to the global prometheus registry.
	Metrics http.Handler
	Timeout time.Duration
	// TrustProxy enables middleware.RealIP; without it proxy headers are ignored.
	TrustProxy bool
}

func passthrough(next http.Handler) http.Handler { return next }

// New constructs a chi-based http.Handler with base middleware and routes.
func New(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = logx.Nop()
	}
	if d.RateLimit == nil {
		d.RateLimit = passthrough
	}
	if d.AuthRateLimit == nil {
		d.AuthRateLimit = passthrough
	}
	if d.Metrics == nil {
		d.Metrics = promhttp.Handler()
	}
	if d.Timeout <= 0 {
		d.Timeout = 5 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if d.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(mw.Observability(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(d.Timeout))

	r.Get("/ping", d.Base.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(d.Base.HealthcheckHead))
	r.Get("/health", d.Base.Health)
	r.Method(http.MethodGet, "/metrics", d.Metrics)
	r.NotFound(d.Base.NotFound)
	r.MethodNotAllowed(d.Base.MethodNotAllowed)

	r.Group(func(r chi.Router) {
		r.Use(d.RateLimit)

		r.Route("/auth", func(r chi.Router) {
			r.Use(d.AuthRateLimit)
			r.Post("/login", d.Auth.Login)
			r.Post("/register", d.Auth.Register)
			r.Post("/forget-password", d.Auth.ForgetPassword)
			r.Post("/reset-password", d.Auth.ResetPassword)
		})

		r.Get("/zones", d.Zones.List)

		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate(d.Tokens, d.Logger))

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", d.Users.Me)
				r.Get("/", d.Users.List)
				r.Post("/", d.Users.Create)
				r.Get("/clients", d.Users.Clients)
				r.Get("/livreurs", d.Users.Couriers)
			})

			r.Route("/deliveries", func(r chi.Router) {
				r.Post("/create", d.Deliveries.Create)
				r.Get("/my-deliveries", d.Deliveries.Mine)
				r.Get("/history", d.Deliveries.History)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", d.Deliveries.Get)
					r.Get("/status", d.Deliveries.Status)
					r.Post("/status", d.Deliveries.UpdateStatus)
					r.Get("/timeline", d.Deliveries.Timeline)
					r.Post("/assign", d.Deliveries.Assign)
					r.Post("/cancel", d.Deliveries.Cancel)
				})
			})

			r.Get("/stats", d.Stats.Get)
		})
	})

	return r
}
