// Package http assembles the full routing surface from the per-module
// handlers. Route groups, not handlers, decide the identity requirements:
// public routes run under OptionalAuth, organizer routes under RequireAuth,
// the webhook under the gateway token check.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"inscrito/internal/platform/metrics"
	"inscrito/internal/platform/middleware"
	"inscrito/internal/transport/http/shared"
)

// PublicRegistrar attaches routes reachable without credentials.
type PublicRegistrar interface {
	RegisterPublic(r chi.Router)
}

// UserRegistrar attaches authenticated self-service routes.
type UserRegistrar interface {
	RegisterUser(r chi.Router)
}

// OrganizerRegistrar attaches management routes.
type OrganizerRegistrar interface {
	RegisterOrganizer(r chi.Router)
}

// WebhookRegistrar attaches gateway callback routes.
type WebhookRegistrar interface {
	RegisterWebhook(r chi.Router)
}

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// dbChecker adapts a Pinger to the HealthChecker shape the health endpoint
// consumes.
type dbChecker struct {
	db Pinger
}

func (c dbChecker) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Deps carries everything the router wires together. Optional fields may be
// nil and their routes or checks are skipped.
type Deps struct {
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	TokenAuth middleware.JWTValidator

	// WebhookTokenHash is the bcrypt hash the gateway's access token is
	// compared against.
	WebhookTokenHash string

	Public     []PublicRegistrar
	User       []UserRegistrar
	Organizer  []OrganizerRegistrar
	Webhook    []WebhookRegistrar
	DB         Pinger
	Redis      HealthChecker
	APITimeout time.Duration
}

// New builds the chi router with the full middleware chain and all route
// groups mounted.
func New(deps Deps) chi.Router {
	timeout := deps.APITimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.UserAgent)
	r.Use(middleware.Timeout(timeout))
	if deps.Metrics != nil {
		r.Use(middleware.Latency(deps.Metrics))
	}

	r.Get("/healthz", healthHandler(deps))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.OptionalAuth(deps.TokenAuth, deps.Logger))
		for _, h := range deps.Public {
			h.RegisterPublic(r)
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(deps.TokenAuth, deps.Logger))
		for _, h := range deps.User {
			h.RegisterUser(r)
		}
	})

	// Organizer routes live under /admin so their /events tree does not
	// collide with the public one.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(deps.TokenAuth, deps.Logger))
		for _, h := range deps.Organizer {
			h.RegisterOrganizer(r)
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireWebhookToken(deps.WebhookTokenHash, deps.Logger))
		for _, h := range deps.Webhook {
			h.RegisterWebhook(r)
		}
	})

	return r
}

type healthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func healthHandler(deps Deps) http.HandlerFunc {
	check := func(ctx context.Context, c HealthChecker) string {
		if c == nil {
			return "disabled"
		}
		if err := c.Health(ctx); err != nil {
			return "down"
		}
		return "up"
	}
	var db HealthChecker
	if deps.DB != nil {
		db = dbChecker{db: deps.DB}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		report := healthReport{
			Status: "ok",
			Checks: map[string]string{
				"postgres": check(ctx, db),
				"redis":    check(ctx, deps.Redis),
			},
		}
		status := http.StatusOK
		if report.Checks["postgres"] == "down" {
			report.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
		shared.WriteJSON(w, status, report)
	}
}
