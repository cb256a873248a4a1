package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/drawspace/drawspace-backend/api/controllers"
	webhookcontrollers "github.com/drawspace/drawspace-backend/api/controllers/webhooks"
	"github.com/drawspace/drawspace-backend/api/middleware"
	"github.com/drawspace/drawspace-backend/internal/accounts"
	"github.com/drawspace/drawspace-backend/internal/generation"
	"github.com/drawspace/drawspace-backend/internal/subscriptions"
	"github.com/drawspace/drawspace-backend/internal/usage"
	"github.com/drawspace/drawspace-backend/pkg/config"
	"github.com/drawspace/drawspace-backend/pkg/db"
	"github.com/drawspace/drawspace-backend/pkg/enums"
	"github.com/drawspace/drawspace-backend/pkg/logger"
	"github.com/drawspace/drawspace-backend/pkg/metrics"
	"github.com/drawspace/drawspace-backend/pkg/redis"
	"github.com/drawspace/drawspace-backend/pkg/stripe"
)

type RouterParams struct {
	Config         *config.Config
	Log            *logger.Logger
	DBPinger       db.Pinger
	RedisPinger    redis.Pinger
	Registry       *prometheus.Registry
	AccountService *accounts.Service
	UsageService   usage.Service
	ImageService   *generation.Service
	StripeClient   *stripe.Client
	WebhookService *subscriptions.Service
	WebhookGuard   *subscriptions.IdempotencyGuard
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Log

	registry := p.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	httpMetrics := metrics.NewHTTPMetrics(registry)

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DBPinger, p.RedisPinger))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(p.WebhookService, p.StripeClient, p.WebhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Post("/accounts/sync", controllers.SyncAccount(p.AccountService, logg))
			r.Get("/usage", controllers.GetUsage(p.UsageService, logg))
		})

		r.Route("/images", func(r chi.Router) {
			r.With(middleware.Gate(middleware.GateConfig{
				RequireAuth:  true,
				EnforceLimit: true,
				TrackUsage:   true,
				Action:       enums.ActionTypeGeneration,
			}, cfg.JWT, p.UsageService, logg)).Post("/generate", controllers.GenerateImage(p.ImageService, logg))

			r.With(middleware.Gate(middleware.GateConfig{
				RequireAuth:  true,
				EnforceLimit: true,
				TrackUsage:   true,
				Action:       enums.ActionTypeEdit,
			}, cfg.JWT, p.UsageService, logg)).Post("/edit", controllers.EditImage(p.ImageService, logg))
		})
	})

	return r
}
