package routes

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/debate-tab/handlers"
	"github.com/Dosada05/debate-tab/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	AllowedOrigins  []string
	BallotRateLimit int
	// TrustProxy takes the client address from X-Forwarded-For and X-Real-IP.
	// Only set it behind a proxy that overwrites those headers.
	TrustProxy bool
	// Gatherer backs /metrics; defaults to the global Prometheus registry.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

func SetupRoutes(
	router *chi.Mux,
	opts Options,
	ballotHandler *handlers.BallotHandler,
	webSocketHandler *handlers.WebSocketHandler,
	healthHandler *handlers.HealthHandler,
) {
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	router.Use(chiMiddleware.RequestID)
	if opts.TrustProxy {
		router.Use(chiMiddleware.RealIP)
	}
	router.Use(middleware.RequestLogger(opts.Logger))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Location", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", healthHandler.Healthz)
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	submitLimiter := middleware.NewRateLimiter(opts.BallotRateLimit)

	router.Route("/debates/{debateID}", func(r chi.Router) {
		r.With(submitLimiter.Handler).Post("/ballots", ballotHandler.SubmitBallot)
		r.Get("/ballots", ballotHandler.ListDebateBallots)
		r.Get("/result", ballotHandler.GetDebateResult)
	})

	router.Route("/ballots/{ballotID}", func(r chi.Router) {
		r.Get("/", ballotHandler.GetBallot)
		r.Post("/confirm", ballotHandler.ConfirmBallot)
		r.Get("/export", ballotHandler.ExportBallot)
	})

	router.Get("/ws/debates/{debateID}", webSocketHandler.ServeWs)
}
