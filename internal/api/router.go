package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/carewell/clinic-scheduling/internal/appointment"
)

type RouterConfig struct {
	Service   *appointment.Service
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Env       string
	Version   string
	JWTSecret string
	Logger    zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Console-facing endpoints require a bearer token.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.JWTSecret))

		r.Post("/appointments", bookAppointmentHandler(cfg.Service))
		r.Get("/appointments", listAppointmentsHandler(cfg.Service))
		r.Get("/appointments/{id}", getAppointmentHandler(cfg.Service))
		r.Patch("/appointments/{id}/status", updateStatusHandler(cfg.Service))
		r.Post("/appointments/{id}/check-in", checkInHandler(cfg.Service))
		r.Post("/appointments/{id}/outcome", recordOutcomeHandler(cfg.Service))
		r.Post("/appointments/{id}/follow-up", spawnFollowUpHandler(cfg.Service))
	})

	// Scheduler-facing trigger; the worker binary is the usual caller, the
	// endpoint exists for manual runs.
	r.Post("/internal/sweep-no-shows", sweepNoShowsHandler(cfg.Service))

	return r
}
