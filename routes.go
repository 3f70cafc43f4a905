package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"daily-diet/config"
	"daily-diet/handlers"
	appmw "daily-diet/middleware"
	"daily-diet/session"
	"daily-diet/store"
	"daily-diet/telemetry"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type server struct {
	router  http.Handler
	limiter *appmw.RateLimiter
}

func newServer(cfg *config.Config, conn *sql.DB, logger *slog.Logger) (*server, error) {
	codec, err := session.NewCodec([]byte(cfg.SessionSecret), cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("session codec: %w", err)
	}

	users, err := handlers.NewUserHandler(store.NewUserStore(conn), codec, logger, handlers.UserOptions{
		BcryptCost:   cfg.BcryptCost,
		CookieSecure: cfg.CookieSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("user handler: %w", err)
	}
	meals := handlers.NewMealHandler(store.NewMealStore(conn), logger)
	limiter := appmw.NewRateLimiter(cfg.AuthRateLimit, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if cfg.TrustedProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(appmw.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(telemetry.InstrumentHandler)
	r.Use(appmw.CORS(cfg.AllowedOrigins))

	r.Get("/health", handlers.Health(conn, logger))
	r.Method(http.MethodGet, "/metrics", telemetry.Handler())

	r.Route("/users", func(r chi.Router) {
		r.Use(limiter.Handler)
		r.Post("/create", users.Register)
		r.Post("/login", users.Login)
		r.Post("/logout", users.Logout)
	})

	r.Route("/meals", func(r chi.Router) {
		r.Use(appmw.RequireAuth(codec, logger))
		r.Post("/create", meals.Create)
		r.Get("/", meals.List)
		r.Get("/metrics", meals.Metrics)
		r.Get("/{id}", meals.Get)
		r.Put("/{id}", meals.Update)
		r.Delete("/{id}", meals.Delete)
	})

	return &server{router: r, limiter: limiter}, nil
}
