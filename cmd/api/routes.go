package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/mchatman/bankaccounts/internal/account"
	"github.com/mchatman/bankaccounts/internal/logging"
)

const accountsPrefix = "/api/v1/accounts"

// healthChecker is satisfied by *db.Client.
type healthChecker interface {
	HealthCheck(ctx context.Context) bool
}

func (a *App) loadRoutes() {
	accountRepo := account.NewRepository(a.db.Database(), a.logger)
	accountService := account.NewService(accountRepo, a.logger)
	accountHandler := account.NewHandler(accountService, a.logger)

	a.router = buildRouter(a.config.CORSAllowedOrigins, a.db, accountHandler, a.logger)
}

func buildRouter(origins []string, health healthChecker, accounts *account.Handler, logger *zap.Logger) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logging.Middleware(logger))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"message": "Hello World!"})
	})

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if !health.HealthCheck(ctx) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("database unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	router.Route(accountsPrefix, accounts.Routes)

	return router
}
