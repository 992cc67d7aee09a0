package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/tessera-labs/tessera/internal/api/ws"
	"github.com/tessera-labs/tessera/internal/auth"
	"github.com/tessera-labs/tessera/internal/config"
	"github.com/tessera-labs/tessera/internal/nav"
	"github.com/tessera-labs/tessera/internal/server/middleware"
	"github.com/tessera-labs/tessera/internal/store/postgres"
	redisstore "github.com/tessera-labs/tessera/internal/store/redis"
)

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	store      *postgres.Store
	auth       *auth.Service
	pubsub     *redisstore.PubSub
	wsHub      *ws.Hub
	sessions   *nav.Manager
	cfg        *config.Config
}

// New creates a Server with all routes wired. ctx bounds the background
// cleanup goroutines of the rate limiters.
func New(ctx context.Context, cfg *config.Config, store *postgres.Store, pubsub *redisstore.PubSub, authSvc *auth.Service, sessions *nav.Manager) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	hub := ws.NewHub(pubsub)

	s := &Server{
		router:   router,
		store:    store,
		auth:     authSvc,
		pubsub:   pubsub,
		wsHub:    hub,
		sessions: sessions,
		cfg:      cfg,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	// Mount API routes on /api/v1 with two sub-groups:
	// 1. Unauthenticated group for auth endpoints, rate-limited per IP.
	// 2. Authenticated group for everything else, rate-limited per tenant.
	router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(ctx, cfg.Server.AuthRateLimitRPS, cfg.Server.AuthRateLimitBurst))

			authConfig := huma.DefaultConfig("Tessera Auth API", "1.0.0")
			authConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			authAPI := humachi.New(r, authConfig)
			registerAuthRoutes(authAPI, authSvc)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT.Secret))
			r.Use(middleware.TenantContext(sessions))
			r.Use(middleware.RateLimit(ctx, cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))

			apiConfig := huma.DefaultConfig("Tessera API", "1.0.0")
			apiConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			api := humachi.New(r, apiConfig)
			registerAPIRoutes(api, store, hub, sessions)

			// Admin surface under /api/v1/admin, enforced at the router
			// level rather than per handler.
			r.Route("/admin", func(r chi.Router) {
				adminConfig := huma.DefaultConfig("Tessera Admin API", "1.0.0")
				adminConfig.Servers = []*huma.Server{
					{URL: "/api/v1/admin"},
				}

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAdmin())
					registerAdminRoutes(humachi.New(r, adminConfig), store)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireSuperAdmin())
					registerSuperAdminRoutes(humachi.New(r, adminConfig), store)
				})
			})
		})
	})

	// WebSocket routes.
	router.Route("/ws", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT.Secret))
		r.Use(middleware.TenantContext(sessions))
		registerWSRoutes(r, hub)
	})

	// Health check (unauthenticated).
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return s
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
