package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tessera-labs/tessera/internal/auth"
	"github.com/tessera-labs/tessera/internal/config"
	"github.com/tessera-labs/tessera/internal/domain"
	"github.com/tessera-labs/tessera/internal/nav"
	"github.com/tessera-labs/tessera/internal/server"
	"github.com/tessera-labs/tessera/internal/store/postgres"
	redisstore "github.com/tessera-labs/tessera/internal/store/redis"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Initialize structured logging from environment.
	logLevel := os.Getenv("TESSERA_LOG_LEVEL")
	level, parseErr := zerolog.ParseLevel(logLevel)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logFormat := os.Getenv("TESSERA_LOG_FORMAT")
	if logFormat == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Connect to PostgreSQL.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked in config validation
	if err != nil {
		return err
	}
	defer store.Close()

	// Connect to Redis. Session state and cross-instance tenant-switch
	// fan-out both live there.
	pubsub, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer pubsub.Close()

	// Create auth service.
	authSvc := auth.NewService(store.Users(), cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	// Create the navigation session manager. Session state is backed by
	// Redis so a tenant switch survives instance restarts, and switch
	// events are broadcast through pub/sub so every connected client of
	// the session hears about them.
	resolver := nav.NewResolver(store.Menus(), nav.PermissionPolicy(cfg.Nav.PermissionPolicy))
	sessions := nav.NewManager(
		resolver,
		store.Tenants(),
		func(sessionID uuid.UUID) nav.ClientState {
			return redisstore.NewSessionState(pubsub.Client(), sessionID, cfg.Nav.SessionTTL)
		},
		func(ctx context.Context, sessionID uuid.UUID, payload []byte) {
			if pubErr := pubsub.Publish(ctx, redisstore.TenantSwitchChannel(sessionID), payload); pubErr != nil {
				log.Warn().Err(pubErr).Stringer("session_id", sessionID).Msg("tenant switch broadcast failed")
			}
		},
		nav.ManagerConfig{
			GuardLocation: domain.MenuLocation(cfg.Nav.GuardLocation),
			LoginPath:     cfg.Nav.LoginPath,
			FallbackPath:  cfg.Nav.DefaultRoute,
		},
	)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, store, pubsub, authSvc, sessions)

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
