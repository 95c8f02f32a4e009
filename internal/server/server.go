// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the wiring layer. It decides:
// - which store backs the repositories (SQLite or MongoDB)
// - which provider creates meeting links (Google Calendar or Jitsi)
// - whether booking endpoints are rate limited (Redis)
// - which URL patterns map to which handlers, behind which middleware
// - how the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → Server.New creates:
//	  repository.Store ─┬─► AuthService    ─► AuthHandler
//	  meetlink.Provider ┼─► SupportService ─┐
//	                    ├─► MeetingService ─┴► MeetingHandler
//	                    ├─► CreatorService ─► CreatorHandler
//	                    └─► VideoService   ─► VideoHandler
//
// This is the "composition root": every dependency is built here and nowhere else.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/sakif/heartline/internal/config"
	"github.com/sakif/heartline/internal/meetlink"
	"github.com/sakif/heartline/internal/repository"
	mongoRepo "github.com/sakif/heartline/internal/repository/mongo"
	sqliteRepo "github.com/sakif/heartline/internal/repository/sqlite"
)

const redisPingTimeout = 5 * time.Second

// Server owns the router and the long-lived connections it closes on shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	store  repository.Store
	redis  *redis.Client // nil when rate limiting is off
}

// New opens the store, picks the meeting-link provider and builds the router.
// cfg must already be validated.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
		redis:  connectRedis(ctx, cfg.RedisURL, logger),
	}

	links, err := newLinkProvider(ctx, cfg, logger)
	if err != nil {
		s.close()
		return nil, err
	}
	if err := s.setupRoutes(links); err != nil {
		s.close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		store, err := mongoRepo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("opening mongo store: %w", err)
		}
		return store, nil
	default:
		if dir := filepath.Dir(cfg.DBPath); cfg.DBPath != ":memory:" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		store, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return store, nil
	}
}

func newLinkProvider(ctx context.Context, cfg *config.Config, logger *slog.Logger) (meetlink.Provider, error) {
	if cfg.Google.Enabled() {
		logger.Info("meeting links via google calendar", slog.String("calendar", cfg.Google.CalendarID))
		cal, err := meetlink.NewGoogleCalendar(ctx, meetlink.GoogleConfig{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RefreshToken: cfg.Google.RefreshToken,
			CalendarID:   cfg.Google.CalendarID,
			TimeZone:     cfg.MeetingTimezone,
		})
		if err != nil {
			return nil, err
		}
		return cal, nil
	}
	logger.Info("meeting links via jitsi", slog.String("baseURL", cfg.JitsiBaseURL))
	return meetlink.NewJitsi(cfg.JitsiBaseURL), nil
}

// connectRedis returns nil (rate limiting off) when url is empty or the
// server cannot be reached at startup.
func connectRedis(ctx context.Context, url string, logger *slog.Logger) *redis.Client {
	if url == "" {
		logger.Info("REDIS_URL not set, rate limiting disabled")
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		logger.Warn("invalid REDIS_URL, rate limiting disabled", slog.String("error", err.Error()))
		return nil
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, rate limiting disabled", slog.String("error", err.Error()))
		_ = client.Close()
		return nil
	}
	logger.Info("redis connected, rate limiting enabled")
	return client
}

func (s *Server) close() {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("closing redis", slog.String("error", err.Error()))
		}
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn("closing store", slog.String("error", err.Error()))
	}
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully:
// stop accepting connections, let in-flight requests finish (30s), then
// close the store and redis.
func (s *Server) Start() error {
	defer s.close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second, // calendar calls happen inside booking requests
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("store", s.config.StoreDriver),
			slog.String("env", s.config.Env),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}
