package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/vedx/vedx-site/internal/http/handlers"
	"github.com/vedx/vedx-site/internal/http/middleware"
	"github.com/vedx/vedx-site/internal/platform/mailer"
	"github.com/vedx/vedx-site/internal/service"
	"github.com/vedx/vedx-site/pkg/config"
	"github.com/vedx/vedx-site/pkg/events"
	"github.com/vedx/vedx-site/pkg/logger"
	mw "github.com/vedx/vedx-site/pkg/middleware"
)

const (
	serviceName    = "vedx-api"
	purgeInterval  = 5 * time.Minute
	shutdownWindow = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		logger.Error("API stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	authService := service.NewAuthService(
		b.admins, b.otps, b.sessions, b.limits,
		mailer.New(cfg.Email), b.bus, cfg.Auth,
	)
	if err := authService.SeedAdmin(ctx, cfg.Admin); err != nil {
		return err
	}

	contentService := service.NewContentService(b.content, b.cache, b.bus, cfg.Content.CacheTTL, nil)
	if err := b.bus.Subscribe(events.ContentChanged, contentService.HandleChange); err != nil {
		return err
	}

	authLimiter := middleware.NewRateLimiter(b.limits, middleware.RateLimitConfig{
		Requests: cfg.Auth.IPRequestLimit,
		Window:   cfg.Auth.IPRequestWindow,
		KeyFunc:  middleware.IPKeyFunc,
		SkipFunc: middleware.SkipSafeMethods,
	})

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName(serviceName))
	r.Use(mw.Logging)
	r.Use(mw.Recovery)
	r.Use(mw.CORS(cfg.Server.AllowedOrigins))
	r.Use(mw.Health(b.checks))

	r.Route("/api", func(r chi.Router) {
		r.With(authLimiter.Middleware()).Mount("/auth", handlers.NewAuthHandler(authService).Routes())
		r.Mount("/admin", handlers.NewAdminHandler(authService).Routes())
		handlers.NewContentHandler(contentService, authService).Mount(r)
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting API", "addr", srv.Addr, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		purgeExpiredOTPs(gctx, authService)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down API...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWindow)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func purgeExpiredOTPs(ctx context.Context, auth service.AuthService) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := auth.PurgeExpiredOTPs(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("Failed to purge expired OTPs", "error", err)
			}
		}
	}
}
