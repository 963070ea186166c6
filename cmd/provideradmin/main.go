package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/findmyridesa/provider-admin/app/controllers"
	"github.com/findmyridesa/provider-admin/app/repository"
	"github.com/findmyridesa/provider-admin/docs"
	"github.com/findmyridesa/provider-admin/internal/pkg/auth"
	"github.com/findmyridesa/provider-admin/internal/pkg/cache"
	"github.com/findmyridesa/provider-admin/internal/pkg/dashboard"
	"github.com/findmyridesa/provider-admin/internal/pkg/database"
	"github.com/findmyridesa/provider-admin/internal/pkg/docstore"
	"github.com/findmyridesa/provider-admin/internal/pkg/documents"
	"github.com/findmyridesa/provider-admin/internal/pkg/env"
	applogger "github.com/findmyridesa/provider-admin/internal/pkg/logger"
	"github.com/findmyridesa/provider-admin/internal/pkg/metrics"
	"github.com/findmyridesa/provider-admin/internal/pkg/router"
	"github.com/findmyridesa/provider-admin/internal/pkg/session"
	"github.com/findmyridesa/provider-admin/internal/pkg/viewstate"
	"github.com/findmyridesa/provider-admin/views"
)

func main() {
	env.SetupEnvFile()
	log := applogger.Must("provideradmin")
	defer func() { _ = log.Sync() }()

	app := NewApplication(log)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("shutdown failed", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000"))
	log.Info("listening", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := docstore.Close(ctx); err != nil {
		log.Warn("failed to close document store", zap.Error(err))
	}
}

func NewApplication(log *zap.Logger) *fiber.App {
	database.SetupDatabase(log)
	docstore.SetupDocStore(log)
	cache.SetupCache(log)
	session.NewSessionStore()

	repository.InitializeFactory(database.GetDB(), docstore.GetDB())
	repos := repository.GetGlobalRepositories()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store := cache.NewStore(cache.GetClient(), "provideradmin:")
	service := dashboard.NewService(repos,
		dashboard.WithLogger(log.Named("dashboard")),
		dashboard.WithMetrics(metrics.NewDashboardMetrics(registry)),
		dashboard.WithMetricsCache(store, env.GetEnvDuration("METRICS_CACHE_TTL", dashboard.DefaultMetricsCacheTTL)),
	)

	authenticator := auth.NewAuthenticator(repos.User, repos.AdminRegistry)
	bootstrapAdmin(log, authenticator)

	// init fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: controllers.ErrorHandler(log),
		BodyLimit:    1 * 1024 * 1024,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber + prometheus metrics
	metricsAuth := basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "change-me"),
		},
	})
	app.Get("/monitor", metricsAuth, monitor.New(monitor.Config{Title: "Provider Admin"}))
	app.Get("/metrics", metricsAuth, adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// static files
	app.Use("/assets", filesystem.New(filesystem.Config{
		Root:   views.Assets(),
		MaxAge: 3600,
	}))

	// SWAGGER / OPENAPI
	app.Use(swagger.New(swagger.Config{
		BasePath:    "/docs/",
		FileContent: docs.OpenAPI,
		Path:        "api",
		Title:       "Provider Admin API",
	}))

	// ROUTER
	router.InstallRouter(app, controllers.Deps{
		Service:   service,
		Auth:      authenticator,
		Snapshots: viewstate.NewSnapshotStore(store, env.GetEnvDuration("VIEW_SNAPSHOT_TTL", viewstate.DefaultSnapshotTTL)),
		Documents: documentResolver(log),
		Log:       log.Named("http"),
	})

	return app
}

// documentResolver signs s3:// document links when S3 is configured.
func documentResolver(log *zap.Logger) documents.Resolver {
	cfg, err := documents.LoadConfig()
	if err != nil {
		log.Fatal("invalid document storage config", zap.Error(err))
	}
	if !cfg.Enabled {
		return documents.PassThrough{}
	}
	resolver, err := documents.NewS3Resolver(context.Background(), cfg)
	if err != nil {
		log.Fatal("failed to set up document signing", zap.Error(err))
	}
	return resolver
}

// bootstrapAdmin makes sure the account named by ADMIN_EMAIL can sign in.
func bootstrapAdmin(log *zap.Logger, a *auth.Authenticator) {
	email := env.GetEnv("ADMIN_EMAIL", "")
	if email == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	user, err := a.Bootstrap(ctx, env.GetEnv("ADMIN_NAME", "Administrator"), email, env.GetEnv("ADMIN_PASSWORD", ""))
	if err != nil {
		log.Error("admin bootstrap failed", zap.String("email", email), zap.Error(err))
		return
	}
	log.Info("admin account ready", zap.String("email", user.Email))
}
