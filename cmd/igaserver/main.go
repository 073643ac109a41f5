package main

import (
	"context"
	"os"
	"time"

	"github.com/dhawalhost/igacore/internal/audit"
	"github.com/dhawalhost/igacore/internal/connector"
	"github.com/dhawalhost/igacore/internal/connector/azuread"
	"github.com/dhawalhost/igacore/internal/connector/github"
	"github.com/dhawalhost/igacore/internal/connector/jira"
	"github.com/dhawalhost/igacore/internal/connector/slack"
	"github.com/dhawalhost/igacore/internal/httpapi"
	"github.com/dhawalhost/igacore/internal/identity"
	"github.com/dhawalhost/igacore/internal/jml"
	"github.com/dhawalhost/igacore/internal/request"
	"github.com/dhawalhost/igacore/pkg/config"
	"github.com/dhawalhost/igacore/pkg/database"
	"github.com/dhawalhost/igacore/pkg/logger"
	"github.com/dhawalhost/igacore/pkg/middleware"
	"github.com/dhawalhost/igacore/pkg/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfg := config.FromEnv()

	log := logger.NewFromEnv(cfg.Debug)
	defer func() { _ = log.Sync() }()

	identities, auditLog, requests := buildStores(cfg, log)

	registry := buildConnectors(cfg)

	var notifier request.Notifier
	if cfg.JiraEnabled {
		notifier = jira.New()
	}

	locker := identity.NewLocker()
	jmlEngine := jml.New(identities, auditLog, registry, locker)
	requestEngine := request.New(requests, identities, auditLog, jmlEngine, notifier)

	handler := httpapi.New(jmlEngine, requestEngine, identities, auditLog, registry, log)

	metrics := observability.NewMetrics()
	router := gin.New()
	router.Use(gin.Recovery())

	shutdownTracer, err := observability.InitTracer(context.Background(), observability.TracerConfig{
		ServiceName:    "igaserver",
		ServiceVersion: "1.0.0",
		Environment:    envOr("ENVIRONMENT", "development"),
		OTLPEndpoint:   cfg.OTLPEndpoint,
	}, log)
	if err != nil {
		log.Error("failed to initialize tracer", zap.Error(err))
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	router.Use(otelgin.Middleware("igaserver"))
	router.Use(observability.PrometheusMiddleware(metrics))
	router.Use(logger.RequestLogger(log))
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.RateLimitMiddleware(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst))

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if cfg.AllowsAllOrigins() {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	}
	router.Use(cors.New(corsConfig))

	router.GET("/metrics", gin.WrapH(observability.PrometheusHandler()))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	handler.RegisterRoutes(router)

	log.Info("identity governance core starting", zap.String("addr", cfg.HTTPAddr))
	if err := router.Run(cfg.HTTPAddr); err != nil {
		log.Error("server failed", zap.Error(err))
		os.Exit(1)
	}
}

// buildStores wires either Postgres-backed or in-memory stores depending
// on whether DATABASE_URL is set. A failed Postgres connection is fatal:
// falling back silently to memory would mean losing data the operator
// explicitly asked to persist.
func buildStores(cfg config.Config, log *zap.Logger) (identity.Store, audit.Store, request.Store) {
	if cfg.DatabaseURL == "" {
		log.Info("DATABASE_URL not set, using in-memory stores")
		return identity.NewMemoryStore(), audit.NewMemoryStore(), request.NewMemoryStore()
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", zap.Error(err))
		os.Exit(1)
	}

	return identity.NewPostgresStore(db), audit.NewPostgresStore(db), request.NewPostgresStore(db)
}

// buildConnectors constructs the simulated downstream connectors enabled
// by config. Jira is wired separately into the request engine's notifier,
// since it isn't part of the JML provisioning fan-out.
func buildConnectors(cfg config.Config) connector.Registry {
	var connectors []connector.Connector
	if cfg.AzureADEnabled {
		connectors = append(connectors, azuread.New())
	}
	if cfg.GitHubEnabled {
		connectors = append(connectors, github.New())
	}
	if cfg.SlackEnabled {
		connectors = append(connectors, slack.New())
	}
	return connector.NewRegistry(connectors...)
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
