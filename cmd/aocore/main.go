// aocore API
//
// Workflow execution bridge between the product and its n8n workflows.
//
//	@title			aocore API
//	@version		1.0
//	@description	Webhook registry, synchronous workflow dispatch and execution ledger.
//
//	@license.name	Proprietary
//
//	@host		localhost:8080
//	@BasePath	/api
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: "Bearer {token}"

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "go.aocore.tech/docs" // Swagger docs

	"go.aocore.tech/internal/common/health"
	"go.aocore.tech/internal/common/leader"
	"go.aocore.tech/internal/common/lifecycle"
	"go.aocore.tech/internal/common/secrets"
	"go.aocore.tech/internal/config"
	"go.aocore.tech/internal/dispatch"
	"go.aocore.tech/internal/dispatch/mediator"
	"go.aocore.tech/internal/platform/api"
	"go.aocore.tech/internal/platform/audit"
	"go.aocore.tech/internal/platform/auth"
	"go.aocore.tech/internal/platform/brand"
	"go.aocore.tech/internal/platform/common"
	"go.aocore.tech/internal/platform/execution"
	"go.aocore.tech/internal/platform/query"
	"go.aocore.tech/internal/platform/webhook"
	"go.aocore.tech/internal/queue"
	natsqueue "go.aocore.tech/internal/queue/nats"
	sqsqueue "go.aocore.tech/internal/queue/sqs"
	"go.aocore.tech/internal/sweeper"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	writeConfig := flag.String("write-config", "", "write an example config file to `path` and exit")
	flag.Parse()

	if *writeConfig != "" {
		if err := config.WriteExampleConfig(*writeConfig); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Example configuration written to %s\n", *writeConfig)
		return
	}

	// Configure logging
	logLevel := slog.LevelInfo
	if os.Getenv("AOCORE_DEV") == "true" {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting aocore",
		"version", version,
		"build_time", buildTime)

	if err := run(); err != nil {
		slog.Error("aocore exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadWithFile()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx := context.Background()

	app, cleanup, err := lifecycle.Initialize(ctx, cfg, lifecycle.AppOptions{
		NeedsMongoDB:  true,
		EnsureIndexes: true,
	})
	if err != nil {
		return err
	}
	defer cleanup()

	publisher, err := setupQueue(ctx, app)
	if err != nil {
		return err
	}
	notifier := execution.NewNotifier(queue.Instrument(publisher))

	secretProvider, err := secrets.NewProvider(ctx, &cfg.Secrets)
	if err != nil {
		return fmt.Errorf("failed to initialize secrets provider: %w", err)
	}
	slog.Info("Secrets provider initialized", "provider", cfg.Secrets.Provider)

	// Repositories
	endpoints := webhook.NewRepository(app.DB)
	ledger := execution.NewLedger(execution.NewRepository(app.DB))
	brands := brand.NewRepository(app.DB)
	auditService := audit.NewService(audit.NewRepository(app.DB))
	uow := common.NewMongoUnitOfWork(app.Mongo.Mongo(), app.DB)

	// Dispatcher
	mediatorCfg := mediator.DefaultHTTPMediatorConfig()
	mediatorCfg.DefaultTimeout = cfg.Dispatch.Timeout
	mediatorCfg.MaxResponseBytes = cfg.Dispatch.MaxResponseBytes
	mediatorCfg.CircuitBreakerEnabled = cfg.Dispatch.CircuitBreaker

	dispatchCfg := dispatch.DefaultConfig()
	dispatchCfg.DefaultTimeout = cfg.Dispatch.Timeout
	dispatchCfg.MaxResponseBytes = cfg.Dispatch.MaxResponseBytes

	if cfg.Dispatch.SigningSecret == "" {
		slog.Warn("DISPATCH_SIGNING_SECRET is not set - outbound calls are only signed for endpoints with their own secret")
	}
	dispatcher := dispatch.NewDispatcher(
		endpoints,
		ledger,
		mediator.NewHTTPMediator(mediatorCfg),
		dispatch.NewSigner(secretProvider, cfg.Dispatch.SigningSecret),
		notifier,
		dispatchCfg,
	)

	// Auth
	var verifier *auth.Verifier
	if !cfg.Auth.Disabled {
		verifier, err = auth.NewVerifier(cfg.Auth)
		if err != nil {
			return fmt.Errorf("failed to initialize token verifier: %w", err)
		}
	}

	apiHandlers := api.NewHandlers(api.Dependencies{
		Dispatcher: dispatcher,
		Query:      query.NewService(endpoints, ledger),
		Endpoints:  endpoints,
		Brands:     brands,
		Audit:      auditService,
		UnitOfWork: uow,
		Auth:       auth.NewMiddleware(verifier, cfg.Auth.Disabled),
		RateLimiter: api.NewUserRateLimiter(api.RateLimitConfig{
			RequestsPerMinute: cfg.Dispatch.RateLimitPerMinute,
			Burst:             cfg.Dispatch.RateLimitBurst,
		}),
	})

	services := []lifecycle.Service{
		lifecycle.NewHTTPService("api", &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
			Handler:           newRouter(cfg, app.Health, apiHandlers),
			ReadHeaderTimeout: 10 * time.Second,
		}),
	}

	if cfg.Sweeper.Enabled {
		sw := sweeper.New(ledger, endpoints, notifier, auditService, newElector(app), sweeper.Config{
			Interval:   cfg.Sweeper.Interval,
			Grace:      cfg.Sweeper.Grace,
			StaleAfter: cfg.SweeperStaleAfter(),
			BatchSize:  cfg.Sweeper.BatchSize,
		})
		app.Health.AddLivenessCheck(health.ServiceCheck(sw.Name(), sw.Health, func() map[string]any {
			return map[string]any{"leader": sw.IsPrimary()}
		}))
		services = append(services, sw)
	}

	return lifecycle.Run(ctx, services...)
}

// newElector uses Redis when configured; a lone instance is always leader.
func newElector(app *lifecycle.App) leader.Elector {
	lockCfg := leader.DefaultConfig(sweeper.LockName)
	if app.Config.Leader.InstanceID != "" {
		lockCfg.InstanceID = app.Config.Leader.InstanceID
	}

	if app.Redis == nil {
		slog.Info("Redis not configured - this instance sweeps as the only leader")
		return leader.NewStaticElector(lockCfg.InstanceID)
	}

	lockCfg.TTL = app.Config.Leader.TTL
	lockCfg.RefreshInterval = app.Config.Leader.RefreshInterval
	return leader.NewRedisLeaderElector(app.Redis, lockCfg)
}

// setupQueue starts the configured lifecycle event publisher.
func setupQueue(ctx context.Context, app *lifecycle.App) (queue.Publisher, error) {
	cfg := app.Config
	queueType, _ := queue.ParseType(cfg.Queue.Type)

	switch queueType {
	case queue.QueueTypeEmbedded:
		slog.Info("Starting embedded NATS server")
		embedded, err := natsqueue.NewEmbeddedServer(ctx, natsqueue.EmbeddedConfigFrom(&cfg.Queue))
		if err != nil {
			return nil, fmt.Errorf("failed to start embedded NATS server: %w", err)
		}
		app.AddCleanup(embedded.Close)
		app.Health.AddReadinessCheck(health.NATSCheck(func() bool {
			return embedded.Connection().IsConnected()
		}))
		return embedded.Publisher(), nil

	case queue.QueueTypeNATS:
		slog.Info("Connecting to external NATS server", "url", cfg.Queue.NATS.URL)
		client, err := natsqueue.NewClient(ctx, &cfg.Queue.NATS)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS server: %w", err)
		}
		app.AddCleanup(client.Close)
		app.Health.AddReadinessCheck(health.NATSCheck(func() bool {
			return client.Connection().IsConnected()
		}))
		return client.Publisher(), nil

	case queue.QueueTypeSQS:
		slog.Info("Connecting to AWS SQS",
			"region", cfg.Queue.SQS.Region,
			"queueURL", cfg.Queue.SQS.QueueURL)
		client, err := sqsqueue.NewClient(ctx, &cfg.Queue.SQS)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQS client: %w", err)
		}
		app.AddCleanup(client.Close)
		app.Health.AddReadinessCheck(health.SQSCheck(client.HealthCheck))
		return client.Publisher(), nil

	default:
		slog.Warn("Execution lifecycle events are disabled", "queueType", cfg.Queue.Type)
		return queue.NoopPublisher{}, nil
	}
}

func newRouter(cfg *config.Config, checker *health.Checker, apiHandlers *api.Handlers) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(common.TracingMiddleware)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(api.Metrics)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.HTTP.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Correlation-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints
	r.Get("/q/health", checker.HandleHealth)
	r.Get("/q/health/live", checker.HandleLive)
	r.Get("/q/health/ready", checker.HandleReady)

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", apiHandlers.Routes)

	return r
}
