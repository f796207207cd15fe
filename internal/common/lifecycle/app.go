package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"go.aocore.tech/internal/common/health"
	mongoclient "go.aocore.tech/internal/common/mongo"
	"go.aocore.tech/internal/config"
)

// App holds initialized infrastructure that is guaranteed to be connected.
// If you have an *App, you know the database is connected and ready.
//
// Queue and secrets initialization is left to the binary since the
// backend choice varies by deployment.
type App struct {
	Config *config.Config

	// Database
	Mongo *mongoclient.Client
	DB    *mongo.Database

	// Redis is nil when not configured
	Redis redis.UniversalClient

	Health *health.Checker

	// Internal cleanup - call AddCleanup to register cleanup functions
	cleanupFuncs []func() error
}

// AppOptions configures which infrastructure to initialize.
type AppOptions struct {
	// NeedsMongoDB indicates MongoDB connection is required
	NeedsMongoDB bool

	// EnsureIndexes creates the MongoDB indexes after connecting
	EnsureIndexes bool
}

// Initialize creates an App with connected infrastructure.
// Returns an error if any required connection fails.
//
// Usage:
//
//	app, cleanup, err := lifecycle.Initialize(ctx, cfg, lifecycle.AppOptions{
//	    NeedsMongoDB:  true,
//	    EnsureIndexes: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
func Initialize(ctx context.Context, cfg *config.Config, opts AppOptions) (*App, func(), error) {
	app := &App{
		Config: cfg,
		Health: health.NewChecker(),
	}

	if opts.NeedsMongoDB {
		if err := app.initMongoDB(ctx, opts.EnsureIndexes); err != nil {
			app.Cleanup()
			return nil, nil, err
		}
	}

	if cfg.Redis.URL != "" {
		if err := app.initRedis(ctx); err != nil {
			app.Cleanup()
			return nil, nil, err
		}
	}

	return app, app.Cleanup, nil
}

// AddCleanup registers a cleanup function to be called on shutdown.
// Functions are called in reverse order of registration.
func (app *App) AddCleanup(fn func() error) {
	app.cleanupFuncs = append(app.cleanupFuncs, fn)
}

// initMongoDB connects to MongoDB and optionally creates indexes.
func (app *App) initMongoDB(ctx context.Context, ensureIndexes bool) error {
	slog.Info("Connecting to MongoDB", "database", app.Config.MongoDB.Database)

	client, err := mongoclient.Connect(ctx, app.Config.MongoDB)
	if err != nil {
		return err
	}

	app.Mongo = client
	app.DB = client.Database()
	app.AddCleanup(func() error {
		return client.Disconnect(context.Background())
	})
	app.Health.AddReadinessCheck(health.MongoDBCheck(client.Ping))

	if ensureIndexes {
		if err := mongoclient.NewIndexInitializer(app.DB).Initialize(ctx); err != nil {
			return fmt.Errorf("failed to create required indexes: %w", err)
		}
	}
	return nil
}

// initRedis connects to Redis; a configured but unreachable Redis fails startup.
func (app *App) initRedis(ctx context.Context) error {
	opts, err := redis.ParseURL(app.Config.Redis.URL)
	if err != nil {
		return fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to ping Redis at %s: %w", opts.Addr, err)
	}

	slog.Info("Connected to Redis", "addr", opts.Addr, "db", opts.DB)

	app.Redis = client
	app.AddCleanup(func() error {
		slog.Info("Closing Redis connection")
		return client.Close()
	})
	app.Health.AddReadinessCheck(health.RedisCheck(client))
	return nil
}

// Cleanup runs all cleanup functions in reverse order.
func (app *App) Cleanup() {
	for i := len(app.cleanupFuncs) - 1; i >= 0; i-- {
		if err := app.cleanupFuncs[i](); err != nil {
			slog.Error("Cleanup error", "error", err)
		}
	}
	app.cleanupFuncs = nil
}
