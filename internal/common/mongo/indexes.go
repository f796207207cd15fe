package mongo

import (
	"context"
	"errors"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// IndexDefinition defines a MongoDB index
type IndexDefinition struct {
	Collection string
	Keys       bson.D
	Options    *options.IndexOptions

	// Required indexes back an invariant; failing to create one aborts startup
	Required bool
}

// IndexInitializer creates indexes on startup
type IndexInitializer struct {
	db *mongo.Database
}

// NewIndexInitializer creates a new index initializer
func NewIndexInitializer(db *mongo.Database) *IndexInitializer {
	return &IndexInitializer{db: db}
}

// Initialize creates all indexes. Optional index failures are logged; a
// required index failure is returned.
func (i *IndexInitializer) Initialize(ctx context.Context) error {
	indexes := IndexDefinitions()

	var errs []error
	for _, idx := range indexes {
		if err := i.createIndex(ctx, idx); err != nil {
			if idx.Required {
				errs = append(errs, err)
				continue
			}
			slog.Warn("Failed to create index (may already exist)",
				"error", err,
				"collection", idx.Collection)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	slog.Info("Index initialization complete", "count", len(indexes))
	return nil
}

func (i *IndexInitializer) createIndex(ctx context.Context, idx IndexDefinition) error {
	indexModel := mongo.IndexModel{
		Keys:    idx.Keys,
		Options: idx.Options,
	}

	_, err := i.db.Collection(idx.Collection).Indexes().CreateOne(ctx, indexModel)
	return err
}

// IndexDefinitions lists every index aocore relies on.
func IndexDefinitions() []IndexDefinition {
	return []IndexDefinition{
		// webhook_registry: at most one active endpoint per (workflow_name, brand).
		// A null brand is a value of its own, so the brand-agnostic slot is unique too.
		{
			Collection: "webhook_registry",
			Keys:       bson.D{{Key: "workflow_name", Value: 1}, {Key: "brand", Value: 1}},
			Options: options.Index().
				SetName("uniq_active_workflow_brand").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": "active"}),
			Required: true,
		},
		{
			Collection: "webhook_registry",
			Keys:       bson.D{{Key: "brand", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Collection: "webhook_registry",
			Keys:       bson.D{{Key: "created_at", Value: -1}},
		},

		// workflow_executions
		{
			Collection: "workflow_executions",
			Keys:       bson.D{{Key: "created_at", Value: -1}},
		},
		{
			Collection: "workflow_executions",
			Keys:       bson.D{{Key: "workflow_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Collection: "workflow_executions",
			Keys:       bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			// Sweeper scan of stale pending records
			Collection: "workflow_executions",
			Keys:       bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}},
		},
		{
			Collection: "workflow_executions",
			Keys:       bson.D{{Key: "status", Value: 1}, {Key: "deadline_at", Value: 1}},
		},

		// brand_configurations
		{
			Collection: "brand_configurations",
			Keys:       bson.D{{Key: "brand_key", Value: 1}},
			Options:    options.Index().SetName("uniq_brand_key").SetUnique(true),
			Required:   true,
		},

		// audit_logs
		{
			Collection: "audit_logs",
			Keys:       bson.D{{Key: "entityType", Value: 1}, {Key: "entityId", Value: 1}, {Key: "performedAt", Value: -1}},
		},
		{
			Collection: "audit_logs",
			Keys:       bson.D{{Key: "performedAt", Value: -1}},
		},
	}
}
