package execution

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go.aocore.tech/internal/common/repository"
)

var (
	ErrNotFound     = repository.ErrNotFound
	ErrInvalidState = repository.ErrInvalidState
)

// mongoRepository provides MongoDB access to execution records
type mongoRepository struct {
	executions *mongo.Collection
}

// NewRepository creates a new execution repository with instrumentation
func NewRepository(db *mongo.Database) Repository {
	return newInstrumentedRepository(&mongoRepository{
		executions: db.Collection(CollectionName),
	})
}

func (r *mongoRepository) Insert(ctx context.Context, record *Record) error {
	_, err := r.executions.InsertOne(ctx, record)
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicateKey
	}
	return err
}

// TransitionFromPending is a single conditional update so that two racing
// completions cannot both succeed.
func (r *mongoRepository) TransitionFromPending(ctx context.Context, id string, t Transition) (*Record, error) {
	update := bson.M{"$set": bson.M{
		"status":            t.Status,
		"output_payload":    t.OutputPayload,
		"error_message":     t.ErrorMessage,
		"execution_time_ms": t.ExecutionTimeMs,
		"completed_at":      t.CompletedAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var record Record
	err := r.executions.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": StatusPending}, update, opts).Decode(&record)
	if err == nil {
		return &record, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// Distinguish a missing record from one that is no longer pending.
	count, err := r.executions.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrNotFound
	}
	return nil, ErrInvalidState
}

func (r *mongoRepository) FindByID(ctx context.Context, id string) (*Record, error) {
	var record Record
	err := r.executions.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *mongoRepository) List(ctx context.Context, f ListFilter, limit int) ([]*Record, error) {
	filter := bson.M{}
	if f.EndpointID != nil {
		filter["workflow_id"] = *f.EndpointID
	}
	if f.UserID != nil {
		filter["user_id"] = *f.UserID
	}
	if f.Status != nil {
		filter["status"] = *f.Status
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	return r.find(ctx, filter, opts)
}

func (r *mongoRepository) FindStalePending(ctx context.Context, cutoff StaleCutoff, limit int) ([]*Record, error) {
	filter := bson.M{
		"status": StatusPending,
		"$or": bson.A{
			bson.M{"deadline_at": bson.M{"$lt": cutoff.DeadlineBefore}},
			bson.M{"deadline_at": nil, "created_at": bson.M{"$lt": cutoff.CreatedBefore}},
		},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))
	return r.find(ctx, filter, opts)
}

func (r *mongoRepository) CountByStatus(ctx context.Context, status Status) (int64, error) {
	return r.executions.CountDocuments(ctx, bson.M{"status": status})
}

func (r *mongoRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*Record, error) {
	cursor, err := r.executions.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := []*Record{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
