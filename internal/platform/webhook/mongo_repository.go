package webhook

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go.aocore.tech/internal/common/repository"
)

// ErrNotFound is returned when no endpoint matches.
var ErrNotFound = repository.ErrNotFound

// mongoRepository provides MongoDB access to registered endpoints
type mongoRepository struct {
	endpoints *mongo.Collection
}

// NewRepository creates a new endpoint repository with instrumentation
func NewRepository(db *mongo.Database) Repository {
	return newInstrumentedRepository(&mongoRepository{
		endpoints: db.Collection(CollectionName),
	})
}

// brandFilter matches an exact brand, or null/missing when brand is nil.
func brandFilter(brand *string) any {
	if brand == nil {
		return nil
	}
	return *brand
}

func (r *mongoRepository) FindByID(ctx context.Context, id string) (*Endpoint, error) {
	var e Endpoint
	err := r.endpoints.FindOne(ctx, bson.M{"_id": id}).Decode(&e)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *mongoRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*Endpoint, error) {
	result := make(map[string]*Endpoint, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	found, err := r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find())
	if err != nil {
		return nil, err
	}
	for _, e := range found {
		result[e.ID] = e
	}
	return result, nil
}

func (r *mongoRepository) FindActive(ctx context.Context, workflowName string, brand *string) (*Endpoint, error) {
	filter := bson.M{
		"workflow_name": workflowName,
		"status":        StatusActive,
		"brand":         brandFilter(brand),
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(2)

	candidates, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return resolveActive(ctx, workflowName, brand, candidates)
}

func (r *mongoRepository) FindActiveByName(ctx context.Context, workflowName string) (*Endpoint, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	var e Endpoint
	err := r.endpoints.FindOne(ctx, bson.M{"workflow_name": workflowName, "status": StatusActive}, opts).Decode(&e)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *mongoRepository) ActiveExists(ctx context.Context, workflowName string, brand *string, excludeID string) (bool, error) {
	filter := bson.M{
		"workflow_name": workflowName,
		"status":        StatusActive,
		"brand":         brandFilter(brand),
	}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}

	count, err := r.endpoints.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *mongoRepository) List(ctx context.Context, f ListFilter) ([]*Endpoint, error) {
	filter := bson.M{}
	switch {
	case f.Brand != nil:
		filter["brand"] = *f.Brand
	case f.Unbranded:
		filter["brand"] = nil
	}
	if f.Status != nil {
		filter["status"] = *f.Status
	}

	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (r *mongoRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*Endpoint, error) {
	cursor, err := r.endpoints.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	endpoints := []*Endpoint{}
	if err := cursor.All(ctx, &endpoints); err != nil {
		return nil, err
	}
	return endpoints, nil
}
