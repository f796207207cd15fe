package brand

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go.aocore.tech/internal/common/repository"
)

// ErrNotFound is returned when no brand matches.
var ErrNotFound = repository.ErrNotFound

type mongoRepository struct {
	brands *mongo.Collection
}

// NewRepository creates a new brand repository with instrumentation
func NewRepository(db *mongo.Database) Repository {
	return newInstrumentedRepository(&mongoRepository{
		brands: db.Collection(CollectionName),
	})
}

func (r *mongoRepository) FindByID(ctx context.Context, id string) (*Configuration, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoRepository) FindByKey(ctx context.Context, key string) (*Configuration, error) {
	return r.findOne(ctx, bson.M{"brand_key": key})
}

func (r *mongoRepository) List(ctx context.Context) ([]*Configuration, error) {
	opts := options.Find().SetSort(bson.D{{Key: "brand_display_name", Value: 1}, {Key: "brand_key", Value: 1}})
	cursor, err := r.brands.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	brands := []*Configuration{}
	if err := cursor.All(ctx, &brands); err != nil {
		return nil, err
	}
	return brands, nil
}

func (r *mongoRepository) findOne(ctx context.Context, filter bson.M) (*Configuration, error) {
	var c Configuration
	if err := r.brands.FindOne(ctx, filter).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
