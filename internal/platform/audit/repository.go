package audit

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go.aocore.tech/internal/common/repository"
	"go.aocore.tech/internal/platform/common"
)

var ErrNotFound = repository.ErrNotFound

// Page selects a zero-based page of results.
type Page struct {
	Number int
	Size   int
}

// Repository provides access to audit log data. Entries for aggregate
// mutations are written by the unit of work; Insert is for system entries.
type Repository interface {
	Insert(ctx context.Context, log *AuditLog) error
	FindByID(ctx context.Context, id string) (*AuditLog, error)

	// FindByEntity returns the history of one entity, newest first.
	FindByEntity(ctx context.Context, entityType, entityID string) ([]*AuditLog, error)

	// List returns one page of entries, newest first, and the total match count.
	// An empty entityType matches every entry.
	List(ctx context.Context, entityType string, page Page) ([]*AuditLog, int64, error)
}

type mongoRepository struct {
	collection *mongo.Collection
}

// NewRepository creates a new audit log repository
func NewRepository(db *mongo.Database) Repository {
	return &instrumentedRepository{inner: &mongoRepository{
		collection: db.Collection(common.AuditLogsCollection),
	}}
}

func (r *mongoRepository) Insert(ctx context.Context, log *AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.PerformedAt.IsZero() {
		log.PerformedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, log)
	return err
}

func (r *mongoRepository) FindByID(ctx context.Context, id string) (*AuditLog, error) {
	var log AuditLog
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&log)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &log, nil
}

func (r *mongoRepository) FindByEntity(ctx context.Context, entityType, entityID string) ([]*AuditLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "performedAt", Value: -1}})
	return r.find(ctx, bson.M{"entityType": entityType, "entityId": entityID}, opts)
}

func (r *mongoRepository) List(ctx context.Context, entityType string, page Page) ([]*AuditLog, int64, error) {
	filter := bson.M{}
	if entityType != "" {
		filter["entityType"] = entityType
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "performedAt", Value: -1}}).
		SetSkip(int64(page.Number * page.Size)).
		SetLimit(int64(page.Size))
	logs, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func (r *mongoRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*AuditLog, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	logs := []*AuditLog{}
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

type instrumentedRepository struct {
	inner Repository
}

func (r *instrumentedRepository) Insert(ctx context.Context, log *AuditLog) error {
	return repository.InstrumentVoid(ctx, common.AuditLogsCollection, "Insert", func() error {
		return r.inner.Insert(ctx, log)
	})
}

func (r *instrumentedRepository) FindByID(ctx context.Context, id string) (*AuditLog, error) {
	return repository.Instrument(ctx, common.AuditLogsCollection, "FindByID", func() (*AuditLog, error) {
		return r.inner.FindByID(ctx, id)
	})
}

func (r *instrumentedRepository) FindByEntity(ctx context.Context, entityType, entityID string) ([]*AuditLog, error) {
	return repository.Instrument(ctx, common.AuditLogsCollection, "FindByEntity", func() ([]*AuditLog, error) {
		return r.inner.FindByEntity(ctx, entityType, entityID)
	})
}

func (r *instrumentedRepository) List(ctx context.Context, entityType string, page Page) ([]*AuditLog, int64, error) {
	var total int64
	logs, err := repository.Instrument(ctx, common.AuditLogsCollection, "List", func() ([]*AuditLog, error) {
		logs, n, err := r.inner.List(ctx, entityType, page)
		total = n
		return logs, err
	})
	return logs, total, err
}

// MemoryRepository is an in-process Repository for tests.
type MemoryRepository struct {
	mu   sync.RWMutex
	logs []*AuditLog
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Insert(_ context.Context, log *AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.PerformedAt.IsZero() {
		log.PerformedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *log
	r.logs = append(r.logs, &cp)
	return nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*AuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.logs {
		if l.ID == id {
			cp := *l
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) FindByEntity(_ context.Context, entityType, entityID string) ([]*AuditLog, error) {
	return r.collect(func(l *AuditLog) bool {
		return l.EntityType == entityType && l.EntityID == entityID
	}), nil
}

func (r *MemoryRepository) List(_ context.Context, entityType string, page Page) ([]*AuditLog, int64, error) {
	matches := r.collect(func(l *AuditLog) bool {
		return entityType == "" || l.EntityType == entityType
	})
	total := int64(len(matches))

	start := page.Number * page.Size
	if start >= len(matches) {
		return []*AuditLog{}, total, nil
	}
	end := min(start+page.Size, len(matches))
	return matches[start:end], total, nil
}

func (r *MemoryRepository) collect(match func(*AuditLog) bool) []*AuditLog {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*AuditLog{}
	for _, l := range r.logs {
		if match(l) {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PerformedAt.After(out[j].PerformedAt)
	})
	return out
}
