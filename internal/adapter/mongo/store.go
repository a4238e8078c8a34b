// Package mongo is the collection gateway: thin per-collection operations
// against the managed document store, collection resolved from a record kind.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hazemap/hazemap-api/internal/config"
	"github.com/hazemap/hazemap-api/internal/domain"
)

// Store wraps one database handle and exposes kind-scoped operations.
// It is shared read-only across requests; the driver's own pooling and
// deadline mechanics handle concurrency and timeouts.
type Store struct {
	client *driver.Client
	db     *driver.Database
	clock  clockwork.Clock
	logger *slog.Logger
}

// Connect dials the configured Mongo deployment and verifies it with a ping.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	client, err := driver.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Store{
		client: client,
		db:     client.Database(cfg.MongoDatabase),
		clock:  clockwork.NewRealClock(),
		logger: logger,
	}, nil
}

// NewStore builds a Store around an existing database handle. Used by
// integration tests to inject a containerized deployment and a fake clock.
func NewStore(db *driver.Database, clock clockwork.Clock, logger *slog.Logger) *Store {
	return &Store{client: db.Client(), db: db, clock: clock, logger: logger}
}

// Close releases the underlying client connections.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping verifies the store is reachable. Used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) collection(kind domain.Kind) *driver.Collection {
	return s.db.Collection(kind.Collection())
}

// InsertRecord stamps createdAt from the gateway clock and submits the
// record, returning the store-generated identifier as a hex string. Writes
// are not idempotent; callers must not retry on failure.
func (s *Store) InsertRecord(ctx context.Context, rec domain.Record) (string, error) {
	kind := rec.RecordKind()
	rec.StampCreatedAt(s.clock.Now().UTC())

	res, err := s.collection(kind).InsertOne(ctx, rec)
	if err != nil {
		return "", &domain.StoreError{Op: "insert", Kind: kind, Err: err}
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", &domain.StoreError{Op: "insert", Kind: kind,
			Err: fmt.Errorf("unexpected inserted id type %T", res.InsertedID)}
	}
	return oid.Hex(), nil
}

// SensorReadings returns sensor readings matching the filter. A zero filter
// reads the whole collection.
func (s *Store) SensorReadings(ctx context.Context, f domain.Filter) ([]domain.SensorReading, error) {
	return readFiltered[domain.SensorReading](ctx, s.collection(domain.KindSensor), domain.KindSensor, f)
}

// CitizenReports returns citizen reports matching the filter.
func (s *Store) CitizenReports(ctx context.Context, f domain.Filter) ([]domain.CitizenReport, error) {
	return readFiltered[domain.CitizenReport](ctx, s.collection(domain.KindCitizen), domain.KindCitizen, f)
}

// PreReports returns pre-burn reports matching the filter.
func (s *Store) PreReports(ctx context.Context, f domain.Filter) ([]domain.PreReport, error) {
	return readFiltered[domain.PreReport](ctx, s.collection(domain.KindPre), domain.KindPre, f)
}

// FetchIDs returns up to limit document identifiers from the collection,
// projected to _id only. One page of the bulk-erase loop.
func (s *Store) FetchIDs(ctx context.Context, kind domain.Kind, limit int) ([]primitive.ObjectID, error) {
	opts := options.Find().
		SetLimit(int64(limit)).
		SetProjection(bson.M{"_id": 1})

	cur, err := s.collection(kind).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, &domain.StoreError{Op: "fetch ids", Kind: kind, Err: err}
	}

	var page []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &page); err != nil {
		return nil, &domain.StoreError{Op: "fetch ids", Kind: kind, Err: err}
	}

	ids := make([]primitive.ObjectID, len(page))
	for i, doc := range page {
		ids[i] = doc.ID
	}
	return ids, nil
}

// DeleteByIDs removes the given documents as one batch and returns the
// number actually deleted.
func (s *Store) DeleteByIDs(ctx context.Context, kind domain.Kind, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	res, err := s.collection(kind).DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, &domain.StoreError{Op: "delete batch", Kind: kind, Err: err}
	}
	return res.DeletedCount, nil
}

// readFiltered runs a Find with the translated predicate and decodes the
// cursor into a non-nil slice, so callers can always render an empty list.
func readFiltered[T any](ctx context.Context, c *driver.Collection, kind domain.Kind, f domain.Filter) ([]T, error) {
	cur, err := c.Find(ctx, filterQuery(f))
	if err != nil {
		return nil, &domain.StoreError{Op: "read", Kind: kind, Err: err}
	}

	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, &domain.StoreError{Op: "read", Kind: kind, Err: err}
	}
	return out, nil
}

// filterQuery translates a domain filter into a Mongo predicate. The window
// semantics are strictly-greater-than on an epoch-millis field.
func filterQuery(f domain.Filter) bson.M {
	if f.IsZero() {
		return bson.M{}
	}
	return bson.M{f.Field: bson.M{"$gt": f.After}}
}
