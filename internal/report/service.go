// Package report orchestrates ingestion, snapshot reads, and bulk erasure
// across the three record collections.
package report

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hazemap/hazemap-api/internal/domain"
	"github.com/hazemap/hazemap-api/internal/observability"
)

// Store is the collection gateway the service runs against.
type Store interface {
	InsertRecord(ctx context.Context, rec domain.Record) (string, error)
	SensorReadings(ctx context.Context, f domain.Filter) ([]domain.SensorReading, error)
	CitizenReports(ctx context.Context, f domain.Filter) ([]domain.CitizenReport, error)
	PreReports(ctx context.Context, f domain.Filter) ([]domain.PreReport, error)
	FetchIDs(ctx context.Context, kind domain.Kind, limit int) ([]primitive.ObjectID, error)
	DeleteByIDs(ctx context.Context, kind domain.Kind, ids []primitive.ObjectID) (int64, error)
	Ping(ctx context.Context) error
}

// Publisher announces successfully ingested records to downstream consumers.
type Publisher interface {
	PublishIngest(ctx context.Context, kind domain.Kind, id string, rec domain.Record) error
}

// Service wires the normalizer, gateway, and optional publisher together.
type Service struct {
	store           Store
	publisher       Publisher // nil when ingest publishing is disabled
	logger          *slog.Logger
	metrics         *observability.Metrics
	deleteBatchSize int
}

// New creates a Service. publisher may be nil.
func New(store Store, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics, deleteBatchSize int) *Service {
	return &Service{
		store:           store,
		publisher:       publisher,
		logger:          logger,
		metrics:         metrics,
		deleteBatchSize: deleteBatchSize,
	}
}

// CheckReadiness reports whether the document store is reachable.
func (s *Service) CheckReadiness(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Ingest normalizes an untyped payload and writes it to the kind's
// collection, returning the store-generated id. Validation failures return a
// *domain.ValidationError with no write attempted. Writes are never retried:
// the insert is not idempotent and a retry would duplicate the record.
func (s *Service) Ingest(ctx context.Context, kind domain.Kind, payload map[string]any) (string, error) {
	rec, err := domain.Normalize(kind, payload)
	if err != nil {
		s.metrics.ValidationRejected.WithLabelValues(string(kind)).Inc()
		return "", err
	}

	id, err := s.store.InsertRecord(ctx, rec)
	if err != nil {
		s.metrics.StoreErrors.WithLabelValues("insert", string(kind)).Inc()
		s.logger.Error("insert failed", "kind", kind, "error", err)
		return "", err
	}

	s.metrics.RecordsIngested.WithLabelValues(string(kind)).Inc()
	s.publishIngest(ctx, kind, id, rec)

	return id, nil
}

// publishIngest announces the record on the ingest topic when publishing is
// enabled. Failures are logged and counted but never fail the client request.
func (s *Service) publishIngest(ctx context.Context, kind domain.Kind, id string, rec domain.Record) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishIngest(ctx, kind, id, rec); err != nil {
		s.metrics.IngestPublishErrors.Inc()
		s.logger.Warn("ingest publish failed", "kind", kind, "id", id, "error", err)
	}
}

// Snapshot reads all three collections concurrently, filtered to currently
// relevant records at a single instant. On partial failure the returned
// Snapshot still carries empty slices for the failed parts together with a
// non-nil error, so the caller can serve a best-effort body alongside a 500.
func (s *Service) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	s.metrics.SnapshotRequests.Inc()
	start := time.Now()
	defer func() {
		s.metrics.SnapshotDuration.Observe(time.Since(start).Seconds())
	}()

	// One instant for all three filters: no visibility skew between
	// collections within a single response.
	now := domain.Now()

	var (
		wg   sync.WaitGroup
		snap domain.Snapshot
		errs [3]error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		snap.SensorData, errs[0] = s.store.SensorReadings(ctx, domain.ActiveFilter(domain.KindSensor, now))
	}()
	go func() {
		defer wg.Done()
		snap.CitizenReports, errs[1] = s.store.CitizenReports(ctx, domain.ActiveFilter(domain.KindCitizen, now))
	}()
	go func() {
		defer wg.Done()
		snap.PreReports, errs[2] = s.store.PreReports(ctx, domain.ActiveFilter(domain.KindPre, now))
	}()
	wg.Wait()

	for i, kind := range domain.Kinds() {
		if errs[i] != nil {
			s.metrics.StoreErrors.WithLabelValues("read", string(kind)).Inc()
			s.logger.Error("snapshot read failed", "kind", kind, "error", errs[i])
		}
	}

	// Empty-array fallbacks so a partial frontend can still render the map.
	if snap.SensorData == nil {
		snap.SensorData = []domain.SensorReading{}
	}
	if snap.CitizenReports == nil {
		snap.CitizenReports = []domain.CitizenReport{}
	}
	if snap.PreReports == nil {
		snap.PreReports = []domain.PreReport{}
	}

	return snap, errors.Join(errs[0], errs[1], errs[2])
}
