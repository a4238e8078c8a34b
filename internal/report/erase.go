package report

import (
	"context"

	"github.com/hazemap/hazemap-api/internal/domain"
)

// EraseResult aggregates the outcome of a multi-collection erase, keyed by
// collection name. A collection appears in Failed when its loop aborted;
// Deleted still records whatever batches committed before the failure.
type EraseResult struct {
	Deleted map[string]int64
	Failed  map[string]string
}

// OK reports whether every collection was drained without error.
func (r EraseResult) OK() bool { return len(r.Failed) == 0 }

// EraseAll drains every collection. Failure on one kind does not prevent
// attempting the others; per-kind counts and errors are aggregated so one bad
// collection cannot block cleanup of the rest.
func (s *Service) EraseAll(ctx context.Context) EraseResult {
	res := EraseResult{
		Deleted: make(map[string]int64, 3),
		Failed:  make(map[string]string),
	}

	for _, kind := range domain.Kinds() {
		n, err := s.eraseCollection(ctx, kind)
		res.Deleted[kind.Collection()] = n
		if err != nil {
			s.metrics.StoreErrors.WithLabelValues("erase", string(kind)).Inc()
			s.logger.Error("erase failed", "kind", kind, "deleted", n, "error", err)
			res.Failed[kind.Collection()] = err.Error()
			continue
		}
		s.logger.Info("collection erased", "kind", kind, "deleted", n)
	}

	return res
}

// eraseCollection drains one collection in bounded batches: fetch a page of
// ids, delete it as a single batch, repeat until a fetch comes back empty.
// Committed batches are not rolled back on a later failure; full-collection
// deletion is only atomic within each batch.
func (s *Service) eraseCollection(ctx context.Context, kind domain.Kind) (int64, error) {
	var total int64

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		ids, err := s.store.FetchIDs(ctx, kind, s.deleteBatchSize)
		if err != nil {
			return total, err
		}
		if len(ids) == 0 {
			return total, nil
		}

		n, err := s.store.DeleteByIDs(ctx, kind, ids)
		if err != nil {
			return total, err
		}

		total += n
		s.metrics.EraseBatches.Inc()
		s.metrics.RecordsDeleted.WithLabelValues(string(kind)).Add(float64(n))
	}
}
