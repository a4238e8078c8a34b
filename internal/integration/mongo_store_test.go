//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mongoadapter "github.com/hazemap/hazemap-api/internal/adapter/mongo"
	"github.com/hazemap/hazemap-api/internal/domain"
	"github.com/hazemap/hazemap-api/internal/observability"
	"github.com/hazemap/hazemap-api/internal/report"
)

var frozenNow = time.Date(2025, time.June, 14, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startMongo runs a disposable Mongo container and returns a database handle
// unique to the calling test.
func startMongo(ctx context.Context, t *testing.T) *driver.Database {
	t.Helper()

	container, err := tcmongo.Run(ctx, "mongo:7")
	require.NoError(t, err, "start mongo container")
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := driver.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	require.NoError(t, client.Ping(ctx, nil))

	return client.Database(fmt.Sprintf("hazemap_test_%d", time.Now().UnixNano()))
}

func newService(t *testing.T, db *driver.Database, batchSize int) (*report.Service, *mongoadapter.Store) {
	t.Helper()
	store := mongoadapter.NewStore(db, clockwork.NewFakeClockAt(frozenNow), discardLogger())
	svc := report.New(store, nil, discardLogger(), observability.NewMetricsForTesting(), batchSize)
	return svc, store
}

func freezeDomainClock(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(frozenNow))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func TestInsertReadRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	freezeDomainClock(t)
	db := startMongo(ctx, t)
	svc, _ := newService(t, db, 300)

	eventTime := frozenNow.Add(-time.Hour).UnixMilli()
	id, err := svc.Ingest(ctx, domain.KindSensor, map[string]any{
		"lat":   "37.5",
		"lon":   -122.1,
		"smoke": 0.42,
		"temp":  "28",
		"time":  float64(eventTime),
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.SensorData, 1)

	got := snap.SensorData[0]
	assert.Equal(t, id, got.ID.Hex())
	assert.Equal(t, 37.5, got.Lat)
	assert.Equal(t, -122.1, got.Lon)
	assert.Equal(t, 0.42, got.Smoke)
	assert.Equal(t, 28.0, got.Temp)
	assert.Equal(t, 0.0, got.Humidity)
	assert.Equal(t, eventTime, got.Time)
	assert.Equal(t, frozenNow.UnixMilli(), got.CreatedAt.UnixMilli(),
		"createdAt comes from the gateway clock, not the client")
}

func TestSnapshotWindows(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	freezeDomainClock(t)
	db := startMongo(ctx, t)
	svc, _ := newService(t, db, 300)

	fresh, err := svc.Ingest(ctx, domain.KindSensor, map[string]any{
		"lat": 1.0, "lon": 2.0, "smoke": 0.1, "temp": 20.0,
		"time": float64(frozenNow.Add(-time.Hour).UnixMilli()),
	})
	require.NoError(t, err)

	_, err = svc.Ingest(ctx, domain.KindSensor, map[string]any{
		"lat": 1.0, "lon": 2.0, "smoke": 0.1, "temp": 20.0,
		"time": float64(frozenNow.Add(-25 * time.Hour).UnixMilli()),
	})
	require.NoError(t, err)

	_, err = svc.Ingest(ctx, domain.KindPre, map[string]any{
		"lat": 3.0, "lon": 4.0,
		"startDate": float64(frozenNow.Add(-48 * time.Hour).UnixMilli()),
		"endDate":   float64(frozenNow.Add(time.Hour).UnixMilli()),
	})
	require.NoError(t, err)

	_, err = svc.Ingest(ctx, domain.KindPre, map[string]any{
		"lat": 5.0, "lon": 6.0,
		"startDate": float64(frozenNow.Add(-48 * time.Hour).UnixMilli()),
		"endDate":   float64(frozenNow.Add(-time.Second).UnixMilli()),
	})
	require.NoError(t, err)

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	require.Len(t, snap.SensorData, 1, "the 25h-old reading is outside the recency window")
	assert.Equal(t, fresh, snap.SensorData[0].ID.Hex())

	require.Len(t, snap.PreReports, 1, "the expired pre-report is excluded")
	assert.Equal(t, frozenNow.Add(time.Hour).UnixMilli(), snap.PreReports[0].EndDate)

	// An old startDate alone never hides a pre-report.
	assert.Less(t, snap.PreReports[0].StartDate, frozenNow.UnixMilli())
}

func TestBulkErase(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	freezeDomainClock(t)
	db := startMongo(ctx, t)
	svc, _ := newService(t, db, 300)

	// Seed 700 sensor documents directly; driving them through Ingest would
	// dominate the test's runtime.
	docs := make([]any, 700)
	for i := range docs {
		docs[i] = bson.M{"lat": 1.0, "lon": 2.0, "smoke": 0.1, "temp": 20.0,
			"time": frozenNow.UnixMilli(), "createdAt": frozenNow}
	}
	_, err := db.Collection(domain.KindSensor.Collection()).InsertMany(ctx, docs)
	require.NoError(t, err)

	_, err = svc.Ingest(ctx, domain.KindCitizen, map[string]any{"lat": 1.0, "lon": 2.0})
	require.NoError(t, err)

	res := svc.EraseAll(ctx)
	require.True(t, res.OK(), "erase failed: %v", res.Failed)
	assert.Equal(t, int64(700), res.Deleted["sensorData"])
	assert.Equal(t, int64(1), res.Deleted["citizenReports"])
	assert.Equal(t, int64(0), res.Deleted["preReports"])

	// Erasing empty collections is a no-op, not an error.
	res = svc.EraseAll(ctx)
	require.True(t, res.OK())
	assert.Equal(t, int64(0), res.Deleted["sensorData"])

	n, err := db.Collection(domain.KindSensor.Collection()).CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStorePing(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := startMongo(ctx, t)
	_, store := newService(t, db, 300)

	assert.NoError(t, store.Ping(ctx))
}
