package outcome_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/pulsewatch/server/pkg/endpoint/aggregates"
	"github.com/pulsewatch/server/pkg/outcome"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu         sync.Mutex
	limit      int
	since      time.Time
	thresholds []time.Time
	deleteErr  error
}

func (f *fakeStore) ListOutcomes(ctx context.Context, endpointID string, limit int) ([]*aggregates.Outcome, error) {
	f.limit = limit
	return []*aggregates.Outcome{{EndpointID: endpointID, Healthy: true}}, nil
}

func (f *fakeStore) SummarizeOutcomes(ctx context.Context, endpointID string, since time.Time) (*aggregates.Summary, error) {
	f.since = since
	return &aggregates.Summary{EndpointID: endpointID, Success: 3, Failure: 1, Since: since}, nil
}

func (f *fakeStore) DeleteOutcomesBefore(ctx context.Context, threshold time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.thresholds = append(f.thresholds, threshold)
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	return 4, nil
}

func (f *fakeStore) cleanups() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.thresholds)
}

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, store *fakeStore, config outcome.Configuration) (*outcome.Service, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	service, err := outcome.New(slog.Default(), store, config, reg)
	require.NoError(t, err)
	service.SetClock(func() time.Time { return fixedNow })
	return service, reg
}

func TestListOutcomes(t *testing.T) {
	store := &fakeStore{}
	service, _ := newService(t, store, outcome.Configuration{})

	outcomes, err := service.ListOutcomes(context.Background(), "abc", 0)
	require.NoError(t, err)
	assert.Len(t, outcomes, 1)
	assert.Equal(t, outcome.DefaultLimit, store.limit)

	_, err = service.ListOutcomes(context.Background(), "abc", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, store.limit)

	_, err = service.ListOutcomes(context.Background(), "abc", outcome.MaxLimit+1)
	assert.Error(t, err)
	_, err = service.ListOutcomes(context.Background(), "abc", -1)
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	store := &fakeStore{}
	service, _ := newService(t, store, outcome.Configuration{})

	summary, err := service.Summary(context.Background(), "abc", 0)
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Add(-outcome.DefaultWindow), store.since)
	assert.InDelta(t, 0.75, summary.Uptime(), 0.0001)

	_, err = service.Summary(context.Background(), "abc", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Add(-time.Hour), store.since)

	_, err = service.Summary(context.Background(), "abc", -time.Hour)
	assert.Error(t, err)
}

func TestCleanOutcomes(t *testing.T) {
	store := &fakeStore{}
	service, reg := newService(t, store, outcome.Configuration{Days: 7})

	count, err := service.CleanOutcomes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
	require.Len(t, store.thresholds, 1)
	assert.Equal(t, fixedNow.Add(-7*24*time.Hour), store.thresholds[0])

	store.deleteErr = errors.New("database unavailable")
	_, err = service.CleanOutcomes(context.Background())
	assert.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "outcome_cleanup_executions_total", families[0].GetName())
	assert.Len(t, families[0].GetMetric(), 2)
}

func TestRetentionLoop(t *testing.T) {
	store := &fakeStore{}
	service, _ := newService(t, store, outcome.Configuration{Interval: 10 * time.Millisecond})
	service.Start()
	assert.Eventually(t, func() bool {
		return store.cleanups() >= 2
	}, time.Second, 5*time.Millisecond)
	service.Stop()
}

func TestStopWithoutStart(t *testing.T) {
	store := &fakeStore{}
	service, _ := newService(t, store, outcome.Configuration{Interval: 10 * time.Millisecond})
	assert.NotPanics(t, service.Stop)
	assert.NotPanics(t, service.Stop)

	// a stopped service does not restart
	service.Start()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, store.cleanups())
}

func TestStopTwice(t *testing.T) {
	store := &fakeStore{}
	service, _ := newService(t, store, outcome.Configuration{Interval: 10 * time.Millisecond})
	service.Start()
	service.Start()
	assert.Eventually(t, func() bool {
		return store.cleanups() >= 1
	}, time.Second, 5*time.Millisecond)
	service.Stop()
	assert.NotPanics(t, service.Stop)
	count := store.cleanups()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, count, store.cleanups())
}
