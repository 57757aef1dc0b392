package poll

import (
	"context"
	"sync"
	"testing"
	"time"

	"supervisor-console/pkg/models"
	"supervisor-console/pkg/store"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher returns canned snapshots and can be told to fail per section
type fakeFetcher struct {
	mutex   sync.Mutex
	calls   []models.Call
	alerts  []models.Alert
	metrics models.Metrics

	failCalls   bool
	failAlerts  bool
	failMetrics bool

	fetches int
}

func (f *fakeFetcher) ActiveCalls(ctx context.Context) ([]models.Call, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.fetches++
	if f.failCalls {
		return nil, assert.AnError
	}
	return f.calls, nil
}

func (f *fakeFetcher) ActiveAlerts(ctx context.Context) ([]models.Alert, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.failAlerts {
		return nil, assert.AnError
	}
	return f.alerts, nil
}

func (f *fakeFetcher) RealtimeMetrics(ctx context.Context) (models.Metrics, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.failMetrics {
		return nil, assert.AnError
	}
	return f.metrics, nil
}

func (f *fakeFetcher) set(fn func(*fakeFetcher)) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	fn(f)
}

func (f *fakeFetcher) fetchCount() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.fetches
}

func newTestReconciler(f *fakeFetcher, interval time.Duration) (*Reconciler, *store.Store) {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	st := store.NewStore(logger)
	return NewReconciler(f, st, interval, logger), st
}

func TestHydrateFillsAllSections(t *testing.T) {
	f := &fakeFetcher{
		calls:   []models.Call{{CallID: "C1"}, {CallID: "C2"}},
		alerts:  []models.Alert{{AlertID: "A1", Status: models.StatusActive}},
		metrics: models.Metrics{"active_calls": 2, "avg_sentiment": 0.1},
	}
	r, st := newTestReconciler(f, time.Minute)

	r.Hydrate(context.Background())

	assert.Len(t, st.ActiveCalls(), 2)
	assert.Len(t, st.ActiveAlerts(), 1)
	assert.Equal(t, 2, st.Metrics().ActiveCalls())
}

func TestFailedSectionKeepsStaleState(t *testing.T) {
	f := &fakeFetcher{
		calls:   []models.Call{{CallID: "C1"}},
		alerts:  []models.Alert{{AlertID: "A1", Status: models.StatusActive}},
		metrics: models.Metrics{"active_calls": 1},
	}
	r, st := newTestReconciler(f, time.Minute)
	r.Hydrate(context.Background())
	require.Len(t, st.ActiveCalls(), 1)

	// Calls collaborator goes down; its section must stay as-is while the
	// others keep refreshing.
	f.set(func(f *fakeFetcher) {
		f.failCalls = true
		f.alerts = []models.Alert{}
		f.metrics = models.Metrics{"active_calls": 0}
	})
	r.Hydrate(context.Background())

	assert.Len(t, st.ActiveCalls(), 1, "failed section keeps stale state, no reset to empty")
	assert.Empty(t, st.ActiveAlerts(), "healthy sections still refresh")
	assert.Equal(t, 0, st.Metrics().ActiveCalls())
}

func TestAllSectionsFailingLeavesEverything(t *testing.T) {
	f := &fakeFetcher{
		calls:   []models.Call{{CallID: "C1"}},
		alerts:  []models.Alert{{AlertID: "A1", Status: models.StatusActive}},
		metrics: models.Metrics{"active_calls": 1},
	}
	r, st := newTestReconciler(f, time.Minute)
	r.Hydrate(context.Background())

	f.set(func(f *fakeFetcher) {
		f.failCalls = true
		f.failAlerts = true
		f.failMetrics = true
	})
	r.Hydrate(context.Background())

	assert.Len(t, st.ActiveCalls(), 1)
	assert.Len(t, st.ActiveAlerts(), 1)
	assert.Equal(t, 1, st.Metrics().ActiveCalls())
}

func TestPollOverwritesPushState(t *testing.T) {
	f := &fakeFetcher{
		calls: []models.Call{{CallID: "C2", HealthScore: 55}},
	}
	r, st := newTestReconciler(f, time.Minute)

	// Simulate state that arrived over the push channel
	st.UpsertCall(models.Call{CallID: "C1"})
	st.UpsertCall(models.Call{CallID: "C2", HealthScore: 90})

	r.Hydrate(context.Background())

	// The snapshot replaces the collection wholesale: whichever path applied
	// last wins.
	calls := st.ActiveCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "C2", calls[0].CallID)
	assert.Equal(t, 55, calls[0].HealthScore)
}

func TestStartTicksAndStopHalts(t *testing.T) {
	f := &fakeFetcher{metrics: models.Metrics{}}
	r, _ := newTestReconciler(f, 30*time.Millisecond)

	ctx := context.Background()
	r.Start(ctx)

	require.Eventually(t, func() bool { return f.fetchCount() >= 2 },
		2*time.Second, 5*time.Millisecond, "expected repeated poll cycles")

	r.Stop()
	after := f.fetchCount()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, after, f.fetchCount(), "no cycles may run after Stop")
}

func TestStartIsIdempotent(t *testing.T) {
	f := &fakeFetcher{metrics: models.Metrics{}}
	r, _ := newTestReconciler(f, 20*time.Millisecond)

	ctx := context.Background()
	r.Start(ctx)
	r.Start(ctx)
	defer r.Stop()

	time.Sleep(70 * time.Millisecond)

	// A doubled loop would roughly double the cycle count
	assert.LessOrEqual(t, f.fetchCount(), 5)
}

func TestStopWithoutStartIsNoop(t *testing.T) {
	f := &fakeFetcher{}
	r, _ := newTestReconciler(f, time.Minute)
	r.Stop()
}

func TestContextCancelHaltsLoop(t *testing.T) {
	f := &fakeFetcher{metrics: models.Metrics{}}
	r, _ := newTestReconciler(f, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)
	cancel()

	time.Sleep(50 * time.Millisecond)
	after := f.fetchCount()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, after, f.fetchCount())
}
