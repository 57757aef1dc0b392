package poll

import (
	"context"
	"sync"
	"time"

	"supervisor-console/pkg/metrics"
	"supervisor-console/pkg/models"
	"supervisor-console/pkg/store"

	"github.com/sirupsen/logrus"
)

// Fetcher is the read-collaborator surface the reconciler needs
type Fetcher interface {
	ActiveCalls(ctx context.Context) ([]models.Call, error)
	ActiveAlerts(ctx context.Context) ([]models.Alert, error)
	RealtimeMetrics(ctx context.Context) (models.Metrics, error)
}

// Reconciler backstops the push channel with periodic full-state polling.
// Every tick it fetches the calls, alerts, and metrics snapshots in parallel
// and overwrites the corresponding store sections, so the materialized view
// never diverges from the server for longer than one interval regardless of
// what the push channel dropped. A failed fetch leaves that section's prior
// state in place; the next tick retries.
type Reconciler struct {
	fetcher  Fetcher
	store    *store.Store
	interval time.Duration
	logger   *logrus.Logger

	mutex    sync.Mutex
	stopChan chan struct{}
	doneChan chan struct{}
	running  bool
}

// NewReconciler creates a poll reconciler
func NewReconciler(fetcher Fetcher, st *store.Store, interval time.Duration, logger *logrus.Logger) *Reconciler {
	return &Reconciler{
		fetcher:  fetcher,
		store:    st,
		interval: interval,
		logger:   logger,
	}
}

// Hydrate runs one reconciliation cycle synchronously. Used at session start
// so the console has state before the first timer tick or push event.
func (r *Reconciler) Hydrate(ctx context.Context) {
	r.reconcile(ctx)
}

// Start launches the polling loop. It is a no-op when already running.
func (r *Reconciler) Start(ctx context.Context) {
	r.mutex.Lock()
	if r.running {
		r.mutex.Unlock()
		return
	}
	r.running = true
	r.stopChan = make(chan struct{})
	r.doneChan = make(chan struct{})
	stopChan := r.stopChan
	doneChan := r.doneChan
	r.mutex.Unlock()

	go func() {
		defer close(doneChan)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.logger.WithField("interval", r.interval).Info("Poll reconciler started")
		for {
			select {
			case <-ticker.C:
				r.reconcile(ctx)
			case <-stopChan:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels the polling timer and waits for the loop to exit
func (r *Reconciler) Stop() {
	r.mutex.Lock()
	if !r.running {
		r.mutex.Unlock()
		return
	}
	r.running = false
	close(r.stopChan)
	doneChan := r.doneChan
	r.mutex.Unlock()

	<-doneChan
	r.logger.Info("Poll reconciler stopped")
}

// reconcile fetches all three sections in parallel and applies whichever
// succeed. Sections are independent: a calls fetch failing does not stop the
// alerts refresh.
func (r *Reconciler) reconcile(ctx context.Context) {
	start := time.Now()
	metrics.PollCycles.Inc()

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		calls, err := r.fetcher.ActiveCalls(ctx)
		if err != nil {
			r.sectionFailed("calls", err)
			return
		}
		r.store.ReplaceCalls(calls)
	}()

	go func() {
		defer wg.Done()
		alerts, err := r.fetcher.ActiveAlerts(ctx)
		if err != nil {
			r.sectionFailed("alerts", err)
			return
		}
		r.store.ReplaceAlerts(alerts)
	}()

	go func() {
		defer wg.Done()
		m, err := r.fetcher.RealtimeMetrics(ctx)
		if err != nil {
			r.sectionFailed("metrics", err)
			return
		}
		r.store.MergeMetrics(m)
	}()

	wg.Wait()
	metrics.PollDuration.Observe(time.Since(start).Seconds())
}

// sectionFailed records a transient read fault. The section keeps its stale
// state and nothing is surfaced; the next tick is the retry.
func (r *Reconciler) sectionFailed(section string, err error) {
	metrics.PollFailures.WithLabelValues(section).Inc()
	r.logger.WithError(err).WithField("section", section).Debug("Poll fetch failed, keeping stale state")
}
