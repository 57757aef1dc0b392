package store

import (
	"sync"

	"supervisor-console/pkg/metrics"
	"supervisor-console/pkg/models"

	"github.com/sirupsen/logrus"
)

// Store holds the engine's materialized view of live contact-center state:
// the active-calls collection, the active-alerts collection, and the metrics
// snapshot. Mutations are serialized by an internal mutex and never fail;
// collection invariants (one call per call_id, one alert per alert_id, only
// active alerts retained) are enforced here so every writer gets them for
// free.
type Store struct {
	logger *logrus.Logger

	mutex   sync.RWMutex
	calls   []models.Call
	alerts  []models.Alert
	metrics models.Metrics

	subMutex    sync.Mutex
	subscribers map[int]chan struct{}
	nextSubID   int
}

// NewStore creates an empty store with a defaulted metrics snapshot.
func NewStore(logger *logrus.Logger) *Store {
	return &Store{
		logger:      logger,
		metrics:     models.DefaultMetrics(),
		subscribers: make(map[int]chan struct{}),
	}
}

// ActiveCalls returns a copy of the active-calls collection, most recent
// first.
func (s *Store) ActiveCalls() []models.Call {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]models.Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// ActiveAlerts returns a copy of the active-alerts collection, most recent
// first.
func (s *Store) ActiveAlerts() []models.Alert {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]models.Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// Metrics returns a copy of the current metrics snapshot.
func (s *Store) Metrics() models.Metrics {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.metrics.Clone()
}

// Call returns the active call with the given id, if present.
func (s *Store) Call(callID string) (models.Call, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for i := range s.calls {
		if s.calls[i].CallID == callID {
			return s.calls[i], true
		}
	}
	return models.Call{}, false
}

// UpsertCall inserts a call at the front of the collection, or replaces the
// existing entry in place when the call_id is already present.
func (s *Store) UpsertCall(call models.Call) {
	s.mutex.Lock()
	for i := range s.calls {
		if s.calls[i].CallID == call.CallID {
			s.calls[i] = call
			s.mutex.Unlock()
			s.notify()
			return
		}
	}
	s.calls = append([]models.Call{call}, s.calls...)
	s.mutex.Unlock()
	s.notify()
}

// UpdateCall applies fn to the call with the given id under the store lock.
// Returns false without calling fn when the call is not present; updates
// never create a call.
func (s *Store) UpdateCall(callID string, fn func(*models.Call)) bool {
	s.mutex.Lock()
	for i := range s.calls {
		if s.calls[i].CallID == callID {
			fn(&s.calls[i])
			s.mutex.Unlock()
			s.notify()
			return true
		}
	}
	s.mutex.Unlock()
	return false
}

// RemoveCall removes the call with the given id. Absence is a no-op.
func (s *Store) RemoveCall(callID string) bool {
	s.mutex.Lock()
	for i := range s.calls {
		if s.calls[i].CallID == callID {
			s.calls = append(s.calls[:i], s.calls[i+1:]...)
			s.mutex.Unlock()
			s.notify()
			return true
		}
	}
	s.mutex.Unlock()
	return false
}

// InsertAlertFront adds an alert at the front of the active-alerts
// collection. An alert with a terminal status is skipped, and an existing
// entry with the same alert_id is replaced rather than duplicated.
func (s *Store) InsertAlertFront(alert models.Alert) {
	if alert.Status != "" && alert.Status != models.StatusActive {
		return
	}

	s.mutex.Lock()
	for i := range s.alerts {
		if s.alerts[i].AlertID == alert.AlertID {
			s.alerts[i] = alert
			s.mutex.Unlock()
			s.notify()
			return
		}
	}
	s.alerts = append([]models.Alert{alert}, s.alerts...)
	s.mutex.Unlock()
	s.notify()
}

// RemoveAlert removes the alert with the given id. Absence is a no-op.
func (s *Store) RemoveAlert(alertID string) bool {
	s.mutex.Lock()
	for i := range s.alerts {
		if s.alerts[i].AlertID == alertID {
			s.alerts = append(s.alerts[:i], s.alerts[i+1:]...)
			s.mutex.Unlock()
			s.notify()
			return true
		}
	}
	s.mutex.Unlock()
	return false
}

// MergeMetrics shallow-merges update into the metrics snapshot. Fields not
// present in update keep their prior value.
func (s *Store) MergeMetrics(update models.Metrics) {
	if len(update) == 0 {
		return
	}

	s.mutex.Lock()
	s.metrics.Merge(update)
	s.mutex.Unlock()
	s.notify()
}

// ReplaceCalls overwrites the whole active-calls collection with a poll
// snapshot. Duplicate call_ids in the snapshot are collapsed, first
// occurrence wins.
func (s *Store) ReplaceCalls(calls []models.Call) {
	deduped := make([]models.Call, 0, len(calls))
	seen := make(map[string]bool, len(calls))
	for _, c := range calls {
		if seen[c.CallID] {
			continue
		}
		seen[c.CallID] = true
		deduped = append(deduped, c)
	}

	s.mutex.Lock()
	s.calls = deduped
	s.mutex.Unlock()
	s.notify()
}

// ReplaceAlerts overwrites the whole active-alerts collection with a poll
// snapshot, dropping entries with terminal statuses.
func (s *Store) ReplaceAlerts(alerts []models.Alert) {
	kept := make([]models.Alert, 0, len(alerts))
	seen := make(map[string]bool, len(alerts))
	for _, a := range alerts {
		if seen[a.AlertID] {
			continue
		}
		if a.Status != "" && a.Status != models.StatusActive {
			continue
		}
		seen[a.AlertID] = true
		kept = append(kept, a)
	}

	s.mutex.Lock()
	s.alerts = kept
	s.mutex.Unlock()
	s.notify()
}

// Subscribe registers a change listener. The returned channel receives a
// coalesced signal after each mutation; the cancel function must be called
// to release the subscription.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.subMutex.Lock()
	id := s.nextSubID
	s.nextSubID++
	ch := make(chan struct{}, 1)
	s.subscribers[id] = ch
	s.subMutex.Unlock()

	cancel := func() {
		s.subMutex.Lock()
		delete(s.subscribers, id)
		s.subMutex.Unlock()
	}
	return ch, cancel
}

// notify signals subscribers and refreshes the store gauges. Signals are
// dropped when a subscriber already has one pending.
func (s *Store) notify() {
	s.mutex.RLock()
	nCalls := len(s.calls)
	nAlerts := len(s.alerts)
	s.mutex.RUnlock()

	metrics.StoreActiveCalls.Set(float64(nCalls))
	metrics.StoreActiveAlerts.Set(float64(nAlerts))

	s.subMutex.Lock()
	for _, ch := range s.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	s.subMutex.Unlock()
}
