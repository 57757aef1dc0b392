package dispatch

import (
	"context"
	"encoding/json"

	"supervisor-console/pkg/metrics"
	"supervisor-console/pkg/models"
	"supervisor-console/pkg/store"

	"github.com/sirupsen/logrus"
)

// Dispatcher routes decoded push-channel envelopes to state-store mutations.
// It is the only component that interprets event payloads; the connection
// manager hands it envelopes without knowing what they mean. Unknown event
// types are ignored so a newer backend can emit events an older console has
// never heard of.
type Dispatcher struct {
	store  *store.Store
	logger *logrus.Logger
}

// NewDispatcher creates a dispatcher bound to the given store
func NewDispatcher(st *store.Store, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		store:  st,
		logger: logger,
	}
}

// Run drains the envelope channel until it closes or the context is
// canceled. This is the message-passing boundary between connection
// lifecycle and mutation application: synthetic envelopes can be fed here in
// tests without any connection at all.
func (d *Dispatcher) Run(ctx context.Context, envelopes <-chan models.Envelope) {
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-envelopes:
			if !ok {
				return
			}
			d.Apply(env)
		}
	}
}

// Apply executes the state mutation for a single envelope. Payloads that do
// not decode as their declared type are dropped; a corrupt frame is
// indistinguishable from channel noise and the next poll corrects any gap.
func (d *Dispatcher) Apply(env models.Envelope) {
	metrics.WSFramesReceived.WithLabelValues(env.Type).Inc()

	switch env.Type {
	case models.EventCallUpdate:
		d.applyCallUpdate(env.Data)
	case models.EventCallStarted:
		d.applyCallStarted(env.Data)
	case models.EventCallEnded:
		d.applyCallEnded(env.Data)
	case models.EventAlertNew:
		d.applyAlertNew(env.Data)
	case models.EventAlertAcknowledged, models.EventAlertResolved:
		d.applyAlertRemoval(env.Type, env.Data)
	case models.EventMetricsUpdate:
		d.applyMetricsUpdate(env.Data)
	default:
		d.logger.WithField("type", env.Type).Debug("Ignoring unknown event type")
	}
}

func (d *Dispatcher) applyCallUpdate(data json.RawMessage) {
	var ev models.CallUpdateEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		d.dropPayload(models.EventCallUpdate, err)
		return
	}

	// Updates never create a call; an update for an unknown id is dropped
	// and the call surfaces on the next poll if it is real.
	updated := d.store.UpdateCall(ev.CallID, func(c *models.Call) {
		c.HealthScore = ev.HealthScore
		c.DurationSeconds = ev.DurationSeconds
		c.AISummary.OverallSentiment = ev.AvgSentiment
		// The live view keeps only the newest transcript line; full history
		// comes from the transcript endpoint on demand.
		if ev.TranscriptEntry != nil {
			c.Transcript = []models.TranscriptEntry{*ev.TranscriptEntry}
		}
	})
	if !updated {
		d.logger.WithField("call_id", ev.CallID).Debug("Update for unknown call dropped")
	}
}

func (d *Dispatcher) applyCallStarted(data json.RawMessage) {
	var call models.Call
	if err := json.Unmarshal(data, &call); err != nil {
		d.dropPayload(models.EventCallStarted, err)
		return
	}
	if call.CallID == "" {
		d.dropPayload(models.EventCallStarted, nil)
		return
	}

	d.store.UpsertCall(call)
	d.logger.WithFields(logrus.Fields{
		"call_id": call.CallID,
		"agent":   call.Agent.Name,
	}).Debug("Call started")
}

func (d *Dispatcher) applyCallEnded(data json.RawMessage) {
	var ev models.CallEndedEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		d.dropPayload(models.EventCallEnded, err)
		return
	}

	if d.store.RemoveCall(ev.CallID) {
		d.logger.WithField("call_id", ev.CallID).Debug("Call ended")
	}
}

func (d *Dispatcher) applyAlertNew(data json.RawMessage) {
	var alert models.Alert
	if err := json.Unmarshal(data, &alert); err != nil {
		d.dropPayload(models.EventAlertNew, err)
		return
	}
	if alert.AlertID == "" {
		d.dropPayload(models.EventAlertNew, nil)
		return
	}

	d.store.InsertAlertFront(alert)
	d.logger.WithFields(logrus.Fields{
		"alert_id": alert.AlertID,
		"severity": alert.Severity,
		"call_id":  alert.CallID,
	}).Info("Alert raised")
}

func (d *Dispatcher) applyAlertRemoval(eventType string, data json.RawMessage) {
	var ev models.AlertLifecycleEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		d.dropPayload(eventType, err)
		return
	}

	if d.store.RemoveAlert(ev.AlertID) {
		d.logger.WithFields(logrus.Fields{
			"alert_id": ev.AlertID,
			"event":    eventType,
		}).Debug("Alert cleared")
	}
}

func (d *Dispatcher) applyMetricsUpdate(data json.RawMessage) {
	var update models.Metrics
	if err := json.Unmarshal(data, &update); err != nil {
		d.dropPayload(models.EventMetricsUpdate, err)
		return
	}

	d.store.MergeMetrics(update)
}

func (d *Dispatcher) dropPayload(eventType string, err error) {
	metrics.WSFramesDropped.Inc()
	entry := d.logger.WithField("type", eventType)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Debug("Dropping undecodable event payload")
}
