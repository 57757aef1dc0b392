package models

import "encoding/json"

// Push-channel event types. Frames with any other type are ignored so newer
// backends can add events without breaking older consoles.
const (
	EventCallUpdate        = "call_update"
	EventCallStarted       = "call_started"
	EventCallEnded         = "call_ended"
	EventAlertNew          = "alert_new"
	EventAlertAcknowledged = "alert_acknowledged"
	EventAlertResolved     = "alert_resolved"
	EventMetricsUpdate     = "metrics_update"
)

// Envelope wraps every push-channel frame. Data stays raw until the
// dispatcher knows the type to decode it as.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// CallUpdateEvent is the payload of a call_update frame: a partial refresh of
// one in-progress call carrying its newest transcript entry.
type CallUpdateEvent struct {
	CallID          string           `json:"call_id"`
	HealthScore     int              `json:"health_score"`
	DurationSeconds int              `json:"duration_seconds"`
	AvgSentiment    float64          `json:"avg_sentiment"`
	TranscriptEntry *TranscriptEntry `json:"transcript_entry"`
}

// CallEndedEvent is the payload of a call_ended frame.
type CallEndedEvent struct {
	CallID   string `json:"call_id"`
	Duration int    `json:"duration,omitempty"`
}

// AlertLifecycleEvent is the payload of alert_acknowledged and alert_resolved
// frames.
type AlertLifecycleEvent struct {
	AlertID string `json:"alert_id"`
}
