package models

// Alert severities.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert statuses. Only StatusActive alerts are held in the live collection;
// acknowledged and resolved alerts are fetched from history endpoints.
const (
	StatusActive       = "active"
	StatusAcknowledged = "acknowledged"
	StatusResolved     = "resolved"
)

// AlertDetails carries free-form context for an alert, including the phrase
// that triggered it when the backend detected one.
type AlertDetails struct {
	TriggerPhrase  string  `json:"trigger_phrase,omitempty"`
	SentimentScore float64 `json:"sentiment_score,omitempty"`
	Context        string  `json:"context,omitempty"`
}

// Alert is a supervisor alert raised against a call. AlertID is the primary
// key within the active-alerts collection.
type Alert struct {
	AlertID         string        `json:"alert_id"`
	CallID          string        `json:"call_id"`
	AlertType       string        `json:"alert_type,omitempty"`
	Severity        string        `json:"severity"`
	Title           string        `json:"title"`
	Message         string        `json:"message"`
	Details         *AlertDetails `json:"details,omitempty"`
	CreatedAt       string        `json:"created_at,omitempty"`
	Status          string        `json:"status"`
	AcknowledgedBy  string        `json:"acknowledged_by,omitempty"`
	AcknowledgedAt  string        `json:"acknowledged_at,omitempty"`
	ResolutionNotes string        `json:"resolution_notes,omitempty"`
}
