package models

// CustomerProfile describes the customer side of a call as reported by the
// contact-center backend. All fields are backend-supplied and opaque to the
// engine; they are carried through for presentation.
type CustomerProfile struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Phone              string  `json:"phone,omitempty"`
	AccountType        string  `json:"account_type,omitempty"`
	LifetimeValue      float64 `json:"lifetime_value,omitempty"`
	PreviousCallsCount int     `json:"previous_calls_count,omitempty"`
	LastIssue          string  `json:"last_issue,omitempty"`
}

// AgentRef identifies the agent handling a call.
type AgentRef struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Skills []string `json:"skills,omitempty"`
}

// EntryAnalysis is the per-utterance AI analysis attached to a transcript entry.
type EntryAnalysis struct {
	Sentiment float64  `json:"sentiment"`
	Intent    string   `json:"intent,omitempty"`
	Keywords  []string `json:"keywords,omitempty"`
	Flags     []string `json:"flags,omitempty"`
}

// TranscriptEntry is one utterance in a call transcript.
type TranscriptEntry struct {
	Speaker   string         `json:"speaker"`
	Text      string         `json:"text"`
	Timestamp string         `json:"timestamp,omitempty"`
	Analysis  *EntryAnalysis `json:"analysis,omitempty"`
}

// Risk levels reported in AISummary.RiskLevel.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// Sentiment trends reported in AISummary.SentimentTrend.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// AISummary is the rolling AI assessment of a call. OverallSentiment is in
// [-1, 1]; RiskLevel and SentimentTrend use the constants above.
type AISummary struct {
	OverallSentiment   float64  `json:"overall_sentiment"`
	SentimentTrend     string   `json:"sentiment_trend,omitempty"`
	PrimaryIssue       string   `json:"primary_issue,omitempty"`
	TopicsDiscussed    []string `json:"topics_discussed,omitempty"`
	RiskLevel          string   `json:"risk_level,omitempty"`
	ChurnProbability   float64  `json:"churn_probability,omitempty"`
	RecommendedActions []string `json:"recommended_actions,omitempty"`
}

// SupervisorAction records one supervisor intervention on a call.
type SupervisorAction struct {
	Action      string `json:"action"`
	Details     string `json:"details,omitempty"`
	PerformedBy string `json:"performed_by,omitempty"`
	PerformedAt string `json:"performed_at,omitempty"`
}

// AlertRef is the embedded record of an alert triggered during a call.
type AlertRef struct {
	AlertType    string `json:"alert_type"`
	Severity     string `json:"severity"`
	Message      string `json:"message"`
	TriggeredAt  string `json:"triggered_at,omitempty"`
	Acknowledged bool   `json:"acknowledged"`
}

// CallResolution describes how an ended call closed out.
type CallResolution struct {
	Resolved             bool   `json:"resolved"`
	ResolutionType       string `json:"resolution_type,omitempty"`
	CustomerSatisfaction int    `json:"customer_satisfaction,omitempty"`
}

// Call is a contact-center call as tracked in the live active-calls
// collection. CallID is the primary key; HealthScore is a backend-derived
// 0-100 quality indicator.
type Call struct {
	CallID            string             `json:"call_id"`
	Status            string             `json:"status,omitempty"`
	Channel           string             `json:"channel,omitempty"`
	StartedAt         string             `json:"started_at,omitempty"`
	EndedAt           string             `json:"ended_at,omitempty"`
	DurationSeconds   int                `json:"duration_seconds"`
	Customer          CustomerProfile    `json:"customer"`
	Agent             AgentRef           `json:"agent"`
	HealthScore       int                `json:"health_score"`
	Transcript        []TranscriptEntry  `json:"transcript"`
	AISummary         AISummary          `json:"ai_summary"`
	AlertsTriggered   []AlertRef         `json:"alerts_triggered,omitempty"`
	SupervisorActions []SupervisorAction `json:"supervisor_actions,omitempty"`
	Resolution        *CallResolution    `json:"resolution,omitempty"`
}
