package models

// Agent is an entry from the agents roster. Consumed by presentation, not by
// the sync engine's materialized state.
type Agent struct {
	AgentID          string   `json:"agent_id"`
	Name             string   `json:"name"`
	Status           string   `json:"status,omitempty"`
	CurrentCallID    string   `json:"current_call_id,omitempty"`
	Skills           []string `json:"skills,omitempty"`
	CallsHandled     int      `json:"calls_handled,omitempty"`
	AvgHandleTime    float64  `json:"avg_handle_time,omitempty"`
	AvgSentiment     float64  `json:"avg_sentiment,omitempty"`
	SatisfactionAvg  float64  `json:"satisfaction_avg,omitempty"`
	EscalationsCount int      `json:"escalations_count,omitempty"`
}

// SimulationStatus reports whether the backend's call simulator is running
// and with what configuration.
type SimulationStatus struct {
	Running     bool                   `json:"running"`
	Config      map[string]interface{} `json:"config,omitempty"`
	ActiveCalls int                    `json:"active_calls,omitempty"`
}

// SimulationConfig carries the tunable knobs of the backend call simulator.
// Nil fields are left unchanged by the backend.
type SimulationConfig struct {
	NumCalls              *int     `json:"num_calls,omitempty"`
	IssueFrequency        *float64 `json:"issue_frequency,omitempty"`
	SentimentDistribution *string  `json:"sentiment_distribution,omitempty"`
	MessageInterval       *int     `json:"message_interval,omitempty"`
}

// HourlyVolume is one bucket of the hourly call-volume aggregate.
type HourlyVolume struct {
	Hour         int     `json:"hour"`
	Calls        int     `json:"calls"`
	AvgSentiment float64 `json:"avg_sentiment"`
}

// IssueCount is one row of the issue-distribution aggregate.
type IssueCount struct {
	Issue string `json:"issue"`
	Count int    `json:"count"`
}

// AnalyticsExport is the report produced by the analytics export operation:
// recently ended calls without their transcripts.
type AnalyticsExport struct {
	ExportData []Call `json:"export_data"`
	ExportedAt string `json:"exported_at"`
	Count      int    `json:"count"`
}
