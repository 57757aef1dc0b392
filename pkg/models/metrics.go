package models

// Metrics field names the engine and its consumers rely on. The backend may
// attach additional fields; they are carried through the shallow merge.
const (
	MetricActiveCalls  = "active_calls"
	MetricAvgSentiment = "avg_sentiment"
	MetricAlertsCount  = "alerts_count"
	MetricLongestCall  = "longest_call"
)

// Metrics is the realtime metrics snapshot. Updates are partial documents
// carrying only the fields they change, so the snapshot is an open document
// rather than a fixed struct: known fields have typed accessors, unknown
// backend extensions ride along untouched.
type Metrics map[string]interface{}

// DefaultMetrics returns the zero-valued snapshot the engine starts with.
// The snapshot is never absent; before the first update these defaults show.
func DefaultMetrics() Metrics {
	return Metrics{
		MetricActiveCalls:  0,
		MetricAvgSentiment: 0.0,
		MetricAlertsCount:  0,
		MetricLongestCall:  0,
	}
}

// Merge copies every field of update into m, overwriting on key collision and
// leaving absent fields at their prior value.
func (m Metrics) Merge(update Metrics) {
	for k, v := range update {
		m[k] = v
	}
}

// Clone returns a shallow copy of the snapshot.
func (m Metrics) Clone() Metrics {
	out := make(Metrics, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ActiveCalls returns the active-call count field.
func (m Metrics) ActiveCalls() int { return m.intField(MetricActiveCalls) }

// AlertsCount returns the active-alert count field.
func (m Metrics) AlertsCount() int { return m.intField(MetricAlertsCount) }

// LongestCall returns the longest-call duration field in seconds.
func (m Metrics) LongestCall() int { return m.intField(MetricLongestCall) }

// AvgSentiment returns the average-sentiment field.
func (m Metrics) AvgSentiment() float64 { return m.floatField(MetricAvgSentiment) }

// intField tolerates the two numeric representations that reach the snapshot:
// Go ints set locally and float64 values produced by JSON decoding.
func (m Metrics) intField(key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func (m Metrics) floatField(key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}
