package model

// Insight is a data-quality suggestion produced by the LLM oracle for one
// record, e.g. "display name looks derived from the email address".
type Insight struct {
	RecordID   string  `json:"record_id"`
	Field      string  `json:"field"`
	Current    string  `json:"current"`
	Suggested  string  `json:"suggested"`
	Reason     string  `json:"reason,omitempty"`
	Confidence float64 `json:"confidence"` // 0..1
	AutoApply  bool    `json:"auto_apply"`
}

// InsightResponse is the JSON envelope the oracle is asked to return.
type InsightResponse struct {
	Insights []Insight `json:"insights"`
}
