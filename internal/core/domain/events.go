package domain

import "time"

// ConversionEvent is an append-only audit record written once per conversion.
// The registry remains the source of truth; this log is a derived trail.
type ConversionEvent struct {
	Timestamp          time.Time          `json:"timestamp"`
	LeadID             string             `json:"lead_id"`
	ModelVersion       string             `json:"model_version"`
	ConversionRate     float64            `json:"conversion_rate_after"`
	TotalPredictions   int64              `json:"total_predictions"`
	TotalConversions   int64              `json:"total_conversions"`
	ConfidenceInterval ConfidenceInterval `json:"confidence_interval"`
}

// BatchPercentiles summarizes the spread of a batch's output probabilities.
type BatchPercentiles struct {
	P10 float64 `json:"p10"`
	P25 float64 `json:"p25"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
}

// BatchStats are summary statistics over one batch's output probabilities.
type BatchStats struct {
	Mean        float64          `json:"mean"`
	Median      float64          `json:"median"`
	Std         float64          `json:"std"`
	Count       int              `json:"count"`
	Percentiles BatchPercentiles `json:"percentiles"`
}

// MonitoringBatch is an append-only log record written once per scored batch.
type MonitoringBatch struct {
	Timestamp    time.Time  `json:"timestamp"`
	ModelVersion string     `json:"model_version"`
	BatchSize    int        `json:"batch_size"`
	Source       string     `json:"source"`
	Stats        BatchStats `json:"stats"`
}
