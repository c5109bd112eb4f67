package domain

import "time"

// ModelStatus defines whether a model version is eligible for traffic.
type ModelStatus string

const (
	ModelStatusActive  ModelStatus = "active"
	ModelStatusRetired ModelStatus = "retired"
)

// PlaceholderVersion marks a registry entry that was bootstrapped before any
// real model was trained. The selector treats it as "no model".
const PlaceholderVersion = "default_model"

// ConfidenceInterval is a Wald interval over a conversion rate, in percent.
// Lower and Upper are clamped to [0, 100]; for extreme small-sample cases the
// clamped interval may not bracket the point estimate. That is accepted
// behavior of the normal approximation, not a bug to correct here.
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// ModelRecord holds the durable per-version performance statistics that
// drive traffic allocation. LastUpdated never precedes FirstSeen.
// TotalConversions normally stays at or below TotalPredictions; feedback
// arriving before the version scores its first batch can push it past, and
// the counters are kept as reported rather than clamped.
type ModelRecord struct {
	Version            string             `json:"model_version"`
	TotalPredictions   int64              `json:"total_predictions"`
	TotalConversions   int64              `json:"total_conversions"`
	ConversionRate     float64            `json:"conversion_rate"` // percent
	ConfidenceInterval ConfidenceInterval `json:"confidence_interval"`
	FirstSeen          time.Time          `json:"first_seen"`
	LastUpdated        time.Time          `json:"last_updated"`
	Status             ModelStatus        `json:"status"`
}

// NewModelRecord bootstraps a record with zeroed counters and active status.
func NewModelRecord(version string, now time.Time) *ModelRecord {
	return &ModelRecord{
		Version:     version,
		FirstSeen:   now,
		LastUpdated: now,
		Status:      ModelStatusActive,
	}
}

// RecalculateRate derives the conversion rate (percent) from the counters.
func (r *ModelRecord) RecalculateRate() {
	if r.TotalPredictions == 0 {
		r.ConversionRate = 0
		return
	}
	r.ConversionRate = float64(r.TotalConversions) / float64(r.TotalPredictions) * 100
}

// IsActive reports whether the record is eligible for allocation.
func (r *ModelRecord) IsActive() bool {
	return r.Status == ModelStatusActive
}
