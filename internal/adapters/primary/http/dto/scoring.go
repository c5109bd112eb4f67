package dto

import (
	"time"

	"lead-scoring-service/internal/core/domain"
	"lead-scoring-service/internal/core/services"
)

// ============================================================================
// Request DTOs
// ============================================================================

// LeadRequest is one lead to score.
type LeadRequest struct {
	LeadID   string    `json:"lead_id" binding:"required"`
	Features []float64 `json:"features" binding:"required"`
}

// ScoreRequest represents a batch scoring request.
type ScoreRequest struct {
	Source string        `json:"source"`
	Leads  []LeadRequest `json:"leads" binding:"required"`
}

// ConversionRequest represents a conversion callback.
type ConversionRequest struct {
	LeadID       string `json:"lead_id" binding:"required"`
	ModelVersion string `json:"model_version" binding:"required"`
}

// AddModelRequest registers a freshly trained model version.
type AddModelRequest struct {
	ModelVersion string `json:"model_version" binding:"required"`
}

// ============================================================================
// Response DTOs
// ============================================================================

// ScoreResponse carries the scored batch plus attribution metadata.
type ScoreResponse struct {
	ModelVersion     string            `json:"model_version"`
	Probabilities    []float64         `json:"probabilities"`
	Stats            domain.BatchStats `json:"stats"`
	PredictionTimeMs float64           `json:"prediction_time_ms"`
	TotalTimeMs      float64           `json:"total_time_ms"`
}

// ModelRecordResponse is one registry record.
type ModelRecordResponse struct {
	ModelVersion       string                    `json:"model_version"`
	TotalPredictions   int64                     `json:"total_predictions"`
	TotalConversions   int64                     `json:"total_conversions"`
	ConversionRate     float64                   `json:"conversion_rate"`
	ConfidenceInterval domain.ConfidenceInterval `json:"confidence_interval"`
	FirstSeen          time.Time                 `json:"first_seen"`
	LastUpdated        time.Time                 `json:"last_updated"`
	Status             string                    `json:"status"`
}

// ListModelsResponse wraps the registry listing.
type ListModelsResponse struct {
	Items []ModelRecordResponse `json:"items"`
	Total int                   `json:"total"`
}

// MonitoringResponse wraps recent monitoring entries for one version.
type MonitoringResponse struct {
	ModelVersion string                   `json:"model_version"`
	Items        []domain.MonitoringBatch `json:"items"`
}

// ToScoreResponse converts a core score result.
func ToScoreResponse(result *services.ScoreResult) ScoreResponse {
	return ScoreResponse{
		ModelVersion:     result.ModelVersion,
		Probabilities:    result.Probabilities,
		Stats:            result.Stats,
		PredictionTimeMs: float64(result.PredictionTime.Microseconds()) / 1000,
		TotalTimeMs:      float64(result.TotalTime.Microseconds()) / 1000,
	}
}

// ToModelRecordResponse converts a registry record.
func ToModelRecordResponse(rec domain.ModelRecord) ModelRecordResponse {
	return ModelRecordResponse{
		ModelVersion:       rec.Version,
		TotalPredictions:   rec.TotalPredictions,
		TotalConversions:   rec.TotalConversions,
		ConversionRate:     rec.ConversionRate,
		ConfidenceInterval: rec.ConfidenceInterval,
		FirstSeen:          rec.FirstSeen,
		LastUpdated:        rec.LastUpdated,
		Status:             string(rec.Status),
	}
}

// ToLeadBatch converts request leads into the domain batch.
func ToLeadBatch(leads []LeadRequest) domain.LeadBatch {
	batch := make(domain.LeadBatch, 0, len(leads))
	for _, l := range leads {
		batch = append(batch, domain.Lead{LeadID: l.LeadID, Features: l.Features})
	}
	return batch
}
