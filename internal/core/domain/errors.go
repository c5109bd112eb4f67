package domain

import "errors"

// ============================================================================
// Selection & Scoring Errors
// ============================================================================

var (
	ErrNoModelAvailable = errors.New("no model available for prediction")
	ErrModelLoadFailed  = errors.New("model artifact load failed")
	ErrModelNotLoaded   = errors.New("model is not loaded")
	ErrArtifactMissing  = errors.New("model artifact not found")
)

// ============================================================================
// Registry Errors
// ============================================================================

var (
	ErrUnknownModel           = errors.New("model version not tracked in performance registry")
	ErrModelAlreadyRegistered = errors.New("model version already registered")
	ErrModelRecordNotFound    = errors.New("model record not found")
)

// ============================================================================
// Validation Errors
// ============================================================================

var (
	ErrInvalidModelVersion = errors.New("model version is required")
	ErrInvalidLeadID       = errors.New("lead ID is required")
	ErrEmptyBatch          = errors.New("prediction batch is empty")
	ErrFeatureDimension    = errors.New("lead feature vector does not match model dimension")
)
