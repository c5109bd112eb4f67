package ports

import (
	"context"

	"lead-scoring-service/internal/core/domain"
)

// Predictor is an opaque loaded model artifact. Predict returns one
// conversion probability in [0,1] per lead, in batch order.
type Predictor interface {
	Predict(batch domain.LeadBatch) ([]float64, error)
}

// ArtifactStore resolves trained model artifacts by version identifier.
type ArtifactStore interface {
	// Load returns the predictor for a version, or domain.ErrArtifactMissing
	// if no artifact exists for it.
	Load(ctx context.Context, version string) (Predictor, error)

	// LatestVersion returns the most recently trained version identifier,
	// used as the selector's terminal fallback. Returns "" when the training
	// collaborator has never produced a model.
	LatestVersion(ctx context.Context) (string, error)
}
