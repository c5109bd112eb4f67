package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"lead-scoring-service/internal/core/domain"
	ports "lead-scoring-service/internal/core/ports/output"
)

// artifact is the on-disk format produced by the training collaborator:
// a fitted logistic scorer over the preprocessed feature vector.
type artifact struct {
	ModelVersion string    `json:"model_version"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// manifest lists trained versions in training order; the last entry is the
// "latest trained version" used as the selector's terminal fallback.
type manifest struct {
	Versions []string `json:"versions"`
}

type store struct {
	dir          string
	manifestPath string
}

// NewStore resolves versioned model artifacts from a directory of
// <version>.json files plus a versions.json manifest.
func NewStore(dir string) ports.ArtifactStore {
	return &store{
		dir:          dir,
		manifestPath: filepath.Join(dir, "versions.json"),
	}
}

func (s *store) Load(_ context.Context, version string) (ports.Predictor, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, version+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrArtifactMissing, version)
		}
		return nil, fmt.Errorf("read artifact %s: %w", version, err)
	}

	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", version, err)
	}
	if len(a.Coefficients) == 0 {
		return nil, fmt.Errorf("artifact %s has no coefficients", version)
	}

	return &logisticPredictor{
		intercept:    a.Intercept,
		coefficients: a.Coefficients,
	}, nil
}

func (s *store) LatestVersion(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read versions manifest: %w", err)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return "", fmt.Errorf("decode versions manifest: %w", err)
	}
	if len(m.Versions) == 0 {
		return "", nil
	}
	return m.Versions[len(m.Versions)-1], nil
}

// logisticPredictor scores a lead as sigmoid(intercept + w·x).
type logisticPredictor struct {
	intercept    float64
	coefficients []float64
}

func (p *logisticPredictor) Predict(batch domain.LeadBatch) ([]float64, error) {
	probabilities := make([]float64, len(batch))
	for i, lead := range batch {
		if len(lead.Features) != len(p.coefficients) {
			return nil, fmt.Errorf("%w: lead %s has %d features, model expects %d",
				domain.ErrFeatureDimension, lead.LeadID, len(lead.Features), len(p.coefficients))
		}
		z := p.intercept
		for j, x := range lead.Features {
			z += p.coefficients[j] * x
		}
		probabilities[i] = 1 / (1 + math.Exp(-z))
	}
	return probabilities, nil
}
