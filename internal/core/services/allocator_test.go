package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-scoring-service/internal/core/domain"
)

func record(version string, predictions, conversions int64) domain.ModelRecord {
	rec := domain.ModelRecord{
		Version:          version,
		TotalPredictions: predictions,
		TotalConversions: conversions,
		FirstSeen:        time.Now(),
		LastUpdated:      time.Now(),
		Status:           domain.ModelStatusActive,
	}
	rec.RecalculateRate()
	return rec
}

// ============================================================================
// Degenerate Inputs
// ============================================================================

func TestThompsonAllocator_NoModels(t *testing.T) {
	allocator := NewThompsonAllocator(0)

	result := allocator.Allocate(nil)

	assert.True(t, result.Empty())
	assert.Equal(t, domain.ReasonNoActiveModels, result.Reason)
	assert.Empty(t, result.Winner)
}

func TestThompsonAllocator_SingleModel(t *testing.T) {
	allocator := NewThompsonAllocator(0)

	result := allocator.Allocate([]domain.ModelRecord{record("v1", 100, 10)})

	require.Len(t, result.Weights, 1)
	assert.Equal(t, 1.0, result.Weights["v1"])
	assert.Equal(t, domain.AlgorithmSingleModel, result.Algorithm)
	assert.Equal(t, "v1", result.Winner)
	assert.Equal(t, domain.ReasonSingleActiveModel, result.Reason)
}

// ============================================================================
// Sampling Behavior
// ============================================================================

func TestThompsonAllocator_WeightsSumToOne(t *testing.T) {
	allocator := NewThompsonAllocator(DefaultSamplingTrials)

	result := allocator.Allocate([]domain.ModelRecord{
		record("v1", 1000, 120),
		record("v2", 800, 90),
		record("v3", 500, 60),
	})

	require.Len(t, result.Weights, 3)
	sum := 0.0
	for _, w := range result.Weights {
		assert.GreaterOrEqual(t, w, 0.0)
		assert.LessOrEqual(t, w, 1.0)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Equal(t, domain.AlgorithmThompsonSampling, result.Algorithm)
	assert.Equal(t, domain.ReasonThompsonSampling, result.Reason)
}

func TestThompsonAllocator_DominantModelWins(t *testing.T) {
	allocator := NewThompsonAllocator(DefaultSamplingTrials)

	// 90% vs 10% conversion over 1000 predictions each: the posteriors
	// barely overlap, so the strong model should take nearly all traffic.
	result := allocator.Allocate([]domain.ModelRecord{
		record("strong", 1000, 900),
		record("weak", 1000, 100),
	})

	assert.Equal(t, "strong", result.Winner)
	assert.Greater(t, result.Weights["strong"], 0.95)
	assert.Less(t, result.Weights["weak"], 0.05)
}

func TestThompsonAllocator_ColdStartSplitsEvenly(t *testing.T) {
	allocator := NewThompsonAllocator(DefaultSamplingTrials)

	// Two models with no data share identical uniform priors. Each weight
	// should land near 0.5; the band accounts for sampling noise.
	result := allocator.Allocate([]domain.ModelRecord{
		record("v1", 0, 0),
		record("v2", 0, 0),
	})

	for version, w := range result.Weights {
		assert.GreaterOrEqual(t, w, 0.3, "weight for %s", version)
		assert.LessOrEqual(t, w, 0.7, "weight for %s", version)
	}
}

func TestThompsonAllocator_WinnerHasLargestWeight(t *testing.T) {
	allocator := NewThompsonAllocator(DefaultSamplingTrials)

	result := allocator.Allocate([]domain.ModelRecord{
		record("v1", 500, 40),
		record("v2", 500, 80),
		record("v3", 500, 60),
	})

	for version, w := range result.Weights {
		assert.LessOrEqual(t, w, result.Weights[result.Winner], "weight for %s", version)
	}
}

func TestNewThompsonAllocator_DefaultTrials(t *testing.T) {
	allocator := NewThompsonAllocator(-1)

	assert.Equal(t, DefaultSamplingTrials, allocator.trials)
}
