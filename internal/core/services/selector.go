package services

import (
	"context"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"golang.org/x/exp/rand"

	"lead-scoring-service/internal/core/domain"
	ports "lead-scoring-service/internal/core/ports/output"
)

// ModelSelector turns an allocation into one concrete model choice per
// prediction request. Its contract is the layered fallback chain: a caller
// should almost never receive "absent" unless truly no model exists anywhere,
// neither in the registry nor in the training artifacts.
type ModelSelector struct {
	registry  *PerformanceRegistry
	allocator *ThompsonAllocator
	artifacts ports.ArtifactStore

	mu  sync.Mutex
	rng *rand.Rand
}

// NewModelSelector wires the selector. The artifact store provides the
// terminal "latest trained version" fallback.
func NewModelSelector(registry *PerformanceRegistry, allocator *ThompsonAllocator, artifacts ports.ArtifactStore) *ModelSelector {
	return &ModelSelector{
		registry:  registry,
		allocator: allocator,
		artifacts: artifacts,
		rng:       rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
	}
}

// Choose picks the model version to serve the next prediction. It returns
// the version, the allocation it was drawn from, and whether a version was
// found at all. "No model yet" is an expected state, not an error.
func (s *ModelSelector) Choose(ctx context.Context) (string, domain.AllocationResult, bool) {
	allocation := s.allocator.Allocate(s.registry.ListActive())

	if allocation.Empty() {
		return s.fallbackLatest(ctx, allocation)
	}

	if len(allocation.Weights) == 1 {
		var only string
		for v := range allocation.Weights {
			only = v
		}
		// A lone placeholder means no real model was ever registered.
		if only == domain.PlaceholderVersion {
			return s.fallbackLatest(ctx, allocation)
		}
		return only, allocation, true
	}

	if version, ok := s.weightedDraw(allocation.Weights); ok {
		return version, allocation, true
	}

	// Float accumulation left a residual gap below 1.0; fall back to the
	// allocation winner before resorting to the external lookup.
	if allocation.Winner != "" && allocation.Winner != domain.PlaceholderVersion {
		log.WithField("winner", allocation.Winner).Debug("weighted draw residual, using allocation winner")
		return allocation.Winner, allocation, true
	}
	return s.fallbackLatest(ctx, allocation)
}

// weightedDraw performs a single cumulative draw over the weights in a
// fixed, stable enumeration order (sorted versions).
func (s *ModelSelector) weightedDraw(weights map[string]float64) (string, bool) {
	versions := make([]string, 0, len(weights))
	for v := range weights {
		versions = append(versions, v)
	}
	sort.Strings(versions)

	s.mu.Lock()
	r := s.rng.Float64()
	s.mu.Unlock()

	cumulative := 0.0
	for _, v := range versions {
		cumulative += weights[v]
		if r <= cumulative {
			return v, true
		}
	}
	return "", false
}

func (s *ModelSelector) fallbackLatest(ctx context.Context, allocation domain.AllocationResult) (string, domain.AllocationResult, bool) {
	latest, err := s.artifacts.LatestVersion(ctx)
	if err != nil {
		log.WithError(err).Warn("latest trained version lookup failed")
		return "", allocation, false
	}
	if latest == "" {
		return "", allocation, false
	}
	log.WithField("model_version", latest).Info("no allocatable models, falling back to latest trained model")
	return latest, allocation, true
}
