package services

import (
	"sync"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"lead-scoring-service/internal/core/domain"
)

// DefaultSamplingTrials balances allocation fidelity against per-call cost.
// At 5000 trials the win-probability estimate carries roughly ±1.5% noise.
const DefaultSamplingTrials = 5000

// ThompsonAllocator computes a probability-of-being-best traffic split over
// active models by sampling each model's Beta-Bernoulli posterior. The +1
// Laplace prior keeps Beta parameters non-degenerate for models with no data
// or no failures yet, so a degenerate allocation can never reach a caller.
//
// The result is a stochastic approximation: two calls with identical inputs
// return slightly different weights.
type ThompsonAllocator struct {
	trials int

	mu  sync.Mutex
	src rand.Source
}

// NewThompsonAllocator creates an allocator with its own seeded source.
// trials <= 0 selects DefaultSamplingTrials.
func NewThompsonAllocator(trials int) *ThompsonAllocator {
	if trials <= 0 {
		trials = DefaultSamplingTrials
	}
	return &ThompsonAllocator{
		trials: trials,
		src:    rand.NewSource(uint64(time.Now().UnixNano())),
	}
}

// Allocate turns active-model statistics into a traffic split. Zero models
// yields an empty result the caller must resolve via its own fallback; one
// model short-circuits to a full allocation without sampling.
func (a *ThompsonAllocator) Allocate(models []domain.ModelRecord) domain.AllocationResult {
	switch len(models) {
	case 0:
		return domain.AllocationResult{
			Weights: map[string]float64{},
			Reason:  domain.ReasonNoActiveModels,
		}
	case 1:
		return domain.AllocationResult{
			Weights:   map[string]float64{models[0].Version: 1.0},
			Algorithm: domain.AlgorithmSingleModel,
			Winner:    models[0].Version,
			Reason:    domain.ReasonSingleActiveModel,
		}
	}

	wins := a.runTrials(models)

	weights := make(map[string]float64, len(models))
	winner := models[0].Version
	best := -1
	for i, m := range models {
		weights[m.Version] = float64(wins[i]) / float64(a.trials)
		if wins[i] > best {
			best = wins[i]
			winner = m.Version
		}
	}

	return domain.AllocationResult{
		Weights:   weights,
		Algorithm: domain.AlgorithmThompsonSampling,
		Winner:    winner,
		Reason:    domain.ReasonThompsonSampling,
	}
}

// runTrials counts, per model, how many independent posterior draws it wins.
// The shared rand source is not safe for concurrent use, so sampling holds
// the allocator lock; the registry lock is never held here.
func (a *ThompsonAllocator) runTrials(models []domain.ModelRecord) []int {
	a.mu.Lock()
	defer a.mu.Unlock()

	posteriors := make([]distuv.Beta, len(models))
	for i, m := range models {
		successes := float64(m.TotalConversions)
		failures := float64(m.TotalPredictions - m.TotalConversions)
		posteriors[i] = distuv.Beta{
			Alpha: successes + 1,
			Beta:  failures + 1,
			Src:   a.src,
		}
	}

	wins := make([]int, len(models))
	for t := 0; t < a.trials; t++ {
		bestIdx := 0
		bestSample := -1.0
		for i := range posteriors {
			if s := posteriors[i].Rand(); s > bestSample {
				bestSample = s
				bestIdx = i
			}
		}
		wins[bestIdx]++
	}
	return wins
}
