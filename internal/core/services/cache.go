package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"lead-scoring-service/internal/core/domain"
	ports "lead-scoring-service/internal/core/ports/output"
)

// CachedPredictorInfo describes one resident cache entry for status views.
type CachedPredictorInfo struct {
	Version         string        `json:"model_version"`
	LoadedAt        time.Time     `json:"loaded_at"`
	LastUsed        time.Time     `json:"last_used"`
	LoadDuration    time.Duration `json:"-"`
	LoadDurationMs  float64       `json:"load_duration_ms"`
	PredictionCount int64         `json:"prediction_count"`
}

type cacheEntry struct {
	ready chan struct{} // closed when the load attempt finished
	err   error

	predictor       ports.Predictor
	loadedAt        time.Time
	loadDuration    time.Duration
	lastUsed        time.Time
	predictionCount int64
}

// ModelCache lazily loads prediction artifacts by version and bounds the
// number resident in memory. At most one load runs per version: the first
// caller loads, concurrent callers wait on the same attempt and share its
// outcome. Predict calls for different loaded versions do not contend.
type ModelCache struct {
	artifacts ports.ArtifactStore
	now       func() time.Time

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

// NewModelCache creates an empty cache. The clock is injectable for tests.
func NewModelCache(artifacts ports.ArtifactStore, now func() time.Time) *ModelCache {
	if now == nil {
		now = time.Now
	}
	return &ModelCache{
		artifacts: artifacts,
		now:       now,
		entries:   make(map[string]*cacheEntry),
	}
}

// EnsureLoaded loads the artifact for a version if it is not resident yet.
func (c *ModelCache) EnsureLoaded(ctx context.Context, version string) error {
	c.mu.Lock()
	if entry, ok := c.entries[version]; ok {
		c.mu.Unlock()
		<-entry.ready
		return entry.err
	}

	entry := &cacheEntry{
		ready: make(chan struct{}),
		// Counts as "just used" so a concurrent eviction pass does not
		// unload an artifact that is still being loaded.
		lastUsed: c.now(),
	}
	c.entries[version] = entry
	c.mu.Unlock()

	start := c.now()
	predictor, err := c.artifacts.Load(ctx, version)
	if err != nil {
		entry.err = fmt.Errorf("%w: %s: %v", domain.ErrModelLoadFailed, version, err)
		close(entry.ready)

		// Drop the failed entry so a later call can retry the load.
		c.mu.Lock()
		delete(c.entries, version)
		c.mu.Unlock()
		return entry.err
	}

	// Publish under the lock: EvictLRU and Predict bookkeeping read these
	// fields while holding it.
	loadedAt := c.now()
	c.mu.Lock()
	entry.predictor = predictor
	entry.loadedAt = loadedAt
	entry.loadDuration = loadedAt.Sub(start)
	entry.lastUsed = loadedAt
	c.mu.Unlock()
	close(entry.ready)

	log.WithFields(log.Fields{
		"model_version": version,
		"load_ms":       entry.loadDuration.Milliseconds(),
	}).Info("model loaded")
	return nil
}

// Predict scores a batch with an already-loaded version and returns the
// probabilities plus elapsed prediction time.
func (c *ModelCache) Predict(version string, batch domain.LeadBatch) ([]float64, time.Duration, error) {
	c.mu.Lock()
	entry, ok := c.entries[version]
	c.mu.Unlock()
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", domain.ErrModelNotLoaded, version)
	}

	<-entry.ready
	if entry.err != nil {
		return nil, 0, fmt.Errorf("%w: %s", domain.ErrModelNotLoaded, version)
	}

	start := c.now()
	probabilities, err := entry.predictor.Predict(batch)
	if err != nil {
		return nil, 0, fmt.Errorf("predict with %s: %w", version, err)
	}
	elapsed := c.now().Sub(start)

	c.mu.Lock()
	entry.lastUsed = c.now()
	entry.predictionCount += int64(len(probabilities))
	c.mu.Unlock()

	return probabilities, elapsed, nil
}

// EvictLRU unloads entries ordered by last use, oldest first, until at most
// keepRecent remain. Recency of use drives eviction, never allocation weight
// or conversion rate: the goal is bounding resident memory, and a model hit
// often by direct fallback should stay warm even if rarely allocated.
func (c *ModelCache) EvictLRU(keepRecent int) int {
	if keepRecent < 0 {
		keepRecent = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	type usage struct {
		version  string
		lastUsed time.Time
	}
	ordered := make([]usage, 0, len(c.entries))
	for v, e := range c.entries {
		select {
		case <-e.ready:
		default:
			// Load in flight; evicting it would pull the artifact out from
			// under the caller that triggered the load.
			continue
		}
		ordered = append(ordered, usage{version: v, lastUsed: e.lastUsed})
	}
	if len(ordered) <= keepRecent {
		return 0
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].lastUsed.Before(ordered[j].lastUsed)
	})

	evicted := 0
	for _, u := range ordered[:len(ordered)-keepRecent] {
		delete(c.entries, u.version)
		evicted++
		log.WithField("model_version", u.version).Info("model unloaded")
	}
	return evicted
}

// Loaded returns info for every resident entry, most recently used first.
func (c *ModelCache) Loaded() []CachedPredictorInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	infos := make([]CachedPredictorInfo, 0, len(c.entries))
	for v, e := range c.entries {
		select {
		case <-e.ready:
		default:
			continue // load still in flight
		}
		if e.err != nil {
			continue
		}
		infos = append(infos, CachedPredictorInfo{
			Version:         v,
			LoadedAt:        e.loadedAt,
			LastUsed:        e.lastUsed,
			LoadDuration:    e.loadDuration,
			LoadDurationMs:  float64(e.loadDuration.Microseconds()) / 1000,
			PredictionCount: e.predictionCount,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].LastUsed.After(infos[j].LastUsed)
	})
	return infos
}
