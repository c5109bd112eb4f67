package services

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	ports "lead-scoring-service/internal/core/ports/output"
)

// Lifecycle defaults. Retirement bounds how many candidates the allocator
// ever reasons about; the eviction levels bound resident artifacts.
const (
	DefaultKeepRecentModels = 5
	keepLoadedModerate      = 3
	keepLoadedAggressive    = 2
)

// LifecycleConfig tunes retirement and memory-pressure behavior.
type LifecycleConfig struct {
	KeepRecentModels    int
	MemoryHighWater     uint64 // bytes; above this, evict down to 2 loaded
	MemoryModerateWater uint64 // bytes; above this, evict down to 3 loaded
	MemoryCheckInterval time.Duration
}

// LifecycleManager bounds the number of active model versions and, when a
// memory probe is available, reacts to resident-memory pressure by evicting
// cached predictors. Both operations are idempotent and advisory: they never
// block or fail a prediction.
type LifecycleManager struct {
	registry *PerformanceRegistry
	cache    *ModelCache
	probe    ports.MemoryProbe
	cfg      LifecycleConfig
	now      func() time.Time

	mu        sync.Mutex
	lastCheck time.Time
}

// NewLifecycleManager wires the manager. probe may be nil on platforms
// without memory introspection; the pressure check is then skipped entirely.
func NewLifecycleManager(registry *PerformanceRegistry, cache *ModelCache, probe ports.MemoryProbe, cfg LifecycleConfig, now func() time.Time) *LifecycleManager {
	if cfg.KeepRecentModels <= 0 {
		cfg.KeepRecentModels = DefaultKeepRecentModels
	}
	if now == nil {
		now = time.Now
	}
	return &LifecycleManager{
		registry: registry,
		cache:    cache,
		probe:    probe,
		cfg:      cfg,
		now:      now,
	}
}

// RetireStale keeps the most recently updated versions active and retires
// the rest, preserving their history.
func (m *LifecycleManager) RetireStale(ctx context.Context) error {
	return m.registry.RetireStale(ctx, m.cfg.KeepRecentModels)
}

// CheckMemory runs the best-effort memory-pressure check, throttled to at
// most once per configured interval. Returns the number of evicted entries.
func (m *LifecycleManager) CheckMemory() int {
	if m.probe == nil {
		return 0
	}

	m.mu.Lock()
	if m.cfg.MemoryCheckInterval > 0 && m.now().Sub(m.lastCheck) < m.cfg.MemoryCheckInterval {
		m.mu.Unlock()
		return 0
	}
	m.lastCheck = m.now()
	m.mu.Unlock()

	reading, ok := m.probe.Probe()
	if !ok {
		return 0
	}

	switch {
	case m.cfg.MemoryHighWater > 0 && reading.ResidentBytes > m.cfg.MemoryHighWater:
		evicted := m.cache.EvictLRU(keepLoadedAggressive)
		log.WithFields(log.Fields{
			"resident_mb": reading.ResidentBytes / (1 << 20),
			"evicted":     evicted,
		}).Warn("high memory usage, evicted cached models")
		return evicted
	case m.cfg.MemoryModerateWater > 0 && reading.ResidentBytes > m.cfg.MemoryModerateWater:
		return m.cache.EvictLRU(keepLoadedModerate)
	default:
		return 0
	}
}
