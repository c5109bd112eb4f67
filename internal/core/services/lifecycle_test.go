package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lead-scoring-service/internal/core/domain"
	ports "lead-scoring-service/internal/core/ports/output"
	"lead-scoring-service/internal/testutil"
)

const testMiB = uint64(1) << 20

func newLoadedCache(t *testing.T, clock *testClock, versions ...string) *ModelCache {
	t.Helper()

	artifacts := new(testutil.MockArtifactStore)
	artifacts.On("Load", mock.Anything, mock.Anything).Return(new(testutil.MockPredictor), nil)

	cache := NewModelCache(artifacts, clock.Now)
	for _, version := range versions {
		clock.Advance(time.Second)
		require.NoError(t, cache.EnsureLoaded(context.Background(), version))
	}
	return cache
}

func newLifecycle(clock *testClock, cache *ModelCache, probe ports.MemoryProbe, interval time.Duration) *LifecycleManager {
	store := new(testutil.MockRegistryStore)
	store.On("Load", mock.Anything).Return(map[string]*domain.ModelRecord{}, nil)
	registry, _ := NewPerformanceRegistry(context.Background(), store, new(testutil.MockEventLog), clock.Now)

	return NewLifecycleManager(registry, cache, probe, LifecycleConfig{
		KeepRecentModels:    5,
		MemoryHighWater:     3072 * testMiB,
		MemoryModerateWater: 2048 * testMiB,
		MemoryCheckInterval: interval,
	}, clock.Now)
}

// ============================================================================
// Memory Pressure
// ============================================================================

func TestLifecycleManager_CheckMemory_NilProbe(t *testing.T) {
	clock := newTestClock()
	manager := newLifecycle(clock, newLoadedCache(t, clock, "v1", "v2", "v3", "v4"), nil, 0)

	assert.Equal(t, 0, manager.CheckMemory())
}

func TestLifecycleManager_CheckMemory_HighWaterEvictsAggressively(t *testing.T) {
	clock := newTestClock()
	cache := newLoadedCache(t, clock, "v1", "v2", "v3", "v4")
	probe := new(testutil.MockMemoryProbe)
	probe.On("Probe").Return(ports.MemoryReading{ResidentBytes: 3500 * testMiB}, true)

	manager := newLifecycle(clock, cache, probe, 0)

	assert.Equal(t, 2, manager.CheckMemory())
	assert.Len(t, cache.Loaded(), 2)
}

func TestLifecycleManager_CheckMemory_ModerateWaterEvictsGently(t *testing.T) {
	clock := newTestClock()
	cache := newLoadedCache(t, clock, "v1", "v2", "v3", "v4")
	probe := new(testutil.MockMemoryProbe)
	probe.On("Probe").Return(ports.MemoryReading{ResidentBytes: 2500 * testMiB}, true)

	manager := newLifecycle(clock, cache, probe, 0)

	assert.Equal(t, 1, manager.CheckMemory())
	assert.Len(t, cache.Loaded(), 3)
}

func TestLifecycleManager_CheckMemory_BelowThresholds(t *testing.T) {
	clock := newTestClock()
	cache := newLoadedCache(t, clock, "v1", "v2", "v3", "v4")
	probe := new(testutil.MockMemoryProbe)
	probe.On("Probe").Return(ports.MemoryReading{ResidentBytes: 512 * testMiB}, true)

	manager := newLifecycle(clock, cache, probe, 0)

	assert.Equal(t, 0, manager.CheckMemory())
	assert.Len(t, cache.Loaded(), 4)
}

func TestLifecycleManager_CheckMemory_ProbeFailureIsIgnored(t *testing.T) {
	clock := newTestClock()
	probe := new(testutil.MockMemoryProbe)
	probe.On("Probe").Return(ports.MemoryReading{}, false)

	manager := newLifecycle(clock, newLoadedCache(t, clock, "v1"), probe, 0)

	assert.Equal(t, 0, manager.CheckMemory())
}

func TestLifecycleManager_CheckMemory_Throttled(t *testing.T) {
	clock := newTestClock()
	probe := new(testutil.MockMemoryProbe)
	probe.On("Probe").Return(ports.MemoryReading{ResidentBytes: 512 * testMiB}, true)

	manager := newLifecycle(clock, newLoadedCache(t, clock, "v1"), probe, 5*time.Minute)

	manager.CheckMemory()
	manager.CheckMemory()
	probe.AssertNumberOfCalls(t, "Probe", 1)

	clock.Advance(5 * time.Minute)
	manager.CheckMemory()
	probe.AssertNumberOfCalls(t, "Probe", 2)
}
