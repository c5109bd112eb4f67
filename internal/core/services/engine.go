package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"gonum.org/v1/gonum/stat"

	"lead-scoring-service/internal/core/domain"
	ports "lead-scoring-service/internal/core/ports/output"
)

// ScoreResult is the outcome of scoring one batch.
type ScoreResult struct {
	ModelVersion   string
	Probabilities  []float64
	Stats          domain.BatchStats
	PredictionTime time.Duration
	TotalTime      time.Duration
}

// EngineSnapshot summarizes the bandit state for dashboards.
type EngineSnapshot struct {
	ActiveModels  []domain.ModelRecord    `json:"active_models"`
	RetiredModels []domain.ModelRecord    `json:"retired_models"`
	Allocation    domain.AllocationResult `json:"allocation"`
	LoadedModels  []CachedPredictorInfo   `json:"loaded_models"`
}

// BenchmarkResult reports selection and allocation latency.
type BenchmarkResult struct {
	SelectionMs  float64 `json:"selection_ms_per_call"`
	AllocationMs float64 `json:"allocation_ms"`
	ActiveModels int     `json:"active_models"`
	Algorithm    string  `json:"algorithm"`
}

// Engine composes the selector, cache, registry and lifecycle manager into
// the two operations the serving layer calls: Score and RecordConversion.
// It is constructed once at process start and owns no global state.
type Engine struct {
	registry  *PerformanceRegistry
	allocator *ThompsonAllocator
	selector  *ModelSelector
	cache     *ModelCache
	lifecycle *LifecycleManager
	events    ports.EventLog
	now       func() time.Time
}

// NewEngine wires the engine. The clock is injectable for tests.
func NewEngine(
	registry *PerformanceRegistry,
	allocator *ThompsonAllocator,
	selector *ModelSelector,
	cache *ModelCache,
	lifecycle *LifecycleManager,
	events ports.EventLog,
	now func() time.Time,
) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		registry:  registry,
		allocator: allocator,
		selector:  selector,
		cache:     cache,
		lifecycle: lifecycle,
		events:    events,
		now:       now,
	}
}

// Score selects a model, scores the batch with it and attributes the batch
// to that version. Load and prediction failures are surfaced, never papered
// over by substituting another model: a success attributed to the wrong
// version would corrupt the bandit's statistics.
func (e *Engine) Score(ctx context.Context, source string, batch domain.LeadBatch) (*ScoreResult, error) {
	if err := batch.Validate(); err != nil {
		return nil, err
	}

	start := e.now()

	version, _, ok := e.selector.Choose(ctx)
	if !ok {
		return nil, domain.ErrNoModelAvailable
	}

	if err := e.cache.EnsureLoaded(ctx, version); err != nil {
		return nil, err
	}

	probabilities, predictionTime, err := e.cache.Predict(version, batch)
	if err != nil {
		return nil, err
	}

	if _, err := e.registry.TrackPredictions(ctx, version, len(batch)); err != nil {
		return nil, err
	}

	stats := summarize(probabilities)
	monitoring := domain.MonitoringBatch{
		Timestamp:    e.now(),
		ModelVersion: version,
		BatchSize:    len(batch),
		Source:       source,
		Stats:        stats,
	}
	if err := e.events.AppendMonitoring(ctx, monitoring); err != nil {
		log.WithError(err).WithField("model_version", version).Warn("monitoring batch append failed")
	}

	if err := e.lifecycle.RetireStale(ctx); err != nil {
		log.WithError(err).Warn("retire stale models failed")
	}
	e.lifecycle.CheckMemory()

	log.WithFields(log.Fields{
		"model_version": version,
		"batch_size":    len(batch),
		"predict_ms":    predictionTime.Milliseconds(),
	}).Info("batch scored")

	return &ScoreResult{
		ModelVersion:   version,
		Probabilities:  probabilities,
		Stats:          stats,
		PredictionTime: predictionTime,
		TotalTime:      e.now().Sub(start),
	}, nil
}

// RecordConversion applies a conversion outcome to the version that scored
// the lead. ErrUnknownModel signals a lead attributed to a version the
// registry never saw; callers should treat it as a data-integrity warning.
func (e *Engine) RecordConversion(ctx context.Context, leadID, version string) (domain.ModelRecord, error) {
	if leadID == "" {
		return domain.ModelRecord{}, domain.ErrInvalidLeadID
	}

	rec, err := e.registry.TrackConversion(ctx, leadID, version)
	if err != nil {
		return domain.ModelRecord{}, err
	}

	log.WithFields(log.Fields{
		"lead_id":         leadID,
		"model_version":   version,
		"conversion_rate": rec.ConversionRate,
	}).Info("conversion recorded")
	return rec, nil
}

// AddModel registers a freshly trained version with the bandit and runs the
// retirement pass so the active set stays bounded.
func (e *Engine) AddModel(ctx context.Context, version string) (domain.ModelRecord, error) {
	rec, err := e.registry.AddModel(ctx, version)
	if err != nil {
		return domain.ModelRecord{}, err
	}
	if err := e.lifecycle.RetireStale(ctx); err != nil {
		log.WithError(err).Warn("retire stale models failed")
	}
	return rec, nil
}

// GetModel returns the registry record for one version.
func (e *Engine) GetModel(version string) (domain.ModelRecord, error) {
	rec, ok := e.registry.Get(version)
	if !ok {
		return domain.ModelRecord{}, domain.ErrModelRecordNotFound
	}
	return rec, nil
}

// ListModels returns every record, most recently updated first.
func (e *Engine) ListModels() []domain.ModelRecord {
	return e.registry.ListAll()
}

// RecentMonitoring returns the latest monitoring entries for a version.
func (e *Engine) RecentMonitoring(ctx context.Context, version string, limit int) ([]domain.MonitoringBatch, error) {
	if limit <= 0 {
		limit = 10
	}
	return e.events.RecentMonitoring(ctx, version, limit)
}

// Snapshot returns the current bandit state over a fresh allocation.
func (e *Engine) Snapshot() EngineSnapshot {
	var active, retired []domain.ModelRecord
	for _, rec := range e.registry.ListAll() {
		if rec.IsActive() {
			active = append(active, rec)
		} else {
			retired = append(retired, rec)
		}
	}

	return EngineSnapshot{
		ActiveModels:  active,
		RetiredModels: retired,
		Allocation:    e.allocator.Allocate(e.registry.ListActive()),
		LoadedModels:  e.cache.Loaded(),
	}
}

// StatusReport renders a human-readable operational report of the bandit.
func (e *Engine) StatusReport() string {
	snap := e.Snapshot()

	var b strings.Builder
	b.WriteString("MULTI-ARMED BANDIT STATUS\n")
	b.WriteString(strings.Repeat("=", 70) + "\n")

	fmt.Fprintf(&b, "\nACTIVE MODELS (%d):\n", len(snap.ActiveModels))
	for _, m := range snap.ActiveModels {
		fmt.Fprintf(&b, "  %s: %.1f%% (%d/%d) CI [%.1f%%, %.1f%%]\n",
			m.Version, m.ConversionRate, m.TotalConversions, m.TotalPredictions,
			m.ConfidenceInterval.Lower, m.ConfidenceInterval.Upper)
	}

	if len(snap.RetiredModels) > 0 {
		fmt.Fprintf(&b, "\nRETIRED MODELS (%d):\n", len(snap.RetiredModels))
		for _, m := range snap.RetiredModels {
			fmt.Fprintf(&b, "  %s: %.1f%% (%d/%d)\n",
				m.Version, m.ConversionRate, m.TotalConversions, m.TotalPredictions)
		}
	}

	b.WriteString("\nTRAFFIC ALLOCATION:\n")
	versions := make([]string, 0, len(snap.Allocation.Weights))
	for v := range snap.Allocation.Weights {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	for _, v := range versions {
		fmt.Fprintf(&b, "  %s: %.1f%%\n", v, snap.Allocation.Weights[v]*100)
	}
	fmt.Fprintf(&b, "\nAlgorithm: %s\n", snap.Allocation.Algorithm)
	fmt.Fprintf(&b, "Winner: %s\n", snap.Allocation.Winner)
	fmt.Fprintf(&b, "Reason: %s\n", snap.Allocation.Reason)

	if len(snap.ActiveModels) > 0 {
		rates := make([]float64, 0, len(snap.ActiveModels))
		for _, m := range snap.ActiveModels {
			rates = append(rates, m.ConversionRate)
		}
		sort.Float64s(rates)
		best, worst := rates[len(rates)-1], rates[0]
		fmt.Fprintf(&b, "\nPERFORMANCE SUMMARY:\n")
		fmt.Fprintf(&b, "  Best rate:  %.1f%%\n", best)
		fmt.Fprintf(&b, "  Worst rate: %.1f%%\n", worst)
		fmt.Fprintf(&b, "  Spread:     %.1f%%\n", best-worst)
	}

	b.WriteString(strings.Repeat("=", 70) + "\n")
	return b.String()
}

// Benchmark measures selection latency over repeated draws plus one full
// allocation computation.
func (e *Engine) Benchmark(ctx context.Context) BenchmarkResult {
	const selections = 100

	start := time.Now()
	for i := 0; i < selections; i++ {
		e.selector.Choose(ctx)
	}
	selectionMs := float64(time.Since(start).Microseconds()) / 1000 / selections

	active := e.registry.ListActive()
	start = time.Now()
	allocation := e.allocator.Allocate(active)
	allocationMs := float64(time.Since(start).Microseconds()) / 1000

	return BenchmarkResult{
		SelectionMs:  selectionMs,
		AllocationMs: allocationMs,
		ActiveModels: len(active),
		Algorithm:    allocation.Algorithm,
	}
}

// summarize computes batch output statistics. Quantiles require sorted
// input, so it works on a copy.
func summarize(probabilities []float64) domain.BatchStats {
	sorted := make([]float64, len(probabilities))
	copy(sorted, probabilities)
	sort.Float64s(sorted)

	return domain.BatchStats{
		Mean:   stat.Mean(sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Std:    stat.PopStdDev(sorted, nil),
		Count:  len(sorted),
		Percentiles: domain.BatchPercentiles{
			P10: stat.Quantile(0.10, stat.Empirical, sorted, nil),
			P25: stat.Quantile(0.25, stat.Empirical, sorted, nil),
			P75: stat.Quantile(0.75, stat.Empirical, sorted, nil),
			P90: stat.Quantile(0.90, stat.Empirical, sorted, nil),
		},
	}
}
