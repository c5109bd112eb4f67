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

// MinSamplePredictions is the floor below which a model is considered too
// cold to rank confidently. When no active model reaches it the floor is
// relaxed, so cold-start models are never starved out of evaluation.
const MinSamplePredictions = 10

const registryConfidence = 0.95

// PerformanceRegistry owns the durable per-version statistics. Every
// read-modify-write-persist cycle runs under a single mutex: concurrent
// increments would otherwise lose updates.
type PerformanceRegistry struct {
	mu      sync.Mutex
	store   ports.RegistryStore
	events  ports.EventLog
	records map[string]*domain.ModelRecord
	now     func() time.Time
}

// NewPerformanceRegistry loads the persisted registry document and returns
// a registry ready for traffic. The clock is injectable for tests.
func NewPerformanceRegistry(ctx context.Context, store ports.RegistryStore, events ports.EventLog, now func() time.Time) (*PerformanceRegistry, error) {
	if now == nil {
		now = time.Now
	}

	records, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load performance registry: %w", err)
	}
	if records == nil {
		records = make(map[string]*domain.ModelRecord)
	}

	return &PerformanceRegistry{
		store:   store,
		events:  events,
		records: records,
		now:     now,
	}, nil
}

// Get returns a copy of the record for a version.
func (r *PerformanceRegistry) Get(version string) (domain.ModelRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[version]
	if !ok {
		return domain.ModelRecord{}, false
	}
	return *rec, true
}

// AddModel registers a version explicitly with zeroed counters and active
// status, e.g. right after training completes.
func (r *PerformanceRegistry) AddModel(ctx context.Context, version string) (domain.ModelRecord, error) {
	if version == "" {
		return domain.ModelRecord{}, domain.ErrInvalidModelVersion
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[version]; ok {
		return domain.ModelRecord{}, domain.ErrModelAlreadyRegistered
	}

	rec := domain.NewModelRecord(version, r.now())
	r.records[version] = rec

	if err := r.persistLocked(ctx); err != nil {
		delete(r.records, version)
		return domain.ModelRecord{}, err
	}

	log.WithField("model_version", version).Info("model registered")
	return *rec, nil
}

// TrackPredictions attributes a scored batch to a version, creating the
// record on first sight. The increment is persisted before returning.
func (r *PerformanceRegistry) TrackPredictions(ctx context.Context, version string, count int) (domain.ModelRecord, error) {
	if version == "" {
		return domain.ModelRecord{}, domain.ErrInvalidModelVersion
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[version]
	if !ok {
		rec = domain.NewModelRecord(version, r.now())
		r.records[version] = rec
	}

	rec.TotalPredictions += int64(count)
	rec.LastUpdated = r.now()
	rec.RecalculateRate()
	rec.ConfidenceInterval = ConfidenceInterval(rec.ConversionRate, rec.TotalPredictions, registryConfidence)

	if err := r.persistLocked(ctx); err != nil {
		return domain.ModelRecord{}, err
	}
	return *rec, nil
}

// TrackConversion records one conversion for a version the registry has
// already seen. The registry document is saved first; the audit event is
// appended afterwards and its failure is logged, not propagated, since the
// registry state is the source of truth.
func (r *PerformanceRegistry) TrackConversion(ctx context.Context, leadID, version string) (domain.ModelRecord, error) {
	if version == "" {
		return domain.ModelRecord{}, domain.ErrInvalidModelVersion
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[version]
	if !ok {
		return domain.ModelRecord{}, domain.ErrUnknownModel
	}

	// Counters are taken as reported: a conversion arriving before the
	// version has scored any batch pushes TotalConversions past
	// TotalPredictions, and the rate stays 0 until predictions arrive.
	prev := *rec
	rec.TotalConversions++
	rec.LastUpdated = r.now()
	rec.RecalculateRate()
	rec.ConfidenceInterval = ConfidenceInterval(rec.ConversionRate, rec.TotalPredictions, registryConfidence)

	if err := r.persistLocked(ctx); err != nil {
		*rec = prev
		return domain.ModelRecord{}, err
	}

	event := domain.ConversionEvent{
		Timestamp:          r.now(),
		LeadID:             leadID,
		ModelVersion:       version,
		ConversionRate:     rec.ConversionRate,
		TotalPredictions:   rec.TotalPredictions,
		TotalConversions:   rec.TotalConversions,
		ConfidenceInterval: rec.ConfidenceInterval,
	}
	if err := r.events.AppendConversion(ctx, event); err != nil {
		log.WithError(err).WithField("model_version", version).Warn("conversion event append failed")
	}

	return *rec, nil
}

// ListActive returns active records sorted by conversion rate descending.
// Records below MinSamplePredictions are excluded unless no active record
// reaches the floor, in which case all active records are returned: the
// list is never silently empty while any active record exists.
func (r *PerformanceRegistry) ListActive() []domain.ModelRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	var warm, all []domain.ModelRecord
	for _, rec := range r.records {
		if !rec.IsActive() {
			continue
		}
		all = append(all, *rec)
		if rec.TotalPredictions >= MinSamplePredictions {
			warm = append(warm, *rec)
		}
	}

	active := warm
	if len(active) == 0 {
		active = all
	}

	sort.Slice(active, func(i, j int) bool {
		if active[i].ConversionRate != active[j].ConversionRate {
			return active[i].ConversionRate > active[j].ConversionRate
		}
		return active[i].Version < active[j].Version
	})
	return active
}

// ListAll returns every record, active and retired, sorted by last update
// descending.
func (r *PerformanceRegistry) ListAll() []domain.ModelRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]domain.ModelRecord, 0, len(r.records))
	for _, rec := range r.records {
		all = append(all, *rec)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].LastUpdated.Equal(all[j].LastUpdated) {
			return all[i].LastUpdated.After(all[j].LastUpdated)
		}
		return all[i].Version < all[j].Version
	})
	return all
}

// RetireStale keeps the keepRecent most recently updated versions active and
// retires the rest. Retirement is a status flip, never a delete, and a
// retired version that receives fresh traffic is re-promoted on the next
// call. Idempotent and cheap enough to run after every batch.
func (r *PerformanceRegistry) RetireStale(ctx context.Context, keepRecent int) error {
	if keepRecent <= 0 {
		keepRecent = DefaultKeepRecentModels
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ordered := make([]*domain.ModelRecord, 0, len(r.records))
	for _, rec := range r.records {
		ordered = append(ordered, rec)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].LastUpdated.Equal(ordered[j].LastUpdated) {
			return ordered[i].LastUpdated.After(ordered[j].LastUpdated)
		}
		return ordered[i].Version < ordered[j].Version
	})

	changed := false
	for i, rec := range ordered {
		want := domain.ModelStatusRetired
		if i < keepRecent {
			want = domain.ModelStatusActive
		}
		if rec.Status != want {
			rec.Status = want
			changed = true
			if want == domain.ModelStatusRetired {
				log.WithField("model_version", rec.Version).Info("model retired")
			}
		}
	}

	if !changed {
		return nil
	}
	return r.persistLocked(ctx)
}

func (r *PerformanceRegistry) persistLocked(ctx context.Context) error {
	if err := r.store.Save(ctx, r.records); err != nil {
		return fmt.Errorf("persist performance registry: %w", err)
	}
	return nil
}
