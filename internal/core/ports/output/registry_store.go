package ports

import (
	"context"

	"lead-scoring-service/internal/core/domain"
)

// RegistryStore persists the performance registry as a whole document
// (version -> record). Load returns an empty map when nothing has been
// persisted yet. Save must complete before the registry mutation that
// triggered it returns, so a crash after a successful call never loses
// that increment.
type RegistryStore interface {
	Load(ctx context.Context) (map[string]*domain.ModelRecord, error)
	Save(ctx context.Context, records map[string]*domain.ModelRecord) error
}

// EventLog appends audit records. Appends are write-once; entries are never
// mutated or compacted by the engine.
type EventLog interface {
	AppendConversion(ctx context.Context, event domain.ConversionEvent) error
	AppendMonitoring(ctx context.Context, batch domain.MonitoringBatch) error
	RecentMonitoring(ctx context.Context, version string, limit int) ([]domain.MonitoringBatch, error)
}
