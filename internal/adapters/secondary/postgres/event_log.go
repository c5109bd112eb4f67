package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"lead-scoring-service/internal/core/domain"
	ports "lead-scoring-service/internal/core/ports/output"
)

type eventLog struct {
	pool *pgxpool.Pool
}

// NewEventLog appends conversion and monitoring records to their audit
// tables. Rows are insert-only.
func NewEventLog(pool *pgxpool.Pool) ports.EventLog {
	return &eventLog{pool: pool}
}

func (l *eventLog) AppendConversion(ctx context.Context, event domain.ConversionEvent) error {
	query := `
		INSERT INTO conversion_events
			(ts, lead_id, model_version, conversion_rate_after,
			 total_predictions, total_conversions, ci_lower, ci_upper)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := l.pool.Exec(ctx, query,
		event.Timestamp,
		event.LeadID,
		event.ModelVersion,
		event.ConversionRate,
		event.TotalPredictions,
		event.TotalConversions,
		event.ConfidenceInterval.Lower,
		event.ConfidenceInterval.Upper,
	)
	if err != nil {
		return fmt.Errorf("insert conversion_event: %w", err)
	}
	return nil
}

func (l *eventLog) AppendMonitoring(ctx context.Context, batch domain.MonitoringBatch) error {
	stats, err := json.Marshal(batch.Stats)
	if err != nil {
		return fmt.Errorf("encode batch stats: %w", err)
	}

	query := `
		INSERT INTO monitoring_batches (ts, model_version, batch_size, source, stats)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := l.pool.Exec(ctx, query,
		batch.Timestamp,
		batch.ModelVersion,
		batch.BatchSize,
		batch.Source,
		stats,
	); err != nil {
		return fmt.Errorf("insert monitoring_batch: %w", err)
	}
	return nil
}

func (l *eventLog) RecentMonitoring(ctx context.Context, version string, limit int) ([]domain.MonitoringBatch, error) {
	query := `
		SELECT ts, model_version, batch_size, source, stats
		FROM monitoring_batches
		WHERE model_version = $1
		ORDER BY ts DESC
		LIMIT $2
	`
	rows, err := l.pool.Query(ctx, query, version, limit)
	if err != nil {
		return nil, fmt.Errorf("query monitoring_batches: %w", err)
	}
	defer rows.Close()

	var batches []domain.MonitoringBatch
	for rows.Next() {
		var batch domain.MonitoringBatch
		var stats []byte
		if err := rows.Scan(&batch.Timestamp, &batch.ModelVersion, &batch.BatchSize, &batch.Source, &stats); err != nil {
			return nil, fmt.Errorf("scan monitoring_batch: %w", err)
		}
		if err := json.Unmarshal(stats, &batch.Stats); err != nil {
			return nil, fmt.Errorf("decode batch stats: %w", err)
		}
		batches = append(batches, batch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monitoring_batches: %w", err)
	}

	// Oldest first, matching the file-backed log's ordering.
	for i, j := 0, len(batches)-1; i < j; i, j = i+1, j-1 {
		batches[i], batches[j] = batches[j], batches[i]
	}
	return batches, nil
}
