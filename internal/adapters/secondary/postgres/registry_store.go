package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lead-scoring-service/internal/core/domain"
	ports "lead-scoring-service/internal/core/ports/output"
)

type registryStore struct {
	pool *pgxpool.Pool
}

// NewRegistryStore persists the performance registry in the
// model_performance table, one row per version.
func NewRegistryStore(pool *pgxpool.Pool) ports.RegistryStore {
	return &registryStore{pool: pool}
}

func (s *registryStore) Load(ctx context.Context) (map[string]*domain.ModelRecord, error) {
	query := `
		SELECT model_version, total_predictions, total_conversions, conversion_rate,
		       ci_lower, ci_upper, first_seen, last_updated, status
		FROM model_performance
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query model_performance: %w", err)
	}
	defer rows.Close()

	records := map[string]*domain.ModelRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan model_performance: %w", err)
		}
		records[rec.Version] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate model_performance: %w", err)
	}
	return records, nil
}

func (s *registryStore) Save(ctx context.Context, records map[string]*domain.ModelRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin registry save: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO model_performance
			(model_version, total_predictions, total_conversions, conversion_rate,
			 ci_lower, ci_upper, first_seen, last_updated, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (model_version) DO UPDATE SET
			total_predictions = EXCLUDED.total_predictions,
			total_conversions = EXCLUDED.total_conversions,
			conversion_rate = EXCLUDED.conversion_rate,
			ci_lower = EXCLUDED.ci_lower,
			ci_upper = EXCLUDED.ci_upper,
			last_updated = EXCLUDED.last_updated,
			status = EXCLUDED.status
	`
	for _, rec := range records {
		if _, err := tx.Exec(ctx, query,
			rec.Version,
			rec.TotalPredictions,
			rec.TotalConversions,
			rec.ConversionRate,
			rec.ConfidenceInterval.Lower,
			rec.ConfidenceInterval.Upper,
			rec.FirstSeen,
			rec.LastUpdated,
			string(rec.Status),
		); err != nil {
			return fmt.Errorf("upsert model_performance %s: %w", rec.Version, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit registry save: %w", err)
	}
	return nil
}

func scanRecord(rows pgx.Rows) (*domain.ModelRecord, error) {
	var rec domain.ModelRecord
	var status string

	err := rows.Scan(
		&rec.Version, &rec.TotalPredictions, &rec.TotalConversions, &rec.ConversionRate,
		&rec.ConfidenceInterval.Lower, &rec.ConfidenceInterval.Upper,
		&rec.FirstSeen, &rec.LastUpdated, &status,
	)
	if err != nil {
		return nil, err
	}

	rec.Status = domain.ModelStatus(status)
	return &rec, nil
}
