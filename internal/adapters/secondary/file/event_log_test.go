package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-scoring-service/internal/core/domain"
)

func newTestEventLog(t *testing.T) (*eventLog, string) {
	t.Helper()
	dir := t.TempDir()
	l := NewEventLog(
		filepath.Join(dir, "conversions.jsonl"),
		filepath.Join(dir, "monitoring.jsonl"),
	)
	return l.(*eventLog), dir
}

func monitoringEntry(version string, batchSize int) domain.MonitoringBatch {
	return domain.MonitoringBatch{
		Timestamp:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		ModelVersion: version,
		BatchSize:    batchSize,
		Source:       "crm",
	}
}

func TestEventLog_RecentMonitoring_MissingFile(t *testing.T) {
	log, _ := newTestEventLog(t)

	items, err := log.RecentMonitoring(context.Background(), "v1", 10)
	require.NoError(t, err)
	assert.Nil(t, items)
}

func TestEventLog_RecentMonitoring_FiltersByVersion(t *testing.T) {
	log, _ := newTestEventLog(t)
	ctx := context.Background()

	require.NoError(t, log.AppendMonitoring(ctx, monitoringEntry("v1", 1)))
	require.NoError(t, log.AppendMonitoring(ctx, monitoringEntry("v2", 2)))
	require.NoError(t, log.AppendMonitoring(ctx, monitoringEntry("v1", 3)))

	items, err := log.RecentMonitoring(ctx, "v1", 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].BatchSize)
	assert.Equal(t, 3, items[1].BatchSize)
}

func TestEventLog_RecentMonitoring_KeepsLatestEntries(t *testing.T) {
	log, _ := newTestEventLog(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, log.AppendMonitoring(ctx, monitoringEntry("v1", i)))
	}

	items, err := log.RecentMonitoring(ctx, "v1", 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 4, items[0].BatchSize)
	assert.Equal(t, 5, items[1].BatchSize)
}

func TestEventLog_RecentMonitoring_SkipsCorruptLines(t *testing.T) {
	log, _ := newTestEventLog(t)
	ctx := context.Background()

	require.NoError(t, log.AppendMonitoring(ctx, monitoringEntry("v1", 1)))

	f, err := os.OpenFile(log.monitoringPath, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, log.AppendMonitoring(ctx, monitoringEntry("v1", 2)))

	items, err := log.RecentMonitoring(ctx, "v1", 10)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestEventLog_AppendConversion(t *testing.T) {
	log, dir := newTestEventLog(t)
	ctx := context.Background()

	event := domain.ConversionEvent{
		Timestamp:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		LeadID:           "lead-1",
		ModelVersion:     "v1",
		ConversionRate:   10,
		TotalPredictions: 100,
		TotalConversions: 10,
	}
	require.NoError(t, log.AppendConversion(ctx, event))
	require.NoError(t, log.AppendConversion(ctx, event))

	data, err := os.ReadFile(filepath.Join(dir, "conversions.jsonl"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"lead_id":"lead-1"`)
	assert.Equal(t, 2, countLines(data))
}

func countLines(data []byte) int {
	n := 0
	for _, b := range data {
		if b == '\n' {
			n++
		}
	}
	return n
}
