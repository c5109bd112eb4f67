package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"lead-scoring-service/internal/core/domain"
	ports "lead-scoring-service/internal/core/ports/output"
)

type eventLog struct {
	mu             sync.Mutex
	conversionPath string
	monitoringPath string
}

// NewEventLog appends one JSON record per line to the conversion and
// monitoring logs. Entries are never rewritten.
func NewEventLog(conversionPath, monitoringPath string) ports.EventLog {
	return &eventLog{
		conversionPath: conversionPath,
		monitoringPath: monitoringPath,
	}
}

func (l *eventLog) AppendConversion(_ context.Context, event domain.ConversionEvent) error {
	return l.appendLine(l.conversionPath, event)
}

func (l *eventLog) AppendMonitoring(_ context.Context, batch domain.MonitoringBatch) error {
	return l.appendLine(l.monitoringPath, batch)
}

func (l *eventLog) RecentMonitoring(_ context.Context, version string, limit int) ([]domain.MonitoringBatch, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.monitoringPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open monitoring log: %w", err)
	}
	defer f.Close()

	var matches []domain.MonitoringBatch
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry domain.MonitoringBatch
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue // skip corrupt lines, the log is best-effort audit data
		}
		if entry.ModelVersion == version {
			matches = append(matches, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan monitoring log: %w", err)
	}

	if len(matches) > limit {
		matches = matches[len(matches)-limit:]
	}
	return matches, nil
}

func (l *eventLog) appendLine(path string, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode log record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append log %s: %w", filepath.Base(path), err)
	}
	return nil
}
