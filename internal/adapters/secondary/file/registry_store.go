package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"lead-scoring-service/internal/core/domain"
	ports "lead-scoring-service/internal/core/ports/output"
)

type registryStore struct {
	path string
}

// NewRegistryStore persists the registry as one JSON document mapping
// version -> record, readable and writable as a whole.
func NewRegistryStore(path string) ports.RegistryStore {
	return &registryStore{path: path}
}

func (s *registryStore) Load(_ context.Context) (map[string]*domain.ModelRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*domain.ModelRecord{}, nil
		}
		return nil, fmt.Errorf("read registry document: %w", err)
	}

	records := map[string]*domain.ModelRecord{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode registry document: %w", err)
	}
	for version, rec := range records {
		rec.Version = version
	}
	return records, nil
}

func (s *registryStore) Save(_ context.Context, records map[string]*domain.ModelRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry document: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create registry directory: %w", err)
	}

	// Write-then-rename so a crash mid-save leaves the previous document
	// intact (at-most-once durability for the increment in flight).
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write registry document: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace registry document: %w", err)
	}
	return nil
}
