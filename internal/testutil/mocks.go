package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"lead-scoring-service/internal/core/domain"
	ports "lead-scoring-service/internal/core/ports/output"
)

// MockRegistryStore is a mock of RegistryStore.
type MockRegistryStore struct {
	mock.Mock
}

func (m *MockRegistryStore) Load(ctx context.Context) (map[string]*domain.ModelRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*domain.ModelRecord), args.Error(1)
}

func (m *MockRegistryStore) Save(ctx context.Context, records map[string]*domain.ModelRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

// MockEventLog is a mock of EventLog.
type MockEventLog struct {
	mock.Mock
}

func (m *MockEventLog) AppendConversion(ctx context.Context, event domain.ConversionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventLog) AppendMonitoring(ctx context.Context, batch domain.MonitoringBatch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *MockEventLog) RecentMonitoring(ctx context.Context, version string, limit int) ([]domain.MonitoringBatch, error) {
	args := m.Called(ctx, version, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MonitoringBatch), args.Error(1)
}

// MockArtifactStore is a mock of ArtifactStore.
type MockArtifactStore struct {
	mock.Mock
}

func (m *MockArtifactStore) Load(ctx context.Context, version string) (ports.Predictor, error) {
	args := m.Called(ctx, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ports.Predictor), args.Error(1)
}

func (m *MockArtifactStore) LatestVersion(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockPredictor is a mock of Predictor.
type MockPredictor struct {
	mock.Mock
}

func (m *MockPredictor) Predict(batch domain.LeadBatch) ([]float64, error) {
	args := m.Called(batch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float64), args.Error(1)
}

// MockMemoryProbe is a mock of MemoryProbe.
type MockMemoryProbe struct {
	mock.Mock
}

func (m *MockMemoryProbe) Probe() (ports.MemoryReading, bool) {
	args := m.Called()
	return args.Get(0).(ports.MemoryReading), args.Bool(1)
}
