package store

import (
	"context"
	"time"

	"github.com/huangsam/bikebin/internal/contract"
	"github.com/huangsam/bikebin/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetBinStore implements the StoreManager interface.
func (m *MockStoreManager) GetBinStore() contract.BinStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.BinStore)
	return store
}

// GetRunStore implements the StoreManager interface.
func (m *MockStoreManager) GetRunStore() contract.RunStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.RunStore)
	return store
}

// MockBinStore is a mock implementation of BinStore for testing.
type MockBinStore struct {
	mock.Mock
}

var _ contract.BinStore = &MockBinStore{} // Compile-time check

// SaveBins implements the BinStore interface.
func (m *MockBinStore) SaveBins(ctx context.Context, bins []schema.BinAggregate) error {
	args := m.Called(ctx, bins)
	return args.Error(0)
}

// LoadBins implements the BinStore interface.
func (m *MockBinStore) LoadBins(ctx context.Context) ([]schema.BinAggregate, error) {
	args := m.Called(ctx)
	bins, _ := args.Get(0).([]schema.BinAggregate)
	return bins, args.Error(1)
}

// GetStatus implements the BinStore interface.
func (m *MockBinStore) GetStatus() (schema.BinStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.BinStatus), args.Error(1)
}

// Close implements the BinStore interface.
func (m *MockBinStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockRunStore is a mock implementation of RunStore for testing.
type MockRunStore struct {
	mock.Mock
}

var _ contract.RunStore = &MockRunStore{} // Compile-time check

// BeginRun implements the RunStore interface.
func (m *MockRunStore) BeginRun(startedAt time.Time, configParams map[string]any) (string, error) {
	args := m.Called(startedAt, configParams)
	return args.String(0), args.Error(1)
}

// RecordResult implements the RunStore interface.
func (m *MockRunStore) RecordResult(runID string, result schema.EvaluationResult) error {
	args := m.Called(runID, result)
	return args.Error(0)
}

// EndRun implements the RunStore interface.
func (m *MockRunStore) EndRun(runID string, finishedAt time.Time) error {
	args := m.Called(runID, finishedAt)
	return args.Error(0)
}

// GetStatus implements the RunStore interface.
func (m *MockRunStore) GetStatus() (schema.RunStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.RunStatus), args.Error(1)
}

// GetAllRuns implements the RunStore interface.
func (m *MockRunStore) GetAllRuns() ([]schema.RunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.RunRecord)
	return runs, args.Error(1)
}

// GetAllResults implements the RunStore interface.
func (m *MockRunStore) GetAllResults() ([]schema.RunResultRecord, error) {
	args := m.Called()
	results, _ := args.Get(0).([]schema.RunResultRecord)
	return results, args.Error(1)
}

// Close implements the RunStore interface.
func (m *MockRunStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
