package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/jwebster45206/q3a-report/pkg/game"
)

// MockStore is a mock implementation of ReportStore for testing. Without
// overrides it keeps reports in memory.
type MockStore struct {
	PingFunc        func(ctx context.Context) error
	SaveReportFunc  func(ctx context.Context, runID uuid.UUID, report *game.Report) error
	ListReportsFunc func(ctx context.Context, runID uuid.UUID) ([]*game.Report, error)
	CloseFunc       func() error

	// Track calls for testing
	PingCalls       int
	SaveReportCalls []SaveReportCall
	ListCalls       []uuid.UUID
	CloseCalls      int

	mu      sync.Mutex
	reports map[uuid.UUID][]*game.Report
}

type SaveReportCall struct {
	RunID  uuid.UUID
	Report *game.Report
}

// Ensure MockStore implements ReportStore interface
var _ ReportStore = (*MockStore)(nil)

// NewMockStore creates a new mock store
func NewMockStore() *MockStore {
	return &MockStore{
		reports: make(map[uuid.UUID][]*game.Report),
	}
}

func (m *MockStore) Ping(ctx context.Context) error {
	m.mu.Lock()
	m.PingCalls++
	m.mu.Unlock()

	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

func (m *MockStore) SaveReport(ctx context.Context, runID uuid.UUID, report *game.Report) error {
	m.mu.Lock()
	m.SaveReportCalls = append(m.SaveReportCalls, SaveReportCall{RunID: runID, Report: report})
	m.mu.Unlock()

	if m.SaveReportFunc != nil {
		return m.SaveReportFunc(ctx, runID, report)
	}
	if report == nil {
		return errors.New("report cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[runID] = append(m.reports[runID], report)
	return nil
}

func (m *MockStore) ListReports(ctx context.Context, runID uuid.UUID) ([]*game.Report, error) {
	m.mu.Lock()
	m.ListCalls = append(m.ListCalls, runID)
	m.mu.Unlock()

	if m.ListReportsFunc != nil {
		return m.ListReportsFunc(ctx, runID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*game.Report(nil), m.reports[runID]...), nil
}

func (m *MockStore) Close() error {
	m.mu.Lock()
	m.CloseCalls++
	m.mu.Unlock()

	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
