// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"
	"io"
	"log/slog"

	"snowclone/internal/domain"
)

// Logger returns a logger that discards everything, for wiring into
// constructors under test.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// === Statement Executor Mock ===

// MockExecutor implements domain.StatementExecutor for testing.
type MockExecutor struct {
	ExecuteFn    func(ctx context.Context, instruction string) ([]domain.Row, error)
	Instructions []string // records all executed instructions
}

// Execute implements the interface method for testing.
func (m *MockExecutor) Execute(ctx context.Context, instruction string) ([]domain.Row, error) {
	m.Instructions = append(m.Instructions, instruction)
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, instruction)
	}
	return nil, nil
}

var _ domain.StatementExecutor = (*MockExecutor)(nil)

// === Run History Mock ===

// MockRunHistory implements domain.RunHistory for testing.
type MockRunHistory struct {
	RecordRunFn  func(ctx context.Context, rec domain.RunRecord) error
	RecentRunsFn func(ctx context.Context, limit int) ([]domain.RunRecord, error)
	GetRunFn     func(ctx context.Context, id string) (*domain.RunRecord, error)
	Records      []domain.RunRecord // collected records for assertions
}

// RecordRun implements the interface method for testing.
func (m *MockRunHistory) RecordRun(ctx context.Context, rec domain.RunRecord) error {
	if m.RecordRunFn != nil {
		if err := m.RecordRunFn(ctx, rec); err != nil {
			return err
		}
	}
	m.Records = append(m.Records, rec)
	return nil
}

// RecentRuns implements the interface method for testing.
func (m *MockRunHistory) RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if m.RecentRunsFn != nil {
		return m.RecentRunsFn(ctx, limit)
	}
	panic("unexpected call to MockRunHistory.RecentRuns")
}

// GetRun implements the interface method for testing.
func (m *MockRunHistory) GetRun(ctx context.Context, id string) (*domain.RunRecord, error) {
	if m.GetRunFn != nil {
		return m.GetRunFn(ctx, id)
	}
	panic("unexpected call to MockRunHistory.GetRun")
}

// LastRecord returns the last collected run record, or nil if none.
func (m *MockRunHistory) LastRecord() *domain.RunRecord {
	if len(m.Records) == 0 {
		return nil
	}
	return &m.Records[len(m.Records)-1]
}

var _ domain.RunHistory = (*MockRunHistory)(nil)
