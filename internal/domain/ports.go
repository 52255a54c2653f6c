package domain

import "context"

// Row is a single result row keyed by lower-cased column name. Warehouse
// listing commands move columns between versions, so consumers look fields up
// by name rather than position.
type Row map[string]string

// StatementExecutor runs one instruction against the warehouse and returns
// its result rows. Statements without a result set return an empty slice.
// All failures surface as a single error; callers never inspect the subtype,
// they record the step as failed.
//
// Implemented by warehouse.Session; injected into every engine rather than
// held as ambient state, so independent runs can use independent sessions.
type StatementExecutor interface {
	Execute(ctx context.Context, instruction string) ([]Row, error)
}

// RunHistory persists finished run reports for later inspection. The engines
// themselves never persist; recording happens in the callers once a report is
// handed back.
type RunHistory interface {
	RecordRun(ctx context.Context, rec RunRecord) error
	RecentRuns(ctx context.Context, limit int) ([]RunRecord, error)
	GetRun(ctx context.Context, id string) (*RunRecord, error)
}
