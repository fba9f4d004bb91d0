package backend

import (
	"context"

	"github.com/riftdata/pgwire/wire"
)

// ExecResult is what an Executor returns for one simple-query string.
// A non-nil Columns (a result set, possibly with zero rows) is sent as a
// RowDescription followed by one DataRow per entry of Rows; a nil Columns
// sends neither. Tag is sent in CommandComplete (e.g. "INSERT 0 1"); an
// empty Tag is sent as "SELECT n", n being len(Rows). An entirely empty
// ExecResult therefore yields CommandComplete("SELECT 0"), not
// EmptyQueryResponse, which is sent only for query text that is empty
// after trimming whitespace, without calling the Executor.
type ExecResult struct {
	Columns []wire.ColumnDescription
	Rows    [][]wire.ColumnValue
	Tag     string
}

// Executor runs the SQL text of a simple-query Query message and
// reports what happened. A fake postmaster's whole reason for existing
// is to let a caller plug in canned or scripted responses here instead
// of a real query planner.
type Executor interface {
	Execute(ctx context.Context, sql string) (ExecResult, error)
}

// ExecutorFunc adapts a plain function to an Executor.
type ExecutorFunc func(ctx context.Context, sql string) (ExecResult, error)

func (f ExecutorFunc) Execute(ctx context.Context, sql string) (ExecResult, error) {
	return f(ctx, sql)
}
