package belaz

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Loader is the main interface for executing a load run.
// Implementations iterate the jobs in order and isolate failures per table.
type Loader interface {
	// Run loads every job and returns the per-table outcome.
	// The error is non-nil only for failures that stop the whole run
	// (invalid options); table failures are reported in RunReport.
	Run(ctx context.Context, opts RunOptions) (RunReport, error)
}

// Extractor reads a source file into rows.
type Extractor interface {
	// Extract reads every document of job.SourceFile and projects job.Columns.
	// Returns an error wrapping ErrExtraction only when the file cannot be read at all;
	// a stream broken mid-way is reported through Extraction.Malformed.
	Extract(job LoadJob) (Extraction, error)
}

// TableLoader replaces the contents of one table.
type TableLoader interface {
	// Load truncates the job's table and inserts rows over conn.
	// TRUNCATE always precedes INSERT. Results are returned in execution order.
	Load(ctx context.Context, conn DBConnection, job LoadJob, rows []Row) ([]StatementResult, error)
}

// Connector establishes database connections.
// Different implementations handle various authentication methods
// (standard credentials, cloud IAM).
type Connector interface {
	// Connect opens a single dedicated connection.
	// The caller must Close it when done.
	Connect(ctx context.Context) (DBConnection, error)
}

// DBConnection abstracts the single connection a table load runs on.
// *pgx.Conn satisfies it.
type DBConnection interface {
	// Exec executes a statement without returning any rows.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// Begin starts a transaction.
	Begin(ctx context.Context) (pgx.Tx, error)

	// Close closes the connection.
	Close(ctx context.Context) error
}
