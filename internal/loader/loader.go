// Package loader replaces the contents of a staging table over one connection.
package loader

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/belaz/internal/sqlbuild"
	"github.com/vvka-141/belaz/pkg/belaz"
)

// PostgresLoader implements belaz.TableLoader.
// The TRUNCATE and every INSERT batch of a table run in a single
// transaction: a failing batch leaves the previous contents in place.
//
// Thread-Safety: stateless apart from configuration, safe for concurrent use
// with distinct connections.
type PostgresLoader struct {
	batchSize int
	logger    belaz.Logger
}

// NewPostgresLoader creates a loader issuing at most batchSize rows per INSERT.
// Zero means belaz.DefaultBatchSize.
func NewPostgresLoader(batchSize int, logger belaz.Logger) *PostgresLoader {
	if logger == nil {
		panic("logger cannot be nil")
	}
	if batchSize <= 0 {
		batchSize = belaz.DefaultBatchSize
	}
	return &PostgresLoader{batchSize: batchSize, logger: logger}
}

// Load truncates job's table and inserts rows. Results are returned only when
// the transaction committed; every error matches belaz.ErrDatabase.
func (l *PostgresLoader) Load(ctx context.Context, conn belaz.DBConnection, job belaz.LoadJob, rows []belaz.Row) ([]belaz.StatementResult, error) {
	stmts, err := sqlbuild.Plan(job, rows, l.batchSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", belaz.ErrDatabase, err)
	}

	var results []belaz.StatementResult
	err = pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		for i, stmt := range stmts {
			l.logger.Verbose("Executing %s on %s (%d/%d, %d rows)", stmt.Kind, job.QualifiedTable(), i+1, len(stmts), stmt.Rows)

			tag, err := tx.Exec(ctx, stmt.SQL, stmt.Args...)
			if err != nil {
				return fmt.Errorf("%s %s (statement %d of %d): %w", stmt.Kind, job.QualifiedTable(), i+1, len(stmts), err)
			}
			results = append(results, result(stmt.Kind, tag))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", belaz.ErrDatabase, err)
	}
	return results, nil
}

// result converts a command tag. TRUNCATE reports no row count.
func result(kind belaz.StatementKind, tag pgconn.CommandTag) belaz.StatementResult {
	hasCount := tag.Insert() || tag.Update() || tag.Delete() || tag.Select()
	r := belaz.StatementResult{Kind: kind, Tag: tag.String(), HasRowCount: hasCount}
	if hasCount {
		r.RowsAffected = tag.RowsAffected()
	}
	return r
}
