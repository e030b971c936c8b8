package sqlbuild

import (
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/vvka-141/belaz/pkg/belaz"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Statement is one SQL statement of a table load.
type Statement struct {
	Kind belaz.StatementKind
	SQL  string
	Args []any

	// Rows is the number of rows an INSERT carries
	Rows int
}

// Truncate returns the statement that empties the job's table.
func Truncate(job belaz.LoadJob) Statement {
	return Statement{
		Kind: belaz.StatementTruncate,
		SQL:  fmt.Sprintf("TRUNCATE TABLE %s;", job.QualifiedTable()),
	}
}

// BatchRows returns how many rows fit in one INSERT for the given column
// count, honoring both batchSize and the bind parameter limit.
func BatchRows(columns, batchSize int) int {
	if batchSize <= 0 {
		batchSize = belaz.DefaultBatchSize
	}
	if columns <= 0 {
		return batchSize
	}
	limit := belaz.MaxBindParameters / columns
	if limit < 1 {
		limit = 1
	}
	if batchSize > limit {
		return limit
	}
	return batchSize
}

// Inserts splits rows into INSERT statements with bound parameters.
// It returns no statements when rows is empty.
func Inserts(job belaz.LoadJob, rows []belaz.Row, batchSize int) ([]Statement, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	per := BatchRows(len(job.Columns), batchSize)
	stmts := make([]Statement, 0, (len(rows)+per-1)/per)

	for start := 0; start < len(rows); start += per {
		end := start + per
		if end > len(rows) {
			end = len(rows)
		}

		builder := psql.Insert(job.QualifiedTable())
		for i, row := range rows[start:end] {
			if len(row) != len(job.Columns) {
				return nil, fmt.Errorf("row %d of %s has %d values, expected %d",
					start+i, job.QualifiedTable(), len(row), len(job.Columns))
			}
			cells := make([]any, len(row))
			for j, v := range row {
				cells[j] = Cell(v)
			}
			builder = builder.Values(cells...)
		}

		sql, args, err := builder.ToSql()
		if err != nil {
			return nil, fmt.Errorf("build insert for %s: %w", job.QualifiedTable(), err)
		}
		stmts = append(stmts, Statement{
			Kind: belaz.StatementInsert,
			SQL:  sql,
			Args: args,
			Rows: end - start,
		})
	}
	return stmts, nil
}

// Plan returns every statement of a table load in execution order:
// the TRUNCATE, then the INSERT batches.
func Plan(job belaz.LoadJob, rows []belaz.Row, batchSize int) ([]Statement, error) {
	inserts, err := Inserts(job, rows, batchSize)
	if err != nil {
		return nil, err
	}
	return append([]Statement{Truncate(job)}, inserts...), nil
}

// Render returns the statement with its arguments inlined as quoted literals.
func (s Statement) Render(job belaz.LoadJob) string {
	if s.Kind != belaz.StatementInsert || len(s.Args) == 0 {
		return s.SQL
	}

	width := len(job.Columns)
	if width == 0 {
		width = len(s.Args)
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(job.QualifiedTable())
	b.WriteString("\nVALUES\n")
	for i := 0; i < len(s.Args); i += width {
		if i > 0 {
			b.WriteString(",\n")
		}
		b.WriteString("    (")
		for j := i; j < i+width && j < len(s.Args); j++ {
			if j > i {
				b.WriteString(",")
			}
			b.WriteString(Literal(fmt.Sprint(s.Args[j])))
		}
		b.WriteString(")")
	}
	b.WriteString(";")
	return b.String()
}
