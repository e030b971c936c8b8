package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/vvka-141/belaz/internal/db"
	"github.com/vvka-141/belaz/internal/sqlbuild"
	"github.com/vvka-141/belaz/pkg/belaz"
)

// ConnectorFactory builds the Connector for a connection configuration.
// db.NewConnector is the production implementation.
type ConnectorFactory func(config *belaz.ConnectionConfig, logger belaz.Logger) (belaz.Connector, error)

// LoadService implements belaz.Loader.
// Thread-Safety: NOT safe for concurrent Run() calls on the same instance.
type LoadService struct {
	connectorFactory ConnectorFactory
	extractor        belaz.Extractor
	tableLoader      belaz.TableLoader
	logger           belaz.Logger

	// out receives rendered statements in dry-run mode
	out io.Writer
}

// NewLoadService creates a new LoadService with all dependencies injected.
// Panics on nil dependencies: they are wiring mistakes, not runtime conditions.
func NewLoadService(
	connectorFactory ConnectorFactory,
	extractor belaz.Extractor,
	tableLoader belaz.TableLoader,
	logger belaz.Logger,
	out io.Writer,
) *LoadService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if extractor == nil {
		panic("extractor cannot be nil")
	}
	if tableLoader == nil {
		panic("tableLoader cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if out == nil {
		panic("out cannot be nil")
	}

	return &LoadService{
		connectorFactory: connectorFactory,
		extractor:        extractor,
		tableLoader:      tableLoader,
		logger:           logger,
		out:              out,
	}
}

// Run loads every job in order. The returned error is non-nil only when no
// table could be attempted (the connector cannot be built); per-table
// failures are recorded in the report.
func (s *LoadService) Run(ctx context.Context, opts belaz.RunOptions) (belaz.RunReport, error) {
	report := belaz.RunReport{
		RunID:   uuid.New(),
		DryRun:  opts.DryRun,
		Started: time.Now(),
	}

	s.logger.Verbose("Run %s: %d table(s) flagged for loading into %s", report.RunID, len(opts.Jobs), opts.Connection)

	if len(opts.Jobs) == 0 {
		s.logger.Info("No tables flagged for loading")
		report.Duration = time.Since(report.Started)
		return report, nil
	}

	var connector belaz.Connector
	if !opts.DryRun {
		var err error
		connector, err = s.connectorFactory(&opts.Connection, s.logger)
		if err != nil {
			report.Duration = time.Since(report.Started)
			return report, fmt.Errorf("failed to create connector: %w", err)
		}
	}

	for _, job := range opts.Jobs {
		report.Tables = append(report.Tables, s.loadTable(ctx, connector, job, opts))
	}

	report.Duration = time.Since(report.Started)
	return report, nil
}

// loadTable runs one table end to end. Errors never escape; they are logged
// and recorded in the returned TableReport.
func (s *LoadService) loadTable(ctx context.Context, connector belaz.Connector, job belaz.LoadJob, opts belaz.RunOptions) (tr belaz.TableReport) {
	started := time.Now()
	tr.Table = job.QualifiedTable()
	defer func() { tr.Duration = time.Since(started) }()

	s.logger.Info("")
	s.logger.Info("*********************************************************")
	s.logger.Info("Loading table: %s", job.Table)

	ext, err := s.extractor.Extract(job)
	if err != nil {
		tr.Err = err
		s.logger.Error("Skipping %s: %v", tr.Table, err)
		return tr
	}
	tr.Documents = ext.Documents
	tr.Rows = len(ext.Rows)
	s.logger.Verbose("Read %d document(s) from %s", ext.Documents, job.SourceFile)

	if ext.Malformed != nil {
		tr.Malformed = ext.Malformed
		s.logger.Warn("%s: stopped reading early: %v; loading the %d row(s) read before it", job.SourceFile, ext.Malformed, len(ext.Rows))
	}

	if opts.DryRun {
		if err := s.render(job, ext.Rows, opts.BatchSize); err != nil {
			tr.Err = fmt.Errorf("%w: %w", belaz.ErrDatabase, err)
			s.logger.Error("Rendering %s failed: %v", tr.Table, err)
		}
		return tr
	}

	s.logger.Info("Connecting to the PostgreSQL database...")
	conn, err := connector.Connect(ctx)
	if err != nil {
		tr.Err = err
		s.logger.Error("%v", err)
		return tr
	}
	defer func() {
		if err := conn.Close(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("Closing connection for %s: %v", tr.Table, err)
		}
		s.logger.Info("Database connection has been closed")
	}()

	results, err := s.tableLoader.Load(ctx, conn, job, ext.Rows)
	if err != nil {
		tr.Err = err
		kind := "statement"
		if db.IsConnectionError(err) {
			kind = "connection"
		}
		s.logger.Error("Loading %s failed (%s error): %v", tr.Table, kind, err)
		return tr
	}

	tr.Truncated = true
	for _, r := range results {
		if !r.HasRowCount {
			s.logger.Verbose("%s: %s", r.Kind, r.Tag)
			continue
		}
		s.logger.Info("The amount of records affected are: %d", r.RowsAffected)
		if r.Kind == belaz.StatementInsert {
			tr.Inserted += r.RowsAffected
		}
	}
	return tr
}

// render writes the table's statements with values inlined.
func (s *LoadService) render(job belaz.LoadJob, rows []belaz.Row, batchSize int) error {
	stmts, err := sqlbuild.Plan(job, rows, batchSize)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := fmt.Fprintln(s.out, stmt.Render(job)); err != nil {
			return err
		}
	}
	return nil
}
