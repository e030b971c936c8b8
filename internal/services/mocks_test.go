package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/belaz/pkg/belaz"
)

type mockConn struct {
	closed int
}

func (m *mockConn) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (m *mockConn) Begin(_ context.Context) (pgx.Tx, error) {
	return nil, fmt.Errorf("mockConn does not support transactions")
}

func (m *mockConn) Close(_ context.Context) error {
	m.closed++
	return nil
}

type mockConnector struct {
	conns []*mockConn
	err   error
}

func (m *mockConnector) Connect(_ context.Context) (belaz.DBConnection, error) {
	if m.err != nil {
		return nil, m.err
	}
	conn := &mockConn{}
	m.conns = append(m.conns, conn)
	return conn, nil
}

type mockExtractor struct {
	results map[string]belaz.Extraction
	errs    map[string]error
}

func (m *mockExtractor) Extract(job belaz.LoadJob) (belaz.Extraction, error) {
	if err := m.errs[job.Table]; err != nil {
		return belaz.Extraction{}, err
	}
	return m.results[job.Table], nil
}

type loadCall struct {
	table string
	rows  []belaz.Row
}

type mockTableLoader struct {
	calls []loadCall
	errs  map[string]error
}

func (m *mockTableLoader) Load(_ context.Context, _ belaz.DBConnection, job belaz.LoadJob, rows []belaz.Row) ([]belaz.StatementResult, error) {
	m.calls = append(m.calls, loadCall{table: job.Table, rows: rows})
	if err := m.errs[job.Table]; err != nil {
		return nil, err
	}
	results := []belaz.StatementResult{{Kind: belaz.StatementTruncate, Tag: "TRUNCATE TABLE"}}
	if len(rows) > 0 {
		results = append(results, belaz.StatementResult{
			Kind:         belaz.StatementInsert,
			Tag:          fmt.Sprintf("INSERT 0 %d", len(rows)),
			RowsAffected: int64(len(rows)),
			HasRowCount:  true,
		})
	}
	return results, nil
}

// recordingLogger keeps every message with its level prefix.
type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordingLogger) record(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, level+" "+fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Verbose(format string, args ...interface{}) { l.record("VERBOSE", format, args...) }
func (l *recordingLogger) Info(format string, args ...interface{})    { l.record("INFO", format, args...) }
func (l *recordingLogger) Warn(format string, args ...interface{})    { l.record("WARN", format, args...) }
func (l *recordingLogger) Error(format string, args ...interface{})   { l.record("ERROR", format, args...) }

func (l *recordingLogger) contains(level, substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.messages {
		if strings.HasPrefix(m, level+" ") && strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

func (l *recordingLogger) indexOf(substr string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, m := range l.messages {
		if strings.Contains(m, substr) {
			return i
		}
	}
	return -1
}
