// Package testing provides PostgreSQL helpers for integration tests.
package testing

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/belaz/internal/testinfra"
	"github.com/vvka-141/belaz/pkg/belaz"
)

var (
	testContainerOnce sync.Once
	testContainerConn string
	testContainerErr  error
)

func getOrStartTestContainer() (string, error) {
	testContainerOnce.Do(func() {
		container, err := testinfra.StartSimplePostgres(context.Background())
		if err != nil {
			testContainerErr = err
			return
		}
		testContainerConn = container.ConnString
	})
	return testContainerConn, testContainerErr
}

// GetTestConnectionString returns the test database connection string.
// Priority: BELAZ_TEST_CONN env var > auto-started testcontainer > skip test.
func GetTestConnectionString(t *testing.T) string {
	t.Helper()

	if connString := os.Getenv("BELAZ_TEST_CONN"); connString != "" {
		return connString
	}

	connString, err := getOrStartTestContainer()
	if err != nil {
		t.Skipf("BELAZ_TEST_CONN not set and Docker unavailable: %v", err)
	}
	return connString
}

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDatabase combines SkipIfShort and GetTestConnectionString for convenience.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	return GetTestConnectionString(t)
}

// ConnectionConfig converts a connection string into the ConnectionConfig the
// loader connects with, targeting schema.
func ConnectionConfig(t *testing.T, connString, schema string) belaz.ConnectionConfig {
	t.Helper()

	parsed, err := pgx.ParseConfig(connString)
	if err != nil {
		t.Fatalf("Failed to parse connection string: %v", err)
	}

	sslMode := "disable"
	if parsed.TLSConfig != nil {
		sslMode = "require"
	}

	return belaz.ConnectionConfig{
		Host:       parsed.Host,
		Port:       int(parsed.Port),
		Database:   parsed.Database,
		Schema:     schema,
		Username:   parsed.User,
		Password:   parsed.Password,
		SSLMode:    sslMode,
		AuthMethod: belaz.AuthMethodStandard,
	}
}

// Connect opens a connection closed automatically when the test completes.
func Connect(t *testing.T, connString string) *pgx.Conn {
	t.Helper()

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close(ctx) })
	return conn
}

// CreateStagingTable creates schema.table with one text column per name and
// drops the schema when the test completes.
func CreateStagingTable(t *testing.T, connString, schema, table string, columns ...string) {
	t.Helper()

	ctx := context.Background()
	conn := Connect(t, connString)

	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = pgx.Identifier{col}.Sanitize() + " text"
	}

	stmts := []string{
		fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema),
		fmt.Sprintf("CREATE TABLE %s.%s (%s)", schema, table, strings.Join(defs, ", ")),
	}
	for _, stmt := range stmts {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			t.Fatalf("Failed to prepare staging table: %v", err)
		}
	}

	t.Cleanup(func() {
		cleanup, err := pgx.Connect(ctx, connString)
		if err != nil {
			t.Logf("Warning: Failed to connect for cleanup: %v", err)
			return
		}
		defer cleanup.Close(ctx)
		if _, err := cleanup.Exec(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schema)); err != nil {
			t.Logf("Warning: Failed to drop schema %s: %v", schema, err)
		}
	})
}

// TableRows returns every row of schema.table as text, in physical order.
func TableRows(t *testing.T, connString, schema, table string) [][]string {
	t.Helper()

	ctx := context.Background()
	conn := Connect(t, connString)

	rows, err := conn.Query(ctx, fmt.Sprintf("SELECT * FROM %s.%s", schema, table))
	if err != nil {
		t.Fatalf("Failed to query %s.%s: %v", schema, table, err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			t.Fatalf("Failed to read row: %v", err)
		}
		row := make([]string, len(values))
		for i, v := range values {
			if v != nil {
				row[i] = fmt.Sprint(v)
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("Failed to iterate %s.%s: %v", schema, table, err)
	}
	return out
}
