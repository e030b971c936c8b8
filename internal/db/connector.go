package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/belaz/pkg/belaz"
)

// StandardConnector implements belaz.Connector for username/password authentication.
type StandardConnector struct {
	config *belaz.ConnectionConfig
	logger belaz.Logger
}

// NewStandardConnector creates a new StandardConnector with the given configuration.
func NewStandardConnector(config *belaz.ConnectionConfig, logger belaz.Logger) *StandardConnector {
	return &StandardConnector{config: config, logger: logger}
}

// Connect opens one connection using the configured password.
func (c *StandardConnector) Connect(ctx context.Context) (belaz.DBConnection, error) {
	conn, err := connect(ctx, c.config, c.logger)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// connect parses the connection string built from config and opens a single connection.
func connect(ctx context.Context, config *belaz.ConnectionConfig, logger belaz.Logger) (*pgx.Conn, error) {
	connConfig, err := pgx.ParseConfig(BuildConnectionString(config))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %v: %w", err, belaz.ErrConnectionFailed)
	}
	configureConn(connConfig, logger)

	conn, err := pgx.ConnectConfig(ctx, connConfig)
	if err != nil {
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}
	return conn, nil
}

// configureConn routes server notices (TRUNCATE cascades, etc.) to the verbose log.
func configureConn(connConfig *pgx.ConnConfig, logger belaz.Logger) {
	if logger == nil {
		return
	}
	connConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Verbose("%s: %s", notice.Severity, notice.Message)
	}
}

// NewConnector is a factory function that creates the appropriate Connector
// based on the ConnectionConfig's AuthMethod.
func NewConnector(config *belaz.ConnectionConfig, logger belaz.Logger) (belaz.Connector, error) {
	switch config.AuthMethod {
	case belaz.AuthMethodStandard:
		return NewStandardConnector(config, logger), nil
	case belaz.AuthMethodAWSIAM:
		return newAWSConnector(config, logger)
	case belaz.AuthMethodGoogleIAM:
		return newGoogleConnector(config, logger)
	case belaz.AuthMethodAzureEntraID:
		return newAzureConnector(config, logger)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, belaz.ErrUnsupportedAuthMethod)
	}
}

// wrapConnectionError wraps raw pgx connection errors with actionable guidance.
// The result matches both err and belaz.ErrConnectionFailed.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	var msg string
	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		msg = fmt.Sprintf(`connection refused to %s

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong host or port in the config file
  - Firewall blocking the connection`, addr, host, port)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		msg = fmt.Sprintf(`cannot resolve host "%s"

Possible causes:
  - Hostname is misspelled in the config file
  - DNS is not configured or reachable`, host)

	case strings.Contains(errStr, "password authentication failed"):
		msg = fmt.Sprintf(`password authentication failed for database "%s"

Possible causes:
  - Wrong password (check the config file or $PGPASSWORD)
  - Wrong user
  - User does not have access to the database`, database)

	case strings.Contains(errStr, "does not exist"):
		msg = fmt.Sprintf(`database "%s" does not exist

The staging database must exist before loading:
  createdb %s`, database, database)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		msg = fmt.Sprintf(`connection timed out to %s

Possible causes:
  - Server is overloaded or unresponsive
  - Firewall silently dropping packets
  - Wrong host/port (server not listening)`, addr)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		msg = `SSL/TLS connection error

Possible causes:
  - Server requires SSL but sslmode is wrong (set "sslmode" or $PGSSLMODE)
  - Certificate verification failed (try sslmode "require")`

	case strings.Contains(errStr, "too many connections"):
		msg = fmt.Sprintf(`too many connections to database "%s"

Possible causes:
  - max_connections limit reached in postgresql.conf
  - Stale sessions from previous loads

Try: SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = '%s';`, database, database)

	default:
		return fmt.Errorf("failed to connect to database: %w: %w", belaz.ErrConnectionFailed, err)
	}

	return fmt.Errorf("%s\n\nOriginal error: %w: %w", msg, belaz.ErrConnectionFailed, err)
}
