package db

import (
	"context"
	"fmt"
	"net"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/belaz/pkg/belaz"
)

// GoogleCloudSQLConnector implements belaz.Connector for Google Cloud SQL
// using IAM database authentication via the Cloud SQL Go Connector.
type GoogleCloudSQLConnector struct {
	config   *belaz.ConnectionConfig
	instance string
	logger   belaz.Logger
}

// NewGoogleCloudSQLConnector creates a connector for Google Cloud SQL IAM authentication.
// instance is the instance connection name in format: project:region:instance
func NewGoogleCloudSQLConnector(config *belaz.ConnectionConfig, instance string, logger belaz.Logger) *GoogleCloudSQLConnector {
	return &GoogleCloudSQLConnector{config: config, instance: instance, logger: logger}
}

// cloudSQLConn releases its dialer together with the connection.
type cloudSQLConn struct {
	*pgx.Conn
	dialer *cloudsqlconn.Dialer
}

func (c *cloudSQLConn) Close(ctx context.Context) error {
	err := c.Conn.Close(ctx)
	if dErr := c.dialer.Close(); err == nil {
		err = dErr
	}
	return err
}

// Connect dials the instance through a dedicated dialer. The dialer lives
// exactly as long as the returned connection.
func (c *GoogleCloudSQLConnector) Connect(ctx context.Context) (belaz.DBConnection, error) {
	dialer, err := cloudsqlconn.NewDialer(ctx, cloudsqlconn.WithIAMAuthN())
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloud SQL dialer: %w: %w", belaz.ErrConnectionFailed, err)
	}

	dsn := fmt.Sprintf("host=%s user=%s dbname=%s sslmode=disable application_name=belaz",
		c.instance, c.config.Username, c.config.Database)

	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		dialer.Close()
		return nil, fmt.Errorf("failed to parse connection config: %v: %w", err, belaz.ErrConnectionFailed)
	}
	connConfig.DialFunc = func(ctx context.Context, _, _ string) (net.Conn, error) {
		return dialer.Dial(ctx, c.instance)
	}
	configureConn(connConfig, c.logger)

	conn, err := pgx.ConnectConfig(ctx, connConfig)
	if err != nil {
		dialer.Close()
		return nil, wrapConnectionError(err, c.instance, c.config.Port, c.config.Database)
	}
	return &cloudSQLConn{Conn: conn, dialer: dialer}, nil
}

func newGoogleConnector(config *belaz.ConnectionConfig, logger belaz.Logger) (belaz.Connector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf(`Google Cloud SQL IAM auth requires "google_instance" (project:region:instance): %w`, belaz.ErrInvalidConfig)
	}
	if config.Username == "" {
		return nil, fmt.Errorf(`Google Cloud SQL IAM auth requires "user": %w`, belaz.ErrInvalidConfig)
	}
	return NewGoogleCloudSQLConnector(config, config.GoogleInstance, logger), nil
}
