// Package db opens the PostgreSQL connections a load runs on.
//
// Each table gets its own dedicated *pgx.Conn, opened by a Connector chosen
// from the configured authentication method:
//
//   - Standard: username and password
//   - AWS IAM: RDS auth token used as the password
//   - Azure Entra ID: OAuth token used as the password
//   - Google IAM: Cloud SQL Go Connector dialer
//
// Connection failures are wrapped with guidance for the operator and always
// match belaz.ErrConnectionFailed. Nothing is retried.
package db
