package belaz

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConnectionConfig represents resolved connection parameters for the target database.
// Built once from the configuration file and never modified afterwards.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Schema   string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// AWSRegion is required for AuthMethodAWSIAM
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name (project:region:instance),
	// required for AuthMethodGoogleIAM
	GoogleInstance string

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	// If all three are provided, Service Principal authentication is used.
	// Otherwise the DefaultAzureCredential chain is used.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// String describes the connection target without secrets.
func (c ConnectionConfig) String() string {
	return fmt.Sprintf("%s@%s:%d/%s (schema %s, auth %s)",
		c.Username, c.Host, c.Port, c.Database, c.Schema, c.AuthMethod)
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}

// ParseAuthMethod maps the auth_method config value to an AuthMethod.
// An empty value means standard password authentication.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "password":
		return AuthMethodStandard, nil
	case "aws_iam", "aws":
		return AuthMethodAWSIAM, nil
	case "google", "google_iam":
		return AuthMethodGoogleIAM, nil
	case "azure", "azure_entra_id":
		return AuthMethodAzureEntraID, nil
	default:
		return AuthMethodStandard, fmt.Errorf("%q: %w", s, ErrUnsupportedAuthMethod)
	}
}

// LoadJob describes how to load one table.
type LoadJob struct {
	// Schema is the target schema, shared by every job of a run
	Schema string

	// Table is the staging table name inside Schema
	Table string

	// SourceFile is the path of the BSON document stream
	SourceFile string

	// Columns is the ordered list of document fields projected into each row
	Columns []string
}

// QualifiedTable returns "schema.table".
func (j LoadJob) QualifiedTable() string {
	return j.Schema + "." + j.Table
}

// Row is one projected document, positionally aligned with LoadJob.Columns.
// Missing fields hold the empty string, so len(row) always equals len(job.Columns).
type Row []any

// Extraction is the result of reading one source file.
type Extraction struct {
	// Rows holds every row decoded before the stream ended or broke
	Rows []Row

	// Documents is the number of documents decoded
	Documents int

	// Malformed is set when the stream stopped at an invalid document.
	// Rows still holds everything decoded before that point.
	Malformed error
}

// StatementKind identifies the statements issued for a table.
type StatementKind int

const (
	StatementTruncate StatementKind = iota
	StatementInsert
)

// String returns the SQL verb of the statement kind.
func (k StatementKind) String() string {
	switch k {
	case StatementTruncate:
		return "TRUNCATE"
	case StatementInsert:
		return "INSERT"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// StatementResult describes one executed statement.
// A statement that carries no row count (TRUNCATE) is reported with
// HasRowCount false and RowsAffected 0; it is not an error.
type StatementResult struct {
	Kind         StatementKind
	Tag          string
	RowsAffected int64
	HasRowCount  bool
}

// TableReport is the outcome of loading one table.
type TableReport struct {
	Table     string
	Documents int
	Rows      int

	// Inserted is the total row count reported by the INSERT statements
	Inserted int64

	// Truncated is true once the TRUNCATE statement succeeded
	Truncated bool

	// Malformed carries the decode error that cut the source stream short, if any
	Malformed error

	// Err is the failure that stopped this table, if any
	Err      error
	Duration time.Duration
}

// Failed reports whether the table load did not complete.
func (r TableReport) Failed() bool {
	return r.Err != nil
}

// RunReport is the outcome of a whole run.
type RunReport struct {
	RunID    uuid.UUID
	DryRun   bool
	Tables   []TableReport
	Started  time.Time
	Duration time.Duration
}

// Failures returns the number of tables whose load did not complete.
func (r RunReport) Failures() int {
	n := 0
	for _, t := range r.Tables {
		if t.Failed() {
			n++
		}
	}
	return n
}

// RunOptions controls a load run.
type RunOptions struct {
	// Connection is the target database
	Connection ConnectionConfig

	// Jobs are processed in order, one at a time
	Jobs []LoadJob

	// BatchSize caps rows per INSERT statement; zero means DefaultBatchSize
	BatchSize int

	// DryRun renders statements without connecting to the database
	DryRun bool
}
