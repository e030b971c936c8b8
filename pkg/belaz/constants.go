package belaz

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess      = 0  // Run completed (per-table failures included)
	ExitGeneralError = 1  // Unknown or unclassified error
	ExitUsageError   = 2  // CLI usage error (missing --config_file, stray arguments)
	ExitPanic        = 3  // Internal panic (unexpected crash)
	ExitConfigError  = 10 // Invalid configuration file
)

const (
	// MaxValueLength is the number of characters kept from each stringified value.
	MaxValueLength = 200

	// MaxBindParameters is PostgreSQL's limit on bind parameters per statement.
	MaxBindParameters = 65535

	// DefaultBatchSize is the default number of rows per INSERT statement.
	DefaultBatchSize = 1000

	// MaxDocumentSize is the largest BSON document accepted from a source file.
	// Matches the MongoDB server limit; anything larger is treated as corruption.
	MaxDocumentSize = 16 * 1024 * 1024

	// MinDocumentSize is the size of an empty BSON document (length prefix + terminator).
	MinDocumentSize = 5

	// DumpFlagEnabled is the dump_flag value that selects a table for loading.
	DumpFlagEnabled = "1"

	// DefaultPort is the PostgreSQL port used when none can be resolved.
	DefaultPort = 5432

	// DefaultSSLMode is the sslmode used when the config does not set one.
	DefaultSSLMode = "prefer"
)
