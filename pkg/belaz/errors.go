package belaz

import (
	"errors"
	"strings"
)

// Sentinel errors for the failure kinds of a load run.
// Callers distinguish them with errors.Is().
//
// Example usage:
//
//	report, err := loader.Run(ctx, cfg)
//	if errors.Is(err, belaz.ErrInvalidConfig) {
//	    // Nothing was loaded; fix the configuration file
//	}
var (
	// ErrInvalidConfig indicates the configuration file is missing, malformed,
	// or lacks a required key. Fatal to the whole run.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUsage indicates the command line was invoked incorrectly.
	ErrUsage = errors.New("invalid usage")

	// ErrExtraction indicates a source file could not be read.
	// Isolated to the offending table.
	ErrExtraction = errors.New("extraction failed")

	// ErrMalformedDocument indicates the document stream stopped at a
	// structurally invalid document. Rows read before it are still loaded.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrDatabase indicates a statement failed against the target database.
	// Isolated to the offending table.
	ErrDatabase = errors.New("database operation failed")

	// ErrConnectionFailed indicates the database connection could not be established.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")
)

// usageErrorPatterns are the messages cobra and pflag produce for bad invocations.
var usageErrorPatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"required flag",
	"invalid argument",
	"flag needs an argument",
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
//
// Per-table extraction and database failures never reach this function:
// they are recorded in the RunReport and the process still exits 0.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrUsage):
		return ExitUsageError
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	}

	errStr := err.Error()
	for _, pattern := range usageErrorPatterns {
		if strings.Contains(errStr, pattern) {
			return ExitUsageError
		}
	}

	return ExitGeneralError
}
