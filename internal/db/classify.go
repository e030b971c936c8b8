package db

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/belaz/pkg/belaz"
)

// connectionErrorClasses are the SQLSTATE classes that mean the session,
// not the statement, is at fault.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
var connectionErrorClasses = []string{
	"08", // Connection Exception
	"53", // Insufficient Resources (too many connections, out of memory)
	"57", // Operator Intervention (admin shutdown, cannot connect now)
}

// connectionErrorPatterns catch connection failures that carry no SQLSTATE.
var connectionErrorPatterns = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"network is unreachable",
	"i/o timeout",
	"broken pipe",
	"server closed the connection",
	"unexpected eof",
	"conn closed",
}

// IsConnectionError reports whether err is a failure of the database session
// rather than of a statement: a failed connect, a dropped network connection,
// or a server error in SQLSTATE class 08, 53 or 57. Statement errors (bad
// table name, column count mismatch, type errors) return false.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, belaz.ErrConnectionFailed) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		for _, class := range connectionErrorClasses {
			if strings.HasPrefix(pgErr.Code, class) {
				return true
			}
		}
		return false
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	if isNetworkError(err) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range connectionErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}
