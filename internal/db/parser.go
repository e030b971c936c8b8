package db

import (
	"fmt"
	"net/url"

	"github.com/vvka-141/belaz/pkg/belaz"
)

// BuildConnectionString converts a ConnectionConfig to a PostgreSQL URI for pgx.
// The schema is not part of the URI; statements qualify table names explicitly.
func BuildConnectionString(config *belaz.ConnectionConfig) string {
	u := &url.URL{
		Scheme: "postgresql",
		Host:   fmt.Sprintf("%s:%d", config.Host, config.Port),
		Path:   "/" + config.Database,
	}

	if config.Username != "" {
		if config.Password != "" {
			u.User = url.UserPassword(config.Username, config.Password)
		} else {
			u.User = url.User(config.Username)
		}
	}

	query := url.Values{}
	if config.SSLMode != "" {
		query.Set("sslmode", config.SSLMode)
	}
	query.Set("application_name", "belaz")

	u.RawQuery = query.Encode()
	return u.String()
}
