package sql

import (
	"net/url"
	"strings"
	"time"
)

type SQLDatabaseConfig struct {
	Enabled         bool           `mapstructure:"enabled,omitempty"`
	Driver          string         `mapstructure:"driver"`
	URL             string         `mapstructure:"url"`
	DatabaseName    string         `mapstructure:"database_name,omitempty"`
	ConnMaxLifetime *time.Duration `mapstructure:"conn_max_lifetime,omitempty"`
	MaxIdleConns    *int           `mapstructure:"max_idle_conns,omitempty"`
	MaxOpenConns    *int           `mapstructure:"max_open_conns,omitempty"`
}

// isInMemory reports whether every connection would open its own private sqlite database
func (s *SQLDatabaseConfig) isInMemory() bool {
	return s.Driver == SQLITE_DRIVER && (s.URL == ":memory:" || strings.Contains(s.URL, "mode=memory"))
}

func (s *SQLDatabaseConfig) getConnectionURL() string {
	// sqlite urls are file paths and carry no credentials
	if s.Driver == SQLITE_DRIVER {
		return s.URL
	}
	// Sanitize URL to avoid exposing credentials
	parsed, err := url.Parse(s.URL)
	if err != nil {
		return s.Driver + "://<parse-error>"
	}
	// Remove password from userinfo
	if parsed.User != nil {
		parsed.User = url.User(parsed.User.Username())
	}
	return parsed.String()
}
