// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/MarketOps-Admin/MarketOps-Admin/internal/config"
)

// Create builds the Data Source Name for the configured engine.
func Create(cfg *config.Config) string {
	switch cfg.DB.GormEngine {
	case config.EnginePostgres:
		return postgres(cfg.DB)
	case config.EngineSQLite:
		return sqlite(cfg.DB)
	default:
		return mysql(cfg.DB)
	}
}

func mysql(db config.DB) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		db.User,
		db.Password,
		db.Host,
		db.Port,
		db.Name,
		db.Extras,
	)
}

// postgres returns a URL form DSN; Extras is used as the query string (e.g. sslmode=disable).
func postgres(db config.DB) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(db.User, db.Password),
		Host:     net.JoinHostPort(db.Host, strconv.Itoa(db.Port)),
		Path:     "/" + db.Name,
		RawQuery: db.Extras,
	}

	return u.String()
}

func sqlite(db config.DB) string {
	if db.Path == "" {
		return "file::memory:?cache=shared"
	}

	if db.Extras == "" {
		return db.Path
	}

	return db.Path + "?" + db.Extras
}
