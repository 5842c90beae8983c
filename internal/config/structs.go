package config

import (
	"time"

	"github.com/MarketOps-Admin/MarketOps-Admin/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration `mapstructure:"expirytime"` // lifetime of a login session
}

// CSRF holds the request-integrity token settings for state changing requests.
type CSRF struct {
	CookieName string        `mapstructure:"cookiename"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// Config overall data structure.
type Config struct {
	DevMode   bool `mapstructure:"devmode"` // enable dev mode for development
	DB        DB   `mapstructure:"db"`
	Log       logger.Log
	Title     string
	Webserver Webserver
}

// Webserver implement webserver settings.
type Webserver struct {
	DisableRecover bool    // disable recover middleware
	Domain         string  // domain name for the webserver
	Port           int     // listening port for the webserver
	ShutDownTime   int     // wait time for shutdown
	URL            string  // base url for the webserver
	Session        Session // session settings
	CSRF           CSRF    // csrf token settings
}
