// Package daemon wires storage, sessions and the web service together.
package daemon

import (
	"context"
	"errors"
	"strconv"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/MarketOps-Admin/MarketOps-Admin/internal/config"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/web"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/web/session"
)

// ErrConfigNil is returned by New without a configuration.
var ErrConfigNil = errors.New("config is nil")

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	webService *web.Service
}

// Start starts the Daemon's web service and blocks until it stops.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	return d.webService.Start(":" + strconv.Itoa(d.cfg.Webserver.Port))
}

// DB returns the daemon's database handle.
func (d *Daemon) DB() *gorm.DB {
	return d.db
}

// New opens and migrates the database, seeds it and builds the web service.
func New(ctx context.Context, cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	if err = Migrate(db); err != nil {
		return nil, err
	}

	if err = Seed(ctx, db); err != nil {
		return nil, err
	}

	session.Init(sessionStorage(cfg, db))

	webService, err := web.New(cfg, db)
	if err != nil {
		return nil, err
	}

	log.Info().Str("engine", cfg.DB.GormEngine).Int("port", cfg.Webserver.Port).Msg("daemon initialized")

	return &Daemon{
		cfg:        cfg,
		db:         db,
		webService: webService,
	}, nil
}
