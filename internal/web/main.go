package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/MarketOps-Admin/MarketOps-Admin/internal/access"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/config"
	accesslog "github.com/MarketOps-Admin/MarketOps-Admin/internal/logger/adapter/fiber"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/web/handler"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/web/handler/admin/definition"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/web/handler/branchconfig"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/web/handler/login"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/web/handler/logout"
	"github.com/MarketOps-Admin/MarketOps-Admin/internal/web/middleware/auth"
)

const (
	// CheckAlivePath answers load balancer health checks.
	CheckAlivePath = "/checkalive"
	// MetricsPath exposes prometheus metrics.
	MetricsPath = "/metrics"

	// CSRFHeader and CSRFFormField carry the token on state changing requests.
	CSRFHeader    = "X-Csrf-Token"
	CSRFFormField = "_csrf"
	// CSRFContextKey is the fiber locals key of the current token.
	CSRFContextKey = "csrf"
)

// ErrMissingCSRFToken is returned when neither the header nor the form carries a token.
var ErrMissingCSRFToken = errors.New("missing csrf token")

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
	gate         *access.Gate
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for SIGINT or SIGTERM and stops the web service gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, db *gorm.DB) (*Service, error) {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	gate, err := access.NewGate()
	if err != nil {
		return nil, err
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			ErrorHandler:   errorHandler,
		},
	)

	service := &Service{
		cfg:          cfg,
		App:          app,
		db:           db,
		gate:         gate,
		fastShutDown: cfg.DevMode,
	}
	service.alive.Store(true)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New())
	}

	app.Use(accesslog.New(accesslog.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
	}))

	app.Get(CheckAlivePath, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("OK")
	})
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	app.Use(csrf.New(csrf.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == login.Path
		},
		CookieName:     cfg.Webserver.CSRF.CookieName,
		CookieSecure:   !cfg.DevMode,
		CookieHTTPOnly: true,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
		Expiration:     cfg.Webserver.CSRF.Expiration,
		ContextKey:     CSRFContextKey,
		Extractor:      csrfExtractor,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Warn().Err(err).Str("path", c.Path()).Str("ip", c.IP()).Msg("csrf check failed")

			return handler.JSONError(c, fiber.StatusForbidden, "invalid csrf token")
		},
	}))

	app.Use(auth.New(db, login.Path, logout.Path))

	handlers := []handler.Service{
		&login.Handler,
		&logout.Handler,
		&branchconfig.Handler,
		&definition.Handler,
	}

	for _, h := range handlers {
		if err := h.Init(app, cfg, db, gate); err != nil {
			return nil, err
		}
	}

	return service, nil
}

// csrfExtractor reads the token from the header, falling back to the form field.
func csrfExtractor(c *fiber.Ctx) (string, error) {
	if token := strings.TrimSpace(c.Get(CSRFHeader)); token != "" {
		return token, nil
	}

	if token := c.FormValue(CSRFFormField); token != "" {
		return token, nil
	}

	return "", ErrMissingCSRFToken
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}

	return handler.JSONError(c, code, err.Error())
}
