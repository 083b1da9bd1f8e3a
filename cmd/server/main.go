package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theatre-ticketing/internal/config"
	"github.com/iliyamo/theatre-ticketing/internal/database"
	"github.com/iliyamo/theatre-ticketing/internal/handler"
	"github.com/iliyamo/theatre-ticketing/internal/mailer"
	"github.com/iliyamo/theatre-ticketing/internal/middleware"
	"github.com/iliyamo/theatre-ticketing/internal/queue"
	"github.com/iliyamo/theatre-ticketing/internal/repository"
	"github.com/iliyamo/theatre-ticketing/internal/router"
	"github.com/iliyamo/theatre-ticketing/internal/service"
	"github.com/iliyamo/theatre-ticketing/internal/utils"
)

func main() {
	// A missing .env is normal in deployed environments.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config
	log := newLogger(cfg.LogLevel)

	defaults, err := config.LoadEventDefaults(cfg.EventDefaultsFile, log)
	if err != nil {
		log.WithError(err).Fatal("failed to load event defaults")
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()
	if err := database.Migrate(context.Background(), db); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	keys := buildKeyRing(cfg, log)
	rdb := config.NewRedisClient(log)
	if rdb != nil {
		defer rdb.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Repositories and core services.
	ticketRepo := repository.NewTicketRepo(db)
	audit := service.NewAuditRecorder(repository.NewAuditRepo(db), log.WithField("component", "audit"))
	settings := service.NewSettingsResolver(defaults, repository.NewSettingRepo(db), audit, log.WithField("component", "settings"))

	// Notification pipeline: RabbitMQ when configured, otherwise in-process.
	mail := mailer.New(mailer.Config{
		APIKey:     cfg.Brevo.APIKey,
		FromEmail:  cfg.Brevo.FromEmail,
		FromName:   cfg.Brevo.FromName,
		BackendURL: cfg.BackendURL,
	}, log.WithField("component", "mailer"))
	var (
		notifier   service.Notifier
		dispatcher *queue.Dispatcher
	)
	if cfg.AMQPURL != "" {
		amqpNotifier := service.NewAMQPNotifier(cfg.AMQPURL, log.WithField("component", "publisher"))
		defer amqpNotifier.Close()
		notifier = amqpNotifier
		consumer := &queue.Consumer{URL: cfg.AMQPURL, Handler: mail.SendConfirmation, Log: log.WithField("component", "consumer")}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("ticket consumer stopped")
			}
		}()
	} else {
		dispatcher = queue.NewDispatcher(cfg.NotifyBuffer, mail.SendConfirmation, log.WithField("component", "dispatcher"))
		go dispatcher.Run(context.Background())
		notifier = dispatcher
	}

	registrar := service.NewRegistrar(settings, ticketRepo, notifier, cfg.NotifyTimeout, log.WithField("component", "registration"))

	cacheCfg := config.LoadCacheConfig()
	cache := middleware.NewResponseCache(cacheCfg, rdb, log.WithField("component", "cache"))
	settings.OnChange(func(ctx context.Context) {
		if err := cache.Purge(ctx, router.SettingsPath); err != nil {
			log.WithError(err).Warn("failed to purge settings cache")
		}
	})

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log.WithField("component", "http")))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowCredentials: true,
	}))
	// Receipts arrive inline as base64 data URIs.
	e.Use(echomw.BodyLimit("15M"))

	router.RegisterRoutes(e)
	router.RegisterPublic(e,
		&handler.PublicHandler{
			Settings:     settings,
			Availability: service.NewAvailability(settings, ticketRepo),
			Registrar:    registrar,
			Log:          log.WithField("component", "public"),
		},
		cache.Middleware(cacheCfg.SettingsTTL),
		cache.Middleware(cacheCfg.QRTTL),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log.WithField("component", "ratelimit")),
	)
	router.RegisterAdmin(e,
		&handler.AdminHandler{
			Settings:     settings,
			Tickets:      service.NewTicketAdmin(ticketRepo, audit, log.WithField("component", "tickets")),
			CheckIn:      service.NewCheckIn(ticketRepo, audit, log.WithField("component", "checkin")),
			Audit:        audit,
			Summary:      service.NewSummary(settings, ticketRepo),
			JWTSecret:    cfg.JWTSecret,
			RoleTokenTTL: cfg.RoleTokenTTL,
			Log:          log.WithField("component", "admin"),
		},
		middleware.AdminAuth(keys, cfg.JWTSecret),
		middleware.NewTokenBucket(config.LoadAdminRateLimitConfig(), rdb, log.WithField("component", "ratelimit")),
	)

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown failed")
	}
	if dispatcher != nil {
		if err := dispatcher.Close(shutdownCtx); err != nil {
			log.WithError(err).Warn("pending confirmation emails dropped")
		}
	}
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// buildKeyRing turns the configured admin keys into hashes.  Plain keys
// are hashed here and not kept.
func buildKeyRing(cfg config.Config, log logrus.FieldLogger) *utils.KeyRing {
	entries := make([]utils.KeyEntry, 0, len(cfg.AdminKeys))
	for _, k := range cfg.AdminKeys {
		hash := k.Hash
		if hash == "" && k.Key != "" {
			h, err := utils.HashKey(k.Key, cfg.BcryptCost)
			if err != nil {
				log.WithError(err).WithField("access", k.Access).Fatal("failed to hash admin key")
			}
			hash = h
		}
		if hash == "" {
			log.WithField("access", k.Access).Warn("no key configured for access tier")
		}
		entries = append(entries, utils.KeyEntry{Access: k.Access, Hash: hash})
	}
	return utils.NewKeyRing(entries...)
}
