package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/iliyamo/campus-facility-reservation/internal/config"
	"github.com/iliyamo/campus-facility-reservation/internal/database"
	"github.com/iliyamo/campus-facility-reservation/internal/handler"
	"github.com/iliyamo/campus-facility-reservation/internal/jobs"
	"github.com/iliyamo/campus-facility-reservation/internal/logger"
	"github.com/iliyamo/campus-facility-reservation/internal/middleware"
	"github.com/iliyamo/campus-facility-reservation/internal/queue"
	"github.com/iliyamo/campus-facility-reservation/internal/repository"
	"github.com/iliyamo/campus-facility-reservation/internal/router"
	"github.com/iliyamo/campus-facility-reservation/internal/service"
	"github.com/iliyamo/campus-facility-reservation/internal/storage"
)

func main() {
	cfg, err := config.Load()
	log := logger.Init("campus-facility-reservation", cfg.Env)
	if err != nil {
		log.Error().Err(err).Msg("configuration")
		os.Exit(1)
	}
	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DSN, cfg.DB)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient(ctx)
	if rdb == nil {
		log.Warn().Msg("redis unavailable; rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}

	store, err := storage.New(cfg.CloudinaryURL, cfg.UploadDir)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	buildings := repository.NewBuildingRepo(db)
	types := repository.NewFacilityTypeRepo(db)
	facilities := repository.NewFacilityRepo(db)
	reservations := repository.NewReservationRepo(db, cfg.Location)
	ratings := repository.NewRatingRepo(db)
	notifications := repository.NewNotificationRepo(db)

	var notifier *service.Notifier
	if cfg.AMQPURL != "" {
		notifier = service.NewNotifier(&service.Publisher{URL: cfg.AMQPURL}, notifications, log)
		consumer := queue.NewConsumer(cfg.AMQPURL, notifications, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("queue consumer stopped")
			}
		}()
	} else {
		log.Warn().Msg("RABBITMQ_URL not set; notifications are written directly")
		notifier = service.NewNotifier(nil, notifications, log)
	}

	sched := jobs.NewScheduler(reservations, notifier, cfg.Location, log)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(log)
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
	}))
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dB", cfg.UploadMaxBytes+1<<20)))
	e.Use(middleware.RequestLogger(log))

	router.Register(e, router.Deps{
		Cfg:           cfg,
		DB:            db,
		Redis:         rdb,
		Auth:          handler.NewAuthHandler(cfg, users, tokens),
		Catalog:       handler.NewCatalogHandler(buildings, types),
		Facilities:    handler.NewFacilityHandler(facilities, types, buildings, cfg.Location),
		Reservations:  handler.NewReservationHandler(reservations, facilities, notifier),
		Ratings:       handler.NewRatingHandler(ratings, reservations),
		Notifications: handler.NewNotificationHandler(notifications),
		Users:         handler.NewUserHandler(cfg, users, store),
		Uploads:       handler.NewUploadHandler(cfg, store),
		Dashboard:     handler.NewDashboardHandler(users, facilities, reservations, tokens),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("tz", cfg.Location.String()).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sched.Stop(shutdownCtx)
	return e.Shutdown(shutdownCtx)
}
