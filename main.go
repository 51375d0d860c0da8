package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Eursukkul/restaurant-reservation/config"
	"github.com/Eursukkul/restaurant-reservation/internal/auth"
	"github.com/Eursukkul/restaurant-reservation/internal/events"
	"github.com/Eursukkul/restaurant-reservation/internal/handler"
	"github.com/Eursukkul/restaurant-reservation/internal/logger"
	"github.com/Eursukkul/restaurant-reservation/internal/middleware"
	"github.com/Eursukkul/restaurant-reservation/internal/repository"
	"github.com/Eursukkul/restaurant-reservation/internal/service"
	"github.com/Eursukkul/restaurant-reservation/pkg/database"
	"github.com/Eursukkul/restaurant-reservation/pkg/kafka"
	"github.com/Eursukkul/restaurant-reservation/pkg/rabbitmq"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "reservation-api"})

	db := database.NewPostgresDB(cfg.DSN(), log)

	roles, err := auth.LoadRoleMatrix(cfg.RolesFile)
	if err != nil {
		log.Fatal("failed to load role matrix", "file", cfg.RolesFile, "error", err)
	}

	// Notification jobs go to RabbitMQ; the Kafka stream is an optional mirror.
	mqPublisher, err := rabbitmq.NewPublisher(cfg.RabbitURL, log)
	if err != nil {
		log.Fatal("failed to connect to RabbitMQ", "error", err)
	}
	defer mqPublisher.Close()

	var mirrors []events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			log.Fatal("failed to create Kafka producer", "error", err)
		}
		defer producer.Close()
		mirrors = append(mirrors, producer)
	}
	publisher := events.NewFanout(mqPublisher, log, mirrors...)
	defer publisher.Wait()

	// Repositories
	reservationRepo := repository.NewReservationRepository(db)
	tableRepo := repository.NewTableRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Service
	reservationSvc := service.NewReservationService(reservationRepo, tableRepo, userRepo, publisher, log)
	resolver := auth.NewResolver(userRepo, roles)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler(log)
	e.Validator = middleware.NewRequestValidator()
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "reservation-api"})
	})

	handler.NewReservationHandler(reservationSvc).RegisterRoutes(e, middleware.Authenticate(resolver, log))

	go func() {
		log.Info("reservation API starting", "port", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped", "error", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
