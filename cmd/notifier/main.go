package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Eursukkul/restaurant-reservation/config"
	"github.com/Eursukkul/restaurant-reservation/internal/consumer"
	"github.com/Eursukkul/restaurant-reservation/internal/logger"
	"github.com/Eursukkul/restaurant-reservation/internal/notifier"
	"github.com/Eursukkul/restaurant-reservation/pkg/cache"
	"github.com/Eursukkul/restaurant-reservation/pkg/rabbitmq"
)

const prefetch = 10

func main() {
	cfg := config.Load()
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "reservation-notifier"})

	if err := cfg.ValidateSMTP(); err != nil {
		log.Fatal("invalid SMTP configuration", "error", err)
	}

	email, err := notifier.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	if err != nil {
		log.Fatal("failed to create email service", "error", err)
	}

	// Without redis the worker still runs; duplicates are then possible.
	var dedup consumer.Deduper
	rdb := cache.New(cfg.RedisAddr)
	defer rdb.Close()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unavailable, running without dedup", "addr", cfg.RedisAddr, "error", err)
	} else {
		dedup = cache.NewDeduper(rdb, "notifier")
	}
	cancelPing()

	retry, err := rabbitmq.NewPublisher(cfg.RabbitURL, log)
	if err != nil {
		log.Fatal("failed to connect to RabbitMQ", "error", err)
	}
	defer retry.Close()

	mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL, rabbitmq.NotifierQueue, rabbitmq.NotifierBinding, prefetch, log)
	if err != nil {
		log.Fatal("failed to connect to RabbitMQ", "error", err)
	}

	msgs, err := mqConsumer.Consume()
	if err != nil {
		log.Fatal("failed to start consuming", "error", err)
	}

	nc := consumer.NewNotificationConsumer(email, dedup, retry, cfg.NotifyMaxAttempts, log)
	done := nc.Start(msgs)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Info("shutting down notifier")
	case <-done:
		log.Warn("delivery channel closed unexpectedly")
	}

	// Closing the channel ends the delivery stream; wait for the in-flight message.
	mqConsumer.Close()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		log.Warn("timed out waiting for consumer to finish")
	}
}
