package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/expertbooking/config"
	"github.com/Domenick1991/expertbooking/internal/cache"
	"github.com/Domenick1991/expertbooking/internal/kafka"
	"github.com/Domenick1991/expertbooking/internal/logger"
	"github.com/Domenick1991/expertbooking/internal/metrics"
	"github.com/Domenick1991/expertbooking/internal/realtime"
	"github.com/Domenick1991/expertbooking/internal/relay"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig(config.Path())
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := cache.NewClient(cfg.Redis)
	defer redisClient.Close()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.BookingEventsTopic)
	defer consumer.Close()

	publisher := realtime.NewRedisPublisher(redisClient, cfg.Realtime.TopicPrefix)
	m := metrics.New()
	r := relay.New(publisher, zl.Named("relay"), m)

	if addr := cfg.Worker.MetricsAddress; addr != "" {
		srv := &http.Server{Addr: addr, Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zl.Error("metrics server", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	zl.Info("relaying booking events",
		zap.String("topic", cfg.Kafka.BookingEventsTopic),
		zap.String("group", cfg.Kafka.GroupID))

	if err := consumer.Consume(ctx, r.Handle); err != nil && !errors.Is(err, context.Canceled) {
		zl.Fatal("consumer stopped", zap.Error(err))
	}
	zl.Info("worker stopped")
}
