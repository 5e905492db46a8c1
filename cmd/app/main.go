package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/expertbooking/api"
	"github.com/Domenick1991/expertbooking/config"
	"github.com/Domenick1991/expertbooking/internal/bootstrap"
	"github.com/Domenick1991/expertbooking/internal/cache"
	"github.com/Domenick1991/expertbooking/internal/kafka"
	"github.com/Domenick1991/expertbooking/internal/logger"
	"github.com/Domenick1991/expertbooking/internal/metrics"
	"github.com/Domenick1991/expertbooking/internal/realtime"
	"github.com/Domenick1991/expertbooking/internal/relay"
	"github.com/Domenick1991/expertbooking/internal/repository"
	"github.com/Domenick1991/expertbooking/internal/service/booking"
	"github.com/Domenick1991/expertbooking/internal/service/experts"
	"github.com/jackc/pgx/v5/pgxpool"
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

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		zl.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	redisClient := cache.NewClient(cfg.Redis)
	defer redisClient.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, zl.Named("kafka"))
	defer producer.Close()

	m := metrics.New()
	redisCache := cache.NewRedisCache(redisClient, cfg.Booking.ExpertCacheTTL())

	expertService := experts.NewExpertService(
		repository.NewExpertRepository(pool),
		redisCache,
		cfg.Booking.DefaultPageSize,
		zl.Named("experts"),
	)
	bookingService := booking.NewBookingService(
		repository.NewBookingRepository(pool),
		redisCache,
		producer,
		cfg.Kafka.BookingEventsTopic,
		cfg.Booking.SlotHold(),
		booking.WithLogger(zl.Named("booking")),
		booking.WithMetrics(m),
	)

	var channel realtime.Channel
	switch cfg.Realtime.Transport {
	case config.TransportMemory:
		hub := realtime.NewHub(realtime.WithHubLogger(zl.Named("realtime")))
		defer hub.Close()
		channel = hub

		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID+"-inproc", cfg.Kafka.BookingEventsTopic)
		defer consumer.Close()
		r := relay.New(hub, zl.Named("relay"), m)
		go func() {
			if err := consumer.Consume(ctx, r.Handle); err != nil && !errors.Is(err, context.Canceled) {
				zl.Error("in-process relay stopped", zap.Error(err))
			}
		}()
	default:
		channel = realtime.NewRedisChannel(redisClient, cfg.Realtime.TopicPrefix, zl.Named("realtime"))
	}

	services := bootstrap.Services{
		Experts:  expertService,
		Bookings: bookingService,
		Realtime: channel,
		Metrics:  m,
		Checks: map[string]api.Pinger{
			"postgres": pool.Ping,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
			"kafka":    producer.CheckConnection,
		},
	}

	if err := bootstrap.Run(ctx, cfg, services, zl); err != nil {
		zl.Fatal("server error", zap.Error(err))
	}
}
