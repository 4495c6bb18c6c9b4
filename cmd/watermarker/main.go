package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/contentful-watermark/internal/api/handlers/webhook"
	"github.com/aliskhannn/contentful-watermark/internal/api/router"
	"github.com/aliskhannn/contentful-watermark/internal/api/server"
	"github.com/aliskhannn/contentful-watermark/internal/config"
	"github.com/aliskhannn/contentful-watermark/internal/contentful"
	"github.com/aliskhannn/contentful-watermark/internal/guard"
	"github.com/aliskhannn/contentful-watermark/internal/infra/kafka/consumer"
	"github.com/aliskhannn/contentful-watermark/internal/infra/kafka/producer"
	"github.com/aliskhannn/contentful-watermark/internal/kafka/handlers/notification"
	"github.com/aliskhannn/contentful-watermark/internal/lock"
	"github.com/aliskhannn/contentful-watermark/internal/model"
	"github.com/aliskhannn/contentful-watermark/internal/processor"
	"github.com/aliskhannn/contentful-watermark/internal/publisher"
	"github.com/aliskhannn/contentful-watermark/internal/resolver"
	"github.com/aliskhannn/contentful-watermark/internal/service/watermark"
	"github.com/aliskhannn/contentful-watermark/internal/storage/file"
)

func main() {
	// Context & signals: used for graceful shutdown on system interrupts.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize logger and load application configuration.
	zlog.Init()
	cfg := config.MustLoad("./config/config.yml")

	// Retry strategy for Kafka calls.
	strategy := retry.Strategy{
		Attempts: cfg.Retry.Attempts,
		Delay:    cfg.Retry.Delay,
		Backoff:  cfg.Retry.Backoff,
	}

	// Wait policy for asset processing.
	poll := retry.Strategy{
		Attempts: cfg.Processing.Attempts,
		Delay:    cfg.Processing.Delay,
		Backoff:  cfg.Processing.Backoff,
	}

	cf := cfg.Contentful
	delivery := contentful.NewDelivery(cf.DeliveryURL, cf.SpaceID, cf.Environment, cf.DeliveryToken)
	management := contentful.NewManagement(cf.ManagementURL, cf.UploadURL, cf.SpaceID, cf.Environment, cf.ManagementToken, poll)

	// Files go through the Upload API unless a staging bucket is configured.
	var stager publisher.Stager = management
	if cfg.Storage.Endpoint != "" {
		storage, err := file.NewStorage(ctx, cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.BucketName, cfg.Storage.UseSSL, cfg.Storage.PresignedTTL)
		if err != nil {
			zlog.Logger.Fatal().Err(err).Msg("failed to connect to storage")
		}
		stager = storage
		zlog.Logger.Info().Str("bucket", cfg.Storage.BucketName).Msg("staging files in object storage")
	}

	// Optional delivery lock.
	var locker *lock.Redis
	if cfg.Redis.Addr != "" {
		var err error
		locker, err = lock.NewRedis(ctx, lock.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.LockTTL,
		})
		if err != nil {
			zlog.Logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
	}

	// Optional outcome events.
	var p *producer.Producer
	if cfg.Kafka.ResultsTopic != "" {
		p = producer.New(cfg.Kafka.Brokers, cfg.Kafka.ResultsTopic, strategy)
	}

	service := watermark.NewService(
		guard.New(delivery),
		resolver.New(delivery, cf.ConfigEntryID),
		processor.New(processor.NewHTTPFetcher()),
		publisher.New(stager, management, cf.Locale),
		optionalLocker(locker),
		optionalNotifier(p),
	)

	// Kafka consumer for notifications relayed through a topic.
	var wg sync.WaitGroup
	var c *consumer.Consumer
	if cfg.Kafka.Topic != "" {
		c = consumer.New(&cfg.Kafka, strategy, notification.NewHandler(service))
		wg.Add(1)
		go c.Consume(ctx, &wg)
	}

	// Start HTTP server in a separate goroutine.
	r := router.Setup(webhook.NewHandler(service))
	s := server.New(cfg.Server.HTTPPort, r)
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Block until context is canceled (SIGINT/SIGTERM).
	<-ctx.Done()
	zlog.Logger.Info().Msg("context done")

	// Wait for Kafka consumer goroutine to finish.
	wg.Wait()

	// Graceful shutdown with timeout for HTTP server.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	zlog.Logger.Info().Msg("shutting down server")
	if err := s.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
		zlog.Logger.Info().Msg("timeout exceeded, forcing shutdown")
	}

	// Close Redis and Kafka clients.
	if locker != nil {
		if err := locker.Close(); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to close redis client")
		}
	}
	if p != nil {
		if err := p.Client.Close(); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to close kafka producer client")
		}
	}
	if c != nil {
		if err := c.Client.Close(); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to close kafka consumer client")
		}
	}
}

// optionalLocker keeps a nil *lock.Redis from becoming a non-nil interface.
func optionalLocker(l *lock.Redis) interface {
	Acquire(ctx context.Context, key string) (lock.Release, bool, error)
} {
	if l == nil {
		return lock.Noop{}
	}
	return l
}

// optionalNotifier keeps a nil *producer.Producer from becoming a non-nil interface.
func optionalNotifier(p *producer.Producer) interface {
	Notify(ctx context.Context, o model.Outcome) error
} {
	if p == nil {
		return nil
	}
	return p
}
