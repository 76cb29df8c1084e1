package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/framesift/framesift-service/internal/domain/port"
	"github.com/framesift/framesift-service/internal/infra/config"
	"github.com/framesift/framesift-service/internal/infra/email"
	"github.com/framesift/framesift-service/internal/infra/metrics"
	miniostorage "github.com/framesift/framesift-service/internal/infra/minio"
	"github.com/framesift/framesift-service/internal/infra/postgres"
	"github.com/framesift/framesift-service/internal/infra/rabbitmq"
	"github.com/framesift/framesift-service/internal/infra/rediscache"
	"github.com/framesift/framesift-service/internal/infra/tracing"
	"github.com/framesift/framesift-service/internal/infra/youtube"
	"github.com/framesift/framesift-service/internal/infra/ytdlp"
	"github.com/framesift/framesift-service/internal/resolver"
	"github.com/framesift/framesift-service/internal/usecase"
	"github.com/framesift/framesift-service/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting framesift worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing (non-fatal if the collector is unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.OTLPEndpoint)
	if err != nil {
		log.Warn("tracing disabled", zap.Error(err))
	} else {
		defer func() {
			flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer flushCancel()
			_ = tp.Shutdown(flushCtx)
		}()
	}

	// Postgres pool plus schema migrations
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Warn("migrations failed", zap.Error(err))
	}

	// MinIO
	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:      cfg.MinIOEndpoint,
		AccessKey:     cfg.MinIOAccessKey,
		SecretKey:     cfg.MinIOSecretKey,
		UseSSL:        cfg.MinIOUseSSL,
		FrameBucket:   cfg.MinIOFrameBucket,
		ReportBucket:  cfg.MinIOReportBucket,
		PublicBaseURL: cfg.MinIOPublicBaseURL,
	})
	fatalOnErr(err, "create minio storage")
	fatalOnErr(storage.EnsureBuckets(ctx), "ensure minio buckets")

	// Redis scrape cache (non-fatal, the scraper works uncached)
	var scrapeCache port.ScrapeCache
	cache, err := rediscache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
		time.Duration(cfg.CacheTTLHours)*time.Hour, log)
	if err != nil {
		log.Warn("redis unavailable, scraping without cache", zap.Error(err))
	} else {
		scrapeCache = cache
		defer cache.Close()
	}

	// RabbitMQ publisher connection
	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")

	statusPub := rabbitmq.NewStatusPublisher(pub, cfg.RabbitMQStatusQueue)
	dlqPub := rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ)

	// Infra adapters
	repo := postgres.NewJobRepository(pool)
	notifier := email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log)

	httpClient := &http.Client{Timeout: time.Duration(cfg.HTTPTimeoutSecs) * time.Second}
	scraper := youtube.NewScraper(httpClient, cfg.ScrapeUserAgent, scrapeCache, log)

	var metadataProvider port.MetadataProvider = scraper
	if cfg.YouTubeAPIKey != "" {
		dataAPI, err := youtube.NewDataAPIProvider(ctx, cfg.YouTubeAPIKey, scraper, log)
		if err != nil {
			log.Warn("youtube data api init failed, falling back to scraper", zap.Error(err))
		} else {
			metadataProvider = dataAPI
		}
	}

	transcripts := youtube.NewTranscriptFetcher(httpClient, cfg.ScrapeUserAgent, scrapeCache, log)

	extractor := ytdlp.NewExtractor(ytdlp.ExtractorConfig{
		YtDlpPath:   cfg.YtDlpPath,
		FFmpegPath:  cfg.FFmpegPath,
		FrameFormat: cfg.FrameFormat,
		TempDir:     cfg.TempDir,
		TimeoutSecs: cfg.ExtractTimeoutSecs,
	}, storage, log)

	frameResolver := resolver.New(extractor, log)

	// Use case
	uc := usecase.NewCaptureVideoUseCase(
		repo, metadataProvider, transcripts, frameResolver,
		storage, statusPub, dlqPub, notifier,
		log,
		usecase.CaptureVideoConfig{
			MaxRetries:             cfg.MaxRetries,
			DefaultMaxFrames:       cfg.DefaultMaxFrames,
			DefaultIntervalSeconds: cfg.DefaultInterval,
		},
	)

	// Metrics server
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, log)

	// Consumer (worker pool)
	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:          cfg.RabbitMQURL,
		CaptureQueue: cfg.RabbitMQCaptureQueue,
		Exchange:     cfg.RabbitMQExchange,
		DLQ:          cfg.RabbitMQDLQ,
		StatusQueue:  cfg.RabbitMQStatusQueue,
		Prefetch:     cfg.RabbitMQPrefetch,
		WorkerCount:  cfg.WorkerCount,
		BaseDelayMs:  cfg.RetryBaseDelayMs,
	}, uc.Execute, log)
	fatalOnErr(err, "create consumer")

	log.Info("framesift worker started, consuming messages")

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer stopped with error", zap.Error(err))
	}

	// Drain the metrics listener before exiting.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = metricsSrv.Shutdown(shutdownCtx)

	consumer.Close()
	log.Info("framesift worker stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		fmt.Fprintln(os.Stderr, msg+": "+err.Error())
		os.Exit(1)
	}
}
