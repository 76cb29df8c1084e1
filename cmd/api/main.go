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

	"github.com/framesift/framesift-service/internal/api"
	"github.com/framesift/framesift-service/internal/infra/config"
	miniostorage "github.com/framesift/framesift-service/internal/infra/minio"
	"github.com/framesift/framesift-service/internal/infra/postgres"
	"github.com/framesift/framesift-service/internal/infra/rabbitmq"
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

	log.Info("starting framesift api")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	// Migrations (the api may boot before any worker)
	if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Warn("migrations failed", zap.Error(err))
	}

	// MinIO, only for building public report URLs
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

	// RabbitMQ
	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq")
	defer rmqConn.Close()

	topologyCh, err := rmqConn.Channel()
	fatalOnErr(err, "open topology channel")
	fatalOnErr(rabbitmq.DeclareTopology(topologyCh, rabbitmq.TopologyConfig{
		Exchange:     cfg.RabbitMQExchange,
		CaptureQueue: cfg.RabbitMQCaptureQueue,
		StatusQueue:  cfg.RabbitMQStatusQueue,
		DLQ:          cfg.RabbitMQDLQ,
	}), "declare topology")
	topologyCh.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")
	requestPub := rabbitmq.NewRequestPublisher(pub, cfg.RabbitMQCaptureQueue)

	repo := postgres.NewJobRepository(pool)
	handler := api.NewHandler(repo, requestPub, storage, log, cfg.MaxRetries)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.APIPort),
		Handler:      api.NewRouter(handler),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info("framesift api listening", zap.Int("port", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("api server error", zap.Error(err))
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down on signal", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("api shutdown error", zap.Error(err))
	}
	log.Info("framesift api stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		fmt.Fprintln(os.Stderr, msg+": "+err.Error())
		os.Exit(1)
	}
}
