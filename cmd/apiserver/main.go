// apiserver runs the Tender-Intelligence REST API: synchronous extraction,
// document submission, record search and operational endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	apptender "github.com/turtacn/Tender-Intelligence/internal/application/tender"
	"github.com/turtacn/Tender-Intelligence/internal/config"
	"github.com/turtacn/Tender-Intelligence/internal/extraction/pipeline"
	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/search/opensearch"
	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/storage/minio"
	httpiface "github.com/turtacn/Tender-Intelligence/internal/interfaces/http"
	"github.com/turtacn/Tender-Intelligence/internal/interfaces/http/handlers"
)

// version is injected via ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("starting api server",
		logging.String("version", version),
		logging.Int("port", cfg.Server.Port))

	if err := run(cfg, logger); err != nil {
		logger.Error("api server exited with error", logging.Err(err))
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}

func newLogger(cfg config.LogConfig) (logging.Logger, error) {
	if cfg.Output == "" {
		return logging.NewLogger(cfg.Level, cfg.Format)
	}
	return logging.NewLogger(cfg.Level, cfg.Format, cfg.Output)
}

func run(cfg *config.Config, logger logging.Logger) error {
	ctx := context.Background()

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "tenderintel",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return err
	}
	metrics := prometheus.NewAppMetrics(collector)

	// Mandatory: database.
	conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := conn.Migrate(); err != nil {
		return err
	}
	repo := repositories.NewTenderRepository(conn.Pool(), logging.Sugar(logger.Named("repo")))

	probes := map[string]handlers.Prober{
		"postgres": conn.HealthCheck,
	}

	deps := apptender.Deps{
		Logger:   logger.Named("tender"),
		Pipeline: pipeline.New(pipeline.Options{Logger: logging.Sugar(logger.Named("pipeline"))}),
		Repo:     repo,
		Metrics:  metrics,
		Config:   cfg.Extraction,
	}

	// Optional: extraction result cache.
	if redisClient, err := redis.NewClient(cfg.Redis, logger); err != nil {
		logger.Warn("redis unavailable, extraction cache disabled", logging.Err(err))
	} else {
		defer redisClient.Close()
		cache := redis.NewRedisCache(redisClient, logger, redis.WithDefaultTTL(cfg.Extraction.CacheTTL))
		deps.Cache = redis.NewExtractionCache(cache, cfg.Extraction.CacheTTL)
		probes["redis"] = redisClient.Ping
	}

	// Optional: event bus.
	if producer, err := kafka.NewProducer(cfg.Kafka, logger); err != nil {
		logger.Warn("kafka unavailable, event publication disabled", logging.Err(err))
	} else {
		defer producer.Close()
		deps.Producer = producer
	}

	// Optional: search index.
	if osClient, err := opensearch.NewClient(cfg.OpenSearch, logger); err != nil {
		logger.Warn("opensearch unavailable, indexing and full-text search disabled", logging.Err(err))
	} else {
		defer osClient.Close()
		indexer := opensearch.NewIndexer(osClient, cfg.OpenSearch.BulkBatchSize, logger)
		if err := indexer.EnsureIndex(ctx); err != nil {
			logger.Warn("index bootstrap failed", logging.Err(err))
		}
		deps.Indexer = indexer
		deps.Searcher = opensearch.NewSearcher(osClient, logger)
		probes["opensearch"] = osClient.Ping
	}

	// Optional: document store.
	if minioClient, err := minio.NewClient(cfg.MinIO, logger); err != nil {
		logger.Warn("minio unavailable, document submission disabled", logging.Err(err))
	} else {
		deps.Store = minio.NewDocumentStore(minioClient, logger)
		probes["minio"] = minioClient.HealthCheck
	}

	svc, err := apptender.NewService(deps)
	if err != nil {
		return err
	}

	router := httpiface.NewRouter(httpiface.RouterConfig{
		Tender:           handlers.NewTenderHandler(svc),
		Health:           handlers.NewHealthHandler(version, probes),
		Logger:           logger.Named("http"),
		Metrics:          metrics,
		MetricsCollector: collector,
		MaxBodySize:      cfg.Server.MaxBodySize,
	})
	server := httpiface.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutdown signal received", logging.String("signal", sig.String()))
	}

	return server.Shutdown(context.Background())
}

//Personal.AI order the ending
