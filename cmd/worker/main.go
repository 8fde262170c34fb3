// worker consumes document-submitted events, fetches the stored document
// body and runs the extraction pipeline on it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

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
)

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
	logger.Info("starting extraction worker", logging.String("version", version))

	if err := run(cfg, logger); err != nil {
		logger.Error("worker exited with error", logging.Err(err))
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
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace: "tenderintel",
		Subsystem: "worker",
	}, logger)
	if err != nil {
		return err
	}
	metrics := prometheus.NewAppMetrics(collector)

	conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer conn.Close()
	repo := repositories.NewTenderRepository(conn.Pool(), logging.Sugar(logger.Named("repo")))

	minioClient, err := minio.NewClient(cfg.MinIO, logger)
	if err != nil {
		return err
	}
	store := minio.NewDocumentStore(minioClient, logger)

	deps := apptender.Deps{
		Logger:   logger.Named("tender"),
		Pipeline: pipeline.New(pipeline.Options{Logger: logging.Sugar(logger.Named("pipeline"))}),
		Repo:     repo,
		Store:    store,
		Metrics:  metrics,
		Config:   cfg.Extraction,
	}

	var redisClient *redis.Client
	if redisClient, err = redis.NewClient(cfg.Redis, logger); err != nil {
		logger.Warn("redis unavailable, cache and document locking disabled", logging.Err(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
		cache := redis.NewRedisCache(redisClient, logger, redis.WithDefaultTTL(cfg.Extraction.CacheTTL))
		deps.Cache = redis.NewExtractionCache(cache, cfg.Extraction.CacheTTL)
	}

	if producer, err := kafka.NewProducer(cfg.Kafka, logger); err != nil {
		logger.Warn("kafka producer unavailable, completion events disabled", logging.Err(err))
	} else {
		defer producer.Close()
		deps.Producer = producer
	}

	if osClient, err := opensearch.NewClient(cfg.OpenSearch, logger); err != nil {
		logger.Warn("opensearch unavailable, indexing disabled", logging.Err(err))
	} else {
		defer osClient.Close()
		indexer := opensearch.NewIndexer(osClient, cfg.OpenSearch.BulkBatchSize, logger)
		if err := indexer.EnsureIndex(ctx); err != nil {
			logger.Warn("index bootstrap failed", logging.Err(err))
		}
		deps.Indexer = indexer
	}

	svc, err := apptender.NewService(deps)
	if err != nil {
		return err
	}

	w := &worker{
		svc:     svc,
		store:   store,
		redis:   redisClient,
		logger:  logger.Named("worker"),
		metrics: metrics,
	}

	// One group consumer per concurrency slot; the broker spreads partitions
	// across them.
	concurrency := cfg.Worker.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	consumers := make([]*kafka.Consumer, 0, concurrency)
	for i := 0; i < concurrency; i++ {
		consumer, err := kafka.NewConsumer(cfg.Kafka, []string{kafka.TopicDocumentSubmitted}, kafka.RetryConfig{
			MaxRetries:      cfg.Worker.MaxRetries,
			RetryBackoff:    cfg.Worker.RetryBackoff,
			DeadLetterTopic: kafka.TopicDeadLetter,
		}, logger)
		if err != nil {
			return err
		}
		defer consumer.Close()

		consumer.Subscribe(kafka.TopicDocumentSubmitted, w.handleDocumentSubmitted)
		if err := consumer.Start(ctx); err != nil {
			return err
		}
		consumers = append(consumers, consumer)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return heartbeat(gctx, cfg.Worker.HeartbeatInterval, consumers, logger)
	})
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	err = g.Wait()
	logger.Info("worker stopped")
	return err
}

// heartbeat logs consumption counters periodically so operators can see a
// healthy idle worker.
func heartbeat(ctx context.Context, interval time.Duration, consumers []*kafka.Consumer, logger logging.Logger) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			var consumed, processed, failed int64
			for _, c := range consumers {
				m := c.Metrics()
				consumed += m.MessagesConsumed.Load()
				processed += m.MessagesProcessed.Load()
				failed += m.MessagesFailed.Load()
			}
			logger.Info("worker heartbeat",
				logging.Any("consumed", consumed),
				logging.Any("processed", processed),
				logging.Any("failed", failed))
		}
	}
}

type worker struct {
	svc     apptender.Service
	store   *minio.DocumentStore
	redis   *redis.Client
	logger  logging.Logger
	metrics *prometheus.AppMetrics
}

// handleDocumentSubmitted processes one submission event end to end. A redis
// lock keeps two workers from extracting the same document concurrently;
// without redis the database upsert still keeps the outcome idempotent.
func (w *worker) handleDocumentSubmitted(ctx context.Context, msg *kafka.Message) error {
	start := time.Now()

	envelope, err := kafka.DecodeEnvelope(msg)
	if err != nil {
		w.logger.Error("undecodable message", logging.Err(err))
		return err
	}
	var payload kafka.DocumentSubmittedPayload
	if err := envelope.DecodePayload(&payload); err != nil {
		return err
	}

	if w.redis != nil {
		lock := redis.NewLock(w.redis, "extract:"+payload.DocumentID, w.logger)
		ok, err := lock.TryLock(ctx)
		if err == nil && !ok {
			w.logger.Info("document already being processed, skipping",
				logging.String("document_id", payload.DocumentID))
			return nil
		}
		if err == nil {
			defer lock.Unlock(context.WithoutCancel(ctx)) //nolint:errcheck
		}
	}

	data, err := w.store.Get(ctx, payload.ObjectKey)
	if err != nil {
		return err
	}

	_, err = w.svc.Extract(ctx, &apptender.ExtractInput{
		DocumentID:  payload.DocumentID,
		Text:        string(data),
		ContentType: payload.ContentType,
	})
	prometheus.RecordMessageProcessed(w.metrics, msg.Topic, time.Since(start), false)
	if err != nil {
		w.logger.Error("extraction failed",
			logging.String("document_id", payload.DocumentID), logging.Err(err))
		return err
	}

	w.logger.Info("document processed",
		logging.String("document_id", payload.DocumentID),
		logging.Duration("elapsed", time.Since(start)))
	return nil
}

//Personal.AI order the ending
