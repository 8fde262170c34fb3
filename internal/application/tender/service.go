// Package tender provides the application-level service over the extraction
// pipeline. It is the single entry point for the HTTP handlers, the CLI and
// the worker: run an extraction, persist and index its records, publish the
// lifecycle events.
package tender

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/Tender-Intelligence/internal/config"
	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/search/opensearch"
	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/storage/minio"
	"github.com/turtacn/Tender-Intelligence/pkg/errors"
	"github.com/turtacn/Tender-Intelligence/pkg/types/common"
	types "github.com/turtacn/Tender-Intelligence/pkg/types/tender"
)

// eventSource identifies this service in published event envelopes.
const eventSource = "tender-extraction"

// Service defines the tender application operations.
type Service interface {
	Extract(ctx context.Context, input *ExtractInput) (*ExtractOutput, error)
	SubmitDocument(ctx context.Context, input *SubmitInput) (*SubmitOutput, error)
	GetRecord(ctx context.Context, id string) (*types.RecordRow, error)
	ListByDocument(ctx context.Context, documentID string) ([]*types.RecordRow, error)
	Search(ctx context.Context, input *SearchInput) (*SearchOutput, error)
	FullTextSearch(ctx context.Context, query opensearch.TenderQuery) (*opensearch.TenderSearchResult, error)
	DeleteDocument(ctx context.Context, documentID string) (int64, error)
}

// ExtractInput carries one document to extract.
type ExtractInput struct {
	DocumentID  string
	Text        string
	ContentType string
}

// ExtractOutput is the outcome of one extraction.
type ExtractOutput struct {
	DocumentID string                  `json:"document_id"`
	Rows       []*types.RecordRow      `json:"rows"`
	Result     *types.ExtractionResult `json:"result"`
	CacheHit   bool                    `json:"cache_hit"`
}

// SubmitInput stores a document for asynchronous extraction by the worker.
type SubmitInput struct {
	DocumentID  string
	Data        []byte
	ContentType string
}

// SubmitOutput acknowledges a stored submission.
type SubmitOutput struct {
	DocumentID string `json:"document_id"`
	ObjectKey  string `json:"object_key"`
}

// SearchInput filters persisted records.
type SearchInput struct {
	Keyword       string
	Univers       string
	Statut        string
	OnlyValid     bool
	MinConfidence float64
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}

// SearchOutput is one page of persisted records.
type SearchOutput struct {
	Rows     []*types.RecordRow `json:"rows"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// Extractor runs the synchronous pipeline over one normalized document.
type Extractor interface {
	Run(rawText string) (*types.ExtractionResult, error)
}

// RecordRepository persists extracted records.
type RecordRepository interface {
	Save(ctx context.Context, rows []*types.RecordRow) error
	FindByID(ctx context.Context, id string) (*types.RecordRow, error)
	ListByDocument(ctx context.Context, documentID string) ([]*types.RecordRow, error)
	Search(ctx context.Context, c repositories.SearchCriteria) ([]*types.RecordRow, int, error)
	DeleteByDocument(ctx context.Context, documentID string) (int64, error)
}

// ResultCache caches extraction results keyed by document text.
type ResultCache interface {
	Get(ctx context.Context, text string) (*types.ExtractionResult, error)
	Put(ctx context.Context, text string, result *types.ExtractionResult) error
	Invalidate(ctx context.Context, text string) error
}

// RecordIndexer mirrors records into the search index.
type RecordIndexer interface {
	BulkIndexRecords(ctx context.Context, rows []*types.RecordRow) (*opensearch.BulkResult, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}

// RecordSearcher answers full-text queries over the index.
type RecordSearcher interface {
	Search(ctx context.Context, q opensearch.TenderQuery) (*opensearch.TenderSearchResult, error)
}

// EventPublisher emits lifecycle events on the bus.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, eventType, source, documentID string, payload interface{}) error
}

// ObjectStore persists source document bodies.
type ObjectStore interface {
	Put(ctx context.Context, documentID string, data []byte, contentType string) (*minio.StoredObject, error)
	Get(ctx context.Context, objectKey string) ([]byte, error)
}

// Deps wires the service. Pipeline, Repo and Logger are mandatory; every
// other dependency is optional and skipped when nil.
type Deps struct {
	Logger   logging.Logger
	Pipeline Extractor
	Repo     RecordRepository
	Cache    ResultCache
	Indexer  RecordIndexer
	Searcher RecordSearcher
	Producer EventPublisher
	Store    ObjectStore
	Metrics  *prometheus.AppMetrics
	Config   config.ExtractionConfig
}

type serviceImpl struct {
	deps Deps
}

// NewService builds the application service.
func NewService(deps Deps) (Service, error) {
	if deps.Pipeline == nil {
		return nil, errors.New(errors.ErrCodeValidation, "pipeline is required")
	}
	if deps.Repo == nil {
		return nil, errors.New(errors.ErrCodeValidation, "record repository is required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	return &serviceImpl{deps: deps}, nil
}

// Extract runs the pipeline over one document and persists its records. The
// cache short-circuits byte-identical resubmissions. Indexing and event
// publication degrade to warnings; only unusable input and a failed save
// surface as errors.
func (s *serviceImpl) Extract(ctx context.Context, input *ExtractInput) (*ExtractOutput, error) {
	if input.DocumentID == "" {
		input.DocumentID = uuid.NewString()
	}
	if input.Text == "" {
		return nil, s.failExtraction(ctx, input.DocumentID, errors.FatalInput("document text is empty"))
	}
	if max := s.deps.Config.MaxDocumentBytes; max > 0 && len(input.Text) > max {
		return nil, s.failExtraction(ctx, input.DocumentID, errors.FatalInput("document exceeds size limit"))
	}

	start := time.Now()
	result, cacheHit := s.cachedResult(ctx, input.Text)
	if result == nil {
		var err error
		result, err = s.deps.Pipeline.Run(input.Text)
		if err != nil {
			return nil, s.failExtraction(ctx, input.DocumentID, err)
		}
		s.putCache(ctx, input.Text, result)
	}
	if s.deps.Metrics != nil {
		prometheus.RecordCacheAccess(s.deps.Metrics, "extraction", cacheHit)
	}

	rows := buildRows(input.DocumentID, result)
	if err := s.deps.Repo.Save(ctx, rows); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to persist records")
	}

	if s.deps.Indexer != nil && s.deps.Config.IndexResults {
		if _, err := s.deps.Indexer.BulkIndexRecords(ctx, rows); err != nil {
			s.deps.Logger.Warn("record indexing failed",
				logging.String("document_id", input.DocumentID), logging.Err(err))
		}
	}

	s.publishCompleted(ctx, input.DocumentID, result, rows)
	s.recordMetrics(result, rows, time.Since(start))

	s.deps.Logger.Info("extraction completed",
		logging.String("document_id", input.DocumentID),
		logging.Int("records", len(rows)),
		logging.Bool("cache_hit", cacheHit))

	return &ExtractOutput{
		DocumentID: input.DocumentID,
		Rows:       rows,
		Result:     result,
		CacheHit:   cacheHit,
	}, nil
}

// SubmitDocument stores the body and announces it on the bus; the worker
// picks it up from there.
func (s *serviceImpl) SubmitDocument(ctx context.Context, input *SubmitInput) (*SubmitOutput, error) {
	if s.deps.Store == nil {
		return nil, errors.New(errors.ErrCodeNotImplemented, "document storage is not configured")
	}
	if input.DocumentID == "" {
		input.DocumentID = uuid.NewString()
	}

	stored, err := s.deps.Store.Put(ctx, input.DocumentID, input.Data, input.ContentType)
	if err != nil {
		return nil, err
	}

	if s.deps.Producer != nil && s.deps.Config.PublishEvents {
		payload := kafka.DocumentSubmittedPayload{
			DocumentID:  input.DocumentID,
			ObjectKey:   stored.ObjectKey,
			ContentType: stored.ContentType,
			SubmittedAt: time.Now().UTC(),
		}
		if err := s.deps.Producer.PublishEvent(ctx, kafka.TopicDocumentSubmitted,
			"document.submitted", eventSource, input.DocumentID, payload); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeMessageQueueError, "failed to announce submission")
		}
	}

	return &SubmitOutput{DocumentID: input.DocumentID, ObjectKey: stored.ObjectKey}, nil
}

func (s *serviceImpl) GetRecord(ctx context.Context, id string) (*types.RecordRow, error) {
	if id == "" {
		return nil, errors.InvalidParam("record id is required")
	}
	return s.deps.Repo.FindByID(ctx, id)
}

func (s *serviceImpl) ListByDocument(ctx context.Context, documentID string) ([]*types.RecordRow, error) {
	if documentID == "" {
		return nil, errors.InvalidParam("document id is required")
	}
	return s.deps.Repo.ListByDocument(ctx, documentID)
}

func (s *serviceImpl) Search(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	page := common.Pagination{Page: input.Page, PageSize: input.PageSize}
	page.Normalize()

	rows, total, err := s.deps.Repo.Search(ctx, repositories.SearchCriteria{
		Keyword:       input.Keyword,
		Univers:       input.Univers,
		Statut:        input.Statut,
		OnlyValid:     input.OnlyValid,
		MinConfidence: input.MinConfidence,
		Pagination:    page,
		SortBy:        input.SortBy,
		SortOrder:     input.SortOrder,
	})
	if err != nil {
		return nil, err
	}
	return &SearchOutput{
		Rows:     rows,
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}, nil
}

func (s *serviceImpl) FullTextSearch(ctx context.Context, query opensearch.TenderQuery) (*opensearch.TenderSearchResult, error) {
	if s.deps.Searcher == nil {
		return nil, errors.New(errors.ErrCodeNotImplemented, "full-text search is not configured")
	}
	return s.deps.Searcher.Search(ctx, query)
}

// DeleteDocument removes a document's records from storage and index.
func (s *serviceImpl) DeleteDocument(ctx context.Context, documentID string) (int64, error) {
	if documentID == "" {
		return 0, errors.InvalidParam("document id is required")
	}

	deleted, err := s.deps.Repo.DeleteByDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}
	if s.deps.Indexer != nil {
		if err := s.deps.Indexer.DeleteByDocument(ctx, documentID); err != nil {
			s.deps.Logger.Warn("index cleanup failed",
				logging.String("document_id", documentID), logging.Err(err))
		}
	}
	return deleted, nil
}

func (s *serviceImpl) cachedResult(ctx context.Context, text string) (*types.ExtractionResult, bool) {
	if s.deps.Cache == nil {
		return nil, false
	}
	result, err := s.deps.Cache.Get(ctx, text)
	if err != nil || result == nil {
		return nil, false
	}
	return result, true
}

func (s *serviceImpl) putCache(ctx context.Context, text string, result *types.ExtractionResult) {
	if s.deps.Cache == nil {
		return
	}
	if err := s.deps.Cache.Put(ctx, text, result); err != nil {
		s.deps.Logger.Warn("result caching failed", logging.Err(err))
	}
}

// failExtraction reports a fatal run on the bus before returning the error.
func (s *serviceImpl) failExtraction(ctx context.Context, documentID string, err error) error {
	if s.deps.Metrics != nil {
		prometheus.RecordExtraction(s.deps.Metrics, "failed", 0, 0, "")
	}
	if s.deps.Producer != nil && s.deps.Config.PublishEvents {
		payload := kafka.ExtractionFailedPayload{
			DocumentID:   documentID,
			ErrorCode:    errors.GetCode(err).String(),
			ErrorMessage: err.Error(),
			FailedAt:     time.Now().UTC(),
		}
		if pubErr := s.deps.Producer.PublishEvent(ctx, kafka.TopicExtractionFailed,
			"extraction.failed", eventSource, documentID, payload); pubErr != nil {
			s.deps.Logger.Warn("failed to publish extraction failure", logging.Err(pubErr))
		}
	}
	return err
}

func (s *serviceImpl) publishCompleted(ctx context.Context, documentID string, result *types.ExtractionResult, rows []*types.RecordRow) {
	if s.deps.Producer == nil || !s.deps.Config.PublishEvents {
		return
	}

	valid := 0
	var confSum float64
	for _, row := range rows {
		if row.IsValid {
			valid++
		}
		confSum += row.Confidence
	}
	avg := 0.0
	if len(rows) > 0 {
		avg = confSum / float64(len(rows))
	}

	payload := kafka.ExtractionCompletedPayload{
		DocumentID:    documentID,
		LotCount:      len(result.Lots),
		ValidRecords:  valid,
		AvgConfidence: avg,
		Duration:      result.Duration,
		CompletedAt:   time.Now().UTC(),
	}
	if err := s.deps.Producer.PublishEvent(ctx, kafka.TopicExtractionCompleted,
		"extraction.completed", eventSource, documentID, payload); err != nil {
		s.deps.Logger.Warn("failed to publish extraction completion", logging.Err(err))
	}
}

func (s *serviceImpl) recordMetrics(result *types.ExtractionResult, rows []*types.RecordRow, elapsed time.Duration) {
	if s.deps.Metrics == nil {
		return
	}
	m := s.deps.Metrics

	status := "ok"
	for _, row := range rows {
		if !row.IsValid {
			status = "invalid"
			break
		}
	}
	m.DocumentsProcessedTotal.WithLabelValues(status).Inc()
	m.ExtractionDuration.WithLabelValues(status).Observe(elapsed.Seconds())

	for strategy, count := range result.Stats.LotsByStrategy {
		if count > 0 {
			m.LotsExtractedTotal.WithLabelValues(strategy).Add(float64(count))
		}
	}
	if len(result.Stats.LotsByStrategy) == 0 && len(rows) > 0 {
		m.LotsExtractedTotal.WithLabelValues("default").Add(float64(len(rows)))
	}
	for _, row := range rows {
		prometheus.RecordConfidenceScore(m, row.Confidence, row.IsValid)
	}
}

// buildRows pairs each extracted record with its validation outcome. The raw
// validation travels with the row for later inspection.
func buildRows(documentID string, result *types.ExtractionResult) []*types.RecordRow {
	rows := make([]*types.RecordRow, 0, len(result.Records))
	for i, rec := range result.Records {
		row := &types.RecordRow{
			DocumentID: documentID,
			Fields:     rec,
			CreatedAt:  time.Now().UTC(),
		}
		if i < len(result.Lots) {
			row.LotNumero = result.Lots[i].Numero
		}
		if i < len(result.Validations) && result.Validations[i] != nil {
			v := result.Validations[i]
			row.Confidence = v.Confidence
			row.IsValid = v.IsValid
			if raw, err := json.Marshal(v); err == nil {
				row.RawResult = raw
			}
		}
		rows = append(rows, row)
	}
	return rows
}

//Personal.AI order the ending
