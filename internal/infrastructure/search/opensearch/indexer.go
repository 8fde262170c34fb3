package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Tender-Intelligence/pkg/errors"
	"github.com/turtacn/Tender-Intelligence/pkg/types/tender"
)

var (
	ErrIndexCreationFailed = errors.New(errors.ErrCodeSearchError, "index creation failed")
	ErrDocumentIndexFailed = errors.New(errors.ErrCodeSearchError, "document index failed")
)

// tenderIndexBase is prefixed by the client to form the physical index name.
const tenderIndexBase = "tenders"

const defaultBulkBatchSize = 500

// TenderDocument is the flattened projection of a RecordRow stored in the
// index. Only the fields the search surface queries on are kept; the full
// record stays in Postgres.
type TenderDocument struct {
	ID                 string    `json:"id"`
	DocumentID         string    `json:"document_id"`
	LotNumero          int       `json:"lot_numero"`
	Confidence         float64   `json:"confidence"`
	IsValid            bool      `json:"is_valid"`
	CreatedAt          time.Time `json:"created_at"`
	ReferenceProcedure string    `json:"reference_procedure,omitempty"`
	IntituleProcedure  string    `json:"intitule_procedure,omitempty"`
	IntituleLot        string    `json:"intitule_lot,omitempty"`
	MotsCles           string    `json:"mots_cles,omitempty"`
	Univers            string    `json:"univers,omitempty"`
	Segment            string    `json:"segment,omitempty"`
	Famille            string    `json:"famille,omitempty"`
	Statut             string    `json:"statut,omitempty"`
	TypeProcedure      string    `json:"type_procedure,omitempty"`
	DateLimite         string    `json:"date_limite,omitempty"`
	Attributaire       string    `json:"attributaire,omitempty"`
}

// BuildDocument flattens a record row into its index projection. Absent
// fields become empty strings and are omitted from the stored source.
func BuildDocument(row *tender.RecordRow) TenderDocument {
	get := func(name string) string { return row.Fields.Get(name).Value }
	return TenderDocument{
		ID:                 row.ID,
		DocumentID:         row.DocumentID,
		LotNumero:          row.LotNumero,
		Confidence:         row.Confidence,
		IsValid:            row.IsValid,
		CreatedAt:          row.CreatedAt,
		ReferenceProcedure: get(tender.FieldReferenceProcedure),
		IntituleProcedure:  get(tender.FieldIntituleProcedure),
		IntituleLot:        get(tender.FieldIntituleLot),
		MotsCles:           get(tender.FieldMotsCles),
		Univers:            get(tender.FieldUnivers),
		Segment:            get(tender.FieldSegment),
		Famille:            get(tender.FieldFamille),
		Statut:             get(tender.FieldStatut),
		TypeProcedure:      get(tender.FieldTypeProcedure),
		DateLimite:         get(tender.FieldDateLimite),
		Attributaire:       get(tender.FieldAttributaire),
	}
}

// BulkResult summarises a bulk indexing run.
type BulkResult struct {
	Succeeded int
	Failed    int
	Errors    []BulkItemError
}

// BulkItemError describes one failed bulk item.
type BulkItemError struct {
	DocID     string
	ErrorType string
	Reason    string
}

// Indexer writes tender documents into the search index.
type Indexer struct {
	client    *Client
	batchSize int
	logger    logging.Logger
}

// NewIndexer returns an Indexer. batchSize <= 0 selects the default.
func NewIndexer(client *Client, batchSize int, logger logging.Logger) *Indexer {
	if batchSize <= 0 {
		batchSize = defaultBulkBatchSize
	}
	return &Indexer{client: client, batchSize: batchSize, logger: logger}
}

// IndexName returns the physical name of the tender index.
func (i *Indexer) IndexName() string {
	return i.client.IndexName(tenderIndexBase)
}

// EnsureIndex creates the tender index when it does not exist yet.
func (i *Indexer) EnsureIndex(ctx context.Context) error {
	exists, err := i.indexExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	body, err := json.Marshal(tenderIndexMapping())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal index mapping")
	}

	req := opensearchapi.IndicesCreateRequest{
		Index: i.IndexName(),
		Body:  bytes.NewReader(body),
	}
	resp, err := req.Do(ctx, i.client.Underlying())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchError, "create index request failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		// Lost the race against a concurrent worker creating the same index.
		if exists, _ := i.indexExists(ctx); exists {
			return nil
		}
		return ErrIndexCreationFailed.WithCause(decodeErrorResponse(resp))
	}

	i.logger.Info("Search index created", logging.String("index", i.IndexName()))
	return nil
}

// IndexRecord indexes one record row.
func (i *Indexer) IndexRecord(ctx context.Context, row *tender.RecordRow) error {
	doc := BuildDocument(row)
	body, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal document")
	}

	req := opensearchapi.IndexRequest{
		Index:      i.IndexName(),
		DocumentID: doc.ID,
		Body:       bytes.NewReader(body),
	}
	resp, err := req.Do(ctx, i.client.Underlying())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchError, "index request failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return ErrDocumentIndexFailed.WithCause(decodeErrorResponse(resp))
	}
	return nil
}

// BulkIndexRecords indexes the rows in batches. Item-level failures are
// collected in the result; only transport failures abort the run.
func (i *Indexer) BulkIndexRecords(ctx context.Context, rows []*tender.RecordRow) (*BulkResult, error) {
	result := &BulkResult{}
	if len(rows) == 0 {
		return result, nil
	}

	indexName := i.IndexName()
	for start := 0; start < len(rows); start += i.batchSize {
		end := start + i.batchSize
		if end > len(rows) {
			end = len(rows)
		}

		body, err := buildBulkBody(indexName, rows[start:end])
		if err != nil {
			return result, err
		}

		req := opensearchapi.BulkRequest{Body: bytes.NewReader(body)}
		resp, err := req.Do(ctx, i.client.Underlying())
		if err != nil {
			return result, errors.Wrap(err, errors.ErrCodeSearchError, "bulk request failed")
		}

		batchResult, err := parseBulkResponse(resp.Body)
		resp.Body.Close()
		if err != nil {
			return result, err
		}
		result.Succeeded += batchResult.Succeeded
		result.Failed += batchResult.Failed
		result.Errors = append(result.Errors, batchResult.Errors...)
	}

	i.logger.Info("Bulk index completed",
		logging.String("index", indexName),
		logging.Int("total", len(rows)),
		logging.Int("succeeded", result.Succeeded),
		logging.Int("failed", result.Failed))
	return result, nil
}

// DeleteByDocument removes every lot record of a source document from the
// index. Used when a document is re-extracted or withdrawn.
func (i *Indexer) DeleteByDocument(ctx context.Context, documentID string) error {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"document_id": documentID},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal delete query")
	}

	req := opensearchapi.DeleteByQueryRequest{
		Index: []string{i.IndexName()},
		Body:  bytes.NewReader(body),
	}
	resp, err := req.Do(ctx, i.client.Underlying())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchError, "delete by query failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return errors.New(errors.ErrCodeSearchError, "delete by query returned error status").
			WithCause(decodeErrorResponse(resp))
	}
	return nil
}

func (i *Indexer) indexExists(ctx context.Context) (bool, error) {
	req := opensearchapi.IndicesExistsRequest{Index: []string{i.IndexName()}}
	resp, err := req.Do(ctx, i.client.Underlying())
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeSearchError, "index existence check failed")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case 200:
		return true, nil
	case 404:
		return false, nil
	default:
		return false, errors.New(errors.ErrCodeSearchError, "index existence check returned error status")
	}
}

// buildBulkBody renders the NDJSON body of one bulk batch.
func buildBulkBody(indexName string, rows []*tender.RecordRow) ([]byte, error) {
	var buf bytes.Buffer
	for _, row := range rows {
		doc := BuildDocument(row)

		meta := map[string]interface{}{
			"index": map[string]interface{}{"_index": indexName, "_id": doc.ID},
		}
		metaBytes, err := json.Marshal(meta)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal bulk action")
		}
		docBytes, err := json.Marshal(doc)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal bulk document")
		}

		buf.Write(metaBytes)
		buf.WriteByte('\n')
		buf.Write(docBytes)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func parseBulkResponse(body io.Reader) (*BulkResult, error) {
	var bulkResp struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(body).Decode(&bulkResp); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode bulk response")
	}

	result := &BulkResult{}
	for _, item := range bulkResp.Items {
		// Each item holds a single action key ("index" here).
		for _, info := range item {
			if info.Status >= 200 && info.Status < 300 {
				result.Succeeded++
			} else {
				result.Failed++
				result.Errors = append(result.Errors, BulkItemError{
					DocID:     info.ID,
					ErrorType: info.Error.Type,
					Reason:    info.Error.Reason,
				})
			}
			break
		}
	}
	return result, nil
}

func decodeErrorResponse(resp *opensearchapi.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)
	var errResp struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	if err := json.Unmarshal(bodyBytes, &errResp); err == nil && errResp.Error.Reason != "" {
		return fmt.Errorf("opensearch: %s: %s", errResp.Error.Type, errResp.Error.Reason)
	}
	return fmt.Errorf("opensearch: status %d", resp.StatusCode)
}

// tenderIndexMapping defines the tender index schema. Text fields use the
// french analyzer so that accents and elisions in titles match naturally.
func tenderIndexMapping() map[string]interface{} {
	frenchText := map[string]interface{}{"type": "text", "analyzer": "french"}
	keyword := map[string]interface{}{"type": "keyword"}
	return map[string]interface{}{
		"settings": map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 1,
		},
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"document_id":         keyword,
				"lot_numero":          map[string]interface{}{"type": "integer"},
				"confidence":          map[string]interface{}{"type": "double"},
				"is_valid":            map[string]interface{}{"type": "boolean"},
				"created_at":          map[string]interface{}{"type": "date"},
				"reference_procedure": keyword,
				"intitule_procedure":  frenchText,
				"intitule_lot":        frenchText,
				"mots_cles":           frenchText,
				"univers":             keyword,
				"segment":             keyword,
				"famille":             keyword,
				"statut":              keyword,
				"type_procedure":      keyword,
				"date_limite":         keyword,
				"attributaire":        frenchText,
			},
		},
	}
}

//Personal.AI order the ending
