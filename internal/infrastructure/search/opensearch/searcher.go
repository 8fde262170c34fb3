package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Tender-Intelligence/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// TenderQuery describes one search over indexed tender records.
type TenderQuery struct {
	Keyword       string
	Univers       string
	Statut        string
	OnlyValid     bool
	MinConfidence float64
	From          int
	Size          int
	SortBy        string
	SortOrder     string
}

// TenderHit is one matching record with its optional highlights.
type TenderHit struct {
	ID         string              `json:"id"`
	Score      float64             `json:"score"`
	Document   TenderDocument      `json:"document"`
	Highlights map[string][]string `json:"highlights,omitempty"`
}

// TenderSearchResult carries one page of hits.
type TenderSearchResult struct {
	Total  int64       `json:"total"`
	TookMs int64       `json:"took_ms"`
	Hits   []TenderHit `json:"hits"`
}

// Searcher answers keyword and filter queries against the tender index.
type Searcher struct {
	client *Client
	logger logging.Logger
}

// NewSearcher returns a Searcher over the shared client.
func NewSearcher(client *Client, logger logging.Logger) *Searcher {
	return &Searcher{client: client, logger: logger}
}

// Search executes the query and returns one page of hits.
func (s *Searcher) Search(ctx context.Context, q TenderQuery) (*TenderSearchResult, error) {
	dsl := buildTenderQueryDSL(q)
	body, err := json.Marshal(dsl)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal query")
	}

	req := opensearchapi.SearchRequest{
		Index: []string{s.client.IndexName(tenderIndexBase)},
		Body:  bytes.NewReader(body),
	}

	start := time.Now()
	resp, err := req.Do(ctx, s.client.Underlying())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchError, "search request failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, errors.New(errors.ErrCodeSearchError, "search returned error status").
			WithCause(decodeErrorResponse(resp))
	}

	result, err := parseSearchResponse(resp.Body)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Search executed",
		logging.String("keyword", q.Keyword),
		logging.Any("total", result.Total),
		logging.Duration("latency", time.Since(start)))
	return result, nil
}

// Facets returns record counts grouped by univers and statut, for the
// search UI's filter sidebar.
func (s *Searcher) Facets(ctx context.Context) (map[string]map[string]int64, error) {
	dsl := map[string]interface{}{
		"size": 0,
		"aggs": map[string]interface{}{
			"univers": map[string]interface{}{
				"terms": map[string]interface{}{"field": "univers", "size": 50},
			},
			"statut": map[string]interface{}{
				"terms": map[string]interface{}{"field": "statut", "size": 50},
			},
		},
	}
	body, err := json.Marshal(dsl)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal facets query")
	}

	req := opensearchapi.SearchRequest{
		Index: []string{s.client.IndexName(tenderIndexBase)},
		Body:  bytes.NewReader(body),
	}
	resp, err := req.Do(ctx, s.client.Underlying())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchError, "facets request failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, errors.New(errors.ErrCodeSearchError, "facets returned error status").
			WithCause(decodeErrorResponse(resp))
	}
	return parseFacetsResponse(resp.Body)
}

// buildTenderQueryDSL renders the query. Keyword matches titles and keywords
// with the titles boosted; filters never influence scoring.
func buildTenderQueryDSL(q TenderQuery) map[string]interface{} {
	var must interface{}
	if q.Keyword != "" {
		must = map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Keyword,
				"fields": []string{"intitule_procedure^2", "intitule_lot^2", "mots_cles", "attributaire"},
			},
		}
	} else {
		must = map[string]interface{}{"match_all": map[string]interface{}{}}
	}

	var filters []map[string]interface{}
	if q.Univers != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"univers": q.Univers},
		})
	}
	if q.Statut != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"statut": q.Statut},
		})
	}
	if q.OnlyValid {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"is_valid": true},
		})
	}
	if q.MinConfidence > 0 {
		filters = append(filters, map[string]interface{}{
			"range": map[string]interface{}{"confidence": map[string]interface{}{"gte": q.MinConfidence}},
		})
	}

	query := map[string]interface{}{
		"bool": map[string]interface{}{"must": must},
	}
	if len(filters) > 0 {
		query["bool"].(map[string]interface{})["filter"] = filters
	}

	size := q.Size
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	from := q.From
	if from < 0 {
		from = 0
	}

	dsl := map[string]interface{}{
		"query": query,
		"from":  from,
		"size":  size,
		"highlight": map[string]interface{}{
			"fields": map[string]interface{}{
				"intitule_procedure": map[string]interface{}{},
				"intitule_lot":       map[string]interface{}{},
			},
			"pre_tags":  []string{"<em>"},
			"post_tags": []string{"</em>"},
		},
	}

	if field, ok := sortableFields[q.SortBy]; ok {
		order := "desc"
		if q.SortOrder == "asc" {
			order = "asc"
		}
		dsl["sort"] = []map[string]interface{}{
			{field: map[string]interface{}{"order": order}},
		}
	}
	return dsl
}

// sortableFields whitelists sort targets; anything else falls back to score.
var sortableFields = map[string]string{
	"confidence": "confidence",
	"date":       "created_at",
	"lot":        "lot_numero",
}

func parseSearchResponse(body io.Reader) (*TenderSearchResult, error) {
	var resp struct {
		Took int64 `json:"took"`
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID        string              `json:"_id"`
				Score     float64             `json:"_score"`
				Source    TenderDocument      `json:"_source"`
				Highlight map[string][]string `json:"highlight"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode search response")
	}

	result := &TenderSearchResult{
		Total:  resp.Hits.Total.Value,
		TookMs: resp.Took,
	}
	for _, h := range resp.Hits.Hits {
		result.Hits = append(result.Hits, TenderHit{
			ID:         h.ID,
			Score:      h.Score,
			Document:   h.Source,
			Highlights: h.Highlight,
		})
	}
	return result, nil
}

func parseFacetsResponse(body io.Reader) (map[string]map[string]int64, error) {
	var resp struct {
		Aggregations map[string]struct {
			Buckets []struct {
				Key      interface{} `json:"key"`
				DocCount int64       `json:"doc_count"`
			} `json:"buckets"`
		} `json:"aggregations"`
	}
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode facets response")
	}

	facets := make(map[string]map[string]int64, len(resp.Aggregations))
	for name, agg := range resp.Aggregations {
		buckets := make(map[string]int64, len(agg.Buckets))
		for _, b := range agg.Buckets {
			if key, ok := b.Key.(string); ok {
				buckets[key] = b.DocCount
			}
		}
		facets[name] = buckets
	}
	return facets, nil
}

//Personal.AI order the ending
