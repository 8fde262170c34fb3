package opensearch

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/Tender-Intelligence/pkg/types/tender"
)

func sampleRow() *tender.RecordRow {
	fields := tender.NewRecord()
	fields.Set(tender.FieldReferenceProcedure, tender.Extracted("2024-AO-117", 0))
	fields.Set(tender.FieldIntituleProcedure, tender.Extracted("Fourniture de scanners", 0))
	fields.Set(tender.FieldIntituleLot, tender.Extracted("Scanners portables", 0))
	fields.Set(tender.FieldUnivers, tender.Deduced("Imagerie", "univers_from_segment"))
	fields.Set(tender.FieldStatut, tender.Generated("En cours"))

	return &tender.RecordRow{
		ID:         "rec-1",
		DocumentID: "doc-1",
		LotNumero:  2,
		Fields:     fields,
		Confidence: 72.5,
		IsValid:    true,
		CreatedAt:  time.Date(2024, 11, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestIndexPrefix(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "tenderintel", indexPrefix(""))
	assert.Equal(t, "tenderintel", indexPrefix("  "))
	assert.Equal(t, "custom", indexPrefix("custom"))
	assert.Equal(t, "custom", indexPrefix("custom_"))
}

func TestClientIndexName(t *testing.T) {
	t.Parallel()

	c := NewClientWithOpenSearch(nil, "", nil)
	assert.Equal(t, "tenderintel_tenders", c.IndexName(tenderIndexBase))

	c = NewClientWithOpenSearch(nil, "staging", nil)
	assert.Equal(t, "staging_tenders", c.IndexName(tenderIndexBase))
}

func TestBuildDocument(t *testing.T) {
	t.Parallel()

	doc := BuildDocument(sampleRow())

	assert.Equal(t, "rec-1", doc.ID)
	assert.Equal(t, "doc-1", doc.DocumentID)
	assert.Equal(t, 2, doc.LotNumero)
	assert.Equal(t, 72.5, doc.Confidence)
	assert.True(t, doc.IsValid)
	assert.Equal(t, "2024-AO-117", doc.ReferenceProcedure)
	assert.Equal(t, "Scanners portables", doc.IntituleLot)
	assert.Equal(t, "Imagerie", doc.Univers)
	assert.Equal(t, "En cours", doc.Statut)
	assert.Empty(t, doc.Attributaire)
}

func TestBuildBulkBody(t *testing.T) {
	t.Parallel()

	body, err := buildBulkBody("tenderintel_tenders", []*tender.RecordRow{sampleRow()})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
	require.Len(t, lines, 2)

	var meta map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &meta))
	assert.Equal(t, "tenderintel_tenders", meta["index"]["_index"])
	assert.Equal(t, "rec-1", meta["index"]["_id"])

	var doc TenderDocument
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &doc))
	assert.Equal(t, "doc-1", doc.DocumentID)
}

func TestParseBulkResponse(t *testing.T) {
	t.Parallel()

	body := `{
		"errors": true,
		"items": [
			{"index": {"_id": "rec-1", "status": 201}},
			{"index": {"_id": "rec-2", "status": 400, "error": {"type": "mapper_parsing_exception", "reason": "bad field"}}}
		]
	}`
	result, err := parseBulkResponse(bytes.NewReader([]byte(body)))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "rec-2", result.Errors[0].DocID)
	assert.Equal(t, "mapper_parsing_exception", result.Errors[0].ErrorType)
}

func TestBuildTenderQueryDSL_KeywordAndFilters(t *testing.T) {
	t.Parallel()

	dsl := buildTenderQueryDSL(TenderQuery{
		Keyword:       "scanner",
		Univers:       "Imagerie",
		OnlyValid:     true,
		MinConfidence: 60,
		Size:          10,
	})

	boolQ := dsl["query"].(map[string]interface{})["bool"].(map[string]interface{})
	must := boolQ["must"].(map[string]interface{})
	assert.Contains(t, must, "multi_match")

	filters := boolQ["filter"].([]map[string]interface{})
	assert.Len(t, filters, 3)

	assert.Equal(t, 0, dsl["from"])
	assert.Equal(t, 10, dsl["size"])
}

func TestBuildTenderQueryDSL_Defaults(t *testing.T) {
	t.Parallel()

	dsl := buildTenderQueryDSL(TenderQuery{From: -3, Size: 500})

	boolQ := dsl["query"].(map[string]interface{})["bool"].(map[string]interface{})
	must := boolQ["must"].(map[string]interface{})
	assert.Contains(t, must, "match_all")
	assert.NotContains(t, boolQ, "filter")

	assert.Equal(t, 0, dsl["from"])
	assert.Equal(t, maxPageSize, dsl["size"])
	assert.NotContains(t, dsl, "sort")
}

func TestBuildTenderQueryDSL_SortWhitelist(t *testing.T) {
	t.Parallel()

	dsl := buildTenderQueryDSL(TenderQuery{SortBy: "confidence", SortOrder: "asc"})
	sorts := dsl["sort"].([]map[string]interface{})
	require.Len(t, sorts, 1)
	assert.Equal(t, "asc", sorts[0]["confidence"].(map[string]interface{})["order"])

	dsl = buildTenderQueryDSL(TenderQuery{SortBy: "drop table"})
	assert.NotContains(t, dsl, "sort")
}

func TestParseSearchResponse(t *testing.T) {
	t.Parallel()

	body := `{
		"took": 7,
		"hits": {
			"total": {"value": 42},
			"hits": [
				{
					"_id": "rec-1",
					"_score": 3.2,
					"_source": {"id": "rec-1", "document_id": "doc-1", "intitule_lot": "Scanners portables"},
					"highlight": {"intitule_lot": ["<em>Scanners</em> portables"]}
				}
			]
		}
	}`
	result, err := parseSearchResponse(bytes.NewReader([]byte(body)))
	require.NoError(t, err)

	assert.Equal(t, int64(42), result.Total)
	assert.Equal(t, int64(7), result.TookMs)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "rec-1", result.Hits[0].ID)
	assert.Equal(t, "Scanners portables", result.Hits[0].Document.IntituleLot)
	assert.Equal(t, []string{"<em>Scanners</em> portables"}, result.Hits[0].Highlights["intitule_lot"])
}

func TestParseFacetsResponse(t *testing.T) {
	t.Parallel()

	body := `{
		"aggregations": {
			"univers": {"buckets": [{"key": "Imagerie", "doc_count": 12}, {"key": "Biologie", "doc_count": 5}]},
			"statut": {"buckets": [{"key": "En cours", "doc_count": 17}]}
		}
	}`
	facets, err := parseFacetsResponse(bytes.NewReader([]byte(body)))
	require.NoError(t, err)

	assert.Equal(t, int64(12), facets["univers"]["Imagerie"])
	assert.Equal(t, int64(5), facets["univers"]["Biologie"])
	assert.Equal(t, int64(17), facets["statut"]["En cours"])
}

//Personal.AI order the ending
