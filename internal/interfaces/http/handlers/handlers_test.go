package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apptender "github.com/turtacn/Tender-Intelligence/internal/application/tender"
	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/search/opensearch"
	"github.com/turtacn/Tender-Intelligence/internal/interfaces/http/middleware"
	"github.com/turtacn/Tender-Intelligence/pkg/errors"
	types "github.com/turtacn/Tender-Intelligence/pkg/types/tender"
)

type fakeService struct {
	extractOut *apptender.ExtractOutput
	extractErr error
	submitOut  *apptender.SubmitOutput
	searchIn   *apptender.SearchInput
	deleted    int64
	getErr     error
}

func (f *fakeService) Extract(_ context.Context, input *apptender.ExtractInput) (*apptender.ExtractOutput, error) {
	if f.extractErr != nil {
		return nil, f.extractErr
	}
	out := f.extractOut
	if out == nil {
		out = &apptender.ExtractOutput{DocumentID: input.DocumentID}
	}
	return out, nil
}

func (f *fakeService) SubmitDocument(_ context.Context, input *apptender.SubmitInput) (*apptender.SubmitOutput, error) {
	if f.submitOut != nil {
		return f.submitOut, nil
	}
	return &apptender.SubmitOutput{DocumentID: input.DocumentID, ObjectKey: "documents/" + input.DocumentID}, nil
}

func (f *fakeService) GetRecord(_ context.Context, id string) (*types.RecordRow, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &types.RecordRow{ID: id}, nil
}

func (f *fakeService) ListByDocument(_ context.Context, documentID string) ([]*types.RecordRow, error) {
	return []*types.RecordRow{{DocumentID: documentID}}, nil
}

func (f *fakeService) Search(_ context.Context, input *apptender.SearchInput) (*apptender.SearchOutput, error) {
	f.searchIn = input
	return &apptender.SearchOutput{
		Rows:     []*types.RecordRow{{ID: "rec-1"}},
		Total:    1,
		Page:     1,
		PageSize: 20,
	}, nil
}

func (f *fakeService) FullTextSearch(context.Context, opensearch.TenderQuery) (*opensearch.TenderSearchResult, error) {
	return &opensearch.TenderSearchResult{Total: 2}, nil
}

func (f *fakeService) DeleteDocument(context.Context, string) (int64, error) {
	return f.deleted, nil
}

func newTestRouter(svc apptender.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewTenderHandler(svc)
	engine := gin.New()
	engine.Use(middleware.RequestID())
	v1 := engine.Group("/api/v1")
	v1.POST("/extractions", h.Extract)
	v1.POST("/documents", h.Submit)
	v1.GET("/documents/:id/records", h.ListByDocument)
	v1.DELETE("/documents/:id", h.DeleteDocument)
	v1.GET("/records", h.ListRecords)
	v1.GET("/records/:id", h.GetRecord)
	v1.GET("/search", h.FullTextSearch)
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return rec, envelope
}

func TestExtract_Success(t *testing.T) {
	t.Parallel()

	svc := &fakeService{extractOut: &apptender.ExtractOutput{DocumentID: "doc-1"}}
	engine := newTestRouter(svc)

	rec, envelope := doJSON(t, engine, "POST", "/api/v1/extractions",
		`{"document_id":"doc-1","text":"Appel d'offres ouvert"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, envelope["success"])
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
	assert.NotEmpty(t, envelope["request_id"])
}

func TestExtract_MissingText(t *testing.T) {
	t.Parallel()

	rec, envelope := doJSON(t, newTestRouter(&fakeService{}), "POST", "/api/v1/extractions",
		`{"document_id":"doc-1"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, envelope["success"])
}

func TestExtract_FatalInputMapsTo400(t *testing.T) {
	t.Parallel()

	svc := &fakeService{extractErr: errors.FatalInput("document text is empty")}
	rec, envelope := doJSON(t, newTestRouter(svc), "POST", "/api/v1/extractions",
		`{"text":"   "}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errObj := envelope["error"].(map[string]interface{})
	assert.Equal(t, "EXT_001", errObj["code"])
}

func TestSubmit_Accepted(t *testing.T) {
	t.Parallel()

	rec, envelope := doJSON(t, newTestRouter(&fakeService{}), "POST", "/api/v1/documents",
		`{"document_id":"doc-1","content":"Appel d'offres"}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, "documents/doc-1", data["object_key"])
}

func TestGetRecord_NotFound(t *testing.T) {
	t.Parallel()

	svc := &fakeService{getErr: errors.New(errors.ErrCodeTenderNotFound, "tender record not found")}
	rec, envelope := doJSON(t, newTestRouter(svc), "GET", "/api/v1/records/missing", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	errObj := envelope["error"].(map[string]interface{})
	assert.Equal(t, "TDR_001", errObj["code"])
}

func TestListRecords_ParsesQuery(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	rec, envelope := doJSON(t, newTestRouter(svc), "GET",
		"/api/v1/records?keyword=scanner&univers=IT&only_valid=true&min_confidence=60&page=2&page_size=10", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.searchIn)
	assert.Equal(t, "scanner", svc.searchIn.Keyword)
	assert.Equal(t, "IT", svc.searchIn.Univers)
	assert.True(t, svc.searchIn.OnlyValid)
	assert.Equal(t, 60.0, svc.searchIn.MinConfidence)
	assert.Equal(t, 2, svc.searchIn.Page)
	assert.Equal(t, 10, svc.searchIn.PageSize)

	page := envelope["pagination"].(map[string]interface{})
	assert.Equal(t, 1.0, page["total"])
}

func TestDeleteDocument(t *testing.T) {
	t.Parallel()

	rec, envelope := doJSON(t, newTestRouter(&fakeService{deleted: 2}), "DELETE", "/api/v1/documents/doc-1", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, 2.0, data["deleted"])
}

func TestFullTextSearch(t *testing.T) {
	t.Parallel()

	rec, envelope := doJSON(t, newTestRouter(&fakeService{}), "GET", "/api/v1/search?q=scanner", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, 2.0, data["total"])
}

//Personal.AI order the ending
