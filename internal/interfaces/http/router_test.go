package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	apptender "github.com/turtacn/Tender-Intelligence/internal/application/tender"
	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/search/opensearch"
	"github.com/turtacn/Tender-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/Tender-Intelligence/internal/interfaces/http/middleware"
	"github.com/turtacn/Tender-Intelligence/pkg/errors"
	types "github.com/turtacn/Tender-Intelligence/pkg/types/tender"
)

type stubService struct{}

func (stubService) Extract(context.Context, *apptender.ExtractInput) (*apptender.ExtractOutput, error) {
	return &apptender.ExtractOutput{DocumentID: "doc-1"}, nil
}

func (stubService) SubmitDocument(context.Context, *apptender.SubmitInput) (*apptender.SubmitOutput, error) {
	return &apptender.SubmitOutput{DocumentID: "doc-1"}, nil
}

func (stubService) GetRecord(context.Context, string) (*types.RecordRow, error) {
	return nil, errors.NotFound("no such record")
}

func (stubService) ListByDocument(context.Context, string) ([]*types.RecordRow, error) {
	return nil, nil
}

func (stubService) Search(context.Context, *apptender.SearchInput) (*apptender.SearchOutput, error) {
	return &apptender.SearchOutput{Page: 1, PageSize: 20}, nil
}

func (stubService) FullTextSearch(context.Context, opensearch.TenderQuery) (*opensearch.TenderSearchResult, error) {
	return &opensearch.TenderSearchResult{}, nil
}

func (stubService) DeleteDocument(context.Context, string) (int64, error) { return 0, nil }

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterConfig{
		Tender: handlers.NewTenderHandler(stubService{}),
		Health: handlers.NewHealthHandler("test", nil),
		Logger: logging.NewNopLogger(),
	})
}

func TestRouter_Routes(t *testing.T) {
	t.Parallel()

	engine := newEngine(t)
	cases := []struct {
		method string
		path   string
		status int
	}{
		{"GET", "/healthz", http.StatusOK},
		{"GET", "/readyz", http.StatusOK},
		{"GET", "/api/v1/records", http.StatusOK},
		{"GET", "/api/v1/records/rec-1", http.StatusNotFound},
		{"GET", "/api/v1/search", http.StatusOK},
		{"DELETE", "/api/v1/documents/doc-1", http.StatusOK},
		{"GET", "/nowhere", http.StatusNotFound},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, tc.status, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRouter_RequestIDPropagated(t *testing.T) {
	t.Parallel()

	engine := newEngine(t)
	req := httptest.NewRequest("GET", "/api/v1/records", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(middleware.RequestIDHeader))
}

func TestRouter_CORSPreflight(t *testing.T) {
	t.Parallel()

	engine := newEngine(t)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest("OPTIONS", "/api/v1/records", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

//Personal.AI order the ending
