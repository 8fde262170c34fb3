package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/Tender-Intelligence/pkg/errors"
)

func healthEngine(h *HealthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/healthz", h.Liveness)
	engine.GET("/readyz", h.Readiness)
	return engine
}

func TestLiveness(t *testing.T) {
	t.Parallel()

	engine := healthEngine(NewHealthHandler("1.2.3", nil))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"1.2.3"`)
}

func TestReadiness_AllUp(t *testing.T) {
	t.Parallel()

	engine := healthEngine(NewHealthHandler("dev", map[string]Prober{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return nil },
	}))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest("GET", "/readyz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status     string `json:"status"`
		Components []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"components"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "up", body.Status)
	assert.Len(t, body.Components, 2)
}

func TestReadiness_OneDown(t *testing.T) {
	t.Parallel()

	engine := healthEngine(NewHealthHandler("dev", map[string]Prober{
		"postgres":   func(context.Context) error { return nil },
		"opensearch": func(context.Context) error { return errors.New(errors.ErrCodeSearchError, "cluster unreachable") },
	}))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest("GET", "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"down"`)
}

//Personal.AI order the ending
