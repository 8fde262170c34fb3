package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/Tender-Intelligence/internal/testutil"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(mw...)
	engine.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	engine.GET("/boom", func(c *gin.Context) { c.String(http.StatusInternalServerError, "boom") })
	return engine
}

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	t.Parallel()

	engine := newEngine(RequestID())
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest("GET", "/ok", nil))

	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestID_ReusesCallerID(t *testing.T) {
	t.Parallel()

	engine := newEngine(RequestID())
	req := httptest.NewRequest("GET", "/ok", nil)
	req.Header.Set(RequestIDHeader, "caller-7")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, "caller-7", rec.Header().Get(RequestIDHeader))
}

func TestLogging_LevelFollowsStatus(t *testing.T) {
	t.Parallel()

	logger := testutil.NewMockLogger()
	engine := newEngine(RequestID(), Logging(logger))

	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/ok", nil))
	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/boom", nil))

	assert.True(t, logger.HasMessage("info", "request served"))
	assert.True(t, logger.HasMessage("error", "request failed"))
}

func TestMetrics_CountsRequests(t *testing.T) {
	t.Parallel()

	collector, err := prometheus.NewMetricsCollector(
		prometheus.CollectorConfig{Namespace: "mwtest"}, logging.NewNopLogger())
	require.NoError(t, err)
	m := prometheus.NewAppMetrics(collector)

	engine := newEngine(Metrics(m))
	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/ok", nil))

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(),
		`mwtest_http_requests_total{method="GET",path="/ok",status_code="200"} 1`)
}

func TestBodySizeLimit(t *testing.T) {
	t.Parallel()

	engine := gin.New()
	engine.Use(BodySizeLimit(10))
	engine.POST("/in", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest("POST", "/in", nil)
	req.ContentLength = 100
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

//Personal.AI order the ending
