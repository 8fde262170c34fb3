// Package http wires the gin router and the HTTP server of the tender
// extraction API.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/Tender-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/Tender-Intelligence/internal/interfaces/http/middleware"
)

// RouterConfig gathers everything the router needs. Tender and Health are
// mandatory; Metrics and MetricsCollector are optional.
type RouterConfig struct {
	Tender           *handlers.TenderHandler
	Health           *handlers.HealthHandler
	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
	MaxBodySize      int64
}

// NewRouter builds the gin engine with the full middleware chain and all
// API routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.CORS())
	if cfg.Logger != nil {
		engine.Use(middleware.Logging(cfg.Logger))
	}
	if cfg.Metrics != nil {
		engine.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodySizeLimit(cfg.MaxBodySize))
	}

	engine.GET("/healthz", cfg.Health.Liveness)
	engine.GET("/readyz", cfg.Health.Readiness)
	if cfg.MetricsCollector != nil {
		engine.GET("/metrics", gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	v1 := engine.Group("/api/v1")
	{
		v1.POST("/extractions", cfg.Tender.Extract)
		v1.POST("/documents", cfg.Tender.Submit)
		v1.GET("/documents/:id/records", cfg.Tender.ListByDocument)
		v1.DELETE("/documents/:id", cfg.Tender.DeleteDocument)
		v1.GET("/records", cfg.Tender.ListRecords)
		v1.GET("/records/:id", cfg.Tender.GetRecord)
		v1.GET("/search", cfg.Tender.FullTextSearch)
	}

	return engine
}

//Personal.AI order the ending
