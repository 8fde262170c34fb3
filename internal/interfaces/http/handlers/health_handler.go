package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/Tender-Intelligence/pkg/types/common"
)

// Prober answers a single component health check.
type Prober func(ctx context.Context) error

// HealthHandler serves liveness and readiness endpoints. Liveness never
// touches dependencies; readiness probes each registered component.
type HealthHandler struct {
	version string
	probes  map[string]Prober
}

// NewHealthHandler builds the handler. Probes may be nil.
func NewHealthHandler(version string, probes map[string]Prober) *HealthHandler {
	if probes == nil {
		probes = map[string]Prober{}
	}
	return &HealthHandler{version: version, probes: probes}
}

// Liveness reports that the process is running.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  common.HealthUp,
		"version": h.version,
	})
}

// Readiness runs every probe with a shared deadline and reports per-component
// status. Any failed probe degrades the overall status to down and the
// response to 503.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	overall := common.HealthUp
	components := make([]common.ComponentHealth, 0, len(h.probes))
	for name, probe := range h.probes {
		start := time.Now()
		err := probe(ctx)
		ch := common.ComponentHealth{
			Name:    name,
			Status:  common.HealthUp,
			Latency: time.Since(start),
		}
		if err != nil {
			ch.Status = common.HealthDown
			ch.Message = err.Error()
			overall = common.HealthDown
		}
		components = append(components, ch)
	}

	status := http.StatusOK
	if overall != common.HealthUp {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status":     overall,
		"version":    h.version,
		"components": components,
	})
}

//Personal.AI order the ending
