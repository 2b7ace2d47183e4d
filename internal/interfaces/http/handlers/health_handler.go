package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger checks one backing dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	version string
	deps    map[string]Pinger
}

// NewHealthHandler constructs the handler. deps maps a dependency name to
// its checker; readiness fails when any check fails.
func NewHealthHandler(version string, deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{version: version, deps: deps}
}

// RegisterRoutes mounts the probe endpoints at the engine root.
func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/healthz", h.Live)
	r.GET("/readyz", h.Ready)
}

// Live reports that the process is up.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.version})
}

// Ready checks every backing dependency with a short timeout each.
func (h *HealthHandler) Ready(c *gin.Context) {
	results := make(map[string]string, len(h.deps))
	healthy := true
	for name, dep := range h.deps {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		err := dep.Ping(ctx)
		cancel()
		if err != nil {
			results[name] = err.Error()
			healthy = false
			continue
		}
		results[name] = "ok"
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": results, "version": h.version})
}
