package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck probes a single dependency.
type HealthCheck func(ctx context.Context) error

// HealthHandler reports the readiness of the service and its dependencies
type HealthHandler struct {
	logger   *slog.Logger
	postgres HealthCheck
	mongo    HealthCheck
	provider HealthCheck
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(logger *slog.Logger, postgres, mongo, provider HealthCheck) *HealthHandler {
	return &HealthHandler{
		logger:   logger,
		postgres: postgres,
		mongo:    mongo,
		provider: provider,
	}
}

// Check probes every dependency. A failing store makes the service
// unhealthy; a failing provider only degrades it, since stored data
// remains readable.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	statuses := gin.H{
		"postgres": h.probe(ctx, "postgres", h.postgres),
		"mongodb":  h.probe(ctx, "mongodb", h.mongo),
		"provider": h.probe(ctx, "provider", h.provider),
	}

	status := http.StatusOK
	overall := "ok"
	if statuses["postgres"] != "ok" || statuses["mongodb"] != "ok" {
		status = http.StatusServiceUnavailable
		overall = "unavailable"
	} else if statuses["provider"] != "ok" {
		overall = "degraded"
	}

	c.JSON(status, gin.H{
		"status":       overall,
		"dependencies": statuses,
		"timestamp":    time.Now().UTC(),
	})
}

func (h *HealthHandler) probe(ctx context.Context, name string, check HealthCheck) string {
	if check == nil {
		return "skipped"
	}
	if err := check(ctx); err != nil {
		h.logger.Warn("Health check failed", "dependency", name, "error", err)
		return "error"
	}
	return "ok"
}
