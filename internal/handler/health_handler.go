package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/plannivo/booking-engine/pkg/database"
	pkgredis "github.com/plannivo/booking-engine/pkg/redis"
	"github.com/plannivo/booking-engine/pkg/response"
)

// HealthHandler exposes liveness and readiness probes
type HealthHandler struct {
	db      *database.PostgresDB
	redis   *pkgredis.Client
	version string
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db *database.PostgresDB, redis *pkgredis.Client, version string) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, version: version}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response.Success(c, gin.H{
		"status":  "ok",
		"version": h.version,
	})
}

// Ready handles GET /ready: the service is ready only when its backing
// stores answer.
func (h *HealthHandler) Ready(c *gin.Context) {
	checks := gin.H{}
	healthy := true

	if err := h.db.HealthCheck(c.Request.Context()); err != nil {
		checks["postgres"] = err.Error()
		healthy = false
	} else {
		checks["postgres"] = "ok"
	}

	if h.redis != nil {
		if err := h.redis.HealthCheck(c.Request.Context()); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": checks})
		return
	}
	response.Success(c, gin.H{"status": "ready", "checks": checks})
}
