package server

import (
	"net/http"
	"time"

	"github.com/MarcoPoloResearchLab/scoreboard/backend/internal/leaderboard"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusUnhealthy = "unhealthy"
)

type healthPayload struct {
	Status    string                `json:"status"`
	Timestamp time.Time             `json:"timestamp"`
	Version   string                `json:"version"`
	Database  healthDatabasePayload `json:"database"`
	Streams   int                   `json:"streams"`
	Uptime    int64                 `json:"uptime"`
}

type healthDatabasePayload struct {
	Status string `json:"status"`
	leaderboard.Stats
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	now := h.clock().UTC()
	payload := healthPayload{
		Status:    healthStatusHealthy,
		Timestamp: now,
		Version:   h.version,
		Database:  healthDatabasePayload{Status: "connected"},
		Streams:   h.dispatcher.SubscriberCount(),
		Uptime:    int64(now.Sub(h.startedAt.UTC()).Seconds()),
	}

	status := http.StatusOK
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("health check failed", zap.Error(err))
		payload.Status = healthStatusUnhealthy
		payload.Database.Status = "error"
		status = http.StatusServiceUnavailable
	} else {
		payload.Database.Stats = stats
	}

	setNoCacheHeaders(c)
	c.JSON(status, payload)
}

func (h *httpHandler) handleHealthHead(c *gin.Context) {
	setNoCacheHeaders(c)
	if _, err := h.service.Stats(c.Request.Context()); err != nil {
		h.logger.Error("health check failed", zap.Error(err))
		c.Status(http.StatusServiceUnavailable)
		return
	}
	c.Status(http.StatusOK)
}

func setNoCacheHeaders(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
}
