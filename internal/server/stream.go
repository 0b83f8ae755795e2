package server

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type heartbeatPayload struct {
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// handleActivityStream relays recorded activities as server-sent events until the client disconnects.
func (h *httpHandler) handleActivityStream(c *gin.Context) {
	ctx := c.Request.Context()
	stream, cleanup := h.dispatcher.Subscribe(ctx)
	defer cleanup()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeatInterval)
	defer ticker.Stop()

	h.logger.Debug("activity stream opened", zap.String("remote", c.ClientIP()))
	c.Stream(func(_ io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case activity := <-stream:
			c.SSEvent(RealtimeEventActivity, activity)
			return true
		case <-ticker.C:
			c.SSEvent(realtimeEventHeartbeat, heartbeatPayload{
				Source:    realtimeSourceBackend,
				Timestamp: h.clock().UTC(),
			})
			return true
		}
	})
	h.logger.Debug("activity stream closed", zap.String("remote", c.ClientIP()))
}
