package api

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/indigoair/indigo/internal/realtime"
)

const heartbeatInterval = 25 * time.Second

type EventsHandler struct {
	hub    *realtime.Hub
	logger *slog.Logger
}

func NewEventsHandler(hub *realtime.Hub, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{hub: hub, logger: logger}
}

// stream relays hub events as server-sent events until the client goes
// away. Events are named by their type.
func (h *EventsHandler) stream(c *gin.Context) {
	sub := h.hub.Subscribe()
	defer sub.Close()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case e, ok := <-sub.Events():
			if !ok {
				return false
			}
			c.SSEvent(string(e.Type), e)
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", gin.H{"time": time.Now().UTC()})
			return true
		}
	})
	if dropped := sub.Dropped(); dropped > 0 {
		h.logger.Warn("event stream dropped events", "principal_id", principal(c).ID, "dropped", dropped)
	}
}
