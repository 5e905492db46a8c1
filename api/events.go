package api

import (
	"io"
	"net/http"
	"time"

	"github.com/Domenick1991/expertbooking/internal/realtime"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const eventBuffer = 64

// EventHandler streams one expert's slot events as server-sent events.
// An open connection is a joined viewer; closing it leaves the topic.
type EventHandler struct {
	channel   realtime.Channel
	keepAlive time.Duration
	logger    *zap.Logger
}

func NewEventHandler(channel realtime.Channel, keepAlive time.Duration, logger *zap.Logger) *EventHandler {
	if keepAlive <= 0 {
		keepAlive = 25 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventHandler{channel: channel, keepAlive: keepAlive, logger: logger}
}

func (h *EventHandler) Register(router *gin.RouterGroup) {
	router.GET("/:id/events", h.stream)
}

func (h *EventHandler) stream(c *gin.Context) {
	expertID := c.Param("id")
	ctx := c.Request.Context()

	events := make(chan realtime.Event, eventBuffer)
	sub, err := h.channel.Subscribe(ctx, expertID, func(ev realtime.Event) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	})
	if err != nil {
		h.logger.Error("subscribe expert topic", zap.String("expert_id", expertID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "realtime channel unavailable"})
		return
	}
	defer sub.Close()

	h.logger.Debug("viewer joined", zap.String("expert_id", expertID))
	defer h.logger.Debug("viewer left", zap.String("expert_id", expertID))

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent(string(realtime.MessageJoin), realtime.JoinMessage(expertID))
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev := <-events:
			c.SSEvent(string(ev.Kind), realtime.Message{
				Type:     ev.Kind,
				ExpertID: ev.ExpertID,
				Date:     ev.Date,
				TimeSlot: ev.TimeSlot,
			})
			return true
		case <-ticker.C:
			_, _ = io.WriteString(w, ": keepalive\n\n")
			return true
		}
	})
}
