package api

import (
	"io"
	"net/http"
	"strconv"

	"adminconsole/internal/service"
	"adminconsole/internal/session"
	v1 "adminconsole/pkg/api/v1"
	"adminconsole/pkg/logger"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StreamHandler struct {
	hub     *service.Hub
	session *session.Context
}

func NewStreamHandler(hub *service.Hub, sess *session.Context) *StreamHandler {
	return &StreamHandler{
		hub:     hub,
		session: sess,
	}
}

// SessionEvents streams session changes to an open console tab. A tab that
// reconnects with Last-Event-ID (or last_rev) gets what it missed; if that
// is no longer buffered it gets a "reset" carrying the current state.
func (h *StreamHandler) SessionEvents(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	lastRevStr := c.GetHeader("Last-Event-ID")
	if lastRevStr == "" {
		lastRevStr = c.Query("last_rev")
	}

	snapshot := h.hub.Revision()
	sub := h.hub.Subscribe(c.Request.Context())
	if sub == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "event stream unavailable"})
		return
	}
	defer h.hub.Unsubscribe(sub)

	logger.Debug("session event stream connected",
		zap.String("ip", c.ClientIP()),
		zap.String("last_rev", lastRevStr))

	// Events up to maxSentRev are covered by what is sent before streaming.
	maxSentRev := snapshot
	if lastRevStr != "" {
		lastRev, err := strconv.ParseInt(lastRevStr, 10, 64)
		events, ok := h.hub.Since(lastRev)
		if err != nil || !ok {
			h.sendState(c, "reset", snapshot)
		} else {
			maxSentRev = lastRev
			for _, e := range events {
				h.send(c, e)
				maxSentRev = e.Revision
			}
		}
	} else {
		h.sendState(c, "state", snapshot)
	}
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case e, ok := <-sub.Send:
			if !ok {
				return false
			}
			if e.Type == v1.EventPing {
				c.SSEvent("ping", "pong")
				return true
			}
			// Already replayed from the buffer.
			if e.Revision <= maxSentRev {
				return true
			}
			h.send(c, e)
			maxSentRev = e.Revision
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *StreamHandler) send(c *gin.Context, e v1.SessionEvent) {
	c.Render(-1, sse.Event{
		Id:    strconv.FormatInt(e.Revision, 10),
		Event: "session",
		Data:  e,
	})
}

func (h *StreamHandler) sendState(c *gin.Context, event string, rev int64) {
	c.Render(-1, sse.Event{
		Id:    strconv.FormatInt(rev, 10),
		Event: event,
		Data:  h.session.Signal(),
	})
}
