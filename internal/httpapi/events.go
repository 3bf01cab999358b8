package httpapi

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
)

const sseInterval = 5 * time.Second

// events handles GET /events: a server-sent-events stream (via gin's
// SSEvent, backed by gin-contrib/sse) emitting a now-playing snapshot every
// 5 seconds. It does not subscribe to the Broadcaster and must not count
// toward the listener total.
func (s *Server) events(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ticker := time.NewTicker(sseInterval)
	defer ticker.Stop()

	clientGone := c.Writer.CloseNotify()

	c.Stream(func(w io.Writer) bool {
		c.SSEvent("now-playing", s.nowPlayingPayload())
		select {
		case <-clientGone:
			return false
		case <-ticker.C:
			return true
		}
	})
}
