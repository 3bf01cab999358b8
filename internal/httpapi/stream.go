package httpapi

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dimitrymd/webradio-sub000/internal/broadcast"
)

// probeBody is the two-byte MP3 frame sync the compatibility probe returns.
var probeBody = []byte{0xFF, 0xFB}

// stream handles GET /stream: the compatibility probe, the capacity check,
// and the Listener Session loop itself, reporting Lagged to the client
// connection's log entry rather than silently dropping or disconnecting.
func (s *Server) stream(c *gin.Context) {
	if c.GetHeader("Range") == "bytes=0-1" {
		c.Header("Content-Type", "audio/mpeg")
		c.Data(http.StatusPartialContent, "audio/mpeg", probeBody)
		return
	}

	l, ok := s.listeners.TryAdd(c.Request, s.geo)
	if !ok {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	defer s.listeners.Remove(l)

	var recv *broadcast.Receiver = s.station.Broadcaster().Subscribe()
	defer recv.Unsubscribe()

	c.Header("Content-Type", "audio/mpeg")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Accept-Ranges", "none")
	c.Header("Connection", "close")
	c.Header("Transfer-Encoding", "chunked")
	c.Status(http.StatusOK)

	flusher, canFlush := c.Writer.(http.Flusher)
	ctx := c.Request.Context()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var ev broadcast.Event = recv.Receive()
		switch {
		case ev.Closed:
			return
		case ev.Lagged > 0:
			log.Printf("httpapi: listener %s lagged by %d chunks", l.ID(), ev.Lagged)
			continue
		default:
			if _, err := c.Writer.Write(ev.Chunk); err != nil {
				return
			}
			l.AddBytes(len(ev.Chunk))
			if canFlush {
				flusher.Flush()
			}
		}
	}
}
