package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type nowPlayingResponse struct {
	Track           interface{} `json:"track"`
	PositionSeconds uint64      `json:"position_seconds"`
	BitrateKbps     uint64      `json:"bitrate_kbps"`
	Listeners       int         `json:"listeners"`
}

// nowPlayingPayload builds the projection shared by /api/now-playing and
// /events, merging the Station's published NowPlaying with the live
// listener count (kept out of the station package, which does not depend
// on the listener package).
func (s *Server) nowPlayingPayload() nowPlayingResponse {
	np := s.station.NowPlaying()
	var track interface{}
	if np.Track != nil {
		track = np.Track
	}
	return nowPlayingResponse{
		Track:           track,
		PositionSeconds: np.PositionSeconds,
		BitrateKbps:     np.BitrateKbps,
		Listeners:       s.listeners.Count(),
	}
}

// nowPlaying handles GET /api/now-playing.
func (s *Server) nowPlaying(c *gin.Context) {
	c.JSON(http.StatusOK, s.nowPlayingPayload())
}

// listenersSummary handles GET /api/listeners.
func (s *Server) listenersSummary(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"listeners":      s.listeners.Count(),
		"uptime_seconds": s.station.UptimeSeconds(),
	})
}

// playlist handles GET /api/playlist.
func (s *Server) playlist(c *gin.Context) {
	tracks, current := s.cursor.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"tracks":        tracks,
		"current_track": current,
	})
}

// stats handles GET /api/stats: per-listener connection age and bytes
// delivered.
func (s *Server) stats(c *gin.Context) {
	now := time.Now()
	type listenerStat struct {
		ID             string  `json:"id"`
		ConnectedSecs  float64 `json:"connected_seconds"`
		BytesDelivered uint64  `json:"bytes_delivered"`
		UserAgentClass string  `json:"user_agent_class"`
		Country        string  `json:"country,omitempty"`
		Region         string  `json:"region,omitempty"`
		City           string  `json:"city,omitempty"`
	}

	infos := s.listeners.Snapshot()
	out := make([]listenerStat, 0, len(infos))
	countries := make(map[string]int, len(infos))
	for _, info := range infos {
		out = append(out, listenerStat{
			ID:             info.ID,
			ConnectedSecs:  now.Sub(info.ConnectedAt).Seconds(),
			BytesDelivered: info.BytesDelivered,
			UserAgentClass: info.UserAgentClass,
			Country:        info.Country,
			Region:         info.Region,
			City:           info.City,
		})
		if info.Country != "" {
			countries[info.Country]++
		}
	}
	c.JSON(http.StatusOK, gin.H{"listeners": out, "countries": countries})
}

// health handles GET /api/health.
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"is_broadcasting": s.station.IsBroadcasting(),
		"listeners":       s.listeners.Count(),
		"uptime_seconds":  s.station.UptimeSeconds(),
		"state":           s.station.State().String(),
	})
}

// rescanPlaylist handles POST /api/playlist/rescan, forcing an immediate
// directory rescan; the Station Loop itself never rescans.
func (s *Server) rescanPlaylist(c *gin.Context) {
	if err := s.cursor.Rescan(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "tracks": s.cursor.Len()})
}
