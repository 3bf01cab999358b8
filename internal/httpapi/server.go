// Package httpapi implements the Status Surface and the /stream endpoint:
// the HTTP/SSE boundary around the Station, a single-station gin route
// layout.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dimitrymd/webradio-sub000/internal/config"
	"github.com/dimitrymd/webradio-sub000/internal/geo"
	"github.com/dimitrymd/webradio-sub000/internal/listener"
	"github.com/dimitrymd/webradio-sub000/internal/playlist"
	"github.com/dimitrymd/webradio-sub000/internal/station"
)

// Server wires the Station, the Listener Store, and the GeoIP Resolver into
// a gin.Engine exposing the full HTTP surface: streaming, status, and SSE.
type Server struct {
	cfg       *config.Config
	station   *station.Station
	cursor    *playlist.Cursor
	listeners *listener.Store
	geo       *geo.Resolver
}

// New constructs a Server. Call Handler to obtain the gin.Engine to run.
func New(cfg *config.Config, st *station.Station, cursor *playlist.Cursor, resolver *geo.Resolver) *Server {
	return &Server{
		cfg:       cfg,
		station:   st,
		cursor:    cursor,
		listeners: listener.NewStore(cfg.MaxConcurrentListeners),
		geo:       resolver,
	}
}

// Handler builds the gin.Engine with every route this server exposes.
// Static file serving and the index route are minimal stand-ins so the
// server is runnable standalone without a separate frontend deployment.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", s.index)
	r.GET("/stream", s.stream)
	r.GET("/events", s.events)

	api := r.Group("/api")
	{
		api.GET("/now-playing", s.nowPlaying)
		api.GET("/listeners", s.listenersSummary)
		api.GET("/playlist", s.playlist)
		api.GET("/stats", s.stats)
		api.GET("/health", s.health)
		api.POST("/playlist/rescan", s.rescanPlaylist)
	}

	r.Static("/static", "./static")

	return r
}

func (s *Server) index(c *gin.Context) {
	c.String(http.StatusOK, "webradio")
}
