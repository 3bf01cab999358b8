package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dimitrymd/webradio-sub000/internal/config"
	"github.com/dimitrymd/webradio-sub000/internal/geo"
	"github.com/dimitrymd/webradio-sub000/internal/listener"
	"github.com/dimitrymd/webradio-sub000/internal/playlist"
	"github.com/dimitrymd/webradio-sub000/internal/station"
)

func newTestServer(t *testing.T, maxListeners int) (*Server, *station.Station) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		MusicDir:               t.TempDir(),
		MaxConcurrentListeners: maxListeners,
		ChunkSizeBytes:         1024,
		Backlog:                4,
		WarmupChunks:           1,
		GapBetweenTracks:       10 * time.Millisecond,
	}
	cursor, err := playlist.LoadOrScan(cfg.MusicDir)
	if err != nil {
		t.Fatalf("LoadOrScan: %v", err)
	}
	st := station.New(cfg, cursor)

	return &Server{
		cfg:       cfg,
		station:   st,
		cursor:    cursor,
		listeners: listener.NewStore(maxListeners),
		geo:       geo.New("", "test-salt"),
	}, st
}

func TestCompatibilityProbeDoesNotSubscribe(t *testing.T) {
	s, _ := newTestServer(t, 2)

	r := gin.New()
	r.GET("/stream", s.stream)

	req := httptest.NewRequest(http.MethodGet, "/stream", nil)
	req.Header.Set("Range", "bytes=0-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusPartialContent)
	}
	if got := w.Body.Bytes(); len(got) != 2 || got[0] != 0xFF || got[1] != 0xFB {
		t.Errorf("probe body = %v, want [0xFF 0xFB]", got)
	}
	if s.listeners.Count() != 0 {
		t.Errorf("listener count = %d, want 0 after probe", s.listeners.Count())
	}
}

func TestStreamRejectsAtCapacity(t *testing.T) {
	s, _ := newTestServer(t, 0) // capacity 0: every request is rejected

	r := gin.New()
	r.GET("/stream", s.stream)

	req := httptest.NewRequest(http.MethodGet, "/stream", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
	if s.station.Broadcaster().SubscriberCount() != 0 {
		t.Error("rejected request should not have subscribed to the Broadcaster")
	}
}

func TestHealthReportsListenerCount(t *testing.T) {
	s, _ := newTestServer(t, 5)
	probeReq := httptest.NewRequest(http.MethodGet, "/stream", nil)
	probeReq.Header.Set("User-Agent", "Mozilla/5.0 (browser)")
	s.listeners.TryAdd(probeReq, s.geo)

	r := gin.New()
	r.GET("/api/health", s.health)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Listeners int `json:"listeners"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding health response: %v", err)
	}
	if body.Listeners != 1 {
		t.Errorf("health listeners = %d, want 1", body.Listeners)
	}
}
