// Package station drives the Station Loop: pick track, announce, stream via
// Frame Source + Pacer + Broadcaster, advance on EOF, repeat. It is the
// sole writer into the Broadcaster and into the published NowPlaying state.
package station

import (
	"io"
	"log"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/dimitrymd/webradio-sub000/internal/broadcast"
	"github.com/dimitrymd/webradio-sub000/internal/config"
	"github.com/dimitrymd/webradio-sub000/internal/frame"
	"github.com/dimitrymd/webradio-sub000/internal/pacer"
	"github.com/dimitrymd/webradio-sub000/internal/playlist"
	"github.com/dimitrymd/webradio-sub000/internal/probe"
)

// State is the Station Loop's lifecycle state.
type State int32

const (
	Idle State = iota
	Starting
	Playing
	Advancing
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Playing:
		return "playing"
	case Advancing:
		return "advancing"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

const emptyPlaylistRetry = 5 * time.Second

// NowPlaying is the read-only projection published by the Station Loop and
// consumed by the Status Surface.
type NowPlaying struct {
	Track           *playlist.Track
	PositionBytes   uint64
	PositionSeconds uint64
	BitrateKbps     uint64
}

// Station owns the Playlist Cursor, the Broadcaster, and the Station Loop
// goroutine. Exactly one Station Loop exists per Station, and it is the
// only writer into its Broadcaster.
type Station struct {
	cfg    *config.Config
	cursor *playlist.Cursor
	bc     *broadcast.Broadcaster

	current        atomic.Pointer[playlist.Track]
	positionBytes  atomic.Uint64
	totalBytesSent atomic.Uint64
	state          atomic.Int32

	startedAt time.Time
	shutdown  chan struct{}
	stopped   chan struct{}
}

// New constructs a Station. Start must be called to begin the loop.
func New(cfg *config.Config, cursor *playlist.Cursor) *Station {
	return &Station{
		cfg:       cfg,
		cursor:    cursor,
		bc:        broadcast.New(cfg.Backlog),
		startedAt: time.Now(),
		shutdown:  make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

// Broadcaster returns the Station's single Broadcaster, for Listener
// Sessions to subscribe to.
func (s *Station) Broadcaster() *broadcast.Broadcaster { return s.bc }

// State returns the current lifecycle state.
func (s *Station) State() State { return State(s.state.Load()) }

// IsBroadcasting reports whether the loop is actively streaming or has a
// track loaded (Starting, Playing or Advancing), as opposed to Idle/Stopping.
func (s *Station) IsBroadcasting() bool {
	switch s.State() {
	case Playing, Advancing, Starting:
		return true
	default:
		return false
	}
}

// UptimeSeconds returns seconds since the Station was constructed.
func (s *Station) UptimeSeconds() uint64 {
	return uint64(time.Since(s.startedAt).Seconds())
}

// TotalBytesSent returns the cumulative bytes sent across all tracks.
func (s *Station) TotalBytesSent() uint64 { return s.totalBytesSent.Load() }

// NowPlaying returns the current projection. Track is nil when the
// playlist is empty.
func (s *Station) NowPlaying() NowPlaying {
	track := s.current.Load()
	bitrate := uint64(0)
	if track != nil {
		bitrate = track.EffectiveBitrateBPS(probe.FallbackBitrateBPS) / 1000
	}
	return NowPlaying{
		Track:           track,
		PositionBytes:   s.positionBytes.Load(),
		PositionSeconds: positionSeconds(s.positionBytes.Load(), track),
		BitrateKbps:     bitrate,
	}
}

func positionSeconds(posBytes uint64, track *playlist.Track) uint64 {
	if track == nil {
		return 0
	}
	bitrate := track.EffectiveBitrateBPS(probe.FallbackBitrateBPS)
	if bitrate == 0 {
		return 0
	}
	return posBytes * 8 / bitrate
}

// Start spawns the Station Loop. It is not safe to call more than once.
func (s *Station) Start() {
	s.state.Store(int32(Starting))
	go s.loop()
}

// Stop requests a clean shutdown: the in-flight chunk send completes, the
// Broadcaster is closed last so subscribers observe Closed, and Stop
// returns once the loop has exited or after a 2-second grace period,
// whichever comes first.
func (s *Station) Stop() {
	select {
	case <-s.shutdown:
		// already stopping
	default:
		close(s.shutdown)
	}

	select {
	case <-s.stopped:
	case <-time.After(2 * time.Second):
		log.Printf("station: shutdown grace period elapsed, forcing exit")
	}
}

func (s *Station) loop() {
	defer func() {
		s.state.Store(int32(Stopping))
		s.bc.Close()
		close(s.stopped)
	}()

	for {
		select {
		case <-s.shutdown:
			return
		default:
		}

		track, ok := s.cursor.Advance()
		if !ok {
			s.current.Store(nil)
			s.state.Store(int32(Advancing))
			if !s.sleepInterruptible(emptyPlaylistRetry) {
				return
			}
			continue
		}

		s.announce(track)
		s.state.Store(int32(Playing))
		log.Printf("station: now playing %s - %s (%s)", track.Artist, track.Title, track.RelativePath)

		if err := s.streamTrack(track); err != nil {
			log.Printf("station: %v", err)
		}

		s.state.Store(int32(Advancing))
		if !s.sleepInterruptible(s.cfg.GapBetweenTracks) {
			return
		}
	}
}

func (s *Station) announce(track playlist.Track) {
	t := track
	s.current.Store(&t)
	s.positionBytes.Store(0)
}

func (s *Station) sleepInterruptible(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-s.shutdown:
		return false
	}
}

// streamTrack runs the per-track streaming algorithm: open, compute Δ from
// the track's bitrate (or the fallback), warm up unpaced, then pace each
// subsequent chunk through the Broadcaster.
func (s *Station) streamTrack(track playlist.Track) error {
	path := filepath.Join(s.cfg.MusicDir, track.RelativePath)

	src, err := frame.Open(path, s.cfg.ChunkSizeBytes)
	if err != nil {
		log.Printf("station: cannot open %s, skipping: %v", path, err)
		return nil
	}
	defer src.Close()

	bitrate := track.BitrateBPS
	effectiveBitrate := track.EffectiveBitrateBPS(probe.FallbackBitrateBPS)
	if bitrate == nil {
		log.Printf("station: %s has no known bitrate, using fallback %d bps", track.RelativePath, probe.FallbackBitrateBPS)
	}

	p := pacer.New(effectiveBitrate, s.cfg.ChunkSizeBytes, s.cfg.WarmupChunks)

	for {
		select {
		case <-s.shutdown:
			return nil
		default:
		}

		if !p.Wait(s.shutdown) {
			return nil
		}

		chunk, err := src.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			log.Printf("station: read error on %s, advancing: %v", track.RelativePath, err)
			return nil
		}

		s.positionBytes.Add(uint64(len(chunk)))
		s.totalBytesSent.Add(uint64(len(chunk)))
		s.bc.Send(broadcast.Chunk(chunk))
	}
}
