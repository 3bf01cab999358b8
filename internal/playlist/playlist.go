// Package playlist implements the Playlist Cursor: an ordered sequence of
// tracks with a current index, loaded from a persisted file or scanned from
// a directory tree, advanced with wrap-around.
package playlist

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dimitrymd/webradio-sub000/internal/probe"
)

const playlistFileName = "playlist.json"

// audioExtensions is the recognized-audio allowlist.
var audioExtensions = map[string]bool{
	".mp3": true,
}

// fileJSON is the on-disk schema: "tracks" plus the "current_track" index.
type fileJSON struct {
	Tracks       []Track `json:"tracks"`
	CurrentTrack int     `json:"current_track"`
}

// Cursor holds the ordered tracks and the current index, guarded by a
// read/write lock: writes occur only on advance and on rescans.
type Cursor struct {
	mu      sync.RWMutex
	dir     string
	tracks  []Track
	current int
}

// LoadOrScan loads a persisted playlist.json from dir if present and
// parseable; otherwise (or on parse failure) it scans dir recursively and
// persists the result.
func LoadOrScan(dir string) (*Cursor, error) {
	c := &Cursor{dir: dir}

	path := filepath.Join(dir, playlistFileName)
	if data, err := os.ReadFile(path); err == nil {
		var fj fileJSON
		if err := json.Unmarshal(data, &fj); err == nil {
			c.tracks = fj.Tracks
			if fj.CurrentTrack >= 0 && (len(fj.Tracks) == 0 || fj.CurrentTrack < len(fj.Tracks)) {
				c.current = fj.CurrentTrack
			}
			log.Printf("playlist: loaded %d tracks from %s", len(c.tracks), path)
			return c, nil
		} else {
			log.Printf("playlist: failed to parse %s, falling back to scan: %v", path, err)
		}
	}

	if err := c.Rescan(); err != nil {
		return nil, err
	}
	return c, nil
}

// Rescan walks the Cursor's directory recursively, probes every recognized
// audio file, sorts by relative path, resets current_index to 0, and
// persists the result. An empty scan result is legal: the Station Loop
// handles an empty playlist by retrying rather than failing.
func (c *Cursor) Rescan() error {
	tracks, err := scanDirectory(c.dir)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.tracks = tracks
	c.current = 0
	c.mu.Unlock()

	if err := c.save(); err != nil {
		log.Printf("playlist: failed to save playlist.json: %v", err)
	}
	return nil
}

func scanDirectory(dir string) ([]Track, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("playlist: cannot create music dir %s: %w", dir, err)
	}

	var tracks []Track
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			log.Printf("playlist: skipping %s: %v", path, walkErr)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !audioExtensions[ext] {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			log.Printf("playlist: cannot relativize %s: %v", path, err)
			return nil
		}

		res, err := probe.Probe(path)
		if err != nil {
			log.Printf("playlist: probe failed for %s, skipping: %v", path, err)
			return nil
		}

		track := Track{
			RelativePath: filepath.ToSlash(rel),
			Title:        res.Title,
			Artist:       res.Artist,
			Album:        res.Album,
		}
		if res.HasDuration {
			d := res.DurationSec
			track.DurationSec = &d
		}
		if res.HasBitrate {
			b := res.BitrateBPS
			track.BitrateBPS = &b
		}
		tracks = append(tracks, track)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("playlist: scanning %s: %w", dir, err)
	}

	sort.Slice(tracks, func(i, j int) bool {
		return tracks[i].RelativePath < tracks[j].RelativePath
	})
	return tracks, nil
}

func (c *Cursor) save() error {
	c.mu.RLock()
	fj := fileJSON{Tracks: c.tracks, CurrentTrack: c.current}
	c.mu.RUnlock()

	data, err := json.MarshalIndent(fj, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, playlistFileName), data, 0o644)
}

// Advance returns the track at the current index, then advances the index
// modulo the playlist length. Returns false iff the playlist is empty.
func (c *Cursor) Advance() (Track, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.tracks) == 0 {
		return Track{}, false
	}
	track := c.tracks[c.current]
	c.current = (c.current + 1) % len(c.tracks)
	return track, true
}

// Snapshot returns a copy of the tracks and the current index, for the
// Status Surface's /api/playlist projection.
func (c *Cursor) Snapshot() ([]Track, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Track, len(c.tracks))
	copy(out, c.tracks)
	return out, c.current
}

// Len returns the number of tracks currently loaded.
func (c *Cursor) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tracks)
}
