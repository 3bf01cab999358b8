package playlist

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestAdvanceIsACyclicPermutation(t *testing.T) {
	c := &Cursor{tracks: []Track{
		{RelativePath: "a.mp3"},
		{RelativePath: "b.mp3"},
		{RelativePath: "c.mp3"},
	}}

	var seen []string
	for i := 0; i < len(c.tracks); i++ {
		tr, ok := c.Advance()
		if !ok {
			t.Fatalf("Advance() returned ok=false on iteration %d", i)
		}
		seen = append(seen, tr.RelativePath)
	}

	if c.current != 0 {
		t.Errorf("after n advances, current = %d, want 0", c.current)
	}
	for i, rel := range seen {
		if rel != c.tracks[i].RelativePath {
			t.Errorf("advance order[%d] = %q, want %q", i, rel, c.tracks[i].RelativePath)
		}
	}
}

func TestAdvanceOnEmptyPlaylistReturnsFalse(t *testing.T) {
	c := &Cursor{}
	if _, ok := c.Advance(); ok {
		t.Error("Advance() on empty playlist should return ok=false")
	}
}

func TestRescanSortsByRelativePath(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"z.mp3", "a.mp3", "m.mp3"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("not-really-mp3-but-probe-tolerates-it"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	c, err := LoadOrScan(dir)
	if err != nil {
		t.Fatalf("LoadOrScan: %v", err)
	}

	tracks, current := c.Snapshot()
	if current != 0 {
		t.Errorf("current = %d, want 0", current)
	}
	if len(tracks) != 3 {
		t.Fatalf("len(tracks) = %d, want 3", len(tracks))
	}
	for i := 1; i < len(tracks); i++ {
		if tracks[i-1].RelativePath >= tracks[i].RelativePath {
			t.Errorf("tracks not sorted: %q >= %q", tracks[i-1].RelativePath, tracks[i].RelativePath)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, playlistFileName))
	if err != nil {
		t.Fatalf("reading persisted playlist: %v", err)
	}
	var fj fileJSON
	if err := json.Unmarshal(data, &fj); err != nil {
		t.Fatalf("parsing persisted playlist: %v", err)
	}
	if len(fj.Tracks) != 3 {
		t.Errorf("persisted playlist has %d tracks, want 3", len(fj.Tracks))
	}
}

func TestLoadOrScanFallsBackOnCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, playlistFileName), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "song.mp3"), []byte("data"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c, err := LoadOrScan(dir)
	if err != nil {
		t.Fatalf("LoadOrScan: %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after fallback scan", c.Len())
	}
}

func TestEffectiveBitrateBPSFallback(t *testing.T) {
	tr := Track{}
	if got := tr.EffectiveBitrateBPS(192000); got != 192000 {
		t.Errorf("EffectiveBitrateBPS() = %d, want fallback 192000", got)
	}

	b := uint64(256000)
	tr.BitrateBPS = &b
	if got := tr.EffectiveBitrateBPS(192000); got != 256000 {
		t.Errorf("EffectiveBitrateBPS() = %d, want 256000", got)
	}
}
