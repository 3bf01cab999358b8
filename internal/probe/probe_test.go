package probe

import (
	"os"
	"path/filepath"
	"testing"
)

func TestProbeMissingFileErrors(t *testing.T) {
	_, err := Probe(filepath.Join(t.TempDir(), "does-not-exist.mp3"))
	if err == nil {
		t.Fatal("Probe on a missing file should return an error")
	}
}

func TestProbeFallsBackToFilenameStem(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Song Title.mp3")
	if err := os.WriteFile(path, []byte("not a real mp3 frame"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	res, err := Probe(path)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if res.Title != "Song Title" {
		t.Errorf("Title = %q, want %q", res.Title, "Song Title")
	}
	if res.Artist != "Unknown" || res.Album != "Unknown" {
		t.Errorf("Artist/Album = %q/%q, want Unknown/Unknown", res.Artist, res.Album)
	}
	if res.HasDuration {
		t.Error("HasDuration should be false for an undecodable file")
	}
	if res.HasBitrate {
		t.Error("HasBitrate should be false when duration is unknown")
	}
}

func TestProbeNeverPanics(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "garbage.mp3")
	garbage := make([]byte, 4096)
	for i := range garbage {
		garbage[i] = byte(i % 256)
	}
	if err := os.WriteFile(path, garbage, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Probe(path); err != nil {
		t.Fatalf("Probe should degrade gracefully, got error: %v", err)
	}
}
