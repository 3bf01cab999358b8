// Package probe extracts playback metadata from audio files on disk.
package probe

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/gopxl/beep/mp3"
)

// FallbackBitrateBPS is used when duration cannot be derived and therefore
// bitrate cannot be computed from file size.
const FallbackBitrateBPS = 192000

// Result is what a successful (or gracefully degraded) probe returns.
type Result struct {
	Title       string
	Artist      string
	Album       string
	DurationSec uint64
	HasDuration bool
	BitrateBPS  uint64
	HasBitrate  bool
}

// Probe opens path, reads container tags, and derives duration/bitrate.
// It never panics: malformed files degrade to a filename-stem title and
// zero-value duration/bitrate rather than returning an error. An error is
// only returned when the file cannot be stat'd at all.
func Probe(path string) (res Result, err error) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		return Result{}, fmt.Errorf("probe: stat %s: %w", path, statErr)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	res = Result{Title: stem, Artist: "Unknown", Album: "Unknown"}

	readTags(path, &res)

	if !res.HasDuration {
		if dur, ok := decodeDurationSeconds(path); ok {
			res.DurationSec = dur
			res.HasDuration = true
		}
	}

	if res.HasDuration && res.DurationSec > 0 {
		res.BitrateBPS = uint64(info.Size()) * 8 / res.DurationSec
		res.HasBitrate = true
	}

	return res, nil
}

func readTags(path string, res *Result) {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("probe: could not open %s for tag read: %v", path, err)
		return
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		log.Printf("probe: no readable tags in %s: %v", path, err)
		return
	}
	if t := m.Title(); t != "" {
		res.Title = t
	}
	if a := m.Artist(); a != "" {
		res.Artist = a
	}
	if al := m.Album(); al != "" {
		res.Album = al
	}
}

// decodeDurationSeconds decodes enough of the MP3 stream to compute its
// sample-accurate length. gopxl/beep's decoder can panic on severely
// malformed frame headers; recover converts that into a graceful "unknown".
func decodeDurationSeconds(path string) (seconds uint64, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("probe: recovered from decode panic on %s: %v", path, r)
			ok = false
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		log.Printf("probe: could not decode %s for duration: %v", path, err)
		return 0, false
	}
	defer streamer.Close()

	length := streamer.Len()
	if length <= 0 {
		return 0, false
	}
	dur := format.SampleRate.D(length)
	if dur <= 0 {
		return 0, false
	}
	return uint64(dur.Seconds()), true
}
