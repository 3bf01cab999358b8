// Package config loads the server's runtime configuration.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every tunable named in the external interface table.
type Config struct {
	Host                   string
	Port                   int
	MusicDir               string
	MaxConcurrentListeners int
	ChunkSizeBytes         int
	Backlog                int
	WarmupChunks           int
	GapBetweenTracks       time.Duration

	// Supplemental, not in the minimal spec: optional GeoLite2 enrichment.
	GeoIPDBPath string
	GeoIPSalt   string
}

// Load reads defaults, an optional radio.yaml, a .env file, and
// RADIO_-prefixed environment variables, in that order of increasing
// priority, and returns the resolved Config.
func Load() (*Config, error) {
	// godotenv populates the process environment before viper reads it;
	// a missing .env file is not an error.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("RADIO")
	v.AutomaticEnv()

	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8000)
	v.SetDefault("music_dir", "./music")
	v.SetDefault("max_concurrent_listeners", 50)
	v.SetDefault("chunk_size_bytes", 16384)
	v.SetDefault("backlog", 128)
	v.SetDefault("warmup_chunks", 3)
	v.SetDefault("gap_between_tracks_ms", 500)
	v.SetDefault("geoip_db_path", "")
	v.SetDefault("geoip_salt", "webradio")

	v.SetConfigName("radio")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: reading radio.yaml: %w", err)
		}
	}

	cfg := &Config{
		Host:                   v.GetString("host"),
		Port:                   v.GetInt("port"),
		MusicDir:               v.GetString("music_dir"),
		MaxConcurrentListeners: v.GetInt("max_concurrent_listeners"),
		ChunkSizeBytes:         v.GetInt("chunk_size_bytes"),
		Backlog:                v.GetInt("backlog"),
		WarmupChunks:           v.GetInt("warmup_chunks"),
		GapBetweenTracks:       time.Duration(v.GetInt("gap_between_tracks_ms")) * time.Millisecond,
		GeoIPDBPath:            v.GetString("geoip_db_path"),
		GeoIPSalt:              v.GetString("geoip_salt"),
	}

	if cfg.ChunkSizeBytes <= 0 {
		return nil, fmt.Errorf("config: chunk_size_bytes must be positive")
	}
	if cfg.Backlog <= 0 {
		return nil, fmt.Errorf("config: backlog must be positive")
	}

	return cfg, nil
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
