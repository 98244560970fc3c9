package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	// Jellyfin server connection
	Server ServerConfig `koanf:"server"`

	// Playback engine tuning
	Playback PlaybackConfig `koanf:"playback"`

	// Last.fm scrobbling (enables scrobbling when configured)
	Lastfm LastfmConfig `koanf:"lastfm"`

	// Log level: "debug", "info", "warn", "error" (default: "info")
	LogLevel string `koanf:"log_level"`

	// Icon style: "nerd", "unicode" or "none" (default: "none")
	Icons string `koanf:"icons"`
}

// ServerConfig holds the Jellyfin server connection settings.
type ServerConfig struct {
	URL        string `koanf:"url"`         // e.g., "http://localhost:8096"
	Token      string `koanf:"token"`       // API token from the server dashboard
	UserID     string `koanf:"user_id"`     // Jellyfin user id
	DeviceName string `koanf:"device_name"` // shown in the server's device list
}

// PlaybackConfig holds playback engine tuning knobs.
type PlaybackConfig struct {
	HeartbeatIntervalS   int  `koanf:"heartbeat_interval_s"`   // progress report cadence (default: 10)
	NegotiationTimeoutS  int  `koanf:"negotiation_timeout_s"`  // per-negotiation deadline (default: 30)
	UpNextThresholdS     int  `koanf:"upnext_threshold_s"`     // up-next card lead time without outro data (default: 30)
	Loop                 bool `koanf:"loop"`                   // wrap the queue at its end
}

// LastfmConfig holds Last.fm scrobbling configuration.
type LastfmConfig struct {
	APIKey    string `koanf:"api_key"`
	APISecret string `koanf:"api_secret"`
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	configPaths := getConfigPaths()

	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	// Normalize server URL (remove trailing slash)
	cfg.Server.URL = strings.TrimSuffix(cfg.Server.URL, "/")

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/cadenza/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "cadenza", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

// HasServerConfig returns true if the Jellyfin connection is configured.
func (c *Config) HasServerConfig() bool {
	return c.Server.URL != "" && c.Server.Token != "" && c.Server.UserID != ""
}

// HasLastfmConfig returns true if Last.fm scrobbling is configured.
func (c *Config) HasLastfmConfig() bool {
	return c.Lastfm.APIKey != "" && c.Lastfm.APISecret != ""
}

// HeartbeatInterval returns the progress report cadence with the default
// applied.
func (c *Config) HeartbeatInterval() time.Duration {
	if c.Playback.HeartbeatIntervalS <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Playback.HeartbeatIntervalS) * time.Second
}

// NegotiationTimeout returns the per-negotiation deadline with the
// default applied.
func (c *Config) NegotiationTimeout() time.Duration {
	if c.Playback.NegotiationTimeoutS <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Playback.NegotiationTimeoutS) * time.Second
}

// UpNextThreshold returns the up-next lead time with the default applied.
func (c *Config) UpNextThreshold() time.Duration {
	if c.Playback.UpNextThresholdS <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Playback.UpNextThresholdS) * time.Second
}
