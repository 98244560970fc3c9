package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetConfigPaths(t *testing.T) {
	paths := getConfigPaths()

	// Should have at least one path
	if len(paths) == 0 {
		t.Error("getConfigPaths() returned empty slice")
	}

	// Last path should be local config.toml
	lastPath := paths[len(paths)-1]
	if lastPath != "config.toml" {
		t.Errorf("last config path = %q, want %q", lastPath, "config.toml")
	}
}

func TestHasServerConfig(t *testing.T) {
	tests := []struct {
		name     string
		server   ServerConfig
		expected bool
	}{
		{
			name:     "fully configured",
			server:   ServerConfig{URL: "http://localhost:8096", Token: "tok", UserID: "u1"},
			expected: true,
		},
		{
			name:     "missing token",
			server:   ServerConfig{URL: "http://localhost:8096", UserID: "u1"},
			expected: false,
		},
		{
			name:     "missing url",
			server:   ServerConfig{Token: "tok", UserID: "u1"},
			expected: false,
		},
		{
			name:     "missing user id",
			server:   ServerConfig{URL: "http://localhost:8096", Token: "tok"},
			expected: false,
		},
		{
			name:     "empty",
			server:   ServerConfig{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Server: tt.server}
			if got := cfg.HasServerConfig(); got != tt.expected {
				t.Errorf("HasServerConfig() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestHasLastfmConfig(t *testing.T) {
	tests := []struct {
		name     string
		lastfm   LastfmConfig
		expected bool
	}{
		{
			name:     "both configured",
			lastfm:   LastfmConfig{APIKey: "key", APISecret: "secret"},
			expected: true,
		},
		{
			name:     "missing secret",
			lastfm:   LastfmConfig{APIKey: "key"},
			expected: false,
		},
		{
			name:     "empty",
			lastfm:   LastfmConfig{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Lastfm: tt.lastfm}
			if got := cfg.HasLastfmConfig(); got != tt.expected {
				t.Errorf("HasLastfmConfig() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPlaybackDefaults(t *testing.T) {
	cfg := &Config{}

	if got := cfg.HeartbeatInterval(); got != 10*time.Second {
		t.Errorf("HeartbeatInterval() = %v, want 10s", got)
	}
	if got := cfg.NegotiationTimeout(); got != 30*time.Second {
		t.Errorf("NegotiationTimeout() = %v, want 30s", got)
	}
	if got := cfg.UpNextThreshold(); got != 30*time.Second {
		t.Errorf("UpNextThreshold() = %v, want 30s", got)
	}
}

func TestPlaybackCustomValues(t *testing.T) {
	cfg := &Config{Playback: PlaybackConfig{
		HeartbeatIntervalS:  5,
		NegotiationTimeoutS: 60,
		UpNextThresholdS:    45,
	}}

	if got := cfg.HeartbeatInterval(); got != 5*time.Second {
		t.Errorf("HeartbeatInterval() = %v, want 5s", got)
	}
	if got := cfg.NegotiationTimeout(); got != 60*time.Second {
		t.Errorf("NegotiationTimeout() = %v, want 60s", got)
	}
	if got := cfg.UpNextThreshold(); got != 45*time.Second {
		t.Errorf("UpNextThreshold() = %v, want 45s", got)
	}
}

func TestPlaybackInvalidValues(t *testing.T) {
	cfg := &Config{Playback: PlaybackConfig{
		HeartbeatIntervalS:  -1,
		NegotiationTimeoutS: -5,
		UpNextThresholdS:    0,
	}}

	if got := cfg.HeartbeatInterval(); got != 10*time.Second {
		t.Errorf("HeartbeatInterval() = %v, want default on invalid", got)
	}
	if got := cfg.NegotiationTimeout(); got != 30*time.Second {
		t.Errorf("NegotiationTimeout() = %v, want default on invalid", got)
	}
	if got := cfg.UpNextThreshold(); got != 30*time.Second {
		t.Errorf("UpNextThreshold() = %v, want default on invalid", got)
	}
}

func TestLoad_EmptyConfig(t *testing.T) {
	tmpDir := t.TempDir()

	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	defer func() {
		_ = os.Chdir(originalWd)
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with no config file: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want default info", cfg.LogLevel)
	}
	if cfg.HasServerConfig() {
		t.Error("HasServerConfig() = true with no config")
	}
}

func TestLoad_BasicConfig(t *testing.T) {
	tmpDir := t.TempDir()

	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	defer func() {
		_ = os.Chdir(originalWd)
	}()

	content := `log_level = "debug"

[server]
url = "http://localhost:8096/"
token = "abc123"
user_id = "u1"
device_name = "living-room"

[playback]
heartbeat_interval_s = 15
loop = true

[lastfm]
api_key = "lfmkey"
api_secret = "lfmsecret"
`
	if err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}

	// Trailing slash is stripped
	if cfg.Server.URL != "http://localhost:8096" {
		t.Errorf("Server.URL = %q", cfg.Server.URL)
	}
	if cfg.Server.Token != "abc123" || cfg.Server.UserID != "u1" {
		t.Errorf("server auth = %q/%q", cfg.Server.Token, cfg.Server.UserID)
	}
	if cfg.Server.DeviceName != "living-room" {
		t.Errorf("DeviceName = %q", cfg.Server.DeviceName)
	}
	if cfg.HeartbeatInterval() != 15*time.Second {
		t.Errorf("HeartbeatInterval() = %v, want 15s", cfg.HeartbeatInterval())
	}
	if !cfg.Playback.Loop {
		t.Error("Playback.Loop = false, want true")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if !cfg.HasLastfmConfig() {
		t.Error("HasLastfmConfig() = false")
	}
}

func TestLoad_InvalidToml(t *testing.T) {
	tmpDir := t.TempDir()

	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	defer func() {
		_ = os.Chdir(originalWd)
	}()

	if err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("not [valid toml"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(); err == nil {
		t.Error("Load() with invalid toml succeeded, want error")
	}
}
