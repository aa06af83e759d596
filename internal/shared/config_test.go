package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./lyricsphere.db" {
			t.Errorf("expected database path ./lyricsphere.db, got %s", config.Database.Path)
		}

		if config.Playback.PollInterval() != time.Second {
			t.Errorf("expected 1s poll interval, got %v", config.Playback.PollInterval())
		}

		if config.Playback.Crossfade() != 320*time.Millisecond {
			t.Errorf("expected 320ms crossfade, got %v", config.Playback.Crossfade())
		}

		if config.Playback.PositionThreshold != 0.2 {
			t.Errorf("expected 0.2 position threshold, got %v", config.Playback.PositionThreshold)
		}

		if config.Backup.Debounce() != 2*time.Second || config.Backup.Period() != 300*time.Second {
			t.Errorf("unexpected backup timings: %v / %v", config.Backup.Debounce(), config.Backup.Period())
		}

		if config.Remote.OAuth.Enabled() {
			t.Error("oauth should be disabled by default")
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[remote]
base_url = "http://music.local:9000"

[remote.oauth]
token_url = "http://auth.local/token"
client_id = "sphere"
scopes = ["backup"]

[playback]
crossfade_ms = 0
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}
		if config.Remote.BaseURL != "http://music.local:9000" {
			t.Errorf("expected custom base url, got %s", config.Remote.BaseURL)
		}
		if !config.Remote.OAuth.Enabled() || len(config.Remote.OAuth.Scopes) != 1 {
			t.Errorf("expected oauth to be configured, got %+v", config.Remote.OAuth)
		}
		if config.Playback.CrossfadeMS != 0 {
			t.Errorf("expected crossfade override 0, got %d", config.Playback.CrossfadeMS)
		}
		if config.Playback.Crossfade() >= 0 {
			t.Errorf("expected zero crossfade to mean an immediate swap, got %v", config.Playback.Crossfade())
		}
		if config.Playback.PollIntervalMS != 1000 {
			t.Errorf("expected unset keys to keep defaults, got poll interval %d", config.Playback.PollIntervalMS)
		}
	})

	t.Run("LoadConfig Invalid", func(t *testing.T) {
		tmpDir := t.TempDir()

		badSyntax := filepath.Join(tmpDir, "bad.toml")
		os.WriteFile(badSyntax, []byte("[database\npath = "), 0644)
		if _, err := LoadConfig(badSyntax); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig for bad syntax, got %v", err)
		}

		badValue := filepath.Join(tmpDir, "value.toml")
		os.WriteFile(badValue, []byte("[playback]\npoll_interval_ms = 0\n"), 0644)
		if _, err := LoadConfig(badValue); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig for zero poll interval, got %v", err)
		}

		if _, err := LoadConfig(filepath.Join(tmpDir, "missing.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("LoadConfigOrDefault", func(t *testing.T) {
		config, err := LoadConfigOrDefault(filepath.Join(t.TempDir(), "absent.toml"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.Database.Path != DefaultConfig().Database.Path {
			t.Error("expected defaults when the file is absent")
		}
	})
}
