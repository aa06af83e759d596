package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Log      LogConfig      `toml:"log"`
	Database DatabaseConfig `toml:"database"`
	Remote   RemoteConfig   `toml:"remote"`
	Backup   BackupConfig   `toml:"backup"`
	Playback PlaybackConfig `toml:"playback"`
	Catalog  CatalogConfig  `toml:"catalog"`
}

// LogConfig controls logger verbosity.
type LogConfig struct {
	Level string `toml:"level"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// RemoteConfig points at the host serving the catalog, backup and authority endpoints.
type RemoteConfig struct {
	BaseURL           string      `toml:"base_url"`
	TimeoutSeconds    int         `toml:"timeout_seconds"`
	RequestsPerSecond float64     `toml:"requests_per_second"`
	Burst             int         `toml:"burst"`
	OAuth             OAuthConfig `toml:"oauth"`
}

// OAuthConfig configures an optional client-credentials token source.
type OAuthConfig struct {
	TokenURL     string   `toml:"token_url"`
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	Scopes       []string `toml:"scopes"`
}

// Enabled reports whether enough is configured to request tokens.
func (o OAuthConfig) Enabled() bool {
	return o.TokenURL != "" && o.ClientID != ""
}

// BackupConfig contains the automatic upload policy.
type BackupConfig struct {
	Auto          bool `toml:"auto"`
	DebounceMS    int  `toml:"debounce_ms"`
	PeriodSeconds int  `toml:"period_seconds"`
}

// PlaybackConfig contains sync loop and surface timings.
type PlaybackConfig struct {
	PollIntervalMS    int     `toml:"poll_interval_ms"`
	CrossfadeMS       int     `toml:"crossfade_ms"`
	PositionThreshold float64 `toml:"position_threshold"`
	Fade              bool    `toml:"fade"`
	FramePath         string  `toml:"frame_path"`
	PassiveRef        string  `toml:"passive_ref"`
	LyricsStyle       string  `toml:"lyrics_style"`
	DisableCovers     bool    `toml:"disable_covers"`
}

// CatalogConfig contains the offline catalog source.
type CatalogConfig struct {
	MusicDir string `toml:"music_dir"`
}

func (c RemoteConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c BackupConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

func (c BackupConfig) Period() time.Duration {
	return time.Duration(c.PeriodSeconds) * time.Second
}

func (c PlaybackConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// Crossfade returns the swap duration. Zero is reported as a negative duration, which swaps immediately.
func (c PlaybackConfig) Crossfade() time.Duration {
	if c.CrossfadeMS == 0 {
		return -1
	}
	return time.Duration(c.CrossfadeMS) * time.Millisecond
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys absent from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadConfigOrDefault loads path when it exists and falls back to defaults otherwise.
func LoadConfigOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Playback.PollIntervalMS <= 0:
		return fmt.Errorf("%w: playback.poll_interval_ms must be positive", ErrInvalidConfig)
	case c.Playback.CrossfadeMS < 0:
		return fmt.Errorf("%w: playback.crossfade_ms must not be negative", ErrInvalidConfig)
	case c.Playback.PositionThreshold < 0:
		return fmt.Errorf("%w: playback.position_threshold must not be negative", ErrInvalidConfig)
	case c.Backup.DebounceMS < 0 || c.Backup.PeriodSeconds < 0:
		return fmt.Errorf("%w: backup timings must not be negative", ErrInvalidConfig)
	case c.Remote.RequestsPerSecond < 0:
		return fmt.Errorf("%w: remote.requests_per_second must not be negative", ErrInvalidConfig)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
