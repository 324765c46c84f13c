package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Progress  ProgressConfig  `toml:"progress"`
	Performer PerformerConfig `toml:"performer"`
	Dedupe    DedupeConfig    `toml:"dedupe"`
	Log       LogConfig       `toml:"log"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ProgressConfig selects the cursor store backend.
//
// Store is either "sqlite" (cursors live in the database) or "json" (a flat progress.json file).
type ProgressConfig struct {
	Store    string `toml:"store"`
	JSONPath string `toml:"json_path"`
	LockDir  string `toml:"lock_dir"`
}

// PerformerConfig describes the work unit invoked for every title.
type PerformerConfig struct {
	Kind      string   `toml:"kind"`
	Command   string   `toml:"command"`
	Args      []string `toml:"args"`
	Timeout   Duration `toml:"timeout"`
	Interval  Duration `toml:"interval"`
	Clipboard bool     `toml:"clipboard"`
}

// DedupeConfig contains deduplication defaults.
type DedupeConfig struct {
	Output          string `toml:"output"`
	SuggestDistance int    `toml:"suggest_distance"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Duration wraps [time.Duration] so it can be written as "1.5s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// LogLevel parses the configured level, falling back to [log.InfoLevel].
func (c LogConfig) LogLevel() log.Level {
	if c.Level == "" {
		return log.InfoLevel
	}
	lvl, err := log.ParseLevel(c.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.Progress.Store {
	case "sqlite", "json":
	default:
		return fmt.Errorf("%w: progress.store must be sqlite or json, got %q", ErrInvalidConfig, c.Progress.Store)
	}
	switch c.Performer.Kind {
	case "command":
		if c.Performer.Command == "" {
			return fmt.Errorf("%w: performer.command is required when kind is command", ErrInvalidConfig)
		}
	case "clipboard", "dryrun":
	default:
		return fmt.Errorf("%w: performer.kind must be command, clipboard or dryrun, got %q", ErrInvalidConfig, c.Performer.Kind)
	}
	if c.Dedupe.SuggestDistance < 0 {
		return fmt.Errorf("%w: dedupe.suggest_distance must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
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
		return fmt.Errorf("%w: config file already exists at %s", ErrInvalidArgument, path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
