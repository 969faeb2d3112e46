package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds the tunable settings of the command-buffer engine.
type Config struct {
	Buffer  BufferConfig  `toml:"buffer" yaml:"buffer"`
	Editor  EditorConfig  `toml:"editor" yaml:"editor"`
	History HistoryConfig `toml:"history" yaml:"history"`
}

// BufferConfig controls buffer sizing.
type BufferConfig struct {
	// InitialCapacity is the byte capacity a fresh buffer starts with.
	InitialCapacity int64 `toml:"initial_capacity" yaml:"initial_capacity"`

	// MaxCapacity is the hard ceiling on buffer growth in bytes.
	MaxCapacity int64 `toml:"max_capacity" yaml:"max_capacity"`
}

// EditorConfig controls cursor and display geometry.
type EditorConfig struct {
	// TabWidth is the tab stop interval in terminal cells.
	TabWidth int `toml:"tab_width" yaml:"tab_width"`

	// WrapWidth is the soft-wrap column; 0 disables wrapping.
	WrapWidth int `toml:"wrap_width" yaml:"wrap_width"`
}

// HistoryConfig controls the undo system.
type HistoryConfig struct {
	// MaxUndoSequences bounds the undo log; the oldest units are dropped
	// past the limit.
	MaxUndoSequences int `toml:"max_undo_sequences" yaml:"max_undo_sequences"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Buffer: BufferConfig{
			InitialCapacity: 256,
			MaxCapacity:     1 << 20,
		},
		Editor: EditorConfig{
			TabWidth:  8,
			WrapWidth: 0,
		},
		History: HistoryConfig{
			MaxUndoSequences: 1000,
		},
	}
}

// Load resolves the configuration: defaults, then the file at path when it
// exists, then LUSUSH_* environment overrides. An empty path skips the file
// layer.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and cross-field constraints.
func (c Config) Validate() error {
	if c.Buffer.InitialCapacity <= 0 {
		return fmt.Errorf("buffer.initial_capacity must be positive, got %d: %w",
			c.Buffer.InitialCapacity, ErrInvalidValue)
	}
	if c.Buffer.MaxCapacity < c.Buffer.InitialCapacity {
		return fmt.Errorf("buffer.max_capacity %d below initial_capacity %d: %w",
			c.Buffer.MaxCapacity, c.Buffer.InitialCapacity, ErrInvalidValue)
	}
	if c.Editor.TabWidth <= 0 {
		return fmt.Errorf("editor.tab_width must be positive, got %d: %w",
			c.Editor.TabWidth, ErrInvalidValue)
	}
	if c.Editor.WrapWidth < 0 {
		return fmt.Errorf("editor.wrap_width must not be negative, got %d: %w",
			c.Editor.WrapWidth, ErrInvalidValue)
	}
	if c.History.MaxUndoSequences < 1 {
		return fmt.Errorf("history.max_undo_sequences must be at least 1, got %d: %w",
			c.History.MaxUndoSequences, ErrInvalidValue)
	}
	return nil
}

// loadFile merges the file at path into cfg. The format follows the file
// extension; TOML is the default.
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return &ParseError{Path: path, Err: err}
		}
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return &ParseError{Path: path, Err: err}
		}
	}
	return nil
}

// envMapping pairs each override variable with its setter.
var envMapping = map[string]func(*Config, string) error{
	"LUSUSH_BUFFER_INITIAL_CAPACITY": func(c *Config, v string) error {
		return setInt64(&c.Buffer.InitialCapacity, v)
	},
	"LUSUSH_BUFFER_MAX_CAPACITY": func(c *Config, v string) error {
		return setInt64(&c.Buffer.MaxCapacity, v)
	},
	"LUSUSH_TAB_WIDTH": func(c *Config, v string) error {
		return setInt(&c.Editor.TabWidth, v)
	},
	"LUSUSH_WRAP_WIDTH": func(c *Config, v string) error {
		return setInt(&c.Editor.WrapWidth, v)
	},
	"LUSUSH_MAX_UNDO_SEQUENCES": func(c *Config, v string) error {
		return setInt(&c.History.MaxUndoSequences, v)
	},
}

// applyEnv overlays LUSUSH_* environment variables onto cfg.
func applyEnv(cfg *Config) error {
	for name, set := range envMapping {
		val, ok := os.LookupEnv(name)
		if !ok || val == "" {
			continue
		}
		if err := set(cfg, val); err != nil {
			return fmt.Errorf("environment variable %s=%q: %w", name, val, err)
		}
	}
	return nil
}

func setInt64(dst *int64, v string) error {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return ErrInvalidValue
	}
	*dst = n
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return ErrInvalidValue
	}
	*dst = n
	return nil
}
