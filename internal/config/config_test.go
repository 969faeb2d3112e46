package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cmdbuf.toml")
	content := `
[buffer]
initial_capacity = 512
max_capacity = 4096

[editor]
tab_width = 4

[history]
max_undo_sequences = 50
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Buffer.InitialCapacity != 512 || cfg.Buffer.MaxCapacity != 4096 {
		t.Errorf("buffer = %+v", cfg.Buffer)
	}
	if cfg.Editor.TabWidth != 4 {
		t.Errorf("tab width = %d, want 4", cfg.Editor.TabWidth)
	}
	// Unset fields keep their defaults.
	if cfg.Editor.WrapWidth != 0 {
		t.Errorf("wrap width = %d, want default 0", cfg.Editor.WrapWidth)
	}
	if cfg.History.MaxUndoSequences != 50 {
		t.Errorf("max undo sequences = %d, want 50", cfg.History.MaxUndoSequences)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cmdbuf.yaml")
	content := `
buffer:
  max_capacity: 8192
editor:
  tab_width: 2
  wrap_width: 80
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Buffer.MaxCapacity != 8192 {
		t.Errorf("max capacity = %d, want 8192", cfg.Buffer.MaxCapacity)
	}
	if cfg.Buffer.InitialCapacity != Default().Buffer.InitialCapacity {
		t.Errorf("initial capacity = %d, want default", cfg.Buffer.InitialCapacity)
	}
	if cfg.Editor.TabWidth != 2 || cfg.Editor.WrapWidth != 80 {
		t.Errorf("editor = %+v", cfg.Editor)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("config = %+v, want defaults", cfg)
	}
}

func TestLoadMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[buffer\ninitial_capacity = "), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Load = %v, want ParseError", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cmdbuf.toml")
	if err := os.WriteFile(path, []byte("[editor]\ntab_width = 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("LUSUSH_TAB_WIDTH", "2")
	t.Setenv("LUSUSH_MAX_UNDO_SEQUENCES", "10")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Editor.TabWidth != 2 {
		t.Errorf("tab width = %d, want env override 2", cfg.Editor.TabWidth)
	}
	if cfg.History.MaxUndoSequences != 10 {
		t.Errorf("max undo sequences = %d, want 10", cfg.History.MaxUndoSequences)
	}
}

func TestEnvInvalidValue(t *testing.T) {
	t.Setenv("LUSUSH_TAB_WIDTH", "wide")
	if _, err := Load(""); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Load = %v, want ErrInvalidValue", err)
	}
}

func TestValidateRanges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero initial capacity", func(c *Config) { c.Buffer.InitialCapacity = 0 }},
		{"max below initial", func(c *Config) { c.Buffer.MaxCapacity = c.Buffer.InitialCapacity - 1 }},
		{"zero tab width", func(c *Config) { c.Editor.TabWidth = 0 }},
		{"negative wrap width", func(c *Config) { c.Editor.WrapWidth = -1 }},
		{"zero undo sequences", func(c *Config) { c.History.MaxUndoSequences = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidValue) {
				t.Errorf("Validate = %v, want ErrInvalidValue", err)
			}
		})
	}
}

func TestWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cmdbuf.toml")
	if err := os.WriteFile(path, []byte("[editor]\ntab_width = 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := make(chan Config, 1)
	w, err := Watch(path, func(cfg Config, err error) {
		if err != nil {
			t.Errorf("reload error: %v", err)
			return
		}
		select {
		case got <- cfg:
		default:
		}
	}, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("[editor]\ntab_width = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-got:
		if cfg.Editor.TabWidth != 2 {
			t.Errorf("reloaded tab width = %d, want 2", cfg.Editor.TabWidth)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcherCloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cmdbuf.toml")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := Watch(path, func(Config, error) {})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
