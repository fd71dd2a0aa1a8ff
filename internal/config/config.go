// Package config holds the encode settings surface. Defaults can come from
// an optional TOML file; command-line flags override it. Runtime toggle
// changes are never written back.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Settings is the configuration surface the converter reads at batch-build
// time.
type Settings struct {
	Quality         int    `toml:"quality"`
	Effort          int    `toml:"effort"`
	Recursive       bool   `toml:"recursive"`
	DeleteOriginals bool   `toml:"delete_originals"`
	OutputDir       string `toml:"output_dir"` // empty means "same as source"
	DebugLog        bool   `toml:"debug_log"`
	LogFile         string `toml:"log_file"`
}

// Default returns the settings used when no config file is present,
// matching the converter's built-in defaults.
func Default() Settings {
	return Settings{
		Quality:   90,
		Effort:    7,
		OutputDir: "converted",
		LogFile:   "mkjxl_debug.txt",
	}
}

// DefaultPath returns the conventional config file location, or "" if the
// user config directory cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "mkjxl", "config.toml")
}

// Load reads settings from path on top of the defaults. A missing file is
// not an error; a malformed one is.
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("config %s: %w", path, err)
	}
	return s, nil
}

// Validate checks the encode parameter ranges.
func (s Settings) Validate() error {
	if s.Quality < 1 || s.Quality > 100 {
		return fmt.Errorf("quality must be between 1 and 100, got %d", s.Quality)
	}
	if s.Effort < 1 || s.Effort > 9 {
		return fmt.Errorf("effort must be between 1 and 9, got %d", s.Effort)
	}
	return nil
}
