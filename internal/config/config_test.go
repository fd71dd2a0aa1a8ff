package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if s != Default() {
		t.Fatalf("got %+v, want defaults", s)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
quality = 75
effort = 9
recursive = true
output_dir = ""
debug_log = true
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Quality != 75 || s.Effort != 9 || !s.Recursive || !s.DebugLog {
		t.Fatalf("values not applied: %+v", s)
	}
	if s.OutputDir != "" {
		t.Fatalf("explicit empty output_dir must mean same-as-source, got %q", s.OutputDir)
	}
	if s.LogFile != Default().LogFile {
		t.Fatalf("unset keys must keep defaults, got %q", s.LogFile)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("quality = 250\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("out-of-range quality must fail")
	}

	if err := os.WriteFile(path, []byte("effort = [1,2]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("malformed TOML must fail")
	}
}

func TestValidateRanges(t *testing.T) {
	s := Default()
	if err := s.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	s.Effort = 0
	if err := s.Validate(); err == nil {
		t.Fatal("effort 0 must fail")
	}
	s = Default()
	s.Quality = 101
	if err := s.Validate(); err == nil {
		t.Fatal("quality 101 must fail")
	}
}
