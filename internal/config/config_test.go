package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joshharrison/srpa/internal/analysis"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Values(t *testing.T) {
	path := writeConfig(t, "[analysis]\nmode=bounded\nceiling=strict\nreleases=floor+1\nworkers=4\n\n[explain]\nmodel=claude-test\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mode != "bounded" || cfg.Ceiling != "strict" || cfg.Releases != "floor+1" {
		t.Errorf("unexpected analysis settings: %+v", cfg)
	}
	if cfg.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Workers)
	}
	if cfg.Model != "claude-test" {
		t.Errorf("expected model claude-test, got %q", cfg.Model)
	}
	if cfg.Path != path {
		t.Errorf("expected path %s, got %s", path, cfg.Path)
	}

	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	if opts.Mode != analysis.ModeBounded || opts.Ceiling != analysis.CeilingStrict ||
		opts.Releases != analysis.ReleasesFloorPlusOne || opts.Workers != 4 {
		t.Errorf("unexpected options: %+v", opts)
	}
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "[analysis]\nceiling=strict\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mode != "exact" || cfg.Releases != "ceil" || cfg.Workers != 1 {
		t.Errorf("expected defaults for unset keys, got %+v", cfg)
	}
	if cfg.Ceiling != "strict" {
		t.Errorf("expected ceiling strict, got %q", cfg.Ceiling)
	}
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected missing default file to be ignored, got %v", err)
	}
	if cfg.Path != "" {
		t.Errorf("expected no path, got %s", cfg.Path)
	}
	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	if opts.Mode != analysis.ModeExact || opts.Ceiling != analysis.CeilingInclusive || opts.Releases != analysis.ReleasesCeil {
		t.Errorf("unexpected default options: %+v", opts)
	}
}

func TestLoad_DefaultFileFromHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if err := os.WriteFile(filepath.Join(home, FileName), []byte("[analysis]\nmode=bounded\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mode != "bounded" {
		t.Errorf("expected mode from $HOME/%s, got %q", FileName, cfg.Mode)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent"))
	if err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestLoad_BadWorkers(t *testing.T) {
	path := writeConfig(t, "[analysis]\nworkers=many\n")

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "workers must be a positive integer") {
		t.Errorf("expected workers error, got %v", err)
	}
}

func TestOptions_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"mode", Config{Mode: "fast", Workers: 1}},
		{"ceiling", Config{Ceiling: "loose", Workers: 1}},
		{"releases", Config{Releases: "round", Workers: 1}},
		{"workers", Config{Workers: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.cfg.Options(); err == nil {
				t.Errorf("expected error for invalid %s", tt.name)
			}
		})
	}
}
