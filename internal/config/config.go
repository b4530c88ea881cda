// Package config reads the srpa defaults file. The file is ini-formatted:
//
//	[analysis]
//	mode=bounded
//	ceiling=strict
//	releases=floor+1
//	workers=4
//
//	[explain]
//	model=claude-sonnet-4-5
//
// Command-line flags take precedence over anything set here.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ini "github.com/lars-t-hansen/ini"

	"github.com/joshharrison/srpa/internal/analysis"
)

// FileName is the defaults file looked up in $HOME.
const FileName = ".srparc"

// Config holds analysis defaults as strings so that flag values can be
// merged over them before parsing.
type Config struct {
	Mode     string
	Ceiling  string
	Releases string
	Workers  int
	Model    string

	// Path is the file the values were read from, empty when none was found.
	Path string
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Mode:     analysis.ModeExact.String(),
		Ceiling:  analysis.CeilingInclusive.String(),
		Releases: analysis.ReleasesCeil.String(),
		Workers:  1,
	}
}

type fields struct {
	parser   *ini.Parser
	mode     *ini.Field
	ceiling  *ini.Field
	releases *ini.Field
	workers  *ini.Field
	model    *ini.Field
}

func newFields() *fields {
	p := ini.NewParser()
	a := p.AddSection("analysis")
	e := p.AddSection("explain")
	return &fields{
		parser:   p,
		mode:     a.AddString("mode"),
		ceiling:  a.AddString("ceiling"),
		releases: a.AddString("releases"),
		workers:  a.AddString("workers"),
		model:    e.AddString("model"),
	}
}

// DefaultPath returns $HOME/.srparc, or "" when HOME is unset.
func DefaultPath() string {
	home := os.Getenv("HOME")
	if home == "" {
		return ""
	}
	return filepath.Join(filepath.Clean(home), FileName)
}

// Load reads the defaults file at path, or at DefaultPath when path is
// empty. A missing default file is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
		if path == "" {
			return cfg, nil
		}
	}

	input, err := os.Open(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer input.Close()

	f := newFields()
	store, err := f.parser.Parse(input)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	apply := func(dst *string, field *ini.Field) {
		if field.Present(store) {
			*dst = strings.TrimSpace(os.ExpandEnv(field.StringVal(store)))
		}
	}
	apply(&cfg.Mode, f.mode)
	apply(&cfg.Ceiling, f.ceiling)
	apply(&cfg.Releases, f.releases)
	apply(&cfg.Model, f.model)

	if f.workers.Present(store) {
		n, err := strconv.Atoi(strings.TrimSpace(f.workers.StringVal(store)))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("config %s: workers must be a positive integer, got %q", path, f.workers.StringVal(store))
		}
		cfg.Workers = n
	}

	cfg.Path = path
	return cfg, nil
}

// Options parses the analysis settings.
func (c *Config) Options() (analysis.Options, error) {
	var opts analysis.Options
	var err error
	if opts.Mode, err = analysis.ParseMode(c.Mode); err != nil {
		return opts, err
	}
	if opts.Ceiling, err = analysis.ParseComparison(c.Ceiling); err != nil {
		return opts, err
	}
	if opts.Releases, err = analysis.ParseReleaseCount(c.Releases); err != nil {
		return opts, err
	}
	if c.Workers < 1 {
		return opts, fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	opts.Workers = c.Workers
	return opts, nil
}
