// Package config holds the settings shared by the upfit command and the
// upfitd service. Values come from the environment and may be overridden by
// command-line flags.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/chazu/upfit/internal/logging"
	"github.com/chazu/upfit/pkg/catalog"
	"github.com/chazu/upfit/pkg/evaluate"
	"github.com/chazu/upfit/pkg/kernel/sdfx"
)

// Config is the runtime configuration.
type Config struct {
	// CatalogDir is layered over the embedded catalog when set.
	CatalogDir string `env:"UPFIT_CATALOG_DIR"`
	HTTPAddr   string `env:"UPFIT_HTTP_ADDR" envDefault:":8080"`
	// WalkwayMM overrides every project's walkway width when positive.
	WalkwayMM     float64       `env:"UPFIT_WALKWAY_MM"`
	MeshCells     int           `env:"UPFIT_MESH_CELLS"`
	ScriptTimeout time.Duration `env:"UPFIT_SCRIPT_TIMEOUT" envDefault:"5s"`
	// Trace exports spans to stdout.
	Trace     bool   `env:"UPFIT_TRACE"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load parses the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// RegisterFlags binds flags for the shared settings, using the current values
// as defaults so that flags take precedence over the environment.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.CatalogDir, "catalog", c.CatalogDir, "catalog directory layered over the built-in catalog")
	fs.Float64Var(&c.WalkwayMM, "walkway", c.WalkwayMM, "walkway width override in mm (0 uses project settings)")
	fs.IntVar(&c.MeshCells, "mesh-cells", c.MeshCells, "marching cubes resolution for STL previews (0 uses the default)")
	fs.DurationVar(&c.ScriptTimeout, "script-timeout", c.ScriptTimeout, "layout script evaluation timeout")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn or error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log format: text or json")
}

// Logger builds the logger the configuration describes.
func (c Config) Logger() logging.Logger {
	return logging.New(logging.Config{Level: c.LogLevel, Format: c.LogFormat})
}

// Catalog returns the embedded catalog, with CatalogDir layered on top when
// it is set.
func (c Config) Catalog() (*catalog.Catalog, error) {
	base, err := catalog.Default()
	if err != nil {
		return nil, err
	}
	if c.CatalogDir == "" {
		return base, nil
	}
	dir, err := catalog.LoadDir(c.CatalogDir)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", c.CatalogDir, err)
	}
	return base.Overlay(dir), nil
}

// EvaluateOptions translates the settings into evaluation options.
func (c Config) EvaluateOptions() []evaluate.Option {
	opts := []evaluate.Option{evaluate.WithKernel(sdfx.New(sdfx.WithMeshCells(c.MeshCells)))}
	if c.WalkwayMM > 0 {
		opts = append(opts, evaluate.WithWalkwayOverride(c.WalkwayMM))
	}
	return opts
}
