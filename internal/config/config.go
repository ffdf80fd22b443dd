// Package config holds georeferencing settings layered from defaults, an
// optional YAML file and GEOREF_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"floorplan-georef/internal/drawing"
	"floorplan-georef/internal/georef"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides, e.g. GEOREF_INVERT_Y.
const EnvPrefix = "GEOREF_"

// Config wraps a koanf instance with typed accessors.
type Config struct {
	k *koanf.Koanf
}

// New returns a Config holding the defaults.
func New() *Config {
	c := &Config{k: koanf.New(".")}
	setDefaults(c.k)
	return c
}

func setDefaults(k *koanf.Koanf) {
	k.Set("flatten_tolerance", drawing.DefaultFlattenTolerance)
	k.Set("invert_y", true)
	k.Set("model", "auto")
	k.Set("marker_fill", drawing.DefaultMarkerFill)
	k.Set("collinearity_tolerance", georef.DefaultCollinearityTolerance)
	k.Set("output", "output.geojson")
}

// Load merges a YAML file over the current values.
func (c *Config) Load(filename string) error {
	if err := c.k.Load(file.Provider(filename), yaml.Parser()); err != nil {
		return fmt.Errorf("loading config %s: %w", filename, err)
	}
	return nil
}

// LoadEnv merges GEOREF_* variables, GEOREF_FLATTEN_TOLERANCE becoming
// flatten_tolerance.
func (c *Config) LoadEnv() error {
	return c.k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		slog.Debug("env override", "key", key)
		return key
	}), nil)
}

// Set overrides a single key.
func (c *Config) Set(key string, v any) error {
	return c.k.Set(key, v)
}

func (c *Config) FlattenTolerance() float64 {
	return c.k.Float64("flatten_tolerance")
}

func (c *Config) InvertY() bool {
	return c.k.Bool("invert_y")
}

func (c *Config) MarkerFill() string {
	return c.k.String("marker_fill")
}

func (c *Config) CollinearityTolerance() float64 {
	return c.k.Float64("collinearity_tolerance")
}

func (c *Config) Output() string {
	return c.k.String("output")
}

// Model parses the configured transform model.
func (c *Config) Model() (georef.Model, error) {
	return georef.ParseModel(c.k.String("model"))
}

// DrawingOptions returns the extraction settings.
func (c *Config) DrawingOptions() drawing.Options {
	return drawing.Options{
		FlattenTolerance: c.FlattenTolerance(),
		InvertY:          c.InvertY(),
	}
}

// EstimateOptions returns the fitting settings.
func (c *Config) EstimateOptions() (georef.EstimateOptions, error) {
	m, err := c.Model()
	if err != nil {
		return georef.EstimateOptions{}, err
	}
	return georef.EstimateOptions{
		Model:                 m,
		CollinearityTolerance: c.CollinearityTolerance(),
	}, nil
}
