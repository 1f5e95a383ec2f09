// Package config handles prismremesh configuration.
package config

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// Config holds all configuration.
type Config struct {
	Remesh  RemeshConfig  `yaml:"remesh"`
	Grid    GridConfig    `yaml:"grid"`
	Input   InputConfig   `yaml:"input"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// RemeshConfig holds remeshing settings.
type RemeshConfig struct {
	// DistortionBound is the largest distance allowed between the mid
	// surface and the reference surface.
	DistortionBound float64 `yaml:"distortion_bound"`
	// TargetEdgeLength is the uniform sizing field value.
	TargetEdgeLength    float64 `yaml:"target_edge_length"`
	SplitImproveQuality bool    `yaml:"split_improve_quality"`
	// Passes is how many times Schedule is run.
	Passes int `yaml:"passes"`
	// Schedule is a comma separated list of passes run each iteration.
	Schedule string `yaml:"schedule"`
}

// GridConfig holds broad phase settings.
type GridConfig struct {
	Enabled bool `yaml:"enabled"`
	// CellSize of zero picks the average mid layer edge length.
	CellSize float64 `yaml:"cell_size"`
}

// InputConfig names the STL files to read.
type InputConfig struct {
	Base      string `yaml:"base"`
	Mid       string `yaml:"mid"`
	Top       string `yaml:"top"`
	Reference string `yaml:"reference"`
	// VertexTolerance welds STL vertices closer than this. Zero infers it.
	VertexTolerance float64 `yaml:"vertex_tolerance"`
}

// OutputConfig holds output settings.
type OutputConfig struct {
	Dir     string `yaml:"dir"`
	Preview bool   `yaml:"preview"`
	Plot    bool   `yaml:"plot"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns configuration with default values.
func Default() *Config {
	return &Config{
		Remesh: RemeshConfig{
			DistortionBound:     1e-3,
			TargetEdgeLength:    1,
			SplitImproveQuality: false,
			Passes:              1,
			Schedule:            "split,flip",
		},
		Grid: GridConfig{
			Enabled: true,
		},
		Output: OutputConfig{
			Dir: "out",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// PassNames returns the schedule split into trimmed pass names.
func (c *Config) PassNames() []string {
	var names []string
	for _, s := range strings.Split(c.Remesh.Schedule, ",") {
		if s = strings.TrimSpace(s); s != "" {
			names = append(names, s)
		}
	}
	return names
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var err error
	if !(c.Remesh.DistortionBound > 0) {
		err = multierr.Append(err, fmt.Errorf("remesh.distortion_bound must be positive, got %g", c.Remesh.DistortionBound))
	}
	if !(c.Remesh.TargetEdgeLength > 0) {
		err = multierr.Append(err, fmt.Errorf("remesh.target_edge_length must be positive, got %g", c.Remesh.TargetEdgeLength))
	}
	if c.Remesh.Passes <= 0 {
		err = multierr.Append(err, fmt.Errorf("remesh.passes must be positive, got %d", c.Remesh.Passes))
	}
	names := c.PassNames()
	if len(names) == 0 {
		err = multierr.Append(err, errors.New("remesh.schedule is empty"))
	}
	for _, name := range names {
		if name != "split" && name != "flip" {
			err = multierr.Append(err, fmt.Errorf("remesh.schedule: unknown pass %q", name))
		}
	}
	if c.Grid.CellSize < 0 {
		err = multierr.Append(err, fmt.Errorf("grid.cell_size must not be negative, got %g", c.Grid.CellSize))
	}
	if c.Input.VertexTolerance < 0 {
		err = multierr.Append(err, fmt.Errorf("input.vertex_tolerance must not be negative, got %g", c.Input.VertexTolerance))
	}
	return err
}
