// Package config loads and validates the YAML parameter bundle a run is
// invoked with, in the reference corpus's Config-struct-with-yaml-tags
// shape. Malformed or out-of-order input is rejected by Validate before
// the driver opens a single frame, satisfying the entry point's
// fail-before-frame-0 contract.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"diesel.com/diffuse/fluid"
)

// Config is the entry-point parameter bundle for one run.
type Config struct {
	DataPath          string `yaml:"data_path"`
	FilePrefix        string `yaml:"file_prefix"`
	OutputPath        string `yaml:"output_path"`
	OutputPrefix      string `yaml:"output_prefix"`
	ExclusionZoneFile string `yaml:"exclusion_zone_file"`

	NStart int `yaml:"nstart"`
	NEnd   int `yaml:"nend"`
	NZeros int `yaml:"nzeros"`

	// Seed overrides the engine's pass-6 random source for reproducible
	// runs. Zero means draw from a nondeterministic entropy source.
	Seed int64 `yaml:"seed"`

	Output    OutputConfig     `yaml:"output"`
	Params    ParamsConfig     `yaml:"params"`
	Timesteps []TimestepConfig `yaml:"timesteps"`
}

// OutputConfig holds the four output-format switches.
type OutputConfig struct {
	TextFiles      bool `yaml:"text_files"`
	VTKFiles       bool `yaml:"vtk_files"`
	VTKDiffuseData bool `yaml:"vtk_diffuse_data"`
	VTKFluidData   bool `yaml:"vtk_fluid_data"`
}

// ParamsConfig is the numerical parameter bundle, yaml-tagged 1:1 with
// fluid.Params.
type ParamsConfig struct {
	H    float64 `yaml:"h"`
	Mass float64 `yaml:"mass"`

	MinX float64 `yaml:"minx"`
	MaxX float64 `yaml:"maxx"`
	MinY float64 `yaml:"miny"`
	MaxY float64 `yaml:"maxy"`
	MinZ float64 `yaml:"minz"`
	MaxZ float64 `yaml:"maxz"`

	MinTA float64 `yaml:"minta"`
	MaxTA float64 `yaml:"maxta"`
	MinWC float64 `yaml:"minwc"`
	MaxWC float64 `yaml:"maxwc"`
	MinK  float64 `yaml:"mink"`
	MaxK  float64 `yaml:"maxk"`

	KTA float64 `yaml:"kta"`
	KWC float64 `yaml:"kwc"`

	Spray    float64 `yaml:"spray"`
	Bubbles  float64 `yaml:"bubbles"`
	Lifetime int     `yaml:"lifetime"`

	KB float64 `yaml:"kb"`
	KD float64 `yaml:"kd"`
}

// TimestepConfig is one (nstep, tout) row of the schedule.
type TimestepConfig struct {
	NStep int     `yaml:"nstep"`
	Tout  float64 `yaml:"tout"`
}

// Load reads and parses a YAML config file. It does not validate —
// call Validate separately so callers can distinguish a parse failure
// from a semantic one.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the bundle for the malformed-input conditions the
// entry point must reject before processing any frame: an out-of-order
// frame range, a non-ascending timestep schedule, missing paths, and
// non-positive physical parameters that would make every later pass
// degenerate.
func (c *Config) Validate() error {
	if c.DataPath == "" {
		return fmt.Errorf("config: data_path is required")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("config: output_path is required")
	}
	if c.NStart > c.NEnd {
		return fmt.Errorf("config: nstart (%d) must be <= nend (%d)", c.NStart, c.NEnd)
	}
	if c.NZeros < 0 {
		return fmt.Errorf("config: nzeros must be >= 0, got %d", c.NZeros)
	}
	if c.Params.H <= 0 {
		return fmt.Errorf("config: params.h must be > 0, got %v", c.Params.H)
	}
	if c.Params.Mass <= 0 {
		return fmt.Errorf("config: params.mass must be > 0, got %v", c.Params.Mass)
	}
	if c.Params.MinX >= c.Params.MaxX || c.Params.MinY >= c.Params.MaxY || c.Params.MinZ >= c.Params.MaxZ {
		return fmt.Errorf("config: domain box min must be strictly less than max on every axis")
	}
	if c.Params.Spray < 1 {
		return fmt.Errorf("config: params.spray must be >= 1 (pass 8's weighted mean divides by at least one neighbor), got %v", c.Params.Spray)
	}
	if c.Params.Spray >= c.Params.Bubbles {
		return fmt.Errorf("config: params.spray (%v) must be < params.bubbles (%v)", c.Params.Spray, c.Params.Bubbles)
	}
	if c.Params.Lifetime < 0 {
		return fmt.Errorf("config: params.lifetime must be >= 0, got %v", c.Params.Lifetime)
	}
	if len(c.Timesteps) == 0 {
		return fmt.Errorf("config: timesteps must have at least one entry")
	}
	for i := 1; i < len(c.Timesteps); i++ {
		if c.Timesteps[i].NStep <= c.Timesteps[i-1].NStep {
			return fmt.Errorf("config: timesteps must be strictly ascending by nstep (entry %d: %d <= %d)",
				i, c.Timesteps[i].NStep, c.Timesteps[i-1].NStep)
		}
	}
	return nil
}

// ToParams converts the validated numerical bundle into fluid.Params.
func (c *Config) ToParams() *fluid.Params {
	p := c.Params
	return &fluid.Params{
		H: p.H, Mass: p.Mass,
		MinX: p.MinX, MaxX: p.MaxX,
		MinY: p.MinY, MaxY: p.MaxY,
		MinZ: p.MinZ, MaxZ: p.MaxZ,
		MinTA: p.MinTA, MaxTA: p.MaxTA,
		MinWC: p.MinWC, MaxWC: p.MaxWC,
		MinK: p.MinK, MaxK: p.MaxK,
		KTA: p.KTA, KWC: p.KWC,
		Spray: p.Spray, Bubbles: p.Bubbles,
		Lifetime: p.Lifetime,
		KB:       p.KB, KD: p.KD,
	}
}

// ToSchedule converts the validated timestep table into a fluid.Schedule.
func (c *Config) ToSchedule() (*fluid.Schedule, error) {
	entries := make([]fluid.TimestepEntry, len(c.Timesteps))
	for i, t := range c.Timesteps {
		entries[i] = fluid.TimestepEntry{NStep: t.NStep, Tout: t.Tout}
	}
	return fluid.NewSchedule(entries)
}
