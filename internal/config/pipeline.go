package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the path to the canonical pipeline defaults file.
const DefaultConfigPath = "config/pipeline.defaults.json"

// Default values used when a field is omitted from the config file.
const (
	DefaultNearDistance      = 5.0
	DefaultCrosswalkRadius   = 3.0
	DefaultJunctionRadius    = 3.0
	DefaultOnCrosswalkRadius = 1.0
	DefaultOpposingAngleDeg  = 135.0
	DefaultCrossingAngleDeg  = 45.0
	DefaultBicycleTypeID     = "vehicle.bh.crossbike"
	DefaultCountBucketSize   = 5
	DefaultDenoiseWindow     = 3
	DefaultWorkers           = 4
)

// PipelineConfig holds the feature-extraction parameters.
// All fields are optional; the Get* methods supply defaults so partial
// config files are safe.
type PipelineConfig struct {
	// Geometry thresholds (planar map units)
	NearDistance      *float64 `json:"near_distance,omitempty" yaml:"near_distance,omitempty"`
	CrosswalkRadius   *float64 `json:"crosswalk_radius,omitempty" yaml:"crosswalk_radius,omitempty"`
	JunctionRadius    *float64 `json:"junction_radius,omitempty" yaml:"junction_radius,omitempty"`
	OnCrosswalkRadius *float64 `json:"on_crosswalk_radius,omitempty" yaml:"on_crosswalk_radius,omitempty"`

	// Heading classification, degrees
	OpposingAngleDeg *float64 `json:"opposing_angle_deg,omitempty" yaml:"opposing_angle_deg,omitempty"`
	CrossingAngleDeg *float64 `json:"crossing_angle_deg,omitempty" yaml:"crossing_angle_deg,omitempty"`

	// Actor/obstacle vectors
	BicycleTypeID         *string `json:"bicycle_type_id,omitempty" yaml:"bicycle_type_id,omitempty"`
	CountBucketSize       *int    `json:"count_bucket_size,omitempty" yaml:"count_bucket_size,omitempty"`
	PedestrianEgoDistance *bool   `json:"pedestrian_ego_distance,omitempty" yaml:"pedestrian_ego_distance,omitempty"`

	// Denoising and batch
	DenoiseWindow *int `json:"denoise_window,omitempty" yaml:"denoise_window,omitempty"`
	Workers       *int `json:"workers,omitempty" yaml:"workers,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyPipelineConfig returns a PipelineConfig with all fields unset.
func EmptyPipelineConfig() *PipelineConfig {
	return &PipelineConfig{}
}

// DefaultPipelineConfig returns a PipelineConfig with every field set to
// its default value.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		NearDistance:          ptrFloat64(DefaultNearDistance),
		CrosswalkRadius:       ptrFloat64(DefaultCrosswalkRadius),
		JunctionRadius:        ptrFloat64(DefaultJunctionRadius),
		OnCrosswalkRadius:     ptrFloat64(DefaultOnCrosswalkRadius),
		OpposingAngleDeg:      ptrFloat64(DefaultOpposingAngleDeg),
		CrossingAngleDeg:      ptrFloat64(DefaultCrossingAngleDeg),
		BicycleTypeID:         ptrString(DefaultBicycleTypeID),
		CountBucketSize:       ptrInt(DefaultCountBucketSize),
		PedestrianEgoDistance: ptrBool(true),
		DenoiseWindow:         ptrInt(DefaultDenoiseWindow),
		Workers:               ptrInt(DefaultWorkers),
	}
}

// LoadPipelineConfig loads a PipelineConfig from a JSON or YAML file.
// The file must have a .json, .yaml or .yml extension and be under 1MB.
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyPipelineConfig()
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", ext, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *PipelineConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/simlog/features/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadPipelineConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configured values are usable.
func (c *PipelineConfig) Validate() error {
	positive := []struct {
		name string
		v    *float64
	}{
		{"near_distance", c.NearDistance},
		{"crosswalk_radius", c.CrosswalkRadius},
		{"junction_radius", c.JunctionRadius},
		{"on_crosswalk_radius", c.OnCrosswalkRadius},
	}
	for _, p := range positive {
		if p.v != nil && *p.v < 0 {
			return fmt.Errorf("%s must be non-negative, got %f", p.name, *p.v)
		}
	}

	crossing, opposing := c.GetCrossingAngleDeg(), c.GetOpposingAngleDeg()
	if crossing < 0 || opposing > 180 || crossing >= opposing {
		return fmt.Errorf("angles must satisfy 0 <= crossing_angle_deg < opposing_angle_deg <= 180, got %g and %g", crossing, opposing)
	}

	if c.BicycleTypeID != nil && *c.BicycleTypeID == "" {
		return fmt.Errorf("bicycle_type_id must not be empty")
	}
	if c.CountBucketSize != nil && *c.CountBucketSize < 1 {
		return fmt.Errorf("count_bucket_size must be at least 1, got %d", *c.CountBucketSize)
	}
	if c.DenoiseWindow != nil && *c.DenoiseWindow < 1 {
		return fmt.Errorf("denoise_window must be at least 1, got %d", *c.DenoiseWindow)
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}
	return nil
}

// GetNearDistance returns the near_distance value or the default.
func (c *PipelineConfig) GetNearDistance() float64 {
	if c.NearDistance == nil {
		return DefaultNearDistance
	}
	return *c.NearDistance
}

// GetCrosswalkRadius returns the crosswalk_radius value or the default.
func (c *PipelineConfig) GetCrosswalkRadius() float64 {
	if c.CrosswalkRadius == nil {
		return DefaultCrosswalkRadius
	}
	return *c.CrosswalkRadius
}

// GetJunctionRadius returns the junction_radius value or the default.
func (c *PipelineConfig) GetJunctionRadius() float64 {
	if c.JunctionRadius == nil {
		return DefaultJunctionRadius
	}
	return *c.JunctionRadius
}

// GetOnCrosswalkRadius returns the on_crosswalk_radius value or the default.
func (c *PipelineConfig) GetOnCrosswalkRadius() float64 {
	if c.OnCrosswalkRadius == nil {
		return DefaultOnCrosswalkRadius
	}
	return *c.OnCrosswalkRadius
}

// GetOpposingAngleDeg returns the opposing_angle_deg value or the default.
func (c *PipelineConfig) GetOpposingAngleDeg() float64 {
	if c.OpposingAngleDeg == nil {
		return DefaultOpposingAngleDeg
	}
	return *c.OpposingAngleDeg
}

// GetCrossingAngleDeg returns the crossing_angle_deg value or the default.
func (c *PipelineConfig) GetCrossingAngleDeg() float64 {
	if c.CrossingAngleDeg == nil {
		return DefaultCrossingAngleDeg
	}
	return *c.CrossingAngleDeg
}

// GetBicycleTypeID returns the bicycle_type_id value or the default.
func (c *PipelineConfig) GetBicycleTypeID() string {
	if c.BicycleTypeID == nil {
		return DefaultBicycleTypeID
	}
	return *c.BicycleTypeID
}

// GetCountBucketSize returns the count_bucket_size value or the default.
func (c *PipelineConfig) GetCountBucketSize() int {
	if c.CountBucketSize == nil {
		return DefaultCountBucketSize
	}
	return *c.CountBucketSize
}

// GetPedestrianEgoDistance reports whether ego distances are derived for
// pedestrians as well as vehicles, lights and signs.
func (c *PipelineConfig) GetPedestrianEgoDistance() bool {
	if c.PedestrianEgoDistance == nil {
		return true
	}
	return *c.PedestrianEgoDistance
}

// GetDenoiseWindow returns the denoise_window value or the default.
func (c *PipelineConfig) GetDenoiseWindow() int {
	if c.DenoiseWindow == nil {
		return DefaultDenoiseWindow
	}
	return *c.DenoiseWindow
}

// GetWorkers returns the workers value or the default.
func (c *PipelineConfig) GetWorkers() int {
	if c.Workers == nil {
		return DefaultWorkers
	}
	return *c.Workers
}
