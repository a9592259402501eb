// Package config loads segmentation tuning parameters from JSON files.
// Fields are pointers so a partial file overrides only what it names; the
// Get* accessors supply defaults for everything else.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for segmentation tuning.
type TuningConfig struct {
	// Kernel shape params
	CrownDiameterToTreeHeight *float64 `json:"crown_diameter_to_tree_height,omitempty"`
	CrownHeightToTreeHeight   *float64 `json:"crown_height_to_tree_height,omitempty"`
	KernelProfile             *string  `json:"kernel_profile,omitempty"` // "classic" or "improved"
	UniformKernel             *bool    `json:"uniform_kernel,omitempty"`

	// Iteration params
	MaxIterations *int     `json:"max_iterations,omitempty"`
	Epsilon       *float64 `json:"epsilon,omitempty"`
	Convergence   *string  `json:"convergence,omitempty"` // "euclidean", "per-axis" or "per-axis-legacy"

	// Runtime params
	Workers      *int  `json:"workers,omitempty"` // 0 means one per CPU
	SpatialIndex *bool `json:"spatial_index,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields unset.
// Use LoadTuningConfig to load actual values from a file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must have
// a .json extension and stay under the max file size. Fields omitted from the
// file keep their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
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

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from
// DefaultConfigPath, searching the current directory and common parents.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are usable.
func (c *TuningConfig) Validate() error {
	if c.CrownDiameterToTreeHeight != nil && *c.CrownDiameterToTreeHeight <= 0 {
		return fmt.Errorf("crown_diameter_to_tree_height must be positive, got %f", *c.CrownDiameterToTreeHeight)
	}
	if c.CrownHeightToTreeHeight != nil && *c.CrownHeightToTreeHeight <= 0 {
		return fmt.Errorf("crown_height_to_tree_height must be positive, got %f", *c.CrownHeightToTreeHeight)
	}
	if c.MaxIterations != nil && *c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", *c.MaxIterations)
	}
	if c.Epsilon != nil && *c.Epsilon <= 0 {
		return fmt.Errorf("epsilon must be positive, got %f", *c.Epsilon)
	}
	if c.KernelProfile != nil {
		if p := *c.KernelProfile; p != "classic" && p != "improved" {
			return fmt.Errorf("kernel_profile must be 'classic' or 'improved', got %q", p)
		}
	}
	if c.Convergence != nil {
		switch *c.Convergence {
		case "euclidean", "per-axis", "per-axis-legacy":
		default:
			return fmt.Errorf("convergence must be 'euclidean', 'per-axis' or 'per-axis-legacy', got %q", *c.Convergence)
		}
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	return nil
}

// GetCrownDiameterToTreeHeight returns the diameter ratio or the default.
func (c *TuningConfig) GetCrownDiameterToTreeHeight() float64 {
	if c.CrownDiameterToTreeHeight == nil {
		return 0.6
	}
	return *c.CrownDiameterToTreeHeight
}

// GetCrownHeightToTreeHeight returns the height ratio or the default.
func (c *TuningConfig) GetCrownHeightToTreeHeight() float64 {
	if c.CrownHeightToTreeHeight == nil {
		return 0.5
	}
	return *c.CrownHeightToTreeHeight
}

// GetKernelProfile returns the kernel profile name or the default.
func (c *TuningConfig) GetKernelProfile() string {
	if c.KernelProfile == nil {
		return "classic"
	}
	return *c.KernelProfile
}

// GetUniformKernel returns the uniform_kernel value or the default.
func (c *TuningConfig) GetUniformKernel() bool {
	if c.UniformKernel == nil {
		return false
	}
	return *c.UniformKernel
}

// GetMaxIterations returns the max_iterations value or the default.
func (c *TuningConfig) GetMaxIterations() int {
	if c.MaxIterations == nil {
		return 200
	}
	return *c.MaxIterations
}

// GetEpsilon returns the epsilon value or the default.
func (c *TuningConfig) GetEpsilon() float64 {
	if c.Epsilon == nil {
		return 0.01
	}
	return *c.Epsilon
}

// GetConvergence returns the convergence mode name or the default.
func (c *TuningConfig) GetConvergence() string {
	if c.Convergence == nil {
		return "euclidean"
	}
	return *c.Convergence
}

// GetWorkers returns the workers value or the default (0, one per CPU).
func (c *TuningConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// GetSpatialIndex returns the spatial_index value or the default.
func (c *TuningConfig) GetSpatialIndex() bool {
	if c.SpatialIndex == nil {
		return true
	}
	return *c.SpatialIndex
}
