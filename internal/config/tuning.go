// Package config loads optional JSON tuning files for the detection and
// tracking pipeline. All fields are pointers so that a partial file only
// overrides what it names; everything else keeps its compiled-in default.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/peaktrace/internal/peaks"
	"github.com/banshee-data/peaktrace/internal/tracking"
)

// TuningConfig is the root JSON schema for pipeline tuning.
type TuningConfig struct {
	// Detector params
	SigmaSignal  *float64 `json:"sigma_signal,omitempty"`
	SigmaControl *float64 `json:"sigma_control,omitempty"`
	Truncate     *float64 `json:"truncate,omitempty"`
	FindMaxima   *bool    `json:"find_maxima,omitempty"`

	// Tracker params
	FollowTrajectory *bool   `json:"follow_trajectory,omitempty"`
	Assignment       *string `json:"assignment,omitempty"` // "greedy", "greedy-unique", "optimal"
}

// EmptyTuningConfig returns a TuningConfig with all fields unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. Fields omitted
// from the file stay nil, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that set fields hold usable values.
func (c *TuningConfig) Validate() error {
	if c.SigmaSignal != nil && *c.SigmaSignal < 0 {
		return fmt.Errorf("sigma_signal must be non-negative, got %f", *c.SigmaSignal)
	}
	if c.SigmaControl != nil && *c.SigmaControl < 0 {
		return fmt.Errorf("sigma_control must be non-negative, got %f", *c.SigmaControl)
	}
	if c.Truncate != nil && *c.Truncate <= 0 {
		return fmt.Errorf("truncate must be positive, got %f", *c.Truncate)
	}
	if c.Assignment != nil {
		if _, err := tracking.ParseAssignmentMode(*c.Assignment); err != nil {
			return fmt.Errorf("invalid assignment: %w", err)
		}
	}
	return nil
}

// ApplyKernel overlays any set detector fields onto k.
func (c *TuningConfig) ApplyKernel(k *peaks.Kernel) {
	if c.SigmaSignal != nil {
		k.SigmaSignal = *c.SigmaSignal
	}
	if c.SigmaControl != nil {
		k.SigmaControl = *c.SigmaControl
	}
	if c.Truncate != nil {
		k.Truncate = *c.Truncate
	}
}

// ApplyTracker overlays any set tracker fields onto cfg.
func (c *TuningConfig) ApplyTracker(cfg *tracking.Config) {
	if c.FollowTrajectory != nil {
		cfg.FollowTrajectory = *c.FollowTrajectory
	}
	if c.Assignment != nil {
		mode, err := tracking.ParseAssignmentMode(*c.Assignment)
		if err == nil {
			cfg.Assignment = mode
		}
	}
}
