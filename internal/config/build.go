package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/pulse.report/internal/dateutil"
	"github.com/banshee-data/pulse.report/internal/series"
)

// DefaultConfigPath is the path to the canonical build defaults file.
// This is the single source of truth for all default build values.
const DefaultConfigPath = "config/build.defaults.json"

// BuildConfig represents the dataset build parameters. The same JSON
// schema is used for the -config flag of pulse-build and pulse-update,
// so one file can drive both the one-shot and the incremental path.
type BuildConfig struct {
	// Alignment params
	Timezone    *string `json:"timezone,omitempty"`
	StepMinutes *int    `json:"step_minutes,omitempty"`

	// Body battery fill params
	BodyBatteryFill *string `json:"body_battery_fill,omitempty"` // none, ffill, ffill_bfill, interpolate

	// Day selection params
	DropEmptyDays *bool `json:"drop_empty_days,omitempty"`

	// Output params
	WriteCSV *bool `json:"write_csv,omitempty"`
	Charts   *bool `json:"charts,omitempty"`
}

// Helper functions to create pointers
func ptrBool(v bool) *bool       { return &v }
func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }

// EmptyBuildConfig returns a BuildConfig with all fields set to nil.
// The Get* accessors then yield the built-in defaults.
func EmptyBuildConfig() *BuildConfig {
	return &BuildConfig{}
}

// LoadBuildConfig loads a BuildConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadBuildConfig(path string) (*BuildConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
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

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyBuildConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical build defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *BuildConfig {
	// Try paths from current dir up to repo root
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadBuildConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *BuildConfig) Validate() error {
	// Validate Timezone if set
	if c.Timezone != nil {
		if !dateutil.IsTimezoneValid(*c.Timezone) {
			return fmt.Errorf("invalid timezone %q", *c.Timezone)
		}
	}

	// Validate StepMinutes if set. The grid needs a whole number of
	// buckets per day.
	if c.StepMinutes != nil {
		if *c.StepMinutes <= 0 {
			return fmt.Errorf("step_minutes must be positive, got %d", *c.StepMinutes)
		}
		if (24*60)%*c.StepMinutes != 0 {
			return fmt.Errorf("step_minutes must divide a day evenly, got %d", *c.StepMinutes)
		}
	}

	// Validate BodyBatteryFill names a known policy if set
	if c.BodyBatteryFill != nil && *c.BodyBatteryFill != "" {
		if _, err := series.ParseFillPolicy(*c.BodyBatteryFill); err != nil {
			return fmt.Errorf("invalid body_battery_fill %q: %w", *c.BodyBatteryFill, err)
		}
	}

	return nil
}

// GetTimezone returns the timezone value or the default.
func (c *BuildConfig) GetTimezone() string {
	if c.Timezone == nil || *c.Timezone == "" {
		return "Europe/Madrid" // default
	}
	return *c.Timezone
}

// GetStep parses and returns the grid step as a time.Duration.
func (c *BuildConfig) GetStep() time.Duration {
	if c.StepMinutes == nil || *c.StepMinutes <= 0 {
		return time.Minute // default
	}
	return time.Duration(*c.StepMinutes) * time.Minute
}

// GetBodyBatteryFill returns the body battery fill policy or the default.
func (c *BuildConfig) GetBodyBatteryFill() series.FillPolicy {
	if c.BodyBatteryFill == nil || *c.BodyBatteryFill == "" {
		return series.FillForwardBackward // default
	}
	p, err := series.ParseFillPolicy(*c.BodyBatteryFill)
	if err != nil {
		return series.FillForwardBackward // default on parse error
	}
	return p
}

// GetDropEmptyDays returns the drop_empty_days value or the default.
func (c *BuildConfig) GetDropEmptyDays() bool {
	if c.DropEmptyDays == nil {
		return true // default: all-gap days carry no information
	}
	return *c.DropEmptyDays
}

// GetWriteCSV returns the write_csv value or the default.
func (c *BuildConfig) GetWriteCSV() bool {
	if c.WriteCSV == nil {
		return false // default: parquet only
	}
	return *c.WriteCSV
}

// GetCharts returns the charts value or the default.
func (c *BuildConfig) GetCharts() bool {
	if c.Charts == nil {
		return false // default: no report rendering
	}
	return *c.Charts
}
