package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical simulation defaults file.
const DefaultConfigPath = "config/pursuit.defaults.json"

// Measurement modes select which target sighting feeds the filter update.
const (
	MeasureDelayed = "delayed" // position observed before the target's advance (radar lag)
	MeasureCurrent = "current" // position after the advance; comparison runs only
)

// SimConfig is the construction-time configuration for a simulation. Every
// field is optional; Get* methods supply the stock value for nil fields, so
// partial JSON files are safe.
type SimConfig struct {
	// World
	WorldWidth  *float64 `json:"world_width,omitempty"`
	WorldHeight *float64 `json:"world_height,omitempty"`

	// Timing
	FPS            *int     `json:"fps,omitempty"`
	MotionTimeStep *float64 `json:"motion_time_step,omitempty"` // target advance per tick
	FilterDt       *float64 `json:"filter_dt,omitempty"`        // estimator dt; 1/fps when unset

	// Estimator
	ControlX              *float64 `json:"control_x,omitempty"`
	ControlY              *float64 `json:"control_y,omitempty"`
	StdAcc                *float64 `json:"std_acc,omitempty"`
	StdMeasX              *float64 `json:"std_meas_x,omitempty"`
	StdMeasY              *float64 `json:"std_meas_y,omitempty"`
	MeasurementMode       *string  `json:"measurement_mode,omitempty"`
	ResetFilterOnActivate *bool    `json:"reset_filter_on_activate,omitempty"`

	// Target
	TargetSpeed  *float64 `json:"target_speed,omitempty"`
	MinSpeed     *float64 `json:"min_speed,omitempty"`
	MaxSpeed     *float64 `json:"max_speed,omitempty"`
	SpeedStep    *float64 `json:"speed_step,omitempty"`
	SteerGain    *float64 `json:"steer_gain,omitempty"`
	TargetStartX *float64 `json:"target_start_x,omitempty"`
	TargetStartY *float64 `json:"target_start_y,omitempty"`

	// Pursuer
	HitDistance   *float64 `json:"hit_distance,omitempty"`
	PursuerStartX *float64 `json:"pursuer_start_x,omitempty"`
	PursuerStartY *float64 `json:"pursuer_start_y,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// Float64 returns a pointer to v, for building configs in code.
func Float64(v float64) *float64 { return ptrFloat64(v) }

// Int returns a pointer to v.
func Int(v int) *int { return ptrInt(v) }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return ptrBool(v) }

// String returns a pointer to v.
func String(v string) *string { return ptrString(v) }

// EmptySimConfig returns a SimConfig with all fields set to nil.
func EmptySimConfig() *SimConfig {
	return &SimConfig{}
}

// DefaultSimConfig returns a SimConfig with every field populated with the
// stock scenario values.
func DefaultSimConfig() *SimConfig {
	c := EmptySimConfig()
	return &SimConfig{
		WorldWidth:            ptrFloat64(c.GetWorldWidth()),
		WorldHeight:           ptrFloat64(c.GetWorldHeight()),
		FPS:                   ptrInt(c.GetFPS()),
		MotionTimeStep:        ptrFloat64(c.GetMotionTimeStep()),
		FilterDt:              ptrFloat64(c.GetFilterDt()),
		ControlX:              ptrFloat64(c.GetControlX()),
		ControlY:              ptrFloat64(c.GetControlY()),
		StdAcc:                ptrFloat64(c.GetStdAcc()),
		StdMeasX:              ptrFloat64(c.GetStdMeasX()),
		StdMeasY:              ptrFloat64(c.GetStdMeasY()),
		MeasurementMode:       ptrString(c.GetMeasurementMode()),
		ResetFilterOnActivate: ptrBool(c.GetResetFilterOnActivate()),
		TargetSpeed:           ptrFloat64(c.GetTargetSpeed()),
		MinSpeed:              ptrFloat64(c.GetMinSpeed()),
		MaxSpeed:              ptrFloat64(c.GetMaxSpeed()),
		SpeedStep:             ptrFloat64(c.GetSpeedStep()),
		SteerGain:             ptrFloat64(c.GetSteerGain()),
		TargetStartX:          ptrFloat64(c.GetTargetStartX()),
		TargetStartY:          ptrFloat64(c.GetTargetStartY()),
		HitDistance:           ptrFloat64(c.GetHitDistance()),
		PursuerStartX:         ptrFloat64(c.GetPursuerStartX()),
		PursuerStartY:         ptrFloat64(c.GetPursuerStartY()),
	}
}

// LoadSimConfig loads a SimConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadSimConfig(path string) (*SimConfig, error) {
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

	cfg := EmptySimConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and its parents up to the repo root.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *SimConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,       // from cmd/pursuit
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadSimConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the fields that are set, then the cross-field relations
// of the effective values.
func (c *SimConfig) Validate() error {
	positive := []struct {
		name string
		v    *float64
	}{
		{"world_width", c.WorldWidth},
		{"world_height", c.WorldHeight},
		{"motion_time_step", c.MotionTimeStep},
		{"filter_dt", c.FilterDt},
		{"hit_distance", c.HitDistance},
		{"max_speed", c.MaxSpeed},
	}
	for _, p := range positive {
		if p.v != nil && *p.v <= 0 {
			return fmt.Errorf("%s must be positive, got %f", p.name, *p.v)
		}
	}

	nonNegative := []struct {
		name string
		v    *float64
	}{
		{"std_acc", c.StdAcc},
		{"std_meas_x", c.StdMeasX},
		{"std_meas_y", c.StdMeasY},
		{"min_speed", c.MinSpeed},
		{"speed_step", c.SpeedStep},
		{"target_speed", c.TargetSpeed},
	}
	for _, p := range nonNegative {
		if p.v != nil && *p.v < 0 {
			return fmt.Errorf("%s must be non-negative, got %f", p.name, *p.v)
		}
	}

	if c.FPS != nil && *c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", *c.FPS)
	}

	if c.SteerGain != nil && (*c.SteerGain <= 0 || *c.SteerGain > 1) {
		return fmt.Errorf("steer_gain must be in (0, 1], got %f", *c.SteerGain)
	}

	if c.MeasurementMode != nil {
		switch *c.MeasurementMode {
		case MeasureDelayed, MeasureCurrent:
		default:
			return fmt.Errorf("measurement_mode must be %q or %q, got %q", MeasureDelayed, MeasureCurrent, *c.MeasurementMode)
		}
	}

	if c.GetMinSpeed() > c.GetMaxSpeed() {
		return fmt.Errorf("min_speed (%f) must not exceed max_speed (%f)", c.GetMinSpeed(), c.GetMaxSpeed())
	}

	return nil
}

// GetWorldWidth returns the world_width value or the default.
func (c *SimConfig) GetWorldWidth() float64 {
	if c.WorldWidth == nil {
		return 1600
	}
	return *c.WorldWidth
}

// GetWorldHeight returns the world_height value or the default.
func (c *SimConfig) GetWorldHeight() float64 {
	if c.WorldHeight == nil {
		return 1200
	}
	return *c.WorldHeight
}

// GetFPS returns the fps value or the default.
func (c *SimConfig) GetFPS() int {
	if c.FPS == nil {
		return 60
	}
	return *c.FPS
}

// GetMotionTimeStep returns the motion_time_step value or the default.
func (c *SimConfig) GetMotionTimeStep() float64 {
	if c.MotionTimeStep == nil {
		return 1.0
	}
	return *c.MotionTimeStep
}

// GetFilterDt returns the filter_dt value, or 1/fps when unset.
func (c *SimConfig) GetFilterDt() float64 {
	if c.FilterDt == nil {
		return 1.0 / float64(c.GetFPS())
	}
	return *c.FilterDt
}

// GetControlX returns the control_x value or the default.
func (c *SimConfig) GetControlX() float64 {
	if c.ControlX == nil {
		return 0
	}
	return *c.ControlX
}

// GetControlY returns the control_y value or the default.
func (c *SimConfig) GetControlY() float64 {
	if c.ControlY == nil {
		return 0
	}
	return *c.ControlY
}

// GetStdAcc returns the std_acc value or the default.
func (c *SimConfig) GetStdAcc() float64 {
	if c.StdAcc == nil {
		return 1
	}
	return *c.StdAcc
}

// GetStdMeasX returns the std_meas_x value or the default.
func (c *SimConfig) GetStdMeasX() float64 {
	if c.StdMeasX == nil {
		return 1
	}
	return *c.StdMeasX
}

// GetStdMeasY returns the std_meas_y value or the default.
func (c *SimConfig) GetStdMeasY() float64 {
	if c.StdMeasY == nil {
		return 1
	}
	return *c.StdMeasY
}

// GetMeasurementMode returns the measurement_mode value or the default.
func (c *SimConfig) GetMeasurementMode() string {
	if c.MeasurementMode == nil || *c.MeasurementMode == "" {
		return MeasureDelayed
	}
	return *c.MeasurementMode
}

// GetResetFilterOnActivate returns the reset_filter_on_activate value or the default.
func (c *SimConfig) GetResetFilterOnActivate() bool {
	if c.ResetFilterOnActivate == nil {
		return false
	}
	return *c.ResetFilterOnActivate
}

// GetTargetSpeed returns the target_speed value or the default.
func (c *SimConfig) GetTargetSpeed() float64 {
	if c.TargetSpeed == nil {
		return 2.0
	}
	return *c.TargetSpeed
}

// GetMinSpeed returns the min_speed value or the default.
func (c *SimConfig) GetMinSpeed() float64 {
	if c.MinSpeed == nil {
		return 0.5
	}
	return *c.MinSpeed
}

// GetMaxSpeed returns the max_speed value or the default.
func (c *SimConfig) GetMaxSpeed() float64 {
	if c.MaxSpeed == nil {
		return 10
	}
	return *c.MaxSpeed
}

// GetSpeedStep returns the speed_step value or the default.
func (c *SimConfig) GetSpeedStep() float64 {
	if c.SpeedStep == nil {
		return 0.5
	}
	return *c.SpeedStep
}

// GetSteerGain returns the steer_gain value or the default.
func (c *SimConfig) GetSteerGain() float64 {
	if c.SteerGain == nil {
		return 0.1
	}
	return *c.SteerGain
}

// GetTargetStartX returns the target_start_x value, or the world centre.
func (c *SimConfig) GetTargetStartX() float64 {
	if c.TargetStartX == nil {
		return c.GetWorldWidth() / 2
	}
	return *c.TargetStartX
}

// GetTargetStartY returns the target_start_y value, or the world centre.
func (c *SimConfig) GetTargetStartY() float64 {
	if c.TargetStartY == nil {
		return c.GetWorldHeight() / 2
	}
	return *c.TargetStartY
}

// GetHitDistance returns the hit_distance value or the default.
func (c *SimConfig) GetHitDistance() float64 {
	if c.HitDistance == nil {
		return 8
	}
	return *c.HitDistance
}

// GetPursuerStartX returns the pursuer_start_x value, or a quarter of the width.
func (c *SimConfig) GetPursuerStartX() float64 {
	if c.PursuerStartX == nil {
		return c.GetWorldWidth() / 4
	}
	return *c.PursuerStartX
}

// GetPursuerStartY returns the pursuer_start_y value, or a quarter of the height.
func (c *SimConfig) GetPursuerStartY() float64 {
	if c.PursuerStartY == nil {
		return c.GetWorldHeight() / 4
	}
	return *c.PursuerStartY
}
