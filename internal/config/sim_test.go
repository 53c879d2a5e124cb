package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultSimConfig(t *testing.T) {
	cfg := DefaultSimConfig()

	if cfg.WorldWidth == nil || *cfg.WorldWidth != 1600 {
		t.Errorf("Expected WorldWidth 1600, got %v", cfg.WorldWidth)
	}
	if cfg.FPS == nil || *cfg.FPS != 60 {
		t.Errorf("Expected FPS 60, got %v", cfg.FPS)
	}
	if cfg.MeasurementMode == nil || *cfg.MeasurementMode != MeasureDelayed {
		t.Errorf("Expected MeasurementMode %q, got %v", MeasureDelayed, cfg.MeasurementMode)
	}
	if cfg.ResetFilterOnActivate == nil || *cfg.ResetFilterOnActivate {
		t.Errorf("Expected ResetFilterOnActivate false, got %v", cfg.ResetFilterOnActivate)
	}

	if got := cfg.GetFilterDt(); got != 1.0/60 {
		t.Errorf("GetFilterDt() = %f, want %f", got, 1.0/60)
	}
	if got := cfg.GetHitDistance(); got != 8 {
		t.Errorf("GetHitDistance() = %f, want 8", got)
	}
	if got := cfg.GetTargetStartX(); got != 800 {
		t.Errorf("GetTargetStartX() = %f, want 800", got)
	}
	if got := cfg.GetPursuerStartY(); got != 300 {
		t.Errorf("GetPursuerStartY() = %f, want 300", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultSimConfig().Validate() = %v", err)
	}
}

func TestFilterDtFollowsFPS(t *testing.T) {
	cfg := EmptySimConfig()
	cfg.FPS = Int(30)

	if got := cfg.GetFilterDt(); got != 1.0/30 {
		t.Errorf("GetFilterDt() = %f, want %f", got, 1.0/30)
	}

	cfg.FilterDt = Float64(0.1)
	if got := cfg.GetFilterDt(); got != 0.1 {
		t.Errorf("explicit GetFilterDt() = %f, want 0.1", got)
	}
}

func TestStartPositionsFollowWorld(t *testing.T) {
	cfg := EmptySimConfig()
	cfg.WorldWidth = Float64(200)
	cfg.WorldHeight = Float64(100)

	if got := cfg.GetTargetStartX(); got != 100 {
		t.Errorf("GetTargetStartX() = %f, want 100", got)
	}
	if got := cfg.GetTargetStartY(); got != 50 {
		t.Errorf("GetTargetStartY() = %f, want 50", got)
	}
	if got := cfg.GetPursuerStartX(); got != 50 {
		t.Errorf("GetPursuerStartX() = %f, want 50", got)
	}
	if got := cfg.GetPursuerStartY(); got != 25 {
		t.Errorf("GetPursuerStartY() = %f, want 25", got)
	}
}

func TestLoadSimConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "scenario.json")

	testJSON := `{
  "fps": 30,
  "std_acc": 2.5,
  "measurement_mode": "current",
  "target_speed": 4
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadSimConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetFPS() != 30 {
		t.Errorf("GetFPS() = %d, want 30", cfg.GetFPS())
	}
	if cfg.GetStdAcc() != 2.5 {
		t.Errorf("GetStdAcc() = %f, want 2.5", cfg.GetStdAcc())
	}
	if cfg.GetMeasurementMode() != MeasureCurrent {
		t.Errorf("GetMeasurementMode() = %q, want %q", cfg.GetMeasurementMode(), MeasureCurrent)
	}
	if cfg.GetTargetSpeed() != 4 {
		t.Errorf("GetTargetSpeed() = %f, want 4", cfg.GetTargetSpeed())
	}

	// Unset fields fall back to defaults.
	if cfg.GetWorldWidth() != 1600 {
		t.Errorf("GetWorldWidth() = %f, want 1600", cfg.GetWorldWidth())
	}
	if cfg.GetStdMeasX() != 1 {
		t.Errorf("GetStdMeasX() = %f, want 1", cfg.GetStdMeasX())
	}
}

func TestLoadSimConfig_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	write := func(name, body string) string {
		p := filepath.Join(tmpDir, name)
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return p
	}

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"wrong extension", write("scenario.yaml", "{}"), ".json extension"},
		{"missing file", filepath.Join(tmpDir, "absent.json"), "failed to stat"},
		{"bad json", write("bad.json", "{not json"), "failed to parse"},
		{"invalid value", write("neg.json", `{"hit_distance": -1}`), "hit_distance must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSimConfig(tt.path)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadSimConfig_TooLarge(t *testing.T) {
	p := filepath.Join(t.TempDir(), "big.json")
	if err := os.WriteFile(p, []byte(strings.Repeat(" ", 1024*1024+1)), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadSimConfig(p); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("expected too large error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *SimConfig)
		wantErr bool
	}{
		{"empty is valid", func(c *SimConfig) {}, false},
		{"zero fps", func(c *SimConfig) { c.FPS = Int(0) }, true},
		{"zero world width", func(c *SimConfig) { c.WorldWidth = Float64(0) }, true},
		{"negative std_acc", func(c *SimConfig) { c.StdAcc = Float64(-0.1) }, true},
		{"zero std_meas allowed", func(c *SimConfig) { c.StdMeasX = Float64(0) }, false},
		{"steer gain too large", func(c *SimConfig) { c.SteerGain = Float64(1.5) }, true},
		{"steer gain zero", func(c *SimConfig) { c.SteerGain = Float64(0) }, true},
		{"unknown mode", func(c *SimConfig) { c.MeasurementMode = String("future") }, true},
		{"current mode", func(c *SimConfig) { c.MeasurementMode = String(MeasureCurrent) }, false},
		{"min above max", func(c *SimConfig) { c.MinSpeed = Float64(20) }, true},
		{"min equals max", func(c *SimConfig) { c.MinSpeed = Float64(3); c.MaxSpeed = Float64(3) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := EmptySimConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()

	want := DefaultSimConfig()
	if cfg.GetWorldWidth() != want.GetWorldWidth() || cfg.GetWorldHeight() != want.GetWorldHeight() {
		t.Errorf("world = %fx%f, want %fx%f", cfg.GetWorldWidth(), cfg.GetWorldHeight(), want.GetWorldWidth(), want.GetWorldHeight())
	}
	if cfg.GetFilterDt() != want.GetFilterDt() {
		t.Errorf("GetFilterDt() = %v, want %v", cfg.GetFilterDt(), want.GetFilterDt())
	}
	if cfg.GetMeasurementMode() != want.GetMeasurementMode() {
		t.Errorf("GetMeasurementMode() = %q, want %q", cfg.GetMeasurementMode(), want.GetMeasurementMode())
	}
}
