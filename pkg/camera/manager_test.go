package camera

import (
	"errors"
	"testing"
)

func TestManager_UpdateConfig(t *testing.T) {
	m := NewManager()

	err := m.UpdateConfig(map[string]interface{}{
		"focus_min":       float64(10),
		"focus_max":       float64(200),
		"focus_settle_ms": float64(50),
		"af_mode":         "continuous",
	})
	if err != nil {
		t.Fatalf("UpdateConfig failed: %v", err)
	}

	cfg := m.GetConfig()
	if cfg.FocusMin != 10 || cfg.FocusMax != 200 {
		t.Errorf("focus range = [%v, %v], want [10, 200]", cfg.FocusMin, cfg.FocusMax)
	}
	if cfg.FocusSettleMs != 50 {
		t.Errorf("FocusSettleMs = %d, want 50", cfg.FocusSettleMs)
	}
	if cfg.AfMode != AfModeContinuous {
		t.Errorf("AfMode = %q, want continuous", cfg.AfMode)
	}
}

func TestManager_UpdateConfigPresetThenOverride(t *testing.T) {
	m := NewManager()

	if err := m.UpdateConfig(map[string]interface{}{"preset": PresetLegacy, "quality": 70}); err != nil {
		t.Fatalf("UpdateConfig failed: %v", err)
	}

	cfg := m.GetConfig()
	if cfg.Width != 640 || cfg.Height != 480 {
		t.Errorf("size = %dx%d, want 640x480", cfg.Width, cfg.Height)
	}
	if cfg.Quality != 70 {
		t.Errorf("Quality = %d, want 70", cfg.Quality)
	}
}

func TestManager_RejectsInvalid(t *testing.T) {
	m := NewManager()
	before := m.GetConfig()

	if err := m.UpdateConfig(map[string]interface{}{"af_mode": "bogus"}); err == nil {
		t.Fatal("expected validation error")
	}
	if m.GetConfig() != before {
		t.Error("config changed despite validation failure")
	}

	if err := m.UpdateConfig(map[string]interface{}{"preset": "bogus"}); err == nil {
		t.Fatal("expected unknown preset error")
	}
}

func TestManager_OnConfigChange(t *testing.T) {
	m := NewManager()

	var got Config
	m.OnConfigChange = func(cfg Config) error {
		got = cfg
		return nil
	}
	if err := m.UpdateConfig(map[string]interface{}{"width": 1280, "height": 720}); err != nil {
		t.Fatalf("UpdateConfig failed: %v", err)
	}
	if got.Width != 1280 {
		t.Errorf("callback saw width %d, want 1280", got.Width)
	}

	applyErr := errors.New("device busy")
	m.OnConfigChange = func(Config) error { return applyErr }
	if err := m.UpdateConfig(map[string]interface{}{"quality": 50}); !errors.Is(err, applyErr) {
		t.Errorf("expected wrapped callback error, got %v", err)
	}
}

func TestNewManagerWithPreset(t *testing.T) {
	m, err := NewManagerWithPreset(PresetSingleShot)
	if err != nil {
		t.Fatalf("NewManagerWithPreset failed: %v", err)
	}
	if m.GetConfig().AfMode != AfModeAuto {
		t.Errorf("AfMode = %q, want auto", m.GetConfig().AfMode)
	}

	if _, err := NewManagerWithPreset("missing"); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestManager_UpdateConfigTypeMismatch(t *testing.T) {
	m := NewManager()
	before := m.GetConfig()

	tests := []struct {
		name   string
		params map[string]any
	}{
		{"string for int", map[string]any{"width": "wide"}},
		{"fraction for int", map[string]any{"quality": 70.5}},
		{"non-string preset", map[string]any{"preset": 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := m.UpdateConfig(tt.params); err == nil {
				t.Fatal("expected error")
			}
			if m.GetConfig() != before {
				t.Error("config changed despite rejected update")
			}
		})
	}
}

func TestManager_UpdateConfigIgnoresUnknownKeys(t *testing.T) {
	m := NewManager()
	if err := m.UpdateConfig(map[string]any{"exposure_mode": "sport", "quality": 60}); err != nil {
		t.Fatalf("UpdateConfig failed: %v", err)
	}
	if got := m.GetConfig().Quality; got != 60 {
		t.Errorf("Quality = %d, want 60", got)
	}
}
