package camera

// Preset names for common configurations
const (
	PresetDefault    = "default"
	PresetLegacy     = "legacy"
	Preset720p       = "720p"
	Preset1080p      = "1080p"
	PresetSquare     = "square"
	PresetContinuous = "continuous"
	PresetSingleShot = "single-shot"
	PresetMacro      = "macro"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault:    DefaultConfig(),
		PresetLegacy:     LegacyConfig(),
		Preset720p:       HD720Config(),
		Preset1080p:      HD1080Config(),
		PresetSquare:     SquareConfig(),
		PresetContinuous: ContinuousConfig(),
		PresetSingleShot: SingleShotConfig(),
		PresetMacro:      MacroConfig(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{
		PresetDefault,
		PresetLegacy,
		Preset720p,
		Preset1080p,
		PresetSquare,
		PresetContinuous,
		PresetSingleShot,
		PresetMacro,
	}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	presets := Presets()
	if cfg, ok := presets[name]; ok {
		return &cfg
	}
	return nil
}

// LegacyConfig returns a 640x480 configuration for older webcams.
func LegacyConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 640
	cfg.Height = 480
	cfg.PreviewWidth = 320
	return cfg
}

// HD720Config returns 720p HD configuration.
func HD720Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 1280
	cfg.Height = 720
	return cfg
}

// HD1080Config returns 1080p Full HD configuration.
func HD1080Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 1920
	cfg.Height = 1080
	return cfg
}

// SquareConfig asks for a 4:3 sensor mode so the centre square keeps
// as many pixels as possible.
func SquareConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 1920
	cfg.Height = 1440
	cfg.Quality = 100
	return cfg
}

// ContinuousConfig leaves focusing to the device.
// The manual sweep never runs with this preset.
func ContinuousConfig() Config {
	cfg := DefaultConfig()
	cfg.AfMode = AfModeContinuous
	return cfg
}

// SingleShotConfig requests a one-time device AF pass per photo.
func SingleShotConfig() Config {
	cfg := DefaultConfig()
	cfg.AfMode = AfModeAuto
	return cfg
}

// MacroConfig restricts the sweep to the near end of the focus range.
func MacroConfig() Config {
	cfg := DefaultConfig()
	cfg.FocusMin = 170
	cfg.FocusMax = 255
	cfg.FocusSettleMs = 250
	return cfg
}
