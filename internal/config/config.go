// Package config provides YAML-based configuration loading for netpong,
// with environment overrides for deployment.
package config

import (
	"fmt"
	"time"
)

// Config is the complete netpong configuration.
type Config struct {
	Netcode NetcodeConfig `yaml:"netcode"`
	Relay   RelayConfig   `yaml:"relay"`
	SSH     SSHConfig     `yaml:"ssh"`
	Input   InputConfig   `yaml:"input"`
	Audio   AudioConfig   `yaml:"audio"`
	Log     LogConfig     `yaml:"log"`
	Storage StorageConfig `yaml:"storage"`
}

// NetcodeConfig controls frame pacing and session behavior.
type NetcodeConfig struct {
	FPS           int           `yaml:"fps"`
	InputDelay    int           `yaml:"input_delay"`
	CheckDistance int           `yaml:"check_distance"`
	AheadFactor   float64       `yaml:"ahead_factor"`
	MaxCatchUp    time.Duration `yaml:"max_catch_up"`
	ChecksumEvery int           `yaml:"checksum_every"`
	StallTimeout  time.Duration `yaml:"stall_timeout"`
	Preset        NetPreset     `yaml:"preset"`
}

// RelayConfig defines the relay endpoint for clients and the relay server.
type RelayConfig struct {
	URL           string        `yaml:"url"`    // Where clients connect
	Listen        string        `yaml:"listen"` // Where the relay server binds
	RoomTimeout   time.Duration `yaml:"room_timeout"`
	CleanupPeriod time.Duration `yaml:"cleanup_period"`
	MaxRooms      int           `yaml:"max_rooms"`
}

// SSHConfig defines the SSH front end.
type SSHConfig struct {
	Listen      string `yaml:"listen"`
	HostKeyPath string `yaml:"host_key_path"`
}

// InputConfig defines keyboard handling.
type InputConfig struct {
	KeyHoldTicks int `yaml:"key_hold_ticks"` // Frames a key press counts as held
}

// AudioConfig defines sound output.
type AudioConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LogConfig defines logging.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // Log file used while the TUI owns the terminal
}

// StorageConfig defines match history persistence.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// NetPreset is a named input delay suited to a kind of network.
type NetPreset string

const (
	NetPresetNone     NetPreset = ""
	NetPresetLAN      NetPreset = "lan"
	NetPresetInternet NetPreset = "internet"
	NetPresetFar      NetPreset = "far"
)

// InputDelayForPreset returns the input delay for a preset.
func InputDelayForPreset(preset NetPreset) (int, bool) {
	switch preset {
	case NetPresetLAN:
		return 1, true
	case NetPresetInternet:
		return 3, true
	case NetPresetFar:
		return 6, true
	default:
		return 0, false
	}
}

// ApplyNetPreset sets the input delay from a preset. Unknown presets are an error.
func ApplyNetPreset(cfg *Config, preset NetPreset) error {
	if preset == NetPresetNone {
		return nil
	}
	delay, ok := InputDelayForPreset(preset)
	if !ok {
		return fmt.Errorf("config: unknown netcode preset %q", preset)
	}
	cfg.Netcode.Preset = preset
	cfg.Netcode.InputDelay = delay
	return nil
}

// FrameDuration returns the wall-clock length of one logical frame.
func (c NetcodeConfig) FrameDuration() time.Duration {
	return time.Second / time.Duration(max(1, c.FPS))
}

// Validate checks values that would make the game unplayable.
func (c *Config) Validate() error {
	if c.Netcode.FPS < 1 || c.Netcode.FPS > 240 {
		return fmt.Errorf("config: netcode.fps must be in [1, 240], got %d", c.Netcode.FPS)
	}
	if c.Netcode.InputDelay < 0 {
		return fmt.Errorf("config: netcode.input_delay must not be negative, got %d", c.Netcode.InputDelay)
	}
	if c.Netcode.CheckDistance < 0 {
		return fmt.Errorf("config: netcode.check_distance must not be negative, got %d", c.Netcode.CheckDistance)
	}
	if c.Netcode.AheadFactor < 1 {
		return fmt.Errorf("config: netcode.ahead_factor must be at least 1, got %g", c.Netcode.AheadFactor)
	}
	if c.Netcode.StallTimeout < 0 {
		return fmt.Errorf("config: netcode.stall_timeout must not be negative, got %s", c.Netcode.StallTimeout)
	}
	if c.Netcode.MaxCatchUp <= 0 {
		return fmt.Errorf("config: netcode.max_catch_up must be positive, got %s", c.Netcode.MaxCatchUp)
	}
	if c.Input.KeyHoldTicks < 1 {
		return fmt.Errorf("config: input.key_hold_ticks must be at least 1, got %d", c.Input.KeyHoldTicks)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}
