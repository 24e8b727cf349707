package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NETPONG_"

// Load loads the configuration.
// Search order: customPath -> ~/.netpong/netpong.yaml -> ./configs/netpong.yaml -> embedded default.
// Fields missing from the file keep their defaults. A .env file in the working
// directory is loaded if present, then NETPONG_* variables override the file.
func Load(customPath string) (Config, error) {
	cfg, err := loadFile(customPath)
	if err != nil {
		return cfg, err
	}

	_ = godotenv.Load() //nolint:errcheck // .env is optional
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := ApplyNetPreset(&cfg, cfg.Netcode.Preset); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(customPath string) (Config, error) {
	cfg := Default()

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("config: failed to read %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: failed to parse %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath("netpong.yaml"); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err == nil {
				return cfg, nil
			}
			cfg = Default()
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile("configs/netpong.yaml"); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err == nil {
			return cfg, nil
		}
		cfg = Default()
	}

	// Use embedded default YAML
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		return Default(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".netpong", filename)
}

// applyEnv overrides cfg from environment variables.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}
	dur := func(name string, dst *time.Duration) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s%s: %w", EnvPrefix, name, err)
		}
		*dst = d
		return nil
	}

	str("RELAY_URL", &cfg.Relay.URL)
	str("RELAY_LISTEN", &cfg.Relay.Listen)
	str("SSH_LISTEN", &cfg.SSH.Listen)
	str("SSH_HOST_KEY", &cfg.SSH.HostKeyPath)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FILE", &cfg.Log.File)
	str("DB", &cfg.Storage.DBPath)

	var preset string
	str("NET_PRESET", &preset)
	if preset != "" {
		cfg.Netcode.Preset = NetPreset(preset)
	}

	if v, ok := lookup(EnvPrefix + "AUDIO"); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %sAUDIO: %w", EnvPrefix, err)
		}
		cfg.Audio.Enabled = enabled
	}

	for _, err := range []error{
		num("FPS", &cfg.Netcode.FPS),
		num("INPUT_DELAY", &cfg.Netcode.InputDelay),
		num("CHECK_DISTANCE", &cfg.Netcode.CheckDistance),
		num("RELAY_MAX_ROOMS", &cfg.Relay.MaxRooms),
		dur("RELAY_ROOM_TIMEOUT", &cfg.Relay.RoomTimeout),
		dur("STALL_TIMEOUT", &cfg.Netcode.StallTimeout),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

// ExpandPath expands a leading ~ to the home directory.
func ExpandPath(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: cannot expand home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}
