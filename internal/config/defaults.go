package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/netpong.yaml
var defaultYAML []byte

// Default returns the built-in configuration.
// It matches defaults/netpong.yaml and is used if the embedded file fails to parse.
func Default() Config {
	return Config{
		Netcode: NetcodeConfig{
			FPS:           60,
			InputDelay:    2,
			CheckDistance: 2,
			AheadFactor:   1.1,
			MaxCatchUp:    250 * time.Millisecond,
			ChecksumEvery: 60,
			StallTimeout:  5 * time.Second,
		},
		Relay: RelayConfig{
			URL:           "ws://127.0.0.1:8787",
			Listen:        ":8787",
			RoomTimeout:   2 * time.Minute,
			CleanupPeriod: 30 * time.Second,
			MaxRooms:      1024,
		},
		SSH: SSHConfig{
			Listen:      ":23235",
			HostKeyPath: "~/.netpong/ssh_host_ed25519",
		},
		Input: InputConfig{
			KeyHoldTicks: 8,
		},
		Audio: AudioConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level: "info",
			File:  "~/.netpong/netpong.log",
		},
		Storage: StorageConfig{
			DBPath: "~/.netpong/netpong.db",
		},
	}
}

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return defaultYAML
}
