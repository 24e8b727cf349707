// netpong is a two-player terminal Pong with rollback-ready netcode.
//
// Usage:
//
//	netpong play                 - Open the lobby (online, local or synctest)
//	netpong relay                - Run the WebSocket relay that pairs players
//	netpong serve                - Start SSH server for remote play
//	netpong history              - Show recent matches
//	netpong checksum             - Run a headless synctest and print checksums
//
// Global flags:
//
//	--config <path>     - Config file (default: ./configs/netpong.yaml or ~/.netpong/netpong.yaml)
//	--fps <rate>        - Override netcode.fps
//	--db <path>         - Override storage.db_path
//	--log-level <level> - Override log.level
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/netpong/internal/config"
	"github.com/vovakirdan/netpong/internal/loop"
	"github.com/vovakirdan/netpong/internal/relay"
)

var (
	// Global flags
	flagConfig   string
	flagFPS      int
	flagDBPath   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "netpong",
	Short: "netpong - two-player Pong over the network, in your terminal",
	Long: `netpong is a terminal Pong for two players. Play on one keyboard,
or meet an opponent in a relay room and play over the network.

Available commands:
  play      - Open the lobby and play
  relay     - Run the relay server
  serve     - Start SSH server for remote play
  history   - View match history
  checksum  - Headless determinism check

Examples:
  netpong play
  netpong play --mode local
  netpong play --room AB12 --preset internet
  netpong relay --listen :8787
  netpong serve --ssh :2222
  netpong history --mode online`,
	SilenceUsage: true,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 0, "Logical frames per second (0 = from config)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to match history database (empty = from config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")

	// Add subcommands
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(relayCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(checksumCmd)
}

// loadConfig loads the configuration and applies global flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagFPS > 0 {
		cfg.Netcode.FPS = flagFPS
	}
	if flagDBPath != "" {
		cfg.Storage.DBPath = flagDBPath
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	return cfg, cfg.Validate()
}

// loopConfig maps the file configuration onto the pacing loop.
func loopConfig(cfg config.Config) loop.Config {
	return loop.Config{
		FPS:           cfg.Netcode.FPS,
		AheadFactor:   cfg.Netcode.AheadFactor,
		MaxCatchUp:    cfg.Netcode.MaxCatchUp,
		KeyHoldTicks:  cfg.Input.KeyHoldTicks,
		InputDelay:    cfg.Netcode.InputDelay,
		CheckDistance: cfg.Netcode.CheckDistance,
		ChecksumEvery: cfg.Netcode.ChecksumEvery,
		StallTimeout:  cfg.Netcode.StallTimeout,
	}
}

// coordinatorConfig maps the file configuration onto the relay.
func coordinatorConfig(cfg config.Config) relay.CoordinatorConfig {
	return relay.CoordinatorConfig{
		RoomTimeout:   cfg.Relay.RoomTimeout,
		CleanupPeriod: cfg.Relay.CleanupPeriod,
		MaxRooms:      cfg.Relay.MaxRooms,
	}
}

// exitf prints an error and exits.
func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
