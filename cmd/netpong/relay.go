package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/netpong/internal/config"
	"github.com/vovakirdan/netpong/internal/relay"
)

var (
	flagRelayListen string
	flagMaxRooms    int
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run the relay server",
	Long: `Run the WebSocket relay that pairs players into rooms.

Clients connect to /ws/<room>. An empty room or "random" matchmakes into
the oldest public room that is waiting for a second player.

Endpoints:
  /ws/:room  - WebSocket room
  /healthz   - JSON health and room counts
  /metrics   - Prometheus metrics

Examples:
  netpong relay
  netpong relay --listen :9000
  NETPONG_RELAY_MAX_ROOMS=64 netpong relay`,
	Run: runRelay,
}

func init() {
	relayCmd.Flags().StringVar(&flagRelayListen, "listen", "", "Listen address (empty = from config)")
	relayCmd.Flags().IntVar(&flagMaxRooms, "max-rooms", 0, "Maximum open rooms (0 = from config)")
}

func runRelay(cmd *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitf("%v", err)
	}
	if flagRelayListen != "" {
		cfg.Relay.Listen = flagRelayListen
	}
	if flagMaxRooms > 0 {
		cfg.Relay.MaxRooms = flagMaxRooms
	}

	logger := config.NewLogger(cfg.Log, os.Stderr, "relay")
	if level, _ := config.ParseLevel(cfg.Log.Level); level != log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	server := relay.NewServer(coordinatorConfig(cfg), logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("netpong relay listening on %s\n", cfg.Relay.Listen)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.ListenAndServe(ctx, cfg.Relay.Listen); err != nil {
		exitf("relay: %v", err)
	}
}
