package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/netpong/internal/config"
	"github.com/vovakirdan/netpong/internal/platform/tui"
	"github.com/vovakirdan/netpong/internal/storage"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
	flagServeRelay  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the netpong SSH server",
	Long: `Start an SSH server that lets users play netpong without installing it.

Each SSH connection gets its own lobby and plays online through the relay.
Match history is stored per-server.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, uses ssh.host_key_path from config
  - The key is generated on first start if the file does not exist

Examples:
  netpong serve                           # Listen on ssh.listen from config
  netpong serve --ssh :2222               # Listen on port 2222
  netpong serve --host-key ./my_host_key  # Use specific host key
  netpong serve --relay ws://relay:8787   # Pair players through another relay

Users can connect with:
  ssh localhost -p 23235`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (empty = from config)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (empty = from config)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
	serveCmd.Flags().StringVar(&flagServeRelay, "relay", "", "Relay URL sessions connect to (empty = from config)")
}

func runServe(cmd *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitf("%v", err)
	}

	sshCfg := tui.SSHServerConfig{
		Address:     cfg.SSH.Listen,
		HostKeyPath: cfg.SSH.HostKeyPath,
		RelayURL:    cfg.Relay.URL,
		Loop:        loopConfig(cfg),
		IdleTimeout: time.Duration(flagIdleTimeout) * time.Minute,
	}
	if flagSSHAddr != "" {
		sshCfg.Address = flagSSHAddr
	}
	if flagHostKey != "" {
		sshCfg.HostKeyPath = flagHostKey
	}
	if flagServeRelay != "" {
		sshCfg.RelayURL = flagServeRelay
	}
	if sshCfg.HostKeyPath, err = config.ExpandPath(sshCfg.HostKeyPath); err != nil {
		exitf("%v", err)
	}

	logger := config.NewLogger(cfg.Log, os.Stderr, "netpong-ssh")

	// History is shared by every SSH player.
	var store *storage.Store
	if dbPath, pathErr := config.ExpandPath(cfg.Storage.DBPath); pathErr == nil {
		if store, err = storage.Open(dbPath); err != nil {
			logger.Warn("could not open match database", "error", err)
			store = nil
		}
	}
	if store != nil {
		defer store.Close()
	}

	server, err := tui.NewSSHServer(sshCfg, store, logger)
	if err != nil {
		exitf("creating server: %v", err)
	}

	fmt.Printf("Starting netpong SSH server on %s\n", server.Addr())
	fmt.Printf("Players are paired through %s\n", sshCfg.RelayURL)
	fmt.Println("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.ListenAndServe(ctx); err != nil {
		exitf("server: %v", err)
	}
}
