package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/netpong/internal/audio"
	"github.com/vovakirdan/netpong/internal/audio/tone"
	"github.com/vovakirdan/netpong/internal/config"
	"github.com/vovakirdan/netpong/internal/loop"
	"github.com/vovakirdan/netpong/internal/multiplayer"
	"github.com/vovakirdan/netpong/internal/platform/tui"
	"github.com/vovakirdan/netpong/internal/relay"
	"github.com/vovakirdan/netpong/internal/storage"
)

var (
	flagMode     string
	flagRoom     string
	flagPreset   string
	flagRelayURL string
	flagNoSound  bool
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Open the lobby and play",
	Long: `Open the netpong lobby.

Modes (tab cycles them in the lobby):
  online    - Meet an opponent in a relay room
  local     - Both paddles on one keyboard
  synctest  - Local play that rolls back and replays every frame

Controls:
  W/S          - Left paddle (local), your paddle (online)
  Up/Down, K/J - Right paddle (local), your paddle (online)
  Enter        - Join the room / start
  Tab          - Next mode
  Ctrl+T       - Match history
  Esc          - Leave match / quit
  Ctrl+C       - Quit

Examples:
  netpong play
  netpong play --mode local
  netpong play --room AB12 --preset lan
  netpong play --relay ws://pong.example.com:8787`,
	Run: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagMode, "mode", "online", "Initial mode: online, local, synctest")
	playCmd.Flags().StringVar(&flagRoom, "room", "", "Join this room right away (online only, \"random\" for matchmaking)")
	playCmd.Flags().StringVar(&flagPreset, "preset", "", "Input delay preset: lan, internet, far")
	playCmd.Flags().StringVar(&flagRelayURL, "relay", "", "Relay URL (empty = from config)")
	playCmd.Flags().BoolVar(&flagNoSound, "mute", false, "Disable sound")
}

func runPlay(cmd *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitf("%v", err)
	}
	if err := config.ApplyNetPreset(&cfg, config.NetPreset(flagPreset)); err != nil {
		exitf("%v", err)
	}
	if flagRelayURL != "" {
		cfg.Relay.URL = flagRelayURL
	}
	mode, err := multiplayer.ParseMatchMode(flagMode)
	if err != nil {
		exitf("%v", err)
	}

	// The TUI owns the terminal, so logs go to a file.
	var logOut io.Writer = io.Discard
	if logFile, logErr := config.OpenLogFile(cfg.Log); logErr == nil {
		defer logFile.Close()
		logOut = logFile
	}
	logger := config.NewLogger(cfg.Log, logOut, "netpong")

	// Open match history
	var store *storage.Store
	if dbPath, pathErr := config.ExpandPath(cfg.Storage.DBPath); pathErr == nil {
		store, err = storage.Open(dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not open match database: %v\n", err)
			// Continue without storage - the game still works
			store = nil
		}
	}
	if store != nil {
		defer store.Close()
	}

	var player audio.Player = audio.Silent{}
	if cfg.Audio.Enabled && !flagNoSound {
		if bp, audioErr := tone.NewBeepPlayer(); audioErr == nil {
			player = bp
		} else {
			logger.Warn("sound disabled", "error", audioErr)
		}
	}
	defer player.Close()

	opts := loop.Options{
		Mode:    mode,
		Connect: loop.DialRelay(cfg.Relay.URL, logger),
		Audio:   player,
		Logger:  logger,
	}
	if store != nil {
		opts.Results = store
	}
	driver := loop.NewDriver(loopConfig(cfg), opts)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd.Flags().Changed("room") {
		if mode != multiplayer.MatchModeOnline {
			exitf("--room needs --mode online")
		}
		if err := joinRoom(ctx, driver, flagRoom); err != nil {
			exitf("%v", err)
		}
	}

	width, height := terminalSize()
	if err := tui.Run(ctx, driver, store, cfg.Netcode.FPS, width, height); err != nil {
		exitf("running game: %v", err)
	}
}

// joinRoom starts an online match before the lobby is shown.
func joinRoom(ctx context.Context, driver *loop.Driver, room string) error {
	code, err := relay.NormalizeCode(room)
	if err != nil {
		return err
	}
	return driver.Join(ctx, code)
}

// terminalSize returns the size of stdout, or 80x24 if it is not a terminal.
func terminalSize() (int, int) {
	width, height := 80, 24 // Defaults
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w
		height = h
	}
	return width, height
}
