package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/netpong/internal/config"
	"github.com/vovakirdan/netpong/internal/multiplayer"
	"github.com/vovakirdan/netpong/internal/platform/tui"
	"github.com/vovakirdan/netpong/internal/storage"
)

var (
	flagHistoryMode  string
	flagHistoryLimit int
	flagHistoryTUI   bool
	flagHistoryClear bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent matches",
	Long: `Display recent matches and overall stats.

Examples:
  netpong history
  netpong history --mode online --limit 20
  netpong history --tui
  netpong history --clear`,
	Run: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&flagHistoryMode, "mode", "", "Only show this mode: online, local, synctest")
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 10, "Number of matches to show")
	historyCmd.Flags().BoolVar(&flagHistoryTUI, "tui", false, "Browse history interactively")
	historyCmd.Flags().BoolVar(&flagHistoryClear, "clear", false, "Delete all recorded matches")
}

func runHistory(_ *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitf("%v", err)
	}
	if flagHistoryMode != "" {
		if _, err := multiplayer.ParseMatchMode(flagHistoryMode); err != nil {
			exitf("%v", err)
		}
	}

	dbPath, err := config.ExpandPath(cfg.Storage.DBPath)
	if err != nil {
		exitf("%v", err)
	}
	store, err := storage.Open(dbPath)
	if err != nil {
		exitf("opening match database: %v", err)
	}
	defer store.Close()

	switch {
	case flagHistoryClear:
		if err := store.ClearMatches(); err != nil {
			exitf("clearing history: %v", err)
		}
		fmt.Println("Match history cleared.")
		return

	case flagHistoryTUI:
		width, height := terminalSize()
		if err := tui.RunHistory(store, width, height); err != nil {
			exitf("%v", err)
		}
		return
	}

	matches, err := store.RecentMatches(flagHistoryMode, flagHistoryLimit)
	if err != nil {
		exitf("retrieving matches: %v", err)
	}

	fmt.Println("Recent matches")
	fmt.Println()

	if len(matches) == 0 {
		fmt.Println("No matches recorded yet.")
		fmt.Println()
		fmt.Println("Play 'netpong play' to record the first one!")
		return
	}

	// Print header
	fmt.Printf("  %-16s  %-8s  %-6s  %-5s  %-5s  %-10s  %s\n", "Date", "Mode", "Room", "Seat", "Score", "Result", "Time")
	fmt.Printf("  %-16s  %-8s  %-6s  %-5s  %-5s  %-10s  %s\n", "----", "----", "----", "----", "-----", "------", "----")

	rows := tui.MatchRows(matches)
	for i, rec := range matches {
		row := rows[i]
		dateStr := rec.CreatedAt.Local().Format("2006-01-02 15:04")
		fmt.Printf("  %-16s  %-8s  %-6s  %-5s  %-5s  %-10s  %s\n", dateStr, row[1], row[2], row[3], row[4], row[5], row[6])
	}

	stats, err := store.GetStats()
	if err != nil {
		return
	}
	fmt.Println()
	fmt.Printf("Total: %d matches, %d completed (left %d, right %d)\n",
		stats.Matches, stats.Completed, stats.LeftWins, stats.RightWins)
	if !stats.LastPlayed.IsZero() {
		fmt.Printf("Last played: %s\n", stats.LastPlayed.Local().Format("2006-01-02 15:04"))
	}
}
