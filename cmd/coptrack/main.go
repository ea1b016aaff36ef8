package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"coptrack/internal/config"
	"coptrack/internal/logging"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "coptrack",
		Short: "Grid pursuit simulator with movement-model inference",
		Long: `coptrack runs cops and robbers on a walled grid in simultaneous ticks.

Trackers turn what they sense into a guess of the robber's moves; corpora
of robber logs from every start cell feed an n-gram model of its policy.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug or trace (default: scenario's, else info)")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newCorpusCmd(),
		newModelCmd(),
	)
	return rootCmd
}

// loggerFor builds the stderr logger; the flag wins over the scenario.
func loggerFor(cmd *cobra.Command, sc *config.Scenario) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	if level == "" && sc != nil {
		level = sc.Logging.Level
	}
	return logging.NewLogger(level, cmd.ErrOrStderr())
}

func loadScenario(cmd *cobra.Command) (*config.Scenario, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return nil, fmt.Errorf("--config is required")
	}
	return config.Load(path)
}
