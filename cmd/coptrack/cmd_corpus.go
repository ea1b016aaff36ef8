package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"coptrack/internal/corpus"
)

func newCorpusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Replay the corpus agent from every open cell and save its logs",
		Long: `Replay the scenario's corpus agent alone from every open cell.

Each run's log is written as one JSON line to a zstd-compressed file and,
with --db, appended to a SQLite run store.

Examples:
  coptrack corpus -c chase.yaml
  coptrack corpus -c chase.yaml --out robber.jsonl.zst --db runs.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := loadScenario(cmd)
			if err != nil {
				return err
			}
			log := loggerFor(cmd, sc)
			if cmd.Flags().Changed("out") {
				sc.Corpus.Out, _ = cmd.Flags().GetString("out")
			}
			if cmd.Flags().Changed("db") {
				sc.Corpus.DB, _ = cmd.Flags().GetString("db")
			}
			if cmd.Flags().Changed("workers") {
				sc.Corpus.Workers, _ = cmd.Flags().GetInt("workers")
			}
			if sc.Corpus.Agent == "" {
				return fmt.Errorf("scenario %s has no corpus.agent", sc.Name)
			}

			ctx := cmd.Context()
			runs, err := corpus.Generate(ctx, sc, log)
			if err != nil {
				return err
			}
			if err := corpus.WriteFile(sc.Corpus.Out, runs); err != nil {
				return fmt.Errorf("writing corpus: %w", err)
			}
			if sc.Corpus.DB != "" {
				st, err := corpus.OpenStore(sc.Corpus.DB)
				if err != nil {
					return err
				}
				defer st.Close()
				if err := st.SaveRuns(ctx, runs); err != nil {
					return fmt.Errorf("storing runs: %w", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Corpus of %d runs (%s, %d ticks) -> %s\n",
				len(runs), sc.Corpus.Agent, sc.Corpus.Ticks, sc.Corpus.Out)
			return nil
		},
	}
	cmd.Flags().StringP("config", "c", "", "Scenario YAML file")
	cmd.Flags().String("out", "", "Corpus file (default: scenario corpus.out)")
	cmd.Flags().String("db", "", "Also append runs to this SQLite store")
	cmd.Flags().Int("workers", 0, "Worker goroutines (default: scenario corpus.workers)")
	return cmd
}
