package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"coptrack/internal/corpus"
	"coptrack/internal/ngram"
	"coptrack/internal/sim"
)

func newModelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Fit an n-gram model of next moves to a corpus",
		Long: `Fit P(next move | previous n-1 moves) to a corpus.

The corpus comes from a file written by 'coptrack corpus' or, with --db
and no --in, from a run store. With --db the fitted rows are saved too.

Examples:
  coptrack model --in corpus.jsonl.zst -n 3
  coptrack model --db runs.db --agent robber -n 2 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := loggerFor(cmd, nil)
			in, _ := cmd.Flags().GetString("in")
			db, _ := cmd.Flags().GetString("db")
			agentID, _ := cmd.Flags().GetString("agent")
			n, _ := cmd.Flags().GetInt("order")
			jsonOut, _ := cmd.Flags().GetBool("json")
			if in == "" && db == "" {
				return fmt.Errorf("one of --in or --db is required")
			}

			ctx := cmd.Context()
			var (
				runs  []corpus.Run
				store *corpus.Store
				err   error
			)
			if db != "" {
				store, err = corpus.OpenStore(db)
				if err != nil {
					return err
				}
				defer store.Close()
			}
			if in != "" {
				runs, err = corpus.ReadFile(in)
			} else {
				runs, err = store.Runs(ctx, agentID)
			}
			if err != nil {
				return fmt.Errorf("reading corpus: %w", err)
			}
			if agentID != "" && in != "" {
				runs = filterAgent(runs, agentID)
			}
			log.Info("corpus loaded", "runs", len(runs))

			m, err := ngram.ConditionalModel(corpus.Sequences(runs), n)
			if err != nil {
				return err
			}
			if store != nil {
				if err := store.SaveModel(ctx, m); err != nil {
					return fmt.Errorf("storing model: %w", err)
				}
			}
			if jsonOut {
				_, err := cmd.OutOrStdout().Write(append(sim.MarshalPretty(m.Rows()), '\n'))
				return err
			}
			printModel(cmd, m, len(runs))
			if top, _ := cmd.Flags().GetInt("top"); top > 0 {
				printTop(cmd, ngram.CumulativeCounts(corpus.Sequences(runs), n), top)
			}
			return nil
		},
	}
	cmd.Flags().String("in", "", "Corpus file written by 'coptrack corpus'")
	cmd.Flags().String("db", "", "SQLite run store to read runs from and save the model to")
	cmd.Flags().String("agent", "", "Only use runs of this agent")
	cmd.Flags().IntP("order", "n", 3, "Window length; contexts are n-1 moves")
	cmd.Flags().Int("top", 0, "Also list the most frequent windows")
	return cmd
}

func filterAgent(runs []corpus.Run, id string) []corpus.Run {
	out := runs[:0]
	for _, r := range runs {
		if r.Agent == id {
			out = append(out, r)
		}
	}
	return out
}

func printModel(cmd *cobra.Command, m *ngram.Model, runs int) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Order-%d model from %d runs, %d contexts\n", m.N, runs, len(m.Contexts()))
	for _, row := range m.Rows() {
		ctx := strings.Join(row.Context, " ")
		if ctx == "" {
			ctx = "(empty)"
		}
		next := make([]string, 0, len(row.Next))
		for sym := range row.Next {
			next = append(next, sym)
		}
		sort.Strings(next)
		parts := make([]string, len(next))
		for i, sym := range next {
			parts[i] = fmt.Sprintf("%s=%.3f", sym, row.Next[sym])
		}
		best, p, _ := m.Predict(row.Context)
		fmt.Fprintf(w, "  %-20s -> %s  [%s %.3f]\n", ctx, strings.Join(parts, " "), best, p)
	}
}

func printTop(cmd *cobra.Command, counts ngram.Counts, top int) {
	w := cmd.OutOrStdout()
	entries := counts.Sorted()
	if len(entries) > top {
		entries = entries[:top]
	}
	fmt.Fprintf(w, "Top %d of %d windows (%d total)\n", len(entries), len(counts), counts.Total())
	for _, e := range entries {
		fmt.Fprintf(w, "  %6d  %s\n", e.Count, strings.Join(e.Symbols, " "))
	}
}
