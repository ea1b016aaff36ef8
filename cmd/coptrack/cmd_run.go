package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"coptrack/internal/sim"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one scenario and report logs, positions and tracker deductions",
		Long: `Run one scenario for its configured number of ticks.

Examples:
  coptrack run -c assets/scenarios/chase.yaml
  coptrack run -c chase.yaml --ticks 20 --events --out result.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := loadScenario(cmd)
			if err != nil {
				return err
			}
			log := loggerFor(cmd, sc)
			ticks, _ := cmd.Flags().GetInt("ticks")
			if ticks < 0 {
				ticks = sc.Ticks
			}
			record, _ := cmd.Flags().GetBool("events")
			out, _ := cmd.Flags().GetString("out")
			jsonOut, _ := cmd.Flags().GetBool("json")

			s, err := sim.Build(sc, sim.WithLogger(log))
			if err != nil {
				return fmt.Errorf("building scenario %s: %w", sc.Name, err)
			}
			res := s.Run(ticks, record)

			if out != "" {
				if err := os.WriteFile(out, sim.MarshalPretty(res), 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Run %s finished after %d ticks -> %s\n", sc.Name, res.Ticks, out)
				return nil
			}
			if jsonOut {
				_, err := cmd.OutOrStdout().Write(append(sim.MarshalPretty(res), '\n'))
				return err
			}
			printResult(cmd, sc.Name, res)
			return nil
		},
	}
	cmd.Flags().StringP("config", "c", "", "Scenario YAML file")
	cmd.Flags().Int("ticks", -1, "Override the scenario's tick count")
	cmd.Flags().Bool("events", false, "Keep every emitted event in the result")
	cmd.Flags().String("out", "", "Write the result as JSON to this file")
	return cmd
}

func printResult(cmd *cobra.Command, name string, res sim.Result) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Scenario %s: %d ticks\n", name, res.Ticks)
	ids := make([]string, 0, len(res.Logs))
	for id := range res.Logs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(w, "  %-10s at %v, %d moves logged\n", id, res.Positions[id], len(res.Logs[id])-1)
	}
	for _, id := range ids {
		tr, ok := res.Trackers[id]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  tracker %s -> %s: %d/%d known deductions agree, %d impossible\n",
			id, tr.TargetID, tr.Agree, tr.Known, tr.Impossible)
		if len(tr.Model) > 0 {
			fmt.Fprintf(w, "    order-%d model of %s, %d contexts:\n", tr.ModelN, tr.TargetID, len(tr.Model))
		}
		for _, row := range tr.Model {
			ctx := strings.Join(row.Context, " ")
			if ctx == "" {
				ctx = "(empty)"
			}
			best, bestP := "", -1.0
			for sym, p := range row.Next {
				if p > bestP || (p == bestP && sym < best) {
					best, bestP = sym, p
				}
			}
			fmt.Fprintf(w, "      %-16s -> %s %.3f\n", ctx, best, bestP)
		}
	}
	if len(res.Diagnostics) > 0 {
		kinds := make([]string, 0, len(res.Diagnostics))
		for k := range res.Diagnostics {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Fprintf(w, "  %s: %d\n", k, res.Diagnostics[k])
		}
	}
}
