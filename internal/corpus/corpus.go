// Package corpus replays one scenario agent from every open cell and keeps
// the resulting move logs as training sequences for the n-gram model.
package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"coptrack/internal/config"
	"coptrack/internal/grid"
	"coptrack/internal/logging"
	"coptrack/internal/sim"
	"coptrack/internal/util"
)

// Run is one replay: the agent's full log, sentinel included.
type Run struct {
	Agent string   `json:"agent"`
	Start grid.Pos `json:"start"`
	Seed  int64    `json:"seed"`
	Ticks int      `json:"ticks"`
	Log   []string `json:"log"`
}

// Sequences strips the runs down to their logs.
func Sequences(runs []Run) [][]string {
	out := make([][]string, len(runs))
	for i, r := range runs {
		out[i] = r.Log
	}
	return out
}

// Generate replays sc.Corpus.Agent alone on sc's walled grid once per open
// cell, sc.Corpus.Ticks ticks each, on sc.Corpus.Workers goroutines. Run i
// is seeded with util.JobSeed(sc.Seed, i), so the result does not depend on
// the worker count. Runs come back in row-major start order.
func Generate(ctx context.Context, sc *config.Scenario, log *slog.Logger) ([]Run, error) {
	if log == nil {
		log = logging.Discard()
	}
	def, ok := sc.Agent(sc.Corpus.Agent)
	if !ok {
		return nil, fmt.Errorf("corpus: no agent %q", sc.Corpus.Agent)
	}
	board, err := grid.New(sc.Grid.Rows, sc.Grid.Cols)
	if err != nil {
		return nil, err
	}
	for _, w := range sc.Grid.Walls {
		if err := board.SetWall(w.Pos()); err != nil {
			return nil, err
		}
	}
	starts := board.Open()
	workers := sc.Corpus.Workers
	if workers < 1 {
		workers = 1
	}
	log.Info("corpus start", "agent", def.ID, "starts", len(starts), "ticks", sc.Corpus.Ticks, "workers", workers)

	runs := make([]Run, len(starts))
	var (
		mu       sync.Mutex
		firstErr error
	)
	wg := sync.WaitGroup{}
	jobs := make(chan int, len(starts))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				run, err := replay(sc, def, starts[i], util.JobSeed(sc.Seed, i))
				mu.Lock()
				if err != nil && firstErr == nil {
					firstErr = fmt.Errorf("start %v: %w", starts[i], err)
				}
				runs[i] = run
				mu.Unlock()
			}
		}()
	}
enqueue:
	for i := range starts {
		select {
		case <-ctx.Done():
			break enqueue
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}
	log.Info("corpus done", "runs", len(runs))
	return runs, nil
}

func replay(sc *config.Scenario, def config.AgentDef, start grid.Pos, seed int64) (Run, error) {
	solo := *sc
	solo.Seed = seed
	def.Start = config.Point{start.R, start.C}
	solo.Agents = []config.AgentDef{def}
	s, err := sim.Build(&solo)
	if err != nil {
		return Run{}, err
	}
	res := s.Run(sc.Corpus.Ticks, false)
	return Run{Agent: def.ID, Start: start, Seed: seed, Ticks: res.Ticks, Log: res.Logs[def.ID]}, nil
}
