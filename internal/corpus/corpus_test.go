package corpus

import (
	"bytes"
	"context"
	"math"
	"path/filepath"
	"reflect"
	"testing"

	"coptrack/internal/config"
	"coptrack/internal/grid"
	"coptrack/internal/ngram"
)

func fixedOrderScenario(t *testing.T, workers int) *config.Scenario {
	t.Helper()
	sc := config.Default()
	sc.Agents = []config.AgentDef{{
		ID: "robber", Kind: "robber", Policy: config.PolicyOrdered,
		Order: []string{"N", "E", "S", "W"},
	}}
	sc.Corpus.Agent = "robber"
	sc.Corpus.Workers = workers
	if err := sc.Validate(); err != nil {
		t.Fatal(err)
	}
	return sc
}

func TestGenerateEveryStartOfFiveByFive(t *testing.T) {
	sc := fixedOrderScenario(t, 4)
	runs, err := Generate(context.Background(), sc, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(runs) != 25 {
		t.Fatalf("runs = %d", len(runs))
	}
	seen := map[grid.Pos]bool{}
	for i, r := range runs {
		if len(r.Log) != 101 || r.Log[0] != "start" || r.Ticks != 100 {
			t.Fatalf("run %d: %d entries, ticks %d", i, len(r.Log), r.Ticks)
		}
		seen[r.Start] = true
	}
	if len(seen) != 25 || runs[0].Start != (grid.Pos{}) || runs[24].Start != (grid.Pos{R: 4, C: 4}) {
		t.Fatalf("starts out of order: first %v last %v", runs[0].Start, runs[24].Start)
	}

	m, err := ngram.ConditionalModel(Sequences(runs), 1)
	if err != nil {
		t.Fatal(err)
	}
	sum := 0.0
	for _, p := range m.Next(nil) {
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("unigram row sums to %v", sum)
	}
}

func TestGenerateIgnoresWorkerCount(t *testing.T) {
	sc := fixedOrderScenario(t, 1)
	sc.Agents[0].Policy = config.PolicyTable
	sc.Agents[0].Order = nil
	sc.Grid.Walls = []config.Point{{2, 2}}
	sc.Corpus.Ticks = 30
	one, err := Generate(context.Background(), sc, nil)
	if err != nil {
		t.Fatal(err)
	}
	sc.Corpus.Workers = 8
	many, err := Generate(context.Background(), sc, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(one) != 24 || !reflect.DeepEqual(one, many) {
		t.Fatalf("worker count changed the corpus (%d vs %d runs)", len(one), len(many))
	}
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Generate(ctx, fixedOrderScenario(t, 2), nil); err == nil {
		t.Fatalf("cancelled Generate returned no error")
	}
}

func TestGenerateUnknownAgent(t *testing.T) {
	sc := fixedOrderScenario(t, 1)
	sc.Corpus.Agent = "ghost"
	if _, err := Generate(context.Background(), sc, nil); err == nil {
		t.Fatalf("unknown agent accepted")
	}
}

func sampleRuns() []Run {
	return []Run{
		{Agent: "robber", Start: grid.Pos{R: 0, C: 1}, Seed: 3, Ticks: 3, Log: []string{"start", "N", "stay", "E"}},
		{Agent: "robber", Start: grid.Pos{R: 2, C: 2}, Seed: 4, Ticks: 2, Log: []string{"start", "W", "W"}},
	}
}

func TestZstdRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleRuns()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(got, sampleRuns()) {
		t.Fatalf("got %+v", got)
	}

	path := filepath.Join(t.TempDir(), "out", "corpus.jsonl.zst")
	if err := WriteFile(path, sampleRuns()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err = ReadFile(path)
	if err != nil || len(got) != 2 {
		t.Fatalf("ReadFile = %d runs, %v", len(got), err)
	}
}

func TestReadRejectsPlainText(t *testing.T) {
	if _, err := Read(bytes.NewBufferString("{\"agent\":\"x\"}\n")); err == nil {
		t.Fatalf("uncompressed input accepted")
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	st, err := OpenStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer st.Close()

	if err := st.SaveRuns(ctx, sampleRuns()); err != nil {
		t.Fatalf("SaveRuns: %v", err)
	}
	extra := Run{Agent: "cop", Log: []string{"start"}}
	if err := st.SaveRuns(ctx, []Run{extra}); err != nil {
		t.Fatal(err)
	}
	got, err := st.Runs(ctx, "robber")
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if !reflect.DeepEqual(got, sampleRuns()) {
		t.Fatalf("got %+v", got)
	}
	all, _ := st.Runs(ctx, "")
	if len(all) != 3 {
		t.Fatalf("all runs = %d", len(all))
	}

	m, err := ngram.ConditionalModel(Sequences(got), 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.SaveModel(ctx, m); err != nil {
		t.Fatalf("SaveModel: %v", err)
	}
	// Saving again replaces the rows instead of failing on the key.
	if err := st.SaveModel(ctx, m); err != nil {
		t.Fatalf("SaveModel again: %v", err)
	}
	p, ok, err := st.ModelProb(ctx, 2, []string{"W"}, "W")
	if err != nil || !ok || p != m.Prob([]string{"W"}, "W") {
		t.Fatalf("ModelProb = %v, %v, %v", p, ok, err)
	}
	if _, ok, _ := st.ModelProb(ctx, 2, []string{"E"}, "N"); ok {
		t.Fatalf("unseen pair stored")
	}
}

func TestStoreKeepsContextsApart(t *testing.T) {
	ctx := context.Background()
	st, err := OpenStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer st.Close()

	// Space-joined, both contexts below would read "a b c".
	m, err := ngram.ConditionalModel([][]string{{"a b", "c", "x"}, {"a", "b c", "y"}}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.SaveModel(ctx, m); err != nil {
		t.Fatalf("SaveModel: %v", err)
	}
	if p, ok, err := st.ModelProb(ctx, 3, []string{"a", "b c"}, "y"); err != nil || !ok || p != 1 {
		t.Fatalf("P(y|a,b c) = %v, %v, %v", p, ok, err)
	}
	if p, ok, err := st.ModelProb(ctx, 3, []string{"a b", "c"}, "x"); err != nil || !ok || p != 1 {
		t.Fatalf("P(x|a b,c) = %v, %v, %v", p, ok, err)
	}
	if _, ok, _ := st.ModelProb(ctx, 3, []string{"a b", "c"}, "y"); ok {
		t.Fatalf("contexts collided")
	}

	uni, _ := ngram.ConditionalModel([][]string{{"N", "N"}}, 1)
	if err := st.SaveModel(ctx, uni); err != nil {
		t.Fatal(err)
	}
	if p, ok, err := st.ModelProb(ctx, 1, nil, "N"); err != nil || !ok || p != 1 {
		t.Fatalf("P(N) = %v, %v, %v", p, ok, err)
	}
}
