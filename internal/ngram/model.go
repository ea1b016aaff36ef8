package ngram

import (
	"fmt"
	"sort"
)

// Model maps an (N-1)-symbol context to next-symbol probabilities. It is
// built once by ConditionalModel and never modified afterwards.
type Model struct {
	N     int
	probs map[Window]map[string]float64
}

// ConditionalModel estimates P(last | first N-1) = count(window) /
// count(context), where count(context) counts the context only where it is
// followed by a symbol. Contexts at the very end of a sequence therefore do
// not dilute the estimate, and every context's row sums to 1.
func ConditionalModel(corpus [][]string, n int) (*Model, error) {
	if n < 1 {
		return nil, fmt.Errorf("ngram order %d: must be at least 1", n)
	}
	windows := CumulativeCounts(corpus, n)
	ctxTotals := map[Window]int{}
	for w, c := range windows {
		syms := w.Symbols()
		if len(syms) == 0 {
			continue
		}
		ctxTotals[Key(syms[:len(syms)-1])] += c
	}
	m := &Model{N: n, probs: map[Window]map[string]float64{}}
	for w, c := range windows {
		syms := w.Symbols()
		if len(syms) == 0 {
			continue
		}
		ctx := Key(syms[:len(syms)-1])
		row := m.probs[ctx]
		if row == nil {
			row = map[string]float64{}
			m.probs[ctx] = row
		}
		row[syms[len(syms)-1]] = float64(c) / float64(ctxTotals[ctx])
	}
	return m, nil
}

// Prob returns P(next | context), zero for unseen pairs.
func (m *Model) Prob(context []string, next string) float64 {
	return m.probs[Key(context)][next]
}

// Next returns a copy of the distribution after context, nil if unseen.
func (m *Model) Next(context []string) map[string]float64 {
	row, ok := m.probs[Key(context)]
	if !ok {
		return nil
	}
	out := make(map[string]float64, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

// Predict returns the most likely next symbol; ties go to the smaller symbol.
func (m *Model) Predict(context []string) (string, float64, bool) {
	row, ok := m.probs[Key(context)]
	if !ok {
		return "", 0, false
	}
	best, bestP := "", -1.0
	for sym, p := range row {
		if p > bestP || (p == bestP && sym < best) {
			best, bestP = sym, p
		}
	}
	return best, bestP, true
}

// Contexts lists every observed context in symbol order.
func (m *Model) Contexts() [][]string {
	out := make([][]string, 0, len(m.probs))
	for k := range m.probs {
		out = append(out, k.Symbols())
	}
	sort.Slice(out, func(i, j int) bool { return lessSymbols(out[i], out[j]) })
	return out
}

type Row struct {
	Context []string           `json:"context"`
	Next    map[string]float64 `json:"next"`
}

// Rows flattens the model for reporting, in Contexts order.
func (m *Model) Rows() []Row {
	ctxs := m.Contexts()
	out := make([]Row, len(ctxs))
	for i, c := range ctxs {
		if c == nil {
			c = []string{}
		}
		out[i] = Row{Context: c, Next: m.Next(c)}
	}
	return out
}
