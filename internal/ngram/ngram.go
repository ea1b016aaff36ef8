// Package ngram counts contiguous windows of symbol sequences and turns the
// counts into maximum-likelihood next-symbol models.
package ngram

import (
	"sort"
	"strconv"
	"strings"
)

// Window is an ordered tuple of symbols packed into a comparable key. Each
// symbol is stored as "<byte length>:<symbol>", so any string, including the
// empty one, round-trips exactly.
type Window string

func Key(symbols []string) Window {
	var b strings.Builder
	for _, s := range symbols {
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte(':')
		b.WriteString(s)
	}
	return Window(b.String())
}

// Symbols unpacks the window. Keys not built by Key decode to nil.
func (w Window) Symbols() []string {
	var out []string
	rest := string(w)
	for rest != "" {
		colon := strings.IndexByte(rest, ':')
		if colon <= 0 {
			return nil
		}
		n, err := strconv.Atoi(rest[:colon])
		if err != nil || n < 0 || colon+1+n > len(rest) {
			return nil
		}
		out = append(out, rest[colon+1:colon+1+n])
		rest = rest[colon+1+n:]
	}
	return out
}

func (w Window) String() string { return strings.Join(w.Symbols(), " ") }

type Counts map[Window]int

// Total is the number of window occurrences counted.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

type Entry struct {
	Symbols []string `json:"symbols"`
	Count   int      `json:"count"`
}

// Sorted lists windows by descending count, ties in symbol order.
func (c Counts) Sorted() []Entry {
	keys := make([]Window, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	out := make([]Entry, len(keys))
	for i, k := range keys {
		out[i] = Entry{Symbols: k.Symbols(), Count: c[k]}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return lessSymbols(out[i].Symbols, out[j].Symbols)
	})
	return out
}

// lessSymbols orders symbol tuples lexicographically, symbol by symbol.
func lessSymbols(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// CountWindows counts every length-n window of seq. A sequence of length L
// yields max(0, L-n+1) occurrences; n < 0 yields none.
func CountWindows(seq []string, n int) Counts {
	out := Counts{}
	if n < 0 {
		return out
	}
	for i := n; i <= len(seq); i++ {
		out[Key(seq[i-n:i])]++
	}
	return out
}

// CumulativeCounts sums CountWindows over independent sequences, so no
// window spans two of them.
func CumulativeCounts(corpus [][]string, n int) Counts {
	out := Counts{}
	for _, seq := range corpus {
		for k, v := range CountWindows(seq, n) {
			out[k] += v
		}
	}
	return out
}
