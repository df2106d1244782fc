// Package freq keeps per-comment word frequencies.
package freq

import "sort"

// Table counts, for every word, the number of comments containing it.
type Table struct {
	N      int64            // total number of comments added
	counts map[string]int64 // comment frequency per word
	order  []string         // words in first-seen order
}

// Entry is one row of the table.
type Entry struct {
	Word  string
	Count int64
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{counts: make(map[string]int64)}
}

// AddDocument counts each word of one comment once.
// Callers pass words already deduplicated; repeats are ignored anyway.
func (t *Table) AddDocument(uniqueWords []string) {
	t.N++
	seen := make(map[string]struct{}, len(uniqueWords))
	for _, w := range uniqueWords {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := t.counts[w]; !ok {
			t.order = append(t.order, w)
		}
		t.counts[w]++
	}
}

// Count returns the number of comments containing w.
func (t *Table) Count(w string) int64 {
	return t.counts[w]
}

// Len returns the number of distinct words.
func (t *Table) Len() int {
	return len(t.counts)
}

// TotalDocs returns the number of comments processed.
func (t *Table) TotalDocs() int64 {
	return t.N
}

// MostCommon lists every word, highest count first; ties keep first-seen order.
func (t *Table) MostCommon() []Entry {
	out := make([]Entry, len(t.order))
	for i, w := range t.order {
		out[i] = Entry{Word: w, Count: t.counts[w]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// Top returns the n most common entries. n <= 0 returns all of them.
func (t *Table) Top(n int) []Entry {
	all := t.MostCommon()
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	return all
}
