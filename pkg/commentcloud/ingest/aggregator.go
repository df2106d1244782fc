// Package ingest turns comment text into word-frequency statistics.
package ingest

import (
	"unicode"

	"github.com/cognicore/commentcloud/pkg/commentcloud/flatten"
	"github.com/cognicore/commentcloud/pkg/commentcloud/freq"
	"github.com/cognicore/commentcloud/pkg/commentcloud/stoplist"
)

// DefaultTags are the IPA categories counted by default: nouns, pronouns and
// adjectives.
var DefaultTags = []string{"名詞", "代名詞", "形容詞"}

// Aggregator orchestrates the counting flow:
// raw text → tokenization → POS filter → per-comment dedup → stop-word filter
type Aggregator struct {
	tokenizer Tokenizer
	stops     *stoplist.Set
	tags      map[string]struct{}
}

// NewAggregator creates an aggregator. Empty tags means DefaultTags.
func NewAggregator(tokenizer Tokenizer, stops *stoplist.Set, tags []string) *Aggregator {
	if len(tags) == 0 {
		tags = DefaultTags
	}
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return &Aggregator{
		tokenizer: tokenizer,
		stops:     stops,
		tags:      set,
	}
}

// Count builds the frequency table over every comment's raw text.
func (a *Aggregator) Count(comments []flatten.Comment) *freq.Table {
	table := freq.NewTable()
	for _, c := range comments {
		table.AddDocument(a.Words(c.RawText))
	}
	return table
}

// Words returns the distinct qualifying words of text in first-seen order.
func (a *Aggregator) Words(text string) []string {
	var words []string
	seen := make(map[string]struct{})
	for tok := range a.tokenizer.Tokenize(text) {
		if !a.tagged(tok.POS) {
			continue
		}
		w := tok.Surface
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}

		if !isAlpha(w) || a.stops.IsStop(w) {
			continue
		}
		words = append(words, w)
	}
	return words
}

// tagged reports whether any level of the POS hierarchy is a counted tag.
func (a *Aggregator) tagged(pos []string) bool {
	for _, p := range pos {
		if _, ok := a.tags[p]; ok {
			return true
		}
	}
	return false
}

// isAlpha reports whether s is non-empty and made only of letters.
func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
