package ingest

import (
	"fmt"
	"iter"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Token is one morpheme with its part-of-speech hierarchy,
// e.g. Surface "私", POS ["名詞", "代名詞", "一般", "*"].
type Token struct {
	Surface string
	POS     []string
}

// Tokenizer splits text into tagged tokens.
type Tokenizer interface {
	Tokenize(text string) iter.Seq[Token]
}

// Kagome tokenizes Japanese text with the IPA dictionary.
type Kagome struct {
	t *tokenizer.Tokenizer
}

var _ Tokenizer = (*Kagome)(nil)

// NewKagome loads the IPA dictionary and builds a tokenizer.
func NewKagome() (*Kagome, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("kagome tokenizer: %w", err)
	}
	return &Kagome{t: t}, nil
}

// Tokenize yields tokens lazily in text order.
func (k *Kagome) Tokenize(text string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		for _, tok := range k.t.Tokenize(text) {
			if !yield(Token{Surface: tok.Surface, POS: tok.POS()}) {
				return
			}
		}
	}
}
