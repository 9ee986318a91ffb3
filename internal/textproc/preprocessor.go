// Package textproc wraps an NLP toolkit behind the narrow preprocessing
// surface the scorer needs: token and sentence streams plus normalization.
// Nothing outside this package imports the toolkit directly.
package textproc

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
)

// ErrPreprocess indicates the toolkit failed on the supplied input. Empty or
// garbage text is not an error; it yields empty streams.
var ErrPreprocess = errors.New("text preprocessing failed")

// Preprocessor tokenizes and segments UTF-8 text.
type Preprocessor struct{}

// New creates a preprocessor.
func New() *Preprocessor {
	return &Preprocessor{}
}

// Tokens returns the lowercase word tokens of text in order. Punctuation-only
// tokens are dropped; trailing/leading punctuation is stripped from words so
// "prices." matches the lexicon term "prices".
func (p *Preprocessor) Tokens(text string) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPreprocess, err)
	}

	raw := doc.Tokens()
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		word := cleanToken(tok.Text)
		if word != "" {
			tokens = append(tokens, word)
		}
	}
	return tokens, nil
}

// Sentences returns the sentence texts of text in order.
func (p *Preprocessor) Sentences(text string) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPreprocess, err)
	}

	raw := doc.Sentences()
	sentences := make([]string, 0, len(raw))
	for _, s := range raw {
		if trimmed := strings.TrimSpace(s.Text); trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}
	return sentences, nil
}

// Normalize lowercases text and collapses runs of whitespace.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// cleanToken lowercases a token and strips surrounding punctuation. Interior
// punctuation survives so contractions and handles stay intact.
func cleanToken(tok string) string {
	tok = strings.ToLower(strings.TrimSpace(tok))
	tok = strings.TrimFunc(tok, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	return tok
}
