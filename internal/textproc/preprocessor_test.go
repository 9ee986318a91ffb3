package textproc

import (
	"testing"
)

// TestTokens_LowercaseAndStripPunctuation verifies token normalization.
func TestTokens_LowercaseAndStripPunctuation(t *testing.T) {
	p := New()

	tokens, err := p.Tokens("Fresh batch of Cocaine available. DM for prices!")
	if err != nil {
		t.Fatalf("Tokens failed: %v", err)
	}

	want := map[string]bool{
		"fresh": true, "batch": true, "of": true, "cocaine": true,
		"available": true, "dm": true, "for": true, "prices": true,
	}
	for _, tok := range tokens {
		if !want[tok] {
			t.Errorf("unexpected token %q", tok)
		}
		delete(want, tok)
	}
	for missing := range want {
		t.Errorf("missing token %q", missing)
	}
}

// TestTokens_Empty verifies empty and whitespace-only input yields no tokens
// and no error.
func TestTokens_Empty(t *testing.T) {
	p := New()

	for _, input := range []string{"", "   ", "\n\t"} {
		tokens, err := p.Tokens(input)
		if err != nil {
			t.Errorf("Tokens(%q) should not error: %v", input, err)
		}
		if len(tokens) != 0 {
			t.Errorf("Tokens(%q): expected no tokens, got %v", input, tokens)
		}
	}
}

// TestTokens_PreservesOrder verifies tokens come back in text order.
func TestTokens_PreservesOrder(t *testing.T) {
	p := New()

	tokens, err := p.Tokens("first second third")
	if err != nil {
		t.Fatalf("Tokens failed: %v", err)
	}

	expected := []string{"first", "second", "third"}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}
	for i := range expected {
		if tokens[i] != expected[i] {
			t.Errorf("token %d: expected %q, got %q", i, expected[i], tokens[i])
		}
	}
}

// TestSentences_Segmentation verifies sentence splitting.
func TestSentences_Segmentation(t *testing.T) {
	p := New()

	sentences, err := p.Sentences("Fresh batch available. DM for prices. Cash only.")
	if err != nil {
		t.Fatalf("Sentences failed: %v", err)
	}

	if len(sentences) != 3 {
		t.Errorf("expected 3 sentences, got %d: %v", len(sentences), sentences)
	}
}

// TestSentences_Empty verifies empty input yields no sentences.
func TestSentences_Empty(t *testing.T) {
	p := New()

	sentences, err := p.Sentences("")
	if err != nil {
		t.Errorf("Sentences should not error on empty input: %v", err)
	}
	if len(sentences) != 0 {
		t.Errorf("expected no sentences, got %v", sentences)
	}
}

// TestNormalize verifies lowercasing and whitespace collapsing.
func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello   World", "hello world"},
		{"  MIXED Case\tText \n", "mixed case text"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.expected {
			t.Errorf("Normalize(%q): expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}
