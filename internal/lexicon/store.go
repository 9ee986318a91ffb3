// Package lexicon provides the drug-term lexicon used for content matching.
// The active table is immutable; reloads swap the whole table atomically so
// concurrent scoring calls never observe a half-updated lexicon.
package lexicon

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// Common errors.
var (
	ErrEmptyLexicon    = errors.New("lexicon contains no categories")
	ErrInvalidSeverity = errors.New("severity must be between 1 and 5")
	ErrDuplicateTerm   = errors.New("duplicate term within category")
)

// Entry is a single lexicon term with its category and severity.
type Entry struct {
	Term     string   `json:"term"`
	Category string   `json:"category"`
	Severity int      `json:"severity"`
	Aliases  []string `json:"aliases,omitempty"`
}

// Table is an immutable snapshot of the loaded lexicon. It is safe for
// concurrent use; mutation happens only by building a new table.
type Table struct {
	entries []Entry
	// index maps every normalized term and alias to its entry.
	index map[string]*Entry
	// maxNGram is the longest multi-word term in the table.
	maxNGram int
}

// lexiconFile mirrors the YAML schema:
//
//	drugs:
//	  cannabis:
//	    keywords: [weed, marijuana]
//	    slang: [loud, za]
//	    severity: 2
type lexiconFile struct {
	Drugs map[string]categoryFile `yaml:"drugs"`
}

type categoryFile struct {
	Keywords []string `yaml:"keywords"`
	Slang    []string `yaml:"slang"`
	Severity int      `yaml:"severity"`
}

// NewTable builds an immutable table from entries, validating severities and
// per-category term uniqueness.
func NewTable(entries []Entry) (*Table, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyLexicon
	}

	t := &Table{
		entries:  make([]Entry, 0, len(entries)),
		index:    make(map[string]*Entry),
		maxNGram: 1,
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		e.Term = normalize(e.Term)
		e.Category = strings.ToLower(strings.TrimSpace(e.Category))
		if e.Term == "" || e.Category == "" {
			continue
		}
		if e.Severity < 1 || e.Severity > 5 {
			return nil, fmt.Errorf("%w: term %q has severity %d", ErrInvalidSeverity, e.Term, e.Severity)
		}

		key := e.Category + ":" + e.Term
		if seen[key] {
			return nil, fmt.Errorf("%w: %q in %q", ErrDuplicateTerm, e.Term, e.Category)
		}
		seen[key] = true

		t.entries = append(t.entries, e)
		stored := &t.entries[len(t.entries)-1]

		t.addIndex(stored.Term, stored)
		for _, alias := range stored.Aliases {
			t.addIndex(normalize(alias), stored)
		}
	}

	if len(t.entries) == 0 {
		return nil, ErrEmptyLexicon
	}
	return t, nil
}

func (t *Table) addIndex(term string, e *Entry) {
	if term == "" {
		return
	}
	if n := len(strings.Fields(term)); n > t.maxNGram {
		t.maxNGram = n
	}
	// First writer wins so deterministic load order decides collisions
	// across categories.
	if _, exists := t.index[term]; !exists {
		t.index[term] = e
	}
}

// Match returns the entry for a normalized term or alias, if any.
func (t *Table) Match(term string) (*Entry, bool) {
	e, ok := t.index[normalize(term)]
	return e, ok
}

// MaxNGram returns the longest multi-word term length in the table.
func (t *Table) MaxNGram() int { return t.maxNGram }

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// Entries returns a copy of all entries, sorted by category then term.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Term < out[j].Term
	})
	return out
}

// Categories returns the distinct category names in the table.
func (t *Table) Categories() []string {
	set := make(map[string]bool)
	for i := range t.entries {
		set[t.entries[i].Category] = true
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Store holds the active lexicon table and supports atomic replacement.
type Store struct {
	table atomic.Pointer[Table]
}

// NewStore creates a store with the given initial table.
func NewStore(initial *Table) *Store {
	s := &Store{}
	s.table.Store(initial)
	return s
}

// Table returns the current table. The returned table is immutable and stays
// valid even if the store is reloaded concurrently.
func (s *Store) Table() *Table {
	return s.table.Load()
}

// Swap atomically replaces the active table.
func (s *Store) Swap(t *Table) {
	s.table.Store(t)
}

// LoadFile parses a YAML lexicon file into a table.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon file: %w", err)
	}
	return Parse(data)
}

// Parse builds a table from YAML bytes in the
// {drugs: {category: {keywords, slang, severity}}} schema. Slang terms are
// stored as aliases of their category's primary keywords; slang with no
// keyword sibling becomes an entry of its own.
func Parse(data []byte) (*Table, error) {
	var file lexiconFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon: %w", err)
	}
	if len(file.Drugs) == 0 {
		return nil, ErrEmptyLexicon
	}

	// Categories are walked in sorted order so cross-category index
	// collisions resolve identically on every load.
	categories := make([]string, 0, len(file.Drugs))
	for category := range file.Drugs {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var entries []Entry
	for _, category := range categories {
		cf := file.Drugs[category]
		if len(cf.Keywords) == 0 && len(cf.Slang) == 0 {
			continue
		}
		if len(cf.Keywords) > 0 {
			// Slang aliases attach to the category's first keyword so a
			// slang hit scores identically to a keyword hit.
			entries = append(entries, Entry{
				Term:     cf.Keywords[0],
				Category: category,
				Severity: cf.Severity,
				Aliases:  cf.Slang,
			})
			for _, kw := range cf.Keywords[1:] {
				entries = append(entries, Entry{
					Term:     kw,
					Category: category,
					Severity: cf.Severity,
				})
			}
		} else {
			entries = append(entries, Entry{
				Term:     cf.Slang[0],
				Category: category,
				Severity: cf.Severity,
				Aliases:  cf.Slang[1:],
			})
		}
	}

	return NewTable(entries)
}

// normalize lowercases and collapses whitespace in a term.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
