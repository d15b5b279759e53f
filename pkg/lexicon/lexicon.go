// Package lexicon provides the flagged-word predicate used by bots to detect
// emotion words in free text. The word list is loaded once and shared read-only.
package lexicon

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"unicode"
)

//go:embed emotions.txt
var defaultWords string

// Lexicon is an immutable set of flagged words.
type Lexicon struct {
	words map[string]struct{}
}

// New builds a Lexicon from words. Words are lower-cased and trimmed; empty ones are dropped.
func New(words ...string) *Lexicon {
	l := &Lexicon{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			l.words[w] = struct{}{}
		}
	}
	return l
}

// Parse reads a line-delimited word list. Blank lines and '#' comments are skipped.
func Parse(r io.Reader) (*Lexicon, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read word list: %w", err)
	}
	return New(words...), nil
}

// LoadFile reads a word list from path.
func LoadFile(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open word list: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Default returns the embedded word list.
func Default() *Lexicon {
	l, _ := Parse(strings.NewReader(defaultWords))
	return l
}

// Contains reports whether text holds at least one flagged word.
func (l *Lexicon) Contains(text string) bool {
	if l == nil {
		return false
	}
	for _, tok := range tokens(text) {
		if _, ok := l.words[tok]; ok {
			return true
		}
	}
	return false
}

// Words returns the flagged words of text in message order, duplicates included.
func (l *Lexicon) Words(text string) []string {
	if l == nil {
		return nil
	}
	var out []string
	for _, tok := range tokens(text) {
		if _, ok := l.words[tok]; ok {
			out = append(out, tok)
		}
	}
	return out
}

// Len returns the number of distinct words.
func (l *Lexicon) Len() int {
	if l == nil {
		return 0
	}
	return len(l.words)
}

func tokens(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Source loads a Lexicon.
type Source func() (*Lexicon, error)

// Cache loads a Lexicon once and serves it for the lifetime of the process.
type Cache struct {
	source Source
	once   sync.Once
	lex    *Lexicon
	err    error
}

// NewCache wraps source so it is called at most once.
func NewCache(source Source) *Cache {
	return &Cache{source: source}
}

// FileSource returns a Source reading path, or the embedded list when path is empty.
func FileSource(path string) Source {
	return func() (*Lexicon, error) {
		if path == "" {
			return Default(), nil
		}
		return LoadFile(path)
	}
}

// Get returns the cached Lexicon, loading it on first use.
func (c *Cache) Get() (*Lexicon, error) {
	c.once.Do(func() {
		c.lex, c.err = c.source()
	})
	return c.lex, c.err
}
