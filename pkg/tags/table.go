package tags

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/tagbot/pkg/domain"
)

// Entry maps one phrase to one or more tags.
type Entry struct {
	Phrase string       `yaml:"phrase" json:"phrase"`
	Tags   []domain.Tag `yaml:"tags" json:"tags"`
}

// compiledEntry stores the normalized entry and its precompiled pattern.
type compiledEntry struct {
	Entry
	pattern *regexp.Regexp
}

// Table is an ordered, immutable phrase to tags mapping.
type Table struct {
	entries []compiledEntry
}

// New builds a Table from entries.
// Phrases are lower-cased; a repeated phrase replaces the earlier tags but keeps
// the earlier position. Empty phrases or empty tag lists fail with domain.ErrConfiguration.
func New(entries ...Entry) (*Table, error) {
	t := &Table{entries: make([]compiledEntry, 0, len(entries))}
	index := make(map[string]int, len(entries))

	for _, e := range entries {
		phrase := strings.ToLower(strings.TrimSpace(e.Phrase))
		if phrase == "" {
			return nil, fmt.Errorf("%w: empty phrase", domain.ErrConfiguration)
		}
		if len(e.Tags) == 0 {
			return nil, fmt.Errorf("%w: phrase %q has no tags", domain.ErrConfiguration, phrase)
		}
		tagList := make([]domain.Tag, 0, len(e.Tags))
		for _, tag := range e.Tags {
			if strings.TrimSpace(string(tag)) == "" {
				return nil, fmt.Errorf("%w: phrase %q has an empty tag", domain.ErrConfiguration, phrase)
			}
			tagList = append(tagList, tag)
		}

		ce := compiledEntry{
			Entry:   Entry{Phrase: phrase, Tags: tagList},
			pattern: compilePhrase(phrase),
		}
		if i, ok := index[phrase]; ok {
			t.entries[i] = ce
			continue
		}
		index[phrase] = len(t.entries)
		t.entries = append(t.entries, ce)
	}
	return t, nil
}

// Word boundaries are built from Unicode classes because RE2's \b only
// knows ASCII word characters.
const (
	leftBoundary  = `(?:^|[^\p{L}\p{N}_])`
	rightBoundary = `(?:$|[^\p{L}\p{N}_])`
)

// compilePhrase matches phrase as a whole word. An edge that is not a word
// character needs no boundary.
func compilePhrase(phrase string) *regexp.Regexp {
	pattern := regexp.QuoteMeta(phrase)
	if first, _ := utf8.DecodeRuneInString(phrase); isWordRune(first) {
		pattern = leftBoundary + pattern
	}
	if last, _ := utf8.DecodeLastRuneInString(phrase); isWordRune(last) {
		pattern += rightBoundary
	}
	return regexp.MustCompile(pattern)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// MustNew is like New but panics on error. Intended for package-level tables.
func MustNew(entries ...Entry) *Table {
	t, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return t
}

// Extract counts the tags of every phrase present in message.
func (t *Table) Extract(message string) domain.TagCount {
	counts := make(domain.TagCount)
	if t == nil {
		return counts
	}
	msg := strings.ToLower(message)
	for _, e := range t.entries {
		if e.pattern.MatchString(msg) {
			for _, tag := range e.Tags {
				counts[tag]++
			}
		}
	}
	return counts
}

// Entries returns a copy of the normalized entries in declaration order.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, len(t.entries))
	for i, e := range t.entries {
		out[i] = Entry{Phrase: e.Phrase, Tags: append([]domain.Tag(nil), e.Tags...)}
	}
	return out
}

// Len returns the number of phrases.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Tags returns the distinct tags of the table in first-seen order.
func (t *Table) Tags() []domain.Tag {
	if t == nil {
		return nil
	}
	seen := make(map[domain.Tag]bool)
	var out []domain.Tag
	for _, e := range t.entries {
		for _, tag := range e.Tags {
			if !seen[tag] {
				seen[tag] = true
				out = append(out, tag)
			}
		}
	}
	return out
}

// Extract is a convenience for table.Extract(message).
func Extract(message string, table *Table) domain.TagCount {
	return table.Extract(message)
}
