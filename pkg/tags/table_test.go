package tags_test

import (
	"strings"
	"testing"

	"github.com/aretw0/tagbot/pkg/domain"
	"github.com/aretw0/tagbot/pkg/tags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable(t *testing.T) *tags.Table {
	t.Helper()
	table, err := tags.New(
		tags.Entry{Phrase: "hi", Tags: []domain.Tag{"hi"}},
		tags.Entry{Phrase: "hello", Tags: []domain.Tag{"hi"}},
		tags.Entry{Phrase: "bye", Tags: []domain.Tag{"bye"}},
		tags.Entry{Phrase: "good bye", Tags: []domain.Tag{"bye"}},
		tags.Entry{Phrase: "thank you", Tags: []domain.Tag{"thanks", "polite"}},
		tags.Entry{Phrase: "I don't know", Tags: []domain.Tag{"idk"}},
	)
	require.NoError(t, err)
	return table
}

func TestExtract_WholeWordOnly(t *testing.T) {
	table := sampleTable(t)

	assert.Equal(t, domain.TagCount{"hi": 1}, table.Extract("hi"))
	assert.Empty(t, table.Extract("history lesson"), "phrase inside a larger word must not match")
	assert.Empty(t, table.Extract("chi"))
	assert.Equal(t, domain.TagCount{"hi": 1}, table.Extract("oh, hi!"))

	accented := tags.MustNew(
		tags.Entry{Phrase: "café", Tags: []domain.Tag{"coffee"}},
		tags.Entry{Phrase: "über", Tags: []domain.Tag{"x"}},
	)
	assert.Equal(t, domain.TagCount{"coffee": 1}, accented.Extract("meet at the café today"))
	assert.Equal(t, domain.TagCount{"x": 1}, accented.Extract("Über cool"))
	assert.Empty(t, accented.Extract("cafés and überall"), "accented letters are word characters")
	assert.Empty(t, accented.Extract("décafé"))
}

func TestExtract_CaseInsensitive(t *testing.T) {
	table := sampleTable(t)
	messages := []string{
		"Hello there, thank you",
		"i don't know what to do",
		"GOOD BYE",
		"nothing to see",
	}
	for _, m := range messages {
		assert.Equal(t, table.Extract(m), table.Extract(strings.ToUpper(m)), m)
	}
	assert.Equal(t, domain.TagCount{"idk": 1}, table.Extract("I DON'T KNOW"))
}

func TestExtract_PresenceNotOccurrences(t *testing.T) {
	table := sampleTable(t)
	// "hi" twice and "hello" once: two phrases present, one count each.
	assert.Equal(t, domain.TagCount{"hi": 2}, table.Extract("hi hi hello"))
}

func TestExtract_OverlappingPhrasesContributeIndependently(t *testing.T) {
	table := sampleTable(t)
	assert.Equal(t, domain.TagCount{"bye": 2}, table.Extract("good bye then"))
}

func TestExtract_MultiTagPhrase(t *testing.T) {
	table := sampleTable(t)
	counts := table.Extract("thank you so much")
	assert.Equal(t, 1, counts.Count("thanks"))
	assert.Equal(t, 1, counts.Count("polite"))
	assert.Equal(t, []domain.Tag{"polite", "thanks"}, counts.Tags())
}

func TestExtract_Idempotent(t *testing.T) {
	table := sampleTable(t)
	msg := "hello, good bye and thank you"
	first := table.Extract(msg)
	second := table.Extract(msg)
	assert.Equal(t, first, second)
	assert.Equal(t, first, tags.Extract(msg, table))
}

func TestExtract_EveryPhraseAlone(t *testing.T) {
	tables := []*tags.Table{
		sampleTable(t),
		tags.MustNew(
			tags.Entry{Phrase: "café", Tags: []domain.Tag{"coffee"}},
			tags.Entry{Phrase: "über", Tags: []domain.Tag{"x"}},
			tags.Entry{Phrase: "привет", Tags: []domain.Tag{"hi"}},
			tags.Entry{Phrase: "ça va", Tags: []domain.Tag{"hi"}},
			tags.Entry{Phrase: "!!", Tags: []domain.Tag{"loud"}},
		),
	}
	for _, table := range tables {
		for _, e := range table.Entries() {
			counts := table.Extract(e.Phrase)
			for _, tag := range e.Tags {
				assert.True(t, counts.Has(tag), "phrase %q should yield %q", e.Phrase, tag)
			}
		}
	}
}

func TestExtract_RegexMetacharactersAreLiteral(t *testing.T) {
	table := tags.MustNew(tags.Entry{Phrase: "c.o", Tags: []domain.Tag{"dot"}})
	assert.Empty(t, table.Extract("cxo"))
	assert.True(t, table.Extract("see c.o now").Has("dot"))
}

func TestExtract_NilTable(t *testing.T) {
	var table *tags.Table
	assert.Empty(t, table.Extract("hi"))
	assert.Equal(t, 0, table.Len())
}

func TestNew_RejectsMalformedEntries(t *testing.T) {
	_, err := tags.New(tags.Entry{Phrase: "  ", Tags: []domain.Tag{"x"}})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = tags.New(tags.Entry{Phrase: "hi"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = tags.New(tags.Entry{Phrase: "hi", Tags: []domain.Tag{""}})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNew_DuplicatePhraseKeepsLastTagsAtFirstPosition(t *testing.T) {
	table := tags.MustNew(
		tags.Entry{Phrase: "bye", Tags: []domain.Tag{"success"}},
		tags.Entry{Phrase: "hi", Tags: []domain.Tag{"hi"}},
		tags.Entry{Phrase: "Bye", Tags: []domain.Tag{"bye"}},
	)
	entries := table.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "bye", entries[0].Phrase)
	assert.Equal(t, []domain.Tag{"bye"}, entries[0].Tags)
	assert.Equal(t, domain.TagCount{"bye": 1}, table.Extract("bye"))
	assert.Equal(t, []domain.Tag{"bye", "hi"}, table.Tags())
}

func TestEntries_ReturnsCopy(t *testing.T) {
	table := sampleTable(t)
	entries := table.Entries()
	entries[0].Tags[0] = "mutated"
	assert.True(t, table.Extract("hi").Has("hi"))
}
