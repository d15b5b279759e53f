/*
Package tags implements the phrase to tag table and the tag extractor.

A Table is built once, from Go literals or from a raw source (YAML, decoded
maps), and is immutable afterwards. Extraction lower-cases the message and
matches every phrase as a whole word or whole phrase:

	table := tags.MustNew(
		tags.Entry{Phrase: "hello", Tags: []domain.Tag{"hi"}},
		tags.Entry{Phrase: "good bye", Tags: []domain.Tag{"bye"}},
	)
	counts := table.Extract("Hello and good bye") // hi:1 bye:1

A phrase found in a message contributes one count to each of its tags, no
matter how many times it occurs.
*/
package tags
