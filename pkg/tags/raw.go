package tags

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/aretw0/tagbot/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Normalize converts a raw tag value into an ordered tag list.
// Accepted shapes are a single string or a list of strings.
func Normalize(phrase string, value any) ([]domain.Tag, error) {
	switch v := value.(type) {
	case string:
		return []domain.Tag{domain.Tag(v)}, nil
	case domain.Tag:
		return []domain.Tag{v}, nil
	case []string:
		out := make([]domain.Tag, len(v))
		for i, s := range v {
			out[i] = domain.Tag(s)
		}
		return out, nil
	case []domain.Tag:
		return append([]domain.Tag(nil), v...), nil
	case []any:
		out := make([]domain.Tag, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: expected tags for %q to be string or list of strings, got list item %T",
					domain.ErrConfiguration, phrase, item)
			}
			out = append(out, domain.Tag(s))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: expected tags for %q to be string or list of strings, got %T",
			domain.ErrConfiguration, phrase, value)
	}
}

// FromMap builds a Table from a decoded map. Go maps are unordered, so the
// phrases are sorted to keep the table deterministic.
func FromMap(raw map[string]any) (*Table, error) {
	phrases := make([]string, 0, len(raw))
	for p := range raw {
		phrases = append(phrases, p)
	}
	sort.Strings(phrases)

	entries := make([]Entry, 0, len(raw))
	for _, p := range phrases {
		list, err := Normalize(p, raw[p])
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Phrase: p, Tags: list})
	}
	return New(entries...)
}

// FromYAML builds a Table from a YAML mapping of phrase to tag or tag list,
// keeping the document order.
func FromYAML(data []byte) (*Table, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: failed to parse tags: %v", domain.ErrConfiguration, err)
	}
	if len(doc.Content) == 0 {
		return New()
	}
	return FromNode(doc.Content[0])
}

// FromNode builds a Table from a YAML mapping node.
func FromNode(node *yaml.Node) (*Table, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: tags must be a mapping (line %d)", domain.ErrConfiguration, node.Line)
	}

	entries := make([]Entry, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		phrase := key.Value

		var list []domain.Tag
		switch val.Kind {
		case yaml.ScalarNode:
			list = []domain.Tag{domain.Tag(val.Value)}
		case yaml.SequenceNode:
			for _, item := range val.Content {
				if item.Kind != yaml.ScalarNode {
					return nil, fmt.Errorf("%w: expected tags for %q to be string or list of strings (line %d)",
						domain.ErrConfiguration, phrase, item.Line)
				}
				list = append(list, domain.Tag(item.Value))
			}
		default:
			return nil, fmt.Errorf("%w: expected tags for %q to be string or list of strings (line %d)",
				domain.ErrConfiguration, phrase, val.Line)
		}
		entries = append(entries, Entry{Phrase: phrase, Tags: list})
	}
	return New(entries...)
}

// Load reads a YAML tag table from r.
func Load(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}
	return FromYAML(data)
}

// LoadFile reads a YAML tag table from path.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tags file: %w", err)
	}
	defer f.Close()
	return Load(f)
}
