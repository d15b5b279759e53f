package redis

import (
	"context"
	"fmt"

	"github.com/aretw0/tagbot/pkg/lexicon"
	backend "github.com/redis/go-redis/v9"
)

// DefaultLexiconKey is the SET holding the flagged words.
const DefaultLexiconKey = "tagbot:lexicon"

// LoadLexicon reads the flagged-word list from a Redis SET.
func LoadLexicon(ctx context.Context, client *backend.Client, key string) (*lexicon.Lexicon, error) {
	words, err := client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load lexicon from redis: %w", err)
	}
	return lexicon.New(words...), nil
}

// LexiconSource adapts LoadLexicon to lexicon.Source so it can be cached once per process.
func LexiconSource(ctx context.Context, client *backend.Client, key string) lexicon.Source {
	return func() (*lexicon.Lexicon, error) {
		return LoadLexicon(ctx, client, key)
	}
}

// SeedLexicon stores words in the lexicon SET.
func SeedLexicon(ctx context.Context, client *backend.Client, key string, words ...string) error {
	if len(words) == 0 {
		return nil
	}
	members := make([]any, len(words))
	for i, w := range words {
		members[i] = w
	}
	if err := client.SAdd(ctx, key, members...).Err(); err != nil {
		return fmt.Errorf("failed to seed lexicon: %w", err)
	}
	return nil
}
