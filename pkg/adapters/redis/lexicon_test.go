package redis_test

import (
	"context"
	"testing"

	"github.com/aretw0/tagbot/pkg/adapters/redis"
	"github.com/aretw0/tagbot/pkg/lexicon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLexicon(t *testing.T) {
	_, client := newClient(t)
	ctx := context.Background()

	require.NoError(t, redis.SeedLexicon(ctx, client, redis.DefaultLexiconKey, "Sad", "lonely"))

	lex, err := redis.LoadLexicon(ctx, client, redis.DefaultLexiconKey)
	require.NoError(t, err)
	assert.Equal(t, 2, lex.Len())
	assert.True(t, lex.Contains("so SAD"))
	assert.Equal(t, []string{"lonely"}, lex.Words("I feel lonely"))
}

func TestLexiconSource_CachedOnce(t *testing.T) {
	mr, client := newClient(t)
	ctx := context.Background()
	require.NoError(t, redis.SeedLexicon(ctx, client, "words", "mad"))

	cache := lexicon.NewCache(redis.LexiconSource(ctx, client, "words"))
	lex, err := cache.Get()
	require.NoError(t, err)
	assert.True(t, lex.Contains("mad"))

	// Later changes in redis are not re-read.
	_, err = mr.SAdd("words", "upset")
	require.NoError(t, err)
	lex, err = cache.Get()
	require.NoError(t, err)
	assert.False(t, lex.Contains("upset"))
}

func TestLoadLexicon_WrongType(t *testing.T) {
	mr, client := newClient(t)
	require.NoError(t, mr.Set("words", "not a set"))

	_, err := redis.LoadLexicon(context.Background(), client, "words")
	assert.Error(t, err)
}
