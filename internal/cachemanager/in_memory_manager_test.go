package cachemanager

import (
	"context"
	"testing"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/stretchr/testify/require"
)

type grammarKey string

type compiledGrammar struct {
	Name   string
	Lexers int
}

func TestInMemoryCacheManager_GetSet(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCacheManager[grammarKey, compiledGrammar]("grammars", DefaultExpiration, DefaultCleanupInterval)

	_, ok := cache.Get(ctx, "cpp")
	require.False(t, ok)

	want := compiledGrammar{Name: "cpp-template", Lexers: 4}
	cache.Set(ctx, "cpp", want, DefaultExpiration)

	got, ok := cache.Get(ctx, "cpp")
	require.True(t, ok)
	require.Equal(t, want, got)
	require.Equal(t, 1, cache.cache.ItemCount())
}

func TestInMemoryCacheManager_Expiration(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCacheManager[string, int]("short", time.Minute, time.Minute)

	cache.Set(ctx, "k", 1, 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	_, ok := cache.Get(ctx, "k")
	require.False(t, ok)
}

func TestInMemoryCacheManager_GetWithRefresh(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCacheManager[string, int]("refresh", time.Minute, time.Minute)

	cache.Set(ctx, "k", 7, 30*time.Millisecond)
	got, ok := cache.GetWithRefresh(ctx, "k", time.Minute)
	require.True(t, ok)
	require.Equal(t, 7, got)

	time.Sleep(40 * time.Millisecond)
	got, ok = cache.Get(ctx, "k")
	require.True(t, ok, "refresh should have extended the ttl")
	require.Equal(t, 7, got)

	_, ok = cache.GetWithRefresh(ctx, "missing", time.Minute)
	require.False(t, ok)
}

func TestPatternCache_CompilesOnce(t *testing.T) {
	ctx := context.Background()
	cache := NewPatternCache(time.Minute, time.Minute)

	first, err := cache.Compile(ctx, `\btemplate\b`, regexp2.Multiline)
	require.NoError(t, err)
	second, err := cache.Compile(ctx, `\btemplate\b`, regexp2.Multiline)
	require.NoError(t, err)

	require.Same(t, first, second)
	require.Equal(t, int64(1), cache.Compiles())

	_, err = cache.Compile(ctx, `\btemplate\b`, regexp2.IgnoreCase)
	require.NoError(t, err)
	require.Equal(t, int64(2), cache.Compiles(), "flags are part of the key")
	require.Equal(t, 2, cache.cache.(*InMemoryCacheManager[PatternKey, *regexp2.Regexp]).cache.ItemCount())
}

func TestPatternCache_InvalidPattern(t *testing.T) {
	cache := NewPatternCache(0, time.Minute)

	_, err := cache.Compile(context.Background(), "(", regexp2.None)
	require.Error(t, err)
	require.Equal(t, int64(0), cache.Compiles())
}
