package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/inferio-2004/recipe-generator/internal/service"
	"github.com/inferio-2004/recipe-generator/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedUsesRedisCache(t *testing.T) {
	client := testhelpers.SetupRedis(t)
	ctx := context.Background()

	extractor := &fakeExtractor{out: []float64{3, 4}}
	svc := service.NewEmbeddingService(&fakeLoader{model: extractor}, "test-model",
		service.WithEmbeddingCache(client, time.Minute))

	first, err := svc.Embed(ctx, "tomato basil")
	require.NoError(t, err)
	second, err := svc.Embed(ctx, "tomato basil")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), extractor.calls.Load())

	keys, err := client.Keys(ctx, "embedding:test-model:*").Result()
	require.NoError(t, err)
	assert.Len(t, keys, 1)
	ttl, err := client.TTL(ctx, keys[0]).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	// A fresh service with the same model name reads the shared cache.
	other := &fakeExtractor{out: []float64{1, 0}}
	svc2 := service.NewEmbeddingService(&fakeLoader{model: other}, "test-model",
		service.WithEmbeddingCache(client, time.Minute))
	third, err := svc2.Embed(ctx, "tomato basil")
	require.NoError(t, err)
	assert.Equal(t, first, third)
	assert.Zero(t, other.calls.Load())
}

func TestEmbedIgnoresMalformedCacheEntry(t *testing.T) {
	client := testhelpers.SetupRedis(t)
	ctx := context.Background()

	extractor := &fakeExtractor{out: []float64{0, 2}}
	svc := service.NewEmbeddingService(&fakeLoader{model: extractor}, "m",
		service.WithEmbeddingCache(client, time.Minute))

	vec, err := svc.Embed(ctx, "leek")
	require.NoError(t, err)
	keys, err := client.Keys(ctx, "embedding:m:*").Result()
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.NoError(t, client.Set(ctx, keys[0], "not json", time.Minute).Err())

	again, err := svc.Embed(ctx, "leek")
	require.NoError(t, err)
	assert.Equal(t, vec, again)
	assert.Equal(t, int32(2), extractor.calls.Load())
}
