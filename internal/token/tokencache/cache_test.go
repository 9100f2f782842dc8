package tokencache

import (
	"context"
	"errors"
	"swiftattend/internal/token"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRenderer struct {
	calls atomic.Int32
	err   error
}

func (r *countingRenderer) Render(ctx context.Context, payload string) ([]byte, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return token.NewSVGRenderer(2).Render(ctx, payload)
}

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	require.NoError(t, client.Ping(context.Background()).Err())

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func TestRenderCachesResult(t *testing.T) {
	client, mr := setupTestRedis(t)
	next := &countingRenderer{}
	cache := New(client, next, time.Minute, nil)
	ctx := context.Background()

	first, err := cache.Render(ctx, "payload-1")
	require.NoError(t, err)
	second, err := cache.Render(ctx, "payload-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), next.calls.Load())
	assert.True(t, mr.Exists(Key("", "payload-1")))

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists(Key("", "payload-1")))
}

func TestRenderErrorIsNotCached(t *testing.T) {
	client, mr := setupTestRedis(t)
	next := &countingRenderer{err: token.ErrEncoding}
	cache := New(client, next, time.Minute, nil)

	_, err := cache.Render(context.Background(), "payload-2")
	assert.True(t, errors.Is(err, token.ErrEncoding))
	assert.False(t, mr.Exists(Key("", "payload-2")))
}

func TestRenderFallsBackWhenRedisIsDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	next := &countingRenderer{}
	cache := New(client, next, time.Minute, nil)
	mr.Close()

	svg, err := cache.Render(context.Background(), "payload-3")
	require.NoError(t, err)
	assert.NotEmpty(t, svg)
}

func TestConcurrentRendersProduceIdenticalOutput(t *testing.T) {
	client, _ := setupTestRedis(t)
	next := &countingRenderer{}
	cache := New(client, next, time.Minute, nil)

	var wg sync.WaitGroup
	results := make([][]byte, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			svg, err := cache.Render(context.Background(), "shared")
			assert.NoError(t, err)
			results[i] = svg
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
}

func TestKeyIsStable(t *testing.T) {
	assert.Equal(t, Key("v", "a"), Key("v", "a"))
	assert.NotEqual(t, Key("v", "a"), Key("v", "b"))
	assert.NotEqual(t, Key("v1", "a"), Key("v2", "a"))
	assert.NotEqual(t, Key("a", "b"), Key("ab", ""))
	assert.Contains(t, Key("v", "a"), keyPrefix)
}

func TestModuleSizeChangeMissesOldEntries(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	small := New(client, token.NewSVGRenderer(2), time.Minute, nil)
	large := New(client, token.NewSVGRenderer(10), time.Minute, nil)
	assert.Equal(t, "svg-m2", small.Variant)

	a, err := small.Render(ctx, "same-payload")
	require.NoError(t, err)
	b, err := large.Render(ctx, "same-payload")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Contains(t, string(b), `width="`)
	assert.True(t, mr.Exists(Key("svg-m2", "same-payload")))
	assert.True(t, mr.Exists(Key("svg-m10", "same-payload")))
}
