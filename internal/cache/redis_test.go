package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisStore_InvalidURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "://not-a-url", time.Minute, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redis URL")
}

func TestRedisStore_Integration(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set")
	}

	ctx := context.Background()
	s, err := NewRedisStore(ctx, redisURL, time.Minute, nil)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	key := "test-" + uuid.New().String()

	_, ok := s.Get(ctx, key)
	assert.False(t, ok)

	s.Put(ctx, key, sampleExtraction(key))
	got, ok := s.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, "Backend Engineer", got.Title)
	assert.Equal(t, []string{"Go"}, got.Requirements)

	assert.InDelta(t, 0.5, s.HitRate(), 1e-9)
	assert.GreaterOrEqual(t, s.Size(), 1)

	require.NoError(t, s.Clear(ctx))
	_, ok = s.Get(ctx, key)
	assert.False(t, ok)
}
