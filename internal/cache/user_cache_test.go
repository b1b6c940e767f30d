package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhirschtritt/orderly/internal/domain"
)

func TestUserKey(t *testing.T) {
	assert.Equal(t, "user:abc", userKey("abc"))
	assert.Equal(t, "user:abc:gen", generationKey("abc"))
}

func TestEncodeDecodeUser(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 30, 0, 123456000, time.UTC)
	in := &domain.User{ID: "u1", Name: "Ada", Email: "ada@example.com", CreatedAt: now, UpdatedAt: now}

	data, err := encodeUser(in)
	require.NoError(t, err)

	out, err := decodeUser(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeUser_Garbage(t *testing.T) {
	_, err := decodeUser([]byte("{not json"))
	assert.Error(t, err)
}

func TestUserCache_Redis(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set")
	}

	ctx := context.Background()
	c, err := New(ctx, redisURL, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	user := &domain.User{ID: "cache-test-" + time.Now().Format("150405.000000"), Name: "Ada", Email: "ada@example.com"}
	defer c.client.Del(ctx, userKey(user.ID), generationKey(user.ID))

	generation, err := c.Generation(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, generation)

	require.NoError(t, c.Fill(ctx, user, generation))
	got, err := c.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.OrEmpty().Name)

	require.NoError(t, c.Invalidate(ctx, user.ID))
	got, err = c.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAbsent())

	// the generation read before Invalidate is stale now
	require.NoError(t, c.Fill(ctx, user, generation))
	got, err = c.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAbsent())

	current, err := c.Generation(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, generation+1, current)

	require.NoError(t, c.Fill(ctx, user, current))
	got, err = c.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.OrEmpty().Name)
}
