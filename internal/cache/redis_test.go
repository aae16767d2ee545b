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

type report struct {
	Total int64 `json:"total"`
}

// Runs against a real server when REDIS_TEST_URL is set.
func TestRedisCacheRoundTrip(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	c := NewRedisCache[report](client, "test-"+uuid.NewString(), time.Minute)
	defer c.Purge(ctx)

	c.Set(ctx, "2025-01-01:2025-01-31", report{Total: 15050})
	got, ok := c.Get(ctx, "2025-01-01:2025-01-31")
	require.True(t, ok)
	assert.Equal(t, int64(15050), got.Total)
	assert.Equal(t, 1, c.Size())

	c.Purge(ctx)
	_, ok = c.Get(ctx, "2025-01-01:2025-01-31")
	assert.False(t, ok)
}

func TestNewRedisClientRejectsBadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}
