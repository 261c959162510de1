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

type cachedBook struct {
	ISBN  string `json:"isbn"`
	Title string `json:"title"`
}

func TestRedis_RoundTrip(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("Skipping test: TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	c, client, err := NewRedisFromURL[cachedBook](ctx, url, "test:"+uuid.NewString()+":")
	if err != nil {
		t.Skipf("Skipping test: cannot reach redis: %v", err)
	}
	defer client.Close()

	_, ok, err := c.Get(ctx, "isbn_9780134685991")
	require.NoError(t, err)
	assert.False(t, ok)

	want := cachedBook{ISBN: "9780134685991", Title: "Effective Java"}
	require.NoError(t, c.Set(ctx, "isbn_9780134685991", want, time.Minute))

	got, ok, err := c.Get(ctx, "isbn_9780134685991")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	ttl, err := client.TTL(ctx, c.prefix+"isbn_9780134685991").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)
}
