//go:build integration

package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestRedisCache_Integration(t *testing.T) {
	url := os.Getenv("TILEGRID_REDIS_URL")
	if url == "" {
		t.Skip("TILEGRID_REDIS_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := NewRedisCache(ctx, RedisConfig{URL: url})
	if err != nil {
		t.Fatalf("NewRedisCache error: %v", err)
	}
	defer c.Close()

	key := NewScopedKeyer(nil, "test:").LayoutKey(Hash([]byte(t.Name())), LayoutKeyOpts{Kind: "masonry"})
	if err := c.Set(ctx, key, []byte("status"), time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, key)
	if err != nil || !hit || string(data) != "status" {
		t.Errorf("Get = %q, hit %v, err %v", data, hit, err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, key); hit {
		t.Error("Get after Delete should miss")
	}
}
