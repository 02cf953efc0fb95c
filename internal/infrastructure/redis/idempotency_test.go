package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestClaimCompleteLookup(t *testing.T) {
	client := getRedisClient(t)
	store := NewIdempotencyStore(client, time.Minute)
	ctx := context.Background()
	key := uuid.NewString()
	t.Cleanup(func() { client.Del(ctx, idempotencyKeyPrefix+key) })

	ok, err := store.Claim(ctx, key)
	if err != nil || !ok {
		t.Fatalf("first claim = %v, %v", ok, err)
	}
	ok, err = store.Claim(ctx, key)
	if err != nil || ok {
		t.Fatalf("second claim = %v, %v; want false", ok, err)
	}

	if _, found, err := store.Lookup(ctx, key); err != nil || found {
		t.Fatalf("pending lookup found=%v err=%v", found, err)
	}

	if err := store.Complete(ctx, key, []string{"o1", "o2"}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	ids, found, err := store.Lookup(ctx, key)
	if err != nil || !found || len(ids) != 2 || ids[0] != "o1" {
		t.Fatalf("lookup = %v %v %v", ids, found, err)
	}

	// release after completion keeps the record
	if err := store.Release(ctx, key); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, found, _ := store.Lookup(ctx, key); !found {
		t.Fatal("completed key must survive release")
	}
}

func TestReleaseFreesPendingClaim(t *testing.T) {
	client := getRedisClient(t)
	store := NewIdempotencyStore(client, time.Minute)
	ctx := context.Background()
	key := uuid.NewString()
	t.Cleanup(func() { client.Del(ctx, idempotencyKeyPrefix+key) })

	if ok, _ := store.Claim(ctx, key); !ok {
		t.Fatal("claim failed")
	}
	if err := store.Release(ctx, key); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := store.Claim(ctx, key); !ok {
		t.Fatal("released key must be claimable again")
	}
}
