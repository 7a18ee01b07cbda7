package cache

import (
	"context"
	"testing"
	"time"
)

func TestBuildKeyUsesPrefix(t *testing.T) {
	prev := redisPrefix
	redisPrefix = "co"
	t.Cleanup(func() { redisPrefix = prev })

	if got := Key("cart:7"); got != "co:cart:7" {
		t.Fatalf("unexpected key: %s", got)
	}
	if got := Key("  "); got != "co" {
		t.Fatalf("blank key should collapse to prefix, got %s", got)
	}
}

func TestDisabledCacheIsNoop(t *testing.T) {
	prevEnabled, prevClient := redisEnabled, redisClient
	redisEnabled, redisClient = false, nil
	t.Cleanup(func() { redisEnabled, redisClient = prevEnabled, prevClient })

	ctx := context.Background()
	ok, err := SetNX(ctx, "k", "v", time.Second)
	if err != nil || !ok {
		t.Fatalf("disabled SetNX should succeed, ok=%v err=%v", ok, err)
	}
	receivers, err := PublishJSON(ctx, "notifications:user:1", map[string]string{"title": "x"})
	if err != nil || receivers != 0 {
		t.Fatalf("disabled publish should be noop, receivers=%d err=%v", receivers, err)
	}
	var dest map[string]string
	hit, err := GetJSON(ctx, "missing", &dest)
	if err != nil || hit {
		t.Fatalf("disabled GetJSON should miss, hit=%v err=%v", hit, err)
	}
	if Client() != nil {
		t.Fatalf("disabled cache should not expose client")
	}
}

func TestLockerWithoutClient(t *testing.T) {
	var locker *Locker
	if _, err := locker.Acquire(context.Background(), "cart:1"); err == nil {
		t.Fatalf("expected error for nil locker")
	}
	if _, err := NewLocker(nil, 0).Acquire(context.Background(), "cart:1"); err == nil {
		t.Fatalf("expected error for locker without client")
	}
}
