package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/checkout-next/internal/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultLockTTL        = 10 * time.Second
	defaultLockRetryDelay = 25 * time.Millisecond
)

// ErrLockTimeout 等待锁超时
var ErrLockTimeout = errors.New("lock wait timeout")

// 只有持有者的 token 匹配时才删除，避免误删他人续上的锁
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker Redis 互斥锁（SET NX PX + token 校验释放）
type Locker struct {
	client     *redis.Client
	ttl        time.Duration
	retryDelay time.Duration
}

// NewLocker 创建互斥锁，ttl 为锁的最长持有时间
func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Locker{
		client:     client,
		ttl:        ttl,
		retryDelay: defaultLockRetryDelay,
	}
}

// Acquire 获取锁，拿不到时按固定间隔重试直到 ctx 结束
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	if l == nil || l.client == nil {
		return nil, errors.New("redis locker not initialized")
	}
	fullKey := buildKey("lock:" + key)
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("%w: %v", ErrLockTimeout, ctxErr)
			}
			return nil, err
		}
		if ok {
			return func() { l.release(fullKey, token) }, nil
		}

		timer := time.NewTimer(l.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
		case <-timer.C:
		}
	}
}

func (l *Locker) release(fullKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := releaseLockScript.Run(ctx, l.client, []string{fullKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		logger.Warnw("cache_lock_release_failed", "key", fullKey, "error", err)
	}
}
