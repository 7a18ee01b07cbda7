package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/checkout-next/internal/cache"
)

const defaultCartLockWait = 3 * time.Second

// CartLocker 按用户串行化购物车与下单操作
type CartLocker interface {
	Lock(ctx context.Context, userID uint) (func(), error)
}

// localCartLocker 进程内按用户加锁，单实例部署或未启用 Redis 时使用
type localCartLocker struct {
	mu    sync.Mutex
	locks map[uint]*cartLockEntry
}

type cartLockEntry struct {
	ch   chan struct{}
	refs int
}

// NewLocalCartLocker 创建进程内购物车锁
func NewLocalCartLocker() CartLocker {
	return &localCartLocker{locks: make(map[uint]*cartLockEntry)}
}

func (l *localCartLocker) Lock(ctx context.Context, userID uint) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[userID]
	if !ok {
		entry = &cartLockEntry{ch: make(chan struct{}, 1)}
		l.locks[userID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(userID, entry)
		return nil, ErrCartBusy.Wrap(ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.ch
			l.unref(userID, entry)
		})
	}, nil
}

func (l *localCartLocker) unref(userID uint, entry *cartLockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, userID)
	}
}

// redisCartLocker 多实例部署时通过 Redis 互斥
type redisCartLocker struct {
	locker *cache.Locker
	wait   time.Duration
}

// NewRedisCartLocker 创建 Redis 购物车锁
func NewRedisCartLocker(locker *cache.Locker, wait time.Duration) CartLocker {
	if wait <= 0 {
		wait = defaultCartLockWait
	}
	return &redisCartLocker{locker: locker, wait: wait}
}

func (l *redisCartLocker) Lock(ctx context.Context, userID uint) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()
	release, err := l.locker.Acquire(waitCtx, fmt.Sprintf("cart:%d", userID))
	if err != nil {
		if errors.Is(err, cache.ErrLockTimeout) {
			return nil, ErrCartBusy.Wrap(err)
		}
		return nil, ErrCartUpdateFailed.Wrap(err)
	}
	return release, nil
}

// withCartLock 获取用户锁后执行 fn，未配置锁时直接执行
func withCartLock(ctx context.Context, locker CartLocker, userID uint, fn func() error) error {
	if locker == nil {
		return fn()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	waitCtx, cancel := context.WithTimeout(ctx, defaultCartLockWait)
	release, err := locker.Lock(waitCtx, userID)
	cancel()
	if err != nil {
		return err
	}
	defer release()
	return fn()
}
