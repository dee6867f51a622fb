package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker 基于 Redis SETNX 的互斥锁，串行化同一验货记录/检验员的读改写。
// rdb 为 nil 时退化为空操作（单测与无 Redis 部署场景）。
type Locker struct {
	rdb *redis.Client
}

func NewLocker(rdb *redis.Client) *Locker {
	return &Locker{rdb: rdb}
}

const (
	lockTTL      = 10 * time.Second
	lockRetries  = 20
	lockInterval = 100 * time.Millisecond
)

// Lock 获取锁，返回释放函数
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	if l == nil || l.rdb == nil {
		return func() {}, nil
	}

	token := uuid.New().String()
	fullKey := "qclock:" + key

	for i := 0; i < lockRetries; i++ {
		ok, err := l.rdb.SetNX(ctx, fullKey, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", fullKey, err)
		}
		if ok {
			release := func() {
				// 仅释放自己持有的锁
				val, err := l.rdb.Get(context.Background(), fullKey).Result()
				if err == nil && val == token {
					l.rdb.Del(context.Background(), fullKey)
				}
			}
			return release, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockInterval):
		}
	}

	return nil, &ConflictError{Message: "记录正在被其他请求处理，请稍后重试"}
}
