package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const LockKeyPrefix = "lock"

// DistLock 基于 SETNX 的租约锁，token 区分持有者
type DistLock struct {
	RDB *redis.Client
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`)

func lockKey(name string) string { return LockKeyPrefix + ":" + name }

// Acquire 请求加锁，ttl 到期自动释放
func (l *DistLock) Acquire(ctx context.Context, name, token string, ttl time.Duration) (bool, error) {
	return l.RDB.SetNX(ctx, lockKey(name), token, ttl).Result()
}

// Release 用 lua 保证只释放自己持有的锁
func (l *DistLock) Release(ctx context.Context, name, token string) error {
	_, err := releaseScript.Run(ctx, l.RDB, []string{lockKey(name)}, token).Result()
	return err
}
