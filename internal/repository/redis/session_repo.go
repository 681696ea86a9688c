package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrRedisUnavailable = errors.New("redis unavailable")

const UserTokenPrefix = "login:user:token"

// SessionRepository 每个登录会话一个 key：login:user:token:<userID>:<jti>
// 支持多设备同时登录，登出只吊销当前会话
type SessionRepository struct {
	RDB *redis.Client
}

func sessionKey(userID, jti string) string {
	return fmt.Sprintf("%s:%s:%s", UserTokenPrefix, userID, jti)
}

func (r *SessionRepository) Add(ctx context.Context, userID, jti string, ttl time.Duration) error {
	if err := r.RDB.Set(ctx, sessionKey(userID, jti), 1, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (r *SessionRepository) Exists(ctx context.Context, userID, jti string) (bool, error) {
	n, err := r.RDB.Exists(ctx, sessionKey(userID, jti)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}

func (r *SessionRepository) Revoke(ctx context.Context, userID, jti string) error {
	if err := r.RDB.Del(ctx, sessionKey(userID, jti)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// RevokeAll 吊销该用户全部会话，keepJTI 非空时保留当前会话
func (r *SessionRepository) RevokeAll(ctx context.Context, userID, keepJTI string) error {
	keep := ""
	if keepJTI != "" {
		keep = sessionKey(userID, keepJTI)
	}
	iter := r.RDB.Scan(ctx, 0, fmt.Sprintf("%s:%s:*", UserTokenPrefix, userID), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		if k := iter.Val(); k != keep {
			keys = append(keys, k)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.RDB.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
