package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const EmailDedupPrefix = "email:sent"

// DedupRepository 邮件幂等键
type DedupRepository struct {
	Client *redis.Client
	TTL    time.Duration
}

// Claim SETNX 抢占幂等键，已存在返回 false
func (r *DedupRepository) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := r.Client.SetNX(ctx, fmt.Sprintf("%s:%s", EmailDedupPrefix, key), time.Now().Unix(), r.TTL).Result()
	if err != nil {
		return false, ErrRedisUnavailable
	}
	return ok, nil
}

// Release 发送最终失败时释放，允许同一批次重试
func (r *DedupRepository) Release(ctx context.Context, key string) error {
	if err := r.Client.Del(ctx, fmt.Sprintf("%s:%s", EmailDedupPrefix, key)).Err(); err != nil {
		return ErrRedisUnavailable
	}
	return nil
}
