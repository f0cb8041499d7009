package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrRedisUnavailable = errors.New("redis unavailable")
	ErrExtendFailed     = errors.New("token extend failed")
	ErrTokenDeleted     = errors.New("token delete failed")
)

const (
	UserTokenPrefix    = "login:user:token"
	RefreshTokenPrefix = "login:user:refresh"
)

// TokenRepository 每个用户只保留最近一次登录的 access token 与 refresh token
type TokenRepository struct {
	Client     *redis.Client
	TTL        time.Duration
	RefreshTTL time.Duration
}

func tokenKey(userID uint64) string {
	return fmt.Sprintf("%s:%d", UserTokenPrefix, userID)
}

func refreshKey(userID uint64) string {
	return fmt.Sprintf("%s:%d", RefreshTokenPrefix, userID)
}

func (r *TokenRepository) AddUserToken(ctx context.Context, userID uint64, token string) error {
	if err := r.Client.Set(ctx, tokenKey(userID), token, r.TTL).Err(); err != nil {
		return ErrRedisUnavailable
	}
	return nil
}

func (r *TokenRepository) GetUserToken(ctx context.Context, userID uint64) (string, error) {
	token, err := r.Client.Get(ctx, tokenKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", ErrRedisUnavailable
	}
	return token, nil
}

func (r *TokenRepository) ExtendUserToken(ctx context.Context, userID uint64) error {
	if err := r.Client.Expire(ctx, tokenKey(userID), r.TTL).Err(); err != nil {
		return ErrExtendFailed
	}
	return nil
}

func (r *TokenRepository) AddRefreshToken(ctx context.Context, userID uint64, token string) error {
	ttl := r.RefreshTTL
	if ttl <= 0 {
		ttl = r.TTL
	}
	if err := r.Client.Set(ctx, refreshKey(userID), token, ttl).Err(); err != nil {
		return ErrRedisUnavailable
	}
	return nil
}

func (r *TokenRepository) GetRefreshToken(ctx context.Context, userID uint64) (string, error) {
	token, err := r.Client.Get(ctx, refreshKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", ErrRedisUnavailable
	}
	return token, nil
}

// DeleteUserToken 同时作废 access 与 refresh token；幂等
func (r *TokenRepository) DeleteUserToken(ctx context.Context, userID uint64) error {
	if err := r.Client.Del(ctx, tokenKey(userID), refreshKey(userID)).Err(); err != nil {
		return ErrTokenDeleted
	}
	return nil
}
