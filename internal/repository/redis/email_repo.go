package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultEmailCodeTTL = 5 * time.Minute
	EmailCodePrefix     = "email:code"

	ScopeRegister = "register"
	ScopeReset    = "reset"

	// 两阶段键：发送前写 pending，邮件发出后转为 confirmed
	PendingSuffix   = "pending"
	ConfirmedSuffix = "confirmed"
)

var (
	ErrEmailNotFound       = errors.New("email code not found")
	ErrEmailCodeDelFailed  = errors.New("email code delete failed")
	ErrCodePendingFailed   = errors.New("code pending failed")
	ErrCodeConfirmedFailed = errors.New("code confirmed failed")
	ErrCodeMismatch        = errors.New("code mismatch")
)

// 取值 + 写入目标 + 设置 TTL + 删除源
var promoteScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if not val then
  return 0
end
redis.call("SET", KEYS[2], val, "PX", ARGV[1])
redis.call("DEL", KEYS[1])
return 1
`)

// 比较一致才删除：0 不存在，-1 不一致，1 成功
var consumeScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if not val then
  return 0
end
if val ~= ARGV[1] then
  return -1
end
redis.call("DEL", KEYS[1])
return 1
`)

// CodeRepository 注册 / 重置密码验证码
type CodeRepository struct {
	Client *redis.Client
	TTL    time.Duration
}

func (r *CodeRepository) ttl() time.Duration {
	if r.TTL <= 0 {
		return DefaultEmailCodeTTL
	}
	return r.TTL
}

func codeKey(scope, stage, email string) string {
	return fmt.Sprintf("%s:%s:%s:%s", EmailCodePrefix, scope, stage, email)
}

func (r *CodeRepository) SavePending(ctx context.Context, scope, email, code string) error {
	if err := r.Client.Set(ctx, codeKey(scope, PendingSuffix, email), code, r.ttl()).Err(); err != nil {
		return ErrCodePendingFailed
	}
	return nil
}

// Confirm pending -> confirmed，重置 TTL
func (r *CodeRepository) Confirm(ctx context.Context, scope, email string) error {
	px := int64(r.ttl() / time.Millisecond)
	ok, err := promoteScript.Run(ctx, r.Client,
		[]string{codeKey(scope, PendingSuffix, email), codeKey(scope, ConfirmedSuffix, email)}, px).Int()
	if err != nil || ok != 1 {
		return ErrCodeConfirmedFailed
	}
	return nil
}

// DeletePending 幂等
func (r *CodeRepository) DeletePending(ctx context.Context, scope, email string) error {
	if err := r.Client.Del(ctx, codeKey(scope, PendingSuffix, email)).Err(); err != nil {
		return ErrEmailCodeDelFailed
	}
	return nil
}

// Consume 校验 confirmed 验证码，一致则删除，验证码只能使用一次
func (r *CodeRepository) Consume(ctx context.Context, scope, email, code string) error {
	res, err := consumeScript.Run(ctx, r.Client, []string{codeKey(scope, ConfirmedSuffix, email)}, code).Int()
	if err != nil {
		return ErrRedisUnavailable
	}
	switch res {
	case 1:
		return nil
	case -1:
		return ErrCodeMismatch
	default:
		return ErrEmailNotFound
	}
}
