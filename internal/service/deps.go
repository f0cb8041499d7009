package service

import "context"

// Mailer 单封邮件发送，pkg.SMTPMailer 实现
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// CodeStore 验证码两阶段存储，redis.CodeRepository 实现
type CodeStore interface {
	SavePending(ctx context.Context, scope, email, code string) error
	Confirm(ctx context.Context, scope, email string) error
	DeletePending(ctx context.Context, scope, email string) error
	Consume(ctx context.Context, scope, email, code string) error
}

// TokenStore 登录态，redis.TokenRepository 实现
type TokenStore interface {
	AddUserToken(ctx context.Context, userID uint64, token string) error
	GetUserToken(ctx context.Context, userID uint64) (string, error)
	AddRefreshToken(ctx context.Context, userID uint64, token string) error
	GetRefreshToken(ctx context.Context, userID uint64) (string, error)
	DeleteUserToken(ctx context.Context, userID uint64) error
}

// Deduper 邮件幂等键，redis.DedupRepository 实现
type Deduper interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}
