package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"Redrow_Exposed/internal/pkg"
	"Redrow_Exposed/internal/repository/redis"
)

var codePurpose = map[string]struct{ purpose, subject string }{
	redis.ScopeRegister: {"account registration", "Your RedrowExposed verification code"},
	redis.ScopeReset:    {"password reset", "Your RedrowExposed password reset code"},
}

// CodeService 注册 / 重置密码邮箱验证码
type CodeService struct {
	codes  CodeStore
	mailer Mailer
	ttl    time.Duration
}

func NewCodeService(codes CodeStore, mailer Mailer) *CodeService {
	return &CodeService{codes: codes, mailer: mailer, ttl: redis.DefaultEmailCodeTTL}
}

// SendCode 先写 pending，邮件发出后再转为 confirmed
func (s *CodeService) SendCode(ctx context.Context, scope, email string) error {
	p, ok := codePurpose[scope]
	if !ok {
		return ErrInvalidInput
	}
	email = normalizeEmail(email)

	code, err := pkg.RandDigits(6)
	if err != nil {
		return err
	}
	if err = s.codes.SavePending(ctx, scope, email, code); err != nil {
		return err
	}

	html := pkg.EmailCodeHTML(p.purpose, code, s.ttl)
	if err = s.mailer.Send(ctx, email, p.subject, html); err != nil {
		_ = s.codes.DeletePending(ctx, scope, email)
		return err
	}

	if err = s.codes.Confirm(ctx, scope, email); err != nil {
		_ = s.codes.DeletePending(ctx, scope, email)
		return err
	}
	return nil
}

// Verify 校验并一次性消费验证码
func (s *CodeService) Verify(ctx context.Context, scope, email, code string) error {
	err := s.codes.Consume(ctx, scope, normalizeEmail(email), code)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.ErrCodeMismatch), errors.Is(err, redis.ErrEmailNotFound):
		return ErrInvalidCode
	default:
		return err
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
