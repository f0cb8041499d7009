package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"Redrow_Exposed/internal/config"
	"Redrow_Exposed/internal/model"
	"Redrow_Exposed/internal/pkg"
	"Redrow_Exposed/internal/repository/mysql"
	"Redrow_Exposed/internal/repository/redis"
	"Redrow_Exposed/internal/storage"
	"Redrow_Exposed/internal/testutil"
)

type sentMail struct {
	To, Subject, Body string
}

// fakeMailer failures[to] 次失败后成功；failAlways 中的地址永远失败
type fakeMailer struct {
	mu         sync.Mutex
	sent       []sentMail
	attempts   map[string]int
	failures   map[string]int
	failAlways map[string]bool
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{attempts: map[string]int{}, failures: map[string]int{}, failAlways: map[string]bool{}}
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[to]++
	if m.failAlways[to] {
		return errors.New("smtp: mailbox unavailable")
	}
	if m.failures[to] > 0 {
		m.failures[to]--
		return errors.New("smtp: temporary failure")
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *fakeMailer) Sent() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

type fakeCodes struct {
	mu        sync.Mutex
	pending   map[string]string
	confirmed map[string]string
}

func newFakeCodes() *fakeCodes {
	return &fakeCodes{pending: map[string]string{}, confirmed: map[string]string{}}
}

func (f *fakeCodes) SavePending(_ context.Context, scope, email, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending[scope+":"+email] = code
	return nil
}

func (f *fakeCodes) Confirm(_ context.Context, scope, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := scope + ":" + email
	code, ok := f.pending[k]
	if !ok {
		return redis.ErrCodeConfirmedFailed
	}
	delete(f.pending, k)
	f.confirmed[k] = code
	return nil
}

func (f *fakeCodes) DeletePending(_ context.Context, scope, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pending, scope+":"+email)
	return nil
}

func (f *fakeCodes) Consume(_ context.Context, scope, email, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := scope + ":" + email
	cur, ok := f.confirmed[k]
	if !ok {
		return redis.ErrEmailNotFound
	}
	if cur != code {
		return redis.ErrCodeMismatch
	}
	delete(f.confirmed, k)
	return nil
}

func (f *fakeCodes) code(scope, email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.confirmed[scope+":"+email]
}

type fakeTokens struct {
	mu      sync.Mutex
	tokens  map[uint64]string
	refresh map[uint64]string
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{tokens: map[uint64]string{}, refresh: map[uint64]string{}}
}

func (f *fakeTokens) AddUserToken(_ context.Context, id uint64, tok string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[id] = tok
	return nil
}

func (f *fakeTokens) GetUserToken(_ context.Context, id uint64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tok, ok := f.tokens[id]
	if !ok {
		return "", redis.ErrTokenNotFound
	}
	return tok, nil
}

func (f *fakeTokens) AddRefreshToken(_ context.Context, id uint64, tok string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh[id] = tok
	return nil
}

func (f *fakeTokens) GetRefreshToken(_ context.Context, id uint64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tok, ok := f.refresh[id]
	if !ok {
		return "", redis.ErrTokenNotFound
	}
	return tok, nil
}

func (f *fakeTokens) DeleteUserToken(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, id)
	delete(f.refresh, id)
	return nil
}

type fakeDedup struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newFakeDedup() *fakeDedup { return &fakeDedup{keys: map[string]bool{}} }

func (f *fakeDedup) Claim(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeDedup) Release(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.keys, key)
	return nil
}

// failingStore 删除总是失败
type failingStore struct {
	*storage.MemoryStore
}

func (failingStore) Delete(context.Context, ...string) error {
	return errors.New("storage unavailable")
}

func testIssuer() *pkg.TokenIssuer {
	return pkg.NewTokenIssuer(config.JWTConfig{
		AccessSecret:  "test-access-secret-0123456789abcdef",
		RefreshSecret: "test-refresh-secret-0123456789abcdef",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
}

func fastRetry() RetryPolicy {
	return RetryPolicy{Attempts: 3, Initial: time.Millisecond, MaxElapsed: time.Second}
}

func newEmailService(t *testing.T, db *gorm.DB, mailer Mailer, dedup Deduper) *EmailService {
	t.Helper()
	return NewEmailService(mysql.NewEmailRepository(db), mailer, dedup, fastRetry(), nil, zap.NewNop())
}

func seedUser(t *testing.T, db *gorm.DB, email string, role model.Role) *model.User {
	t.Helper()
	u := &model.User{Email: email, Password: "x", FullName: "Test " + string(role), Role: role}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func newDB(t *testing.T) *gorm.DB {
	return testutil.NewDB(t)
}
