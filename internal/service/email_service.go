package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"Redrow_Exposed/internal/metrics"
	"Redrow_Exposed/internal/model"
	"Redrow_Exposed/internal/repository/mysql"
)

// batchTestConcurrency 批量测试模板时的并发上限
const batchTestConcurrency = 4

// triggerEvents 可以绑定邮件模板的事件
var triggerEvents = map[string]struct{}{
	model.EventGLORegistered:    {},
	model.EventClaimSubmitted:   {},
	model.EventEvidenceApproved: {},
	model.EventEvidenceRejected: {},
}

func IsTriggerEvent(event string) bool {
	_, ok := triggerEvents[event]
	return ok
}

type RetryPolicy struct {
	Attempts   int
	Initial    time.Duration
	MaxElapsed time.Duration
}

func DefaultRetryPolicy(attempts int) RetryPolicy {
	if attempts <= 0 {
		attempts = 3
	}
	return RetryPolicy{Attempts: attempts, Initial: 500 * time.Millisecond, MaxElapsed: 10 * time.Second}
}

// SendRequest send-admin-email 请求体
type SendRequest struct {
	TemplateID *uint64        `json:"templateId"`
	Template   string         `json:"template"`
	Recipients []string       `json:"recipients" binding:"required,min=1,max=500"`
	Subject    string         `json:"subject" binding:"max=255"`
	CustomData map[string]any `json:"customData"`

	BatchID string  `json:"-"`
	SentBy  *uint64 `json:"-"`
}

type RecipientResult struct {
	Email   string `json:"email"`
	Success bool   `json:"success"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

type SendResult struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	BatchID string            `json:"batchId"`
	Results []RecipientResult `json:"results"`
}

type SyncResult struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Created []string `json:"created"`
	Updated []string `json:"updated"`
}

type TemplateTestResult struct {
	TemplateID uint64 `json:"template_id"`
	Name       string `json:"name"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// TemplateInput 后台创建 / 更新模板
type TemplateInput struct {
	Name        string `json:"name" binding:"required,max=64"`
	Subject     string `json:"subject" binding:"required,max=255"`
	HTMLContent string `json:"html_content" binding:"required"`
	Category    string `json:"category" binding:"max=64"`
	IsActive    *bool  `json:"is_active"`
}

type TriggerInput struct {
	Event      string `json:"event" binding:"required"`
	TemplateID uint64 `json:"template_id" binding:"required"`
	IsActive   *bool  `json:"is_active"`
}

// renderer 每个收件人渲染一次
type renderer struct {
	name       string
	templateID *uint64
	render     func(data map[string]any) (subject, body string, err error)
}

type EmailService struct {
	repo     *mysql.EmailRepository
	mailer   Mailer
	dedup    Deduper
	retry    RetryPolicy
	metrics  *metrics.Metrics
	log      *zap.Logger
	validate *validator.Validate
}

func NewEmailService(repo *mysql.EmailRepository, mailer Mailer, dedup Deduper, retry RetryPolicy, m *metrics.Metrics, log *zap.Logger) *EmailService {
	return &EmailService{
		repo:     repo,
		mailer:   mailer,
		dedup:    dedup,
		retry:    retry,
		metrics:  m,
		log:      log,
		validate: validator.New(),
	}
}

// resolve 优先按 ID，其次数据库中同名模板，最后内置模板
func (s *EmailService) resolve(ctx context.Context, req SendRequest) (*renderer, error) {
	var tpl *model.EmailTemplate
	switch {
	case req.TemplateID != nil:
		t, err := s.repo.Templates.FindByID(ctx, *req.TemplateID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTemplateNotFound
			}
			return nil, err
		}
		tpl = t
	case req.Template != "":
		t, err := s.repo.FindTemplateByName(ctx, req.Template)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if err == nil {
			tpl = t
		}
	default:
		return nil, ErrTemplateNotFound
	}

	if tpl != nil {
		if !tpl.IsActive {
			return nil, ErrTemplateNotFound
		}
		subject := tpl.Subject
		if req.Subject != "" {
			subject = req.Subject
		}
		body := tpl.HTMLContent
		id := tpl.ID
		return &renderer{
			name:       tpl.Name,
			templateID: &id,
			render: func(data map[string]any) (string, string, error) {
				return Substitute(subject, data), SubstituteHTML(body, data), nil
			},
		}, nil
	}

	if _, ok := legacyTemplates[req.Template]; !ok {
		return nil, ErrTemplateNotFound
	}
	name := req.Template
	return &renderer{
		name: name,
		render: func(data map[string]any) (string, string, error) {
			subject, body, err := renderLegacy(name, data)
			if err == nil && req.Subject != "" {
				subject = Substitute(req.Subject, data)
			}
			return subject, body, err
		},
	}, nil
}

// Send 逐个收件人发送：去重、校验地址、抢占幂等键、带退避重试，最后写一条 EmailLog
func (s *EmailService) Send(ctx context.Context, req SendRequest) (*SendResult, error) {
	recipients := uniqueRecipients(req.Recipients)
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}
	r, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.BatchID == "" {
		req.BatchID = uuid.NewString()
	}

	log := s.log.With(zap.String("batch_id", req.BatchID), zap.String("template", r.name))
	results := make([]RecipientResult, 0, len(recipients))
	var subject string
	for _, to := range recipients {
		res, subj := s.sendOne(ctx, req, r, to)
		if subj != "" {
			subject = subj
		}
		results = append(results, res)
	}

	var ok, failed int
	for _, res := range results {
		if res.Success {
			ok++
		} else {
			failed++
		}
	}

	raw, _ := json.Marshal(results)
	entry := &model.EmailLog{
		BatchID:      req.BatchID,
		TemplateID:   r.templateID,
		TemplateName: r.name,
		Subject:      subject,
		Recipients:   len(results),
		SuccessCount: ok,
		FailureCount: failed,
		Results:      datatypes.JSON(raw),
		SentBy:       req.SentBy,
	}
	if err := s.repo.CreateLog(ctx, entry); err != nil {
		// 邮件已发出，日志失败不影响结果
		log.Error("failed to write email log", zap.Error(err))
	}
	log.Info("email batch finished", zap.Int("success", ok), zap.Int("failure", failed))

	return &SendResult{
		Success: failed == 0,
		Message: fmt.Sprintf("Sent %d of %d emails", ok, len(results)),
		BatchID: req.BatchID,
		Results: results,
	}, nil
}

func (s *EmailService) sendOne(ctx context.Context, req SendRequest, r *renderer, to string) (RecipientResult, string) {
	res := RecipientResult{Email: to}
	if err := s.validate.Var(to, "required,email"); err != nil {
		res.Error = "invalid email address"
		s.metrics.Email("failed")
		return res, ""
	}

	key := fmt.Sprintf("%s:%s:%s", req.BatchID, r.name, to)
	claimed, err := s.dedup.Claim(ctx, key)
	if err != nil {
		res.Error = err.Error()
		s.metrics.Email("failed")
		return res, ""
	}
	if !claimed {
		res.Success, res.Skipped = true, true
		s.metrics.Email("skipped")
		return res, ""
	}

	data := make(map[string]any, len(req.CustomData)+1)
	data["email"] = to
	for k, v := range req.CustomData {
		data[k] = v
	}
	subject, body, err := r.render(data)
	if err == nil {
		err = s.sendWithRetry(ctx, to, subject, body)
	}
	if err != nil {
		if rerr := s.dedup.Release(context.WithoutCancel(ctx), key); rerr != nil {
			s.log.Warn("failed to release dedup key", zap.String("key", key), zap.Error(rerr))
		}
		res.Error = err.Error()
		s.metrics.Email("failed")
		return res, subject
	}
	res.Success = true
	s.metrics.Email("sent")
	return res, subject
}

func (s *EmailService) sendWithRetry(ctx context.Context, to, subject, body string) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.retry.Initial
	b.MaxElapsedTime = s.retry.MaxElapsed

	attempt := 0
	op := func() error {
		attempt++
		err := s.mailer.Send(ctx, to, subject, body)
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if err != nil {
			s.log.Warn("email send attempt failed",
				zap.String("to", to), zap.Int("attempt", attempt), zap.Error(err))
		}
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(s.retry.Attempts-1, 0))), ctx)
	return backoff.Retry(op, policy)
}

// uniqueRecipients 去空白、忽略大小写去重，保持原顺序
func uniqueRecipients(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, r := range list {
		r = normalizeEmail(r)
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// TriggerSender outbox 事件对应的邮件触发器；批次号取 outbox id，重放不会重复发送
func (s *EmailService) TriggerSender(ctx context.Context, ob *model.OutboxEvent) error {
	if !IsTriggerEvent(ob.EventType) {
		return nil
	}
	var data map[string]any
	if err := json.Unmarshal(ob.Payload, &data); err != nil {
		s.log.Warn("bad outbox payload", zap.Uint64("outbox_id", ob.ID), zap.Error(err))
		return nil
	}
	to, _ := data["email"].(string)
	if to == "" {
		return nil
	}

	tpl, err := s.repo.ActiveTemplateFor(ctx, ob.EventType)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	id := tpl.ID
	res, err := s.Send(ctx, SendRequest{
		TemplateID: &id,
		Recipients: []string{to},
		CustomData: data,
		BatchID:    fmt.Sprintf("outbox-%d", ob.ID),
	})
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("trigger %s: %s", ob.EventType, res.Results[0].Error)
	}
	return nil
}

// SyncTemplates 以占位符渲染内置模板并按名称写入数据库
func (s *EmailService) SyncTemplates(ctx context.Context) (*SyncResult, error) {
	out := &SyncResult{Created: []string{}, Updated: []string{}}
	for _, name := range LegacyTemplateNames() {
		lt := legacyTemplates[name]
		subject, body, err := renderLegacy(name, placeholderData(lt.Vars))
		if err != nil {
			return nil, err
		}
		vars, _ := json.Marshal(TemplateVariables(subject, body))
		created, err := s.repo.UpsertTemplate(ctx, &model.EmailTemplate{
			Name:        name,
			Subject:     subject,
			HTMLContent: body,
			Category:    lt.Category,
			Variables:   datatypes.JSON(vars),
			IsActive:    true,
		})
		if err != nil {
			return nil, fmt.Errorf("sync template %s: %w", name, err)
		}
		if created {
			out.Created = append(out.Created, name)
		} else {
			out.Updated = append(out.Updated, name)
		}
	}
	out.Success = true
	out.Message = fmt.Sprintf("Synced %d templates", len(out.Created)+len(out.Updated))
	s.log.Info("email templates synced", zap.Strings("created", out.Created), zap.Strings("updated", out.Updated))
	return out, nil
}

// BatchTest 用示例数据把每个启用的模板发送到同一个地址
func (s *EmailService) BatchTest(ctx context.Context, to string) ([]TemplateTestResult, error) {
	to = normalizeEmail(to)
	if err := s.validate.Var(to, "required,email"); err != nil {
		return nil, ErrInvalidInput
	}
	templates, err := s.repo.ListTemplates(ctx, true)
	if err != nil {
		return nil, err
	}

	results := make([]TemplateTestResult, len(templates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchTestConcurrency)
	for i := range templates {
		tpl := templates[i]
		g.Go(func() error {
			sample := map[string]any{}
			for _, v := range TemplateVariables(tpl.Subject, tpl.HTMLContent) {
				sample[v] = "Sample " + v
			}
			sample["email"] = to
			r := TemplateTestResult{TemplateID: tpl.ID, Name: tpl.Name}
			err := s.sendWithRetry(gctx, to, "[TEST] "+Substitute(tpl.Subject, sample), SubstituteHTML(tpl.HTMLContent, sample))
			if err != nil {
				r.Error = err.Error()
			} else {
				r.Success = true
			}
			results[i] = r
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *EmailService) ListTemplates(ctx context.Context) ([]model.EmailTemplate, error) {
	return s.repo.ListTemplates(ctx, false)
}

func (s *EmailService) CreateTemplate(ctx context.Context, in TemplateInput) (*model.EmailTemplate, error) {
	vars, _ := json.Marshal(TemplateVariables(in.Subject, in.HTMLContent))
	t := &model.EmailTemplate{
		Name:        strings.TrimSpace(in.Name),
		Subject:     in.Subject,
		HTMLContent: in.HTMLContent,
		Category:    in.Category,
		Variables:   datatypes.JSON(vars),
		IsActive:    in.IsActive == nil || *in.IsActive,
	}
	if err := s.repo.CreateTemplate(ctx, t); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return t, nil
}

func (s *EmailService) UpdateTemplate(ctx context.Context, id uint64, in TemplateInput) (*model.EmailTemplate, error) {
	vars, _ := json.Marshal(TemplateVariables(in.Subject, in.HTMLContent))
	fields := map[string]any{
		"name":         strings.TrimSpace(in.Name),
		"subject":      in.Subject,
		"html_content": in.HTMLContent,
		"category":     in.Category,
		"variables":    datatypes.JSON(vars),
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}
	t, err := s.repo.Templates.Update(ctx, id, fields)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, notFound(err)
	}
	return t, nil
}

func (s *EmailService) DeleteTemplate(ctx context.Context, id uint64) error {
	return notFound(s.repo.Templates.Delete(ctx, id))
}

func (s *EmailService) ListTriggers(ctx context.Context) ([]model.EmailTrigger, error) {
	return s.repo.ListTriggers(ctx)
}

func (s *EmailService) CreateTrigger(ctx context.Context, in TriggerInput) (*model.EmailTrigger, error) {
	if err := s.checkTrigger(ctx, in); err != nil {
		return nil, err
	}
	t := &model.EmailTrigger{Event: in.Event, TemplateID: in.TemplateID, IsActive: in.IsActive == nil || *in.IsActive}
	if err := s.repo.CreateTrigger(ctx, t); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return t, nil
}

func (s *EmailService) UpdateTrigger(ctx context.Context, id uint64, in TriggerInput) (*model.EmailTrigger, error) {
	if err := s.checkTrigger(ctx, in); err != nil {
		return nil, err
	}
	fields := map[string]any{"event": in.Event, "template_id": in.TemplateID}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}
	t, err := s.repo.Triggers.Update(ctx, id, fields)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, notFound(err)
	}
	return t, nil
}

// checkTrigger 事件必须可触发，模板必须存在
func (s *EmailService) checkTrigger(ctx context.Context, in TriggerInput) error {
	if !IsTriggerEvent(in.Event) {
		return ErrInvalidInput
	}
	if _, err := s.repo.Templates.FindByID(ctx, in.TemplateID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTemplateNotFound
		}
		return err
	}
	return nil
}

func (s *EmailService) DeleteTrigger(ctx context.Context, id uint64) error {
	return notFound(s.repo.Triggers.Delete(ctx, id))
}

func (s *EmailService) ListLogs(ctx context.Context, limit int) ([]model.EmailLog, error) {
	if limit <= 0 || limit > ListFetchLimit {
		limit = 100
	}
	return s.repo.ListLogs(ctx, limit)
}
