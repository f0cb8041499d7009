package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"Redrow_Exposed/internal/model"
)

type EmailRepository struct {
	DB        *gorm.DB
	Templates *Repository[model.EmailTemplate]
	Triggers  *Repository[model.EmailTrigger]
}

func NewEmailRepository(db *gorm.DB) *EmailRepository {
	return &EmailRepository{
		DB:        db,
		Templates: &Repository[model.EmailTemplate]{DB: db},
		Triggers:  &Repository[model.EmailTrigger]{DB: db},
	}
}

// ListTemplates activeOnly 为 true 时只返回启用的模板
func (r *EmailRepository) ListTemplates(ctx context.Context, activeOnly bool) ([]model.EmailTemplate, error) {
	q := r.DB.WithContext(ctx).Model(&model.EmailTemplate{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var list []model.EmailTemplate
	err := q.Order("name ASC").Find(&list).Error
	return list, err
}

func (r *EmailRepository) FindTemplateByName(ctx context.Context, name string) (*model.EmailTemplate, error) {
	var t model.EmailTemplate
	if err := r.DB.WithContext(ctx).Where("name = ?", name).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *EmailRepository) CreateTemplate(ctx context.Context, t *model.EmailTemplate) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

// UpsertTemplate 按 name 更新 subject 与 html_content，不存在则创建，返回是否新建
func (r *EmailRepository) UpsertTemplate(ctx context.Context, t *model.EmailTemplate) (bool, error) {
	var created bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur model.EmailTemplate
		err := forUpdate(tx).Where("name = ?", t.Name).First(&cur).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			created = true
			return tx.Create(t).Error
		}
		if err != nil {
			return err
		}
		if err := tx.Model(&model.EmailTemplate{}).Where("id = ?", cur.ID).Updates(map[string]any{
			"subject":      t.Subject,
			"html_content": t.HTMLContent,
			"variables":    t.Variables,
		}).Error; err != nil {
			return err
		}
		return tx.First(t, "id = ?", cur.ID).Error
	})
	return created, err
}

func (r *EmailRepository) ListTriggers(ctx context.Context) ([]model.EmailTrigger, error) {
	var list []model.EmailTrigger
	err := r.DB.WithContext(ctx).Order("event ASC").Find(&list).Error
	return list, err
}

func (r *EmailRepository) CreateTrigger(ctx context.Context, t *model.EmailTrigger) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

// ActiveTemplateFor 事件绑定的启用模板；无绑定时返回 gorm.ErrRecordNotFound
func (r *EmailRepository) ActiveTemplateFor(ctx context.Context, event string) (*model.EmailTemplate, error) {
	var trg model.EmailTrigger
	if err := r.DB.WithContext(ctx).
		Where("event = ? AND is_active = ?", event, true).
		First(&trg).Error; err != nil {
		return nil, err
	}
	var t model.EmailTemplate
	if err := r.DB.WithContext(ctx).
		Where("id = ? AND is_active = ?", trg.TemplateID, true).
		First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateLog 同事务写 email.batch_sent 事件
func (r *EmailRepository) CreateLog(ctx context.Context, l *model.EmailLog) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(l).Error; err != nil {
			return err
		}
		return insertOutbox(tx, model.EventEmailBatchSent, l.ID, map[string]any{
			"batch_id": l.BatchID,
			"success":  l.SuccessCount,
			"failure":  l.FailureCount,
		})
	})
}

func (r *EmailRepository) ListLogs(ctx context.Context, limit int) ([]model.EmailLog, error) {
	var list []model.EmailLog
	err := r.DB.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&list).Error
	return list, err
}
