package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"Redrow_Exposed/internal/model"
)

// protectedColumns Update 永远不会写入的列
var protectedColumns = map[string]struct{}{
	"id":               {},
	"user_id":          {},
	"evidence_id":      {},
	"order_index":      {},
	"status":           {},
	"moderated_by":     {},
	"moderated_at":     {},
	"rejection_reason": {},
	"created_at":       {},
}

// Repository 单表通用操作：按 ID 查询、局部更新、审核、硬删除
type Repository[T any] struct {
	DB *gorm.DB
}

func (r *Repository[T]) FindByID(ctx context.Context, id uint64) (*T, error) {
	var row T
	if err := r.DB.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Update 局部更新内容列，不触碰 order_index 与审核字段
func (r *Repository[T]) Update(ctx context.Context, id uint64, fields map[string]any) (*T, error) {
	clean := make(map[string]any, len(fields))
	for k, v := range fields {
		if _, ok := protectedColumns[k]; ok {
			continue
		}
		clean[k] = v
	}

	var row T
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			return err
		}
		if len(clean) == 0 {
			return nil
		}
		if err := tx.Model(new(T)).Where("id = ?", id).Updates(clean).Error; err != nil {
			return err
		}
		return tx.First(&row, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// SetModeration 写入审核结果，返回审核前的状态
func (r *Repository[T]) SetModeration(ctx context.Context, id uint64, m model.Moderation) (model.ModerationStatus, error) {
	var prev model.ModerationStatus
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if prev, err = r.statusOf(tx, id); err != nil {
			return err
		}
		return tx.Model(new(T)).Where("id = ?", id).Updates(moderationColumns(m)).Error
	})
	return prev, err
}

// ToggleModeration approved -> pending，其余 -> approved
func (r *Repository[T]) ToggleModeration(ctx context.Context, id, moderatorID uint64) (model.ModerationStatus, error) {
	var next model.ModerationStatus
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := r.statusOf(tx, id)
		if err != nil {
			return err
		}
		next = model.StatusApproved
		if cur == model.StatusApproved {
			next = model.StatusPending
		}
		now := time.Now()
		return tx.Model(new(T)).Where("id = ?", id).Updates(moderationColumns(model.Moderation{
			Status:      next,
			ModeratedBy: &moderatorID,
			ModeratedAt: &now,
		})).Error
	})
	return next, err
}

// Delete 硬删除；不存在时返回 gorm.ErrRecordNotFound
func (r *Repository[T]) Delete(ctx context.Context, id uint64) error {
	tx := r.DB.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository[T]) statusOf(tx *gorm.DB, id uint64) (model.ModerationStatus, error) {
	var statuses []string
	if err := forUpdate(tx.Model(new(T)).Where("id = ?", id)).Pluck("status", &statuses).Error; err != nil {
		return "", err
	}
	if len(statuses) == 0 {
		return "", gorm.ErrRecordNotFound
	}
	return model.ModerationStatus(statuses[0]), nil
}

func moderationColumns(m model.Moderation) map[string]any {
	return map[string]any{
		"status":           m.Status,
		"moderated_by":     m.ModeratedBy,
		"moderated_at":     m.ModeratedAt,
		"rejection_reason": m.RejectionReason,
	}
}
