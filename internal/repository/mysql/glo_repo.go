package mysql

import (
	"context"

	"gorm.io/gorm"

	"Redrow_Exposed/internal/model"
)

type GLORepository struct {
	DB *gorm.DB
}

// Create 同事务写 glo_interest.registered 事件；邮箱重复时返回 gorm.ErrDuplicatedKey
func (r *GLORepository) Create(ctx context.Context, g *model.GLOInterest) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.GLOInterest{}).Where("email = ?", g.Email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return gorm.ErrDuplicatedKey
		}
		if err := tx.Create(g).Error; err != nil {
			return err
		}
		return insertOutbox(tx, model.EventGLORegistered, g.ID, map[string]any{
			"email":       g.Email,
			"name":        g.FullName,
			"development": g.Development,
		})
	})
}

func (r *GLORepository) List(ctx context.Context, limit int) ([]model.GLOInterest, error) {
	var list []model.GLOInterest
	err := r.DB.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&list).Error
	return list, err
}

func (r *GLORepository) Delete(ctx context.Context, id uint64) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.GLOInterest{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
