package mysql

import (
	"context"

	"gorm.io/gorm"

	"Redrow_Exposed/internal/model"
)

type ClaimRepository struct {
	DB *gorm.DB
}

// Create 同事务写 claim.submitted 事件，notify 附加到事件 payload
func (r *ClaimRepository) Create(ctx context.Context, c *model.Claim, notify map[string]any) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		data := map[string]any{"user_id": c.UserID, "claim_id": c.ID}
		for k, v := range notify {
			data[k] = v
		}
		return insertOutbox(tx, model.EventClaimSubmitted, c.ID, data)
	})
}

func (r *ClaimRepository) FindByID(ctx context.Context, id uint64) (*model.Claim, error) {
	var c model.Claim
	if err := r.DB.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// List userID 为 0 时不限作者，status 为空时不限状态
func (r *ClaimRepository) List(ctx context.Context, userID uint64, status model.ClaimStatus, limit int) ([]model.Claim, error) {
	q := r.DB.WithContext(ctx).Model(&model.Claim{})
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []model.Claim
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&list).Error
	return list, err
}

// UpdateStatus 仅当当前状态仍为 from 时更新，返回是否更新成功
func (r *ClaimRepository) UpdateStatus(ctx context.Context, id uint64, from, to model.ClaimStatus, note string) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.Claim{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "status_note": note})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
