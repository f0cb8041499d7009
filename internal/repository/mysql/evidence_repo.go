package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"Redrow_Exposed/internal/model"
)

// EvidenceQuery 列表条件；UserID 为 0 表示不限作者，Status 为空表示全部状态
type EvidenceQuery struct {
	UserID uint64
	Status model.ModerationStatus
	Limit  int
}

type EvidenceRepository struct {
	Repository[model.Evidence]
}

func NewEvidenceRepository(db *gorm.DB) *EvidenceRepository {
	return &EvidenceRepository{Repository: Repository[model.Evidence]{DB: db}}
}

// NewPhotoRepository 照片在所属 evidence 内排序
func NewPhotoRepository(db *gorm.DB) *OrderedRepository[model.EvidencePhoto] {
	return NewOrderedRepository[model.EvidencePhoto](db, OrderColumns{ScopeColumn: "evidence_id", DateColumn: "created_at"})
}

func preloadPhotos(db *gorm.DB) *gorm.DB {
	return db.Order("order_index ASC, created_at DESC, id ASC")
}

func (r *EvidenceRepository) Create(ctx context.Context, e *model.Evidence) error {
	return r.DB.WithContext(ctx).Omit("Photos").Create(e).Error
}

// List 最新在前，附带已排序的照片
func (r *EvidenceRepository) List(ctx context.Context, q EvidenceQuery) ([]model.Evidence, error) {
	db := r.DB.WithContext(ctx).Model(&model.Evidence{}).Preload("Photos", preloadPhotos)
	if q.UserID != 0 {
		db = db.Where("user_id = ?", q.UserID)
	}
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	var list []model.Evidence
	err := db.Order("created_at DESC, id DESC").Limit(q.Limit).Find(&list).Error
	return list, err
}

func (r *EvidenceRepository) FindWithPhotos(ctx context.Context, id uint64) (*model.Evidence, error) {
	var e model.Evidence
	if err := r.DB.WithContext(ctx).Preload("Photos", preloadPhotos).First(&e, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// Moderate 写入审核结果；approved / rejected 同事务写 outbox 事件，notify 附加到 payload
func (r *EvidenceRepository) Moderate(ctx context.Context, id uint64, m model.Moderation, notify map[string]any) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := r.statusOf(tx, id); err != nil {
			return err
		}
		if err := tx.Model(&model.Evidence{}).Where("id = ?", id).Updates(moderationColumns(m)).Error; err != nil {
			return err
		}
		data := map[string]any{"reason": m.RejectionReason}
		for k, v := range notify {
			data[k] = v
		}
		switch m.Status {
		case model.StatusApproved:
			return insertOutbox(tx, model.EventEvidenceApproved, id, data)
		case model.StatusRejected:
			return insertOutbox(tx, model.EventEvidenceRejected, id, data)
		}
		return nil
	})
}

// Toggle approved -> pending，其余 -> approved；转为 approved 时与 Moderate 一样写 outbox
func (r *EvidenceRepository) Toggle(ctx context.Context, id, moderatorID uint64, notify map[string]any) (model.ModerationStatus, error) {
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
		if err = tx.Model(&model.Evidence{}).Where("id = ?", id).Updates(moderationColumns(model.Moderation{
			Status:      next,
			ModeratedBy: &moderatorID,
			ModeratedAt: &now,
		})).Error; err != nil {
			return err
		}
		if next != model.StatusApproved {
			return nil
		}
		data := map[string]any{"reason": ""}
		for k, v := range notify {
			data[k] = v
		}
		return insertOutbox(tx, model.EventEvidenceApproved, id, data)
	})
	return next, err
}

// DeleteWithPhotos 同一事务删除照片行与 evidence 行
func (r *EvidenceRepository) DeleteWithPhotos(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("evidence_id = ?", id).Delete(&model.EvidencePhoto{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Evidence{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return insertOutbox(tx, model.EventEvidenceDeleted, id, nil)
	})
}
