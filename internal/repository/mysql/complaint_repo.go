package mysql

import (
	"context"

	"gorm.io/gorm"

	"Redrow_Exposed/internal/model"
)

type ComplaintRepository struct {
	Repository[model.Complaint]
}

func NewComplaintRepository(db *gorm.DB) *ComplaintRepository {
	return &ComplaintRepository{Repository: Repository[model.Complaint]{DB: db}}
}

func (r *ComplaintRepository) Create(ctx context.Context, c *model.Complaint) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *ComplaintRepository) List(ctx context.Context, status model.ModerationStatus, limit int) ([]model.Complaint, error) {
	q := r.DB.WithContext(ctx).Model(&model.Complaint{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []model.Complaint
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&list).Error
	return list, err
}
