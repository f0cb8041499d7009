package mysql

import (
	"context"

	"gorm.io/gorm"

	"Redrow_Exposed/internal/model"
)

type UserRepository struct {
	DB *gorm.DB
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*model.User, error) {
	var user model.User
	if err := r.DB.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uint64, hashed string) error {
	return r.updateColumns(ctx, id, map[string]any{"password": hashed})
}

// UpdateProfile 只允许修改姓名与电话
func (r *UserRepository) UpdateProfile(ctx context.Context, id uint64, fullName, phone string) error {
	return r.updateColumns(ctx, id, map[string]any{"full_name": fullName, "phone": phone})
}

func (r *UserRepository) UpdateRole(ctx context.Context, id uint64, role model.Role) error {
	return r.updateColumns(ctx, id, map[string]any{"role": role})
}

// List 管理后台用户列表，search 匹配邮箱或姓名
func (r *UserRepository) List(ctx context.Context, search string, offset, limit int) ([]model.User, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.User{})
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("email LIKE ? OR full_name LIKE ?", like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []model.User
	if err := q.Order("id ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepository) updateColumns(ctx context.Context, id uint64, cols map[string]any) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&model.User{}).Where("id = ?", id).Updates(cols).Error
	})
}
