package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"Redrow_Exposed/internal/model"
	"Redrow_Exposed/internal/repository/mysql"
)

// ListService 可审核、可手动排序的全局列表（FAQ、文章、社媒帖子）
type ListService[T any] struct {
	repo *mysql.OrderedRepository[T]
}

func NewListService[T any](repo *mysql.OrderedRepository[T]) *ListService[T] {
	return &ListService[T]{repo: repo}
}

// Public 只返回 approved
func (s *ListService[T]) Public(ctx context.Context) ([]T, error) {
	return s.repo.List(ctx, 0, model.StatusApproved, ListFetchLimit)
}

// All 后台列表；status 为空返回全部
func (s *ListService[T]) All(ctx context.Context, status model.ModerationStatus) ([]T, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.repo.List(ctx, 0, status, ListFetchLimit)
}

func (s *ListService[T]) Get(ctx context.Context, id uint64) (*T, error) {
	row, err := s.repo.FindByID(ctx, id)
	return row, notFound(err)
}

// Create 追加到列表末尾
func (s *ListService[T]) Create(ctx context.Context, row *T) error {
	err := s.repo.Create(ctx, 0, row)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return err
}

func (s *ListService[T]) Update(ctx context.Context, id uint64, fields map[string]any) (*T, error) {
	row, err := s.repo.Update(ctx, id, fields)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrConflict
	}
	return row, notFound(err)
}

// Move 边界移动返回 false 且不修改任何行
func (s *ListService[T]) Move(ctx context.Context, id uint64, direction string) (bool, error) {
	dir, err := ParseDirection(direction)
	if err != nil {
		return false, err
	}
	moved, err := s.repo.Move(ctx, id, dir)
	return moved, notFound(err)
}

func (s *ListService[T]) Toggle(ctx context.Context, id, moderatorID uint64) (model.ModerationStatus, error) {
	next, err := s.repo.ToggleModeration(ctx, id, moderatorID)
	return next, notFound(err)
}

func (s *ListService[T]) Moderate(ctx context.Context, id uint64, status model.ModerationStatus, reason string, moderatorID uint64) error {
	m, err := buildModeration(status, reason, moderatorID)
	if err != nil {
		return err
	}
	_, err = s.repo.SetModeration(ctx, id, m)
	return notFound(err)
}

func (s *ListService[T]) Delete(ctx context.Context, id uint64) error {
	return notFound(s.repo.Delete(ctx, id))
}
