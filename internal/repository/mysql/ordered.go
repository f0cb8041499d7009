package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"Redrow_Exposed/internal/model"
)

type Direction string

const (
	MoveUp   Direction = "up"
	MoveDown Direction = "down"
)

var ErrUnknownDirection = errors.New("unknown direction")

// Orderable 由需要手动排序的模型指针实现
type Orderable interface {
	SetOrderIndex(int)
}

// OrderColumns 描述一个可排序列表：ScopeColumn 为空表示全局列表，DateColumn 为次排序（降序）
type OrderColumns struct {
	ScopeColumn string
	DateColumn  string
}

// OrderedRepository 可审核、可手动排序的列表（FAQ、文章、社媒帖子、证据照片）
type OrderedRepository[T any] struct {
	Repository[T]
	Cols OrderColumns
}

func NewOrderedRepository[T any](db *gorm.DB, cols OrderColumns) *OrderedRepository[T] {
	return &OrderedRepository[T]{Repository: Repository[T]{DB: db}, Cols: cols}
}

type orderRow struct {
	ID         uint64
	OrderIndex int
}

func (r *OrderedRepository[T]) scoped(tx *gorm.DB, scope uint64) *gorm.DB {
	q := tx.Model(new(T))
	if r.Cols.ScopeColumn != "" {
		q = q.Where(r.Cols.ScopeColumn+" = ?", scope)
	}
	return q
}

func (r *OrderedRepository[T]) orderClause() string {
	if r.Cols.DateColumn == "" {
		return "order_index ASC, id ASC"
	}
	return fmt.Sprintf("order_index ASC, %s DESC, id ASC", r.Cols.DateColumn)
}

// List 按 order_index 升序、日期降序；status 为空返回全部状态
func (r *OrderedRepository[T]) List(ctx context.Context, scope uint64, status model.ModerationStatus, limit int) ([]T, error) {
	var list []T
	q := r.scoped(r.DB.WithContext(ctx), scope)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order(r.orderClause()).Limit(limit).Find(&list).Error
	return list, err
}

// Create order_index = 作用域内最大值 + 1
func (r *OrderedRepository[T]) Create(ctx context.Context, scope uint64, row *T) error {
	o, ok := any(row).(Orderable)
	if !ok {
		return fmt.Errorf("%T does not implement Orderable", row)
	}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxIdx int
		if err := r.scoped(tx, scope).Select("COALESCE(MAX(order_index), -1)").Scan(&maxIdx).Error; err != nil {
			return err
		}
		o.SetOrderIndex(maxIdx + 1)
		return tx.Create(row).Error
	})
}

// Move 与相邻行交换 order_index。边界上（首行上移、末行下移）不做任何修改，返回 false。
// 两次更新在同一事务中完成；作用域内存在重复 order_index 时先按当前顺序重排为 0..n-1。
func (r *OrderedRepository[T]) Move(ctx context.Context, id uint64, dir Direction) (bool, error) {
	if dir != MoveUp && dir != MoveDown {
		return false, ErrUnknownDirection
	}

	var moved bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scope, err := r.scopeOf(tx, id)
		if err != nil {
			return err
		}

		var rows []orderRow
		if err := forUpdate(r.scoped(tx, scope)).
			Select("id", "order_index").
			Order(r.orderClause()).
			Scan(&rows).Error; err != nil {
			return err
		}

		pos := -1
		for i := range rows {
			if rows[i].ID == id {
				pos = i
				break
			}
		}
		if pos < 0 {
			return gorm.ErrRecordNotFound
		}

		target := pos + 1
		if dir == MoveUp {
			target = pos - 1
		}
		if target < 0 || target >= len(rows) {
			return nil
		}

		if hasDuplicateIndex(rows) {
			for i := range rows {
				if rows[i].OrderIndex == i {
					continue
				}
				if err := r.setIndex(tx, rows[i].ID, i); err != nil {
					return err
				}
				rows[i].OrderIndex = i
			}
		}

		a, b := rows[pos], rows[target]
		if err := r.setIndex(tx, a.ID, b.OrderIndex); err != nil {
			return err
		}
		if err := r.setIndex(tx, b.ID, a.OrderIndex); err != nil {
			return err
		}
		moved = true
		return nil
	})
	return moved, err
}

func (r *OrderedRepository[T]) setIndex(tx *gorm.DB, id uint64, idx int) error {
	return tx.Model(new(T)).Where("id = ?", id).Update("order_index", idx).Error
}

func (r *OrderedRepository[T]) scopeOf(tx *gorm.DB, id uint64) (uint64, error) {
	if r.Cols.ScopeColumn == "" {
		var n int64
		if err := tx.Model(new(T)).Where("id = ?", id).Count(&n).Error; err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, gorm.ErrRecordNotFound
		}
		return 0, nil
	}
	var scopes []uint64
	if err := tx.Model(new(T)).Where("id = ?", id).Pluck(r.Cols.ScopeColumn, &scopes).Error; err != nil {
		return 0, err
	}
	if len(scopes) == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return scopes[0], nil
}

func hasDuplicateIndex(rows []orderRow) bool {
	seen := make(map[int]struct{}, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.OrderIndex]; ok {
			return true
		}
		seen[r.OrderIndex] = struct{}{}
	}
	return false
}
