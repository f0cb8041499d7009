package mysql

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"Redrow_Exposed/internal/model"
)

type OutboxRepository struct {
	DB *gorm.DB
}

// insertOutbox 与业务写入同一事务写 outbox 表
func insertOutbox(tx *gorm.DB, event string, aggregateID uint64, data map[string]any) error {
	body := map[string]any{
		"event_time": time.Now().UTC().Format(time.RFC3339Nano),
		"event":      event,
		"id":         aggregateID,
	}
	for k, v := range data {
		body[k] = v
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return tx.Create(&model.OutboxEvent{
		EventType:   event,
		AggregateID: aggregateID,
		Payload:     datatypes.JSON(payload),
		Status:      model.OutboxPending,
	}).Error
}

// Append 单独写一条事件（不依附业务事务时使用）
func (r *OutboxRepository) Append(ctx context.Context, event string, aggregateID uint64, data map[string]any) error {
	return insertOutbox(r.DB.WithContext(ctx), event, aggregateID, data)
}

// List 按 id 升序取待投递事件
func (r *OutboxRepository) List(ctx context.Context, batchSize int) ([]model.OutboxEvent, error) {
	var list []model.OutboxEvent
	if err := r.DB.WithContext(ctx).
		Where("status = ?", model.OutboxPending).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// RetryUpdate 投递失败 retry+1，达到 maxRetry 标记为失败不再投递
func (r *OutboxRepository) RetryUpdate(ctx context.Context, ob *model.OutboxEvent, maxRetry int) error {
	status := model.OutboxPending
	if ob.Retry+1 >= maxRetry {
		status = model.OutboxFailed
	}
	return r.DB.WithContext(ctx).Model(&model.OutboxEvent{}).Where("id = ?", ob.ID).
		Updates(map[string]any{"retry": ob.Retry + 1, "status": status}).Error
}

func (r *OutboxRepository) SuccessUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.OutboxEvent{}).Where("id = ?", id).
		Update("status", model.OutboxSent).Error
}
