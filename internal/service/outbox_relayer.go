package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"Redrow_Exposed/internal/metrics"
	"Redrow_Exposed/internal/model"
	"Redrow_Exposed/internal/pkg"
	"Redrow_Exposed/internal/repository/mysql"
)

// DefaultOutboxMaxRetry 超过后标记为失败，不再投递
const DefaultOutboxMaxRetry = 10

type Sender func(ctx context.Context, ob *model.OutboxEvent) error

// OutboxRelayer 从 outbox 表按 id 顺序读取事件，依次交给全部 sender（至少一次）
type OutboxRelayer struct {
	repo      *mysql.OutboxRepository
	batchSize int
	interval  time.Duration
	maxRetry  int
	senders   []Sender
	metrics   *metrics.Metrics
	log       *zap.Logger
}

func NewOutboxRelayer(repo *mysql.OutboxRepository, batchSize int, interval time.Duration, m *metrics.Metrics, log *zap.Logger, senders ...Sender) *OutboxRelayer {
	if batchSize <= 0 {
		batchSize = 200
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &OutboxRelayer{
		repo:      repo,
		batchSize: batchSize,
		interval:  interval,
		maxRetry:  DefaultOutboxMaxRetry,
		senders:   senders,
		metrics:   m,
		log:       log,
	}
}

// Run outbox 启动器，ctx 取消后退出
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.DrainOnce(ctx)
		}
	}
}

// DrainOnce 按 id 顺序投递一批，遇到失败即停止，返回成功条数
func (r *OutboxRelayer) DrainOnce(ctx context.Context) int {
	rows, err := r.repo.List(ctx, r.batchSize)
	if err != nil {
		r.log.Error("outbox query failed", zap.Error(err))
		return 0
	}
	sent := 0
	for i := range rows {
		ob := &rows[i]
		if err = r.send(ctx, ob); err != nil {
			r.log.Warn("outbox send failed",
				zap.Uint64("outbox_id", ob.ID), zap.String("event", ob.EventType),
				zap.Int("retry", ob.Retry+1), zap.Error(err))
			r.metrics.Outbox(ob.EventType, "failed")
			if uerr := r.repo.RetryUpdate(ctx, ob, r.maxRetry); uerr != nil {
				r.log.Error("outbox retry update failed", zap.Uint64("outbox_id", ob.ID), zap.Error(uerr))
			}
			// 后续事件等这一条成功或被标记 failed 后再投递，保证顺序
			return sent
		}
		if uerr := r.repo.SuccessUpdate(ctx, ob.ID); uerr != nil {
			r.log.Error("outbox success update failed", zap.Uint64("outbox_id", ob.ID), zap.Error(uerr))
			return sent
		}
		r.metrics.Outbox(ob.EventType, "sent")
		sent++
	}
	return sent
}

func (r *OutboxRelayer) send(ctx context.Context, ob *model.OutboxEvent) error {
	for _, s := range r.senders {
		if err := s(ctx, ob); err != nil {
			return err
		}
	}
	return nil
}

// KafkaSender 以 aggregate id 为 key，保证同一实体的事件有序
func KafkaSender(p *pkg.KafkaProducer) Sender {
	return func(ctx context.Context, ob *model.OutboxEvent) error {
		return p.PublishEvent(ctx, ob.AggregateID, ob.EventType, ob.Payload)
	}
}

// LogSender 未配置 kafka 时使用
func LogSender(log *zap.Logger) Sender {
	return func(_ context.Context, ob *model.OutboxEvent) error {
		log.Info("outbox event",
			zap.Uint64("outbox_id", ob.ID),
			zap.String("event", ob.EventType),
			zap.Uint64("aggregate_id", ob.AggregateID),
			zap.ByteString("payload", ob.Payload))
		return nil
	}
}
