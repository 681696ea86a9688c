package mysql

import (
	"context"
	"encoding/json"
	"time"

	"hoodlink/internal/model"

	"gorm.io/gorm"
)

type OutboxRepository struct {
	DB *gorm.DB
}

// insertOutbox 与业务写入处于同一事务
func insertOutbox(tx *gorm.DB, ev *model.OutboxEvent) error {
	if ev == nil {
		return nil
	}
	if ev.Payload == "" {
		ev.Payload = "{}"
	}
	if !json.Valid([]byte(ev.Payload)) {
		return errInvalidPayload
	}
	ev.Status = model.OutboxPending
	return tx.Create(ev).Error
}

// ListPending 按 id 顺序取待投递事件
func (r *OutboxRepository) ListPending(ctx context.Context, batchSize int) ([]model.OutboxEvent, error) {
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

// MarkRetry 投递失败：重试次数 +1，达到上限标记为 failed，否则保持 pending
// status 先于 retry 赋值，CASE 里读到的是旧的 retry
func (r *OutboxRepository) MarkRetry(ctx context.Context, id uint64, maxRetry int) error {
	return r.DB.WithContext(ctx).Exec(
		"UPDATE outbox_events SET status = CASE WHEN retry + 1 >= ? THEN ? ELSE ? END, retry = retry + 1, updated_at = ? WHERE id = ?",
		maxRetry, model.OutboxFailed, model.OutboxPending, time.Now(), id,
	).Error
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.OutboxEvent{}).Where("id = ?", id).
		Update("status", model.OutboxSent).Error
}
