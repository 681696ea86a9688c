package mysql

import (
	"context"

	"hoodlink/internal/model"

	"gorm.io/gorm"
)

type EventRepository struct {
	DB *gorm.DB
}

func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	return r.DB.WithContext(ctx).Create(e).Error
}

func (r *EventRepository) FindByID(ctx context.Context, id string) (*model.Event, error) {
	var e model.Event
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&e).Error
	return &e, err
}

// ListByCommunity 报名截止日倒序，再按活动日期倒序
func (r *EventRepository) ListByCommunity(ctx context.Context, communityID string, offset, limit int) ([]model.Event, int64, error) {
	db := r.DB.WithContext(ctx).Model(&model.Event{}).Where("community_id = ?", communityID)
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.Event
	err := db.Order("registration_deadline DESC, date DESC").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

func (r *EventRepository) Update(ctx context.Context, e *model.Event) error {
	return r.DB.WithContext(ctx).Save(e).Error
}

// Delete 连同报名记录一起删除
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&model.EventParticipant{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Event{}).Error
	})
}

// AddParticipant 依赖 (event_id, user_id) 唯一索引，重复报名返回 gorm.ErrDuplicatedKey
func (r *EventRepository) AddParticipant(ctx context.Context, eventID, userID string) error {
	return r.DB.WithContext(ctx).Create(&model.EventParticipant{EventID: eventID, UserID: userID}).Error
}

func (r *EventRepository) RemoveParticipant(ctx context.Context, eventID, userID string) (bool, error) {
	tx := r.DB.WithContext(ctx).Where("event_id = ? AND user_id = ?", eventID, userID).Delete(&model.EventParticipant{})
	return tx.RowsAffected > 0, tx.Error
}

// Participants 报名用户 id，按报名先后
func (r *EventRepository) Participants(ctx context.Context, eventIDs ...string) (map[string][]string, error) {
	out := make(map[string][]string, len(eventIDs))
	if len(eventIDs) == 0 {
		return out, nil
	}
	var rows []model.EventParticipant
	if err := r.DB.WithContext(ctx).Where("event_id IN ?", eventIDs).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.EventID] = append(out[p.EventID], p.UserID)
	}
	return out, nil
}
