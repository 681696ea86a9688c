package mysql

import (
	"context"
	"time"

	"hoodlink/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CheckInRepository struct {
	DB *gorm.DB
}

// Create 每日问候依赖 (community_id, kind, date) 唯一索引，同日重复返回 gorm.ErrDuplicatedKey
func (r *CheckInRepository) Create(ctx context.Context, ci *model.CheckIn, ev *model.OutboxEvent) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ci).Error; err != nil {
			return err
		}
		return insertOutbox(tx, ev)
	})
}

func (r *CheckInRepository) FindByID(ctx context.Context, kind, id string) (*model.CheckIn, error) {
	var ci model.CheckIn
	err := r.DB.WithContext(ctx).Where("id = ? AND kind = ?", id, kind).First(&ci).Error
	return &ci, err
}

// ListByCommunity 每日问候按日期倒序，防灾回报按建立时间倒序
func (r *CheckInRepository) ListByCommunity(ctx context.Context, communityID, kind string, offset, limit int) ([]model.CheckIn, int64, error) {
	db := r.DB.WithContext(ctx).Model(&model.CheckIn{}).Where("community_id = ? AND kind = ?", communityID, kind)
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.CheckIn
	err := db.Order("date DESC, created_at DESC").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

// ListByDateRange 日期字符串为 YYYY-MM-DD，可直接按字典序比较
func (r *CheckInRepository) ListByDateRange(ctx context.Context, communityID, kind, start, end string) ([]model.CheckIn, error) {
	var list []model.CheckIn
	err := r.DB.WithContext(ctx).
		Where("community_id = ? AND kind = ? AND date >= ? AND date <= ?", communityID, kind, start, end).
		Order("date ASC").
		Find(&list).Error
	return list, err
}

func (r *CheckInRepository) Update(ctx context.Context, ci *model.CheckIn) error {
	return r.DB.WithContext(ctx).Save(ci).Error
}

func (r *CheckInRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("check_in_id = ?", id).Delete(&model.CheckInResponse{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.CheckIn{}).Error
	})
}

// UpsertResponse 同一用户重复回覆时原地覆盖回覆内容与时间
func (r *CheckInRepository) UpsertResponse(ctx context.Context, resp *model.CheckInResponse) error {
	if resp.ReplyAt.IsZero() {
		resp.ReplyAt = time.Now()
	}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "check_in_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"reply", "reply_at"}),
	}).Create(resp).Error
}

// Responses 按回覆时间先后
func (r *CheckInRepository) Responses(ctx context.Context, checkInIDs ...string) (map[string][]model.CheckInResponse, error) {
	out := make(map[string][]model.CheckInResponse, len(checkInIDs))
	if len(checkInIDs) == 0 {
		return out, nil
	}
	var rows []model.CheckInResponse
	if err := r.DB.WithContext(ctx).Where("check_in_id IN ?", checkInIDs).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.CheckInID] = append(out[row.CheckInID], row)
	}
	return out, nil
}
