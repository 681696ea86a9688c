package mysql

import (
	"context"

	"hoodlink/internal/model"

	"gorm.io/gorm"
)

type AnnouncementRepository struct {
	DB *gorm.DB
}

// Create 置顶时锁住社区行，先取消同社区其他置顶再写入；ev 非空时同事务写 outbox
func (r *AnnouncementRepository) Create(ctx context.Context, a *model.Announcement, ev *model.OutboxEvent) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if a.Pinned {
			if err := unpinSiblings(tx, a.CommunityID, a.ID); err != nil {
				return err
			}
		}
		if err := tx.Create(a).Error; err != nil {
			return err
		}
		return insertOutbox(tx, ev)
	})
}

// Update 整行保存，置顶规则同 Create
func (r *AnnouncementRepository) Update(ctx context.Context, a *model.Announcement, ev *model.OutboxEvent) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if a.Pinned {
			if err := unpinSiblings(tx, a.CommunityID, a.ID); err != nil {
				return err
			}
		}
		if err := tx.Save(a).Error; err != nil {
			return err
		}
		return insertOutbox(tx, ev)
	})
}

func unpinSiblings(tx *gorm.DB, communityID, keepID string) error {
	if err := lockCommunity(tx, communityID); err != nil {
		return err
	}
	return tx.Model(&model.Announcement{}).
		Where("community_id = ? AND pinned = ? AND id <> ?", communityID, true, keepID).
		Update("pinned", false).Error
}

func (r *AnnouncementRepository) FindByID(ctx context.Context, id string) (*model.Announcement, error) {
	var a model.Announcement
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&a).Error
	return &a, err
}

// ListByCommunity 置顶优先，其余按更新时间倒序
func (r *AnnouncementRepository) ListByCommunity(ctx context.Context, communityID string, offset, limit int) ([]model.Announcement, int64, error) {
	db := r.DB.WithContext(ctx).Model(&model.Announcement{}).Where("community_id = ?", communityID)
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.Announcement
	err := db.Order("pinned DESC, updated_at DESC, id DESC").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.Announcement{}).Error
}
