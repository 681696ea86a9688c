package mysql

import (
	"context"

	"hoodlink/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommunityMemberRepository struct {
	DB *gorm.DB
}

// Join 幂等插入：若已存在 (community_id, user_id) 则不报错，也不改变已有角色
func (r *CommunityMemberRepository) Join(ctx context.Context, communityID, userID, role string) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "community_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&model.CommunityMember{
		CommunityID: communityID,
		UserID:      userID,
		Role:        role,
	}).Error
}

// Leave 返回是否真的删除了一行
func (r *CommunityMemberRepository) Leave(ctx context.Context, communityID, userID string) (bool, error) {
	tx := r.DB.WithContext(ctx).Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&model.CommunityMember{})
	return tx.RowsAffected > 0, tx.Error
}

func (r *CommunityMemberRepository) SetRole(ctx context.Context, communityID, userID, role string) error {
	tx := r.DB.WithContext(ctx).Model(&model.CommunityMember{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Update("role", role)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *CommunityMemberRepository) List(ctx context.Context, communityID string) ([]model.CommunityMember, error) {
	var list []model.CommunityMember
	err := r.DB.WithContext(ctx).Where("community_id = ?", communityID).Order("created_at ASC").Find(&list).Error
	return list, err
}

// Roster 社区与成员快照；社区不存在返回 gorm.ErrRecordNotFound
func (r *CommunityMemberRepository) Roster(ctx context.Context, communityID string) (*model.Roster, error) {
	var c model.Community
	if err := r.DB.WithContext(ctx).Where("id = ?", communityID).First(&c).Error; err != nil {
		return nil, err
	}
	list, err := r.List(ctx, communityID)
	if err != nil {
		return nil, err
	}
	roster := &model.Roster{Community: &c, Members: make(map[string]string, len(list))}
	for _, m := range list {
		roster.Members[m.UserID] = m.Role
	}
	return roster, nil
}
