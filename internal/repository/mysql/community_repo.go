package mysql

import (
	"context"

	"hoodlink/internal/model"

	"gorm.io/gorm"
)

type CommunityRepository struct {
	DB *gorm.DB
}

// Create 建立社区并让创建者以管理员身份加入，同一事务
func (r *CommunityRepository) Create(ctx context.Context, c *model.Community) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		mRepo := &CommunityMemberRepository{DB: tx}
		return mRepo.Join(ctx, c.ID, c.CreatorID, model.MemberRoleAdmin)
	})
}

func (r *CommunityRepository) FindByID(ctx context.Context, id string) (*model.Community, error) {
	var community model.Community
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&community).Error
	return &community, err
}

// ExistsByName excludeID 非空时排除自身（改名场景）
func (r *CommunityRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	var n int64
	db := r.DB.WithContext(ctx).Model(&model.Community{}).Where("name = ?", name)
	if excludeID != "" {
		db = db.Where("id <> ?", excludeID)
	}
	err := db.Count(&n).Error
	return n > 0, err
}

func (r *CommunityRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Model(&model.Community{}).Where("id = ?", id).Updates(fields).Error
}

// Search 名称子串查询，q 为空时返回全部
func (r *CommunityRepository) Search(ctx context.Context, q string, offset, limit int) ([]model.Community, int64, error) {
	db := r.DB.WithContext(ctx).Model(&model.Community{})
	if q != "" {
		db = db.Where("name LIKE ?", "%"+escapeLike(q)+"%")
	}
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.Community
	err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

// ListByMember 用户所属社区，由成员关系表推导
func (r *CommunityRepository) ListByMember(ctx context.Context, userID string) ([]model.Community, error) {
	var list []model.Community
	err := r.DB.WithContext(ctx).
		Joins("JOIN community_members m ON m.community_id = communities.id").
		Where("m.user_id = ?", userID).
		Order("m.created_at ASC").
		Find(&list).Error
	return list, err
}
