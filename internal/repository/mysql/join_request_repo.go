package mysql

import (
	"context"

	"hoodlink/internal/model"

	"gorm.io/gorm"
)

type JoinRequestRepository struct {
	DB *gorm.DB
}

// CreatePending 锁住社区行后检查是否已有 pending 申请，保证同一 (社区, 用户) 至多一条
// 已存在时返回 gorm.ErrDuplicatedKey
func (r *JoinRequestRepository) CreatePending(ctx context.Context, jr *model.JoinRequest) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockCommunity(tx, jr.CommunityID); err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&model.JoinRequest{}).
			Where("community_id = ? AND user_id = ? AND status = ?", jr.CommunityID, jr.UserID, model.JoinPending).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return gorm.ErrDuplicatedKey
		}
		jr.Status = model.JoinPending
		return tx.Create(jr).Error
	})
}

func (r *JoinRequestRepository) FindByID(ctx context.Context, id string) (*model.JoinRequest, error) {
	var jr model.JoinRequest
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&jr).Error
	return &jr, err
}

// FindLatest 该用户对该社区最近一次申请
func (r *JoinRequestRepository) FindLatest(ctx context.Context, communityID, userID string) (*model.JoinRequest, error) {
	var jr model.JoinRequest
	err := r.DB.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Order("created_at DESC, id DESC").
		First(&jr).Error
	return &jr, err
}

func (r *JoinRequestRepository) ListPending(ctx context.Context, communityID string) ([]model.JoinRequest, error) {
	var list []model.JoinRequest
	err := r.DB.WithContext(ctx).
		Where("community_id = ? AND status = ?", communityID, model.JoinPending).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

// Review 仅 pending 可审核；已是终态时原样返回，由调用方比对决定
// approved 时在同一事务内幂等加入成员，并结案该用户其余 pending 申请
func (r *JoinRequestRepository) Review(ctx context.Context, id, status string) (*model.JoinRequest, error) {
	var jr model.JoinRequest
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clauseForUpdate()).Where("id = ?", id).First(&jr).Error; err != nil {
			return err
		}
		if jr.Status != model.JoinPending {
			return nil
		}
		if err := tx.Model(&jr).Update("status", status).Error; err != nil {
			return err
		}
		if status != model.JoinApproved {
			return nil
		}
		mRepo := &CommunityMemberRepository{DB: tx}
		if err := mRepo.Join(ctx, jr.CommunityID, jr.UserID, model.MemberRoleMember); err != nil {
			return err
		}
		return resolvePending(tx, jr.CommunityID, jr.UserID, model.JoinApproved)
	})
	return &jr, err
}

// ResolvePending 用户已成为成员时（直接加入或管理员加人），把仍在等待的申请一并结案
func (r *JoinRequestRepository) ResolvePending(ctx context.Context, communityID, userID, status string) error {
	return resolvePending(r.DB.WithContext(ctx), communityID, userID, status)
}

func resolvePending(db *gorm.DB, communityID, userID, status string) error {
	return db.Model(&model.JoinRequest{}).
		Where("community_id = ? AND user_id = ? AND status = ?", communityID, userID, model.JoinPending).
		Update("status", status).Error
}
