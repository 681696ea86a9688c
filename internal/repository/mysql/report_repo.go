package mysql

import (
	"context"

	"hoodlink/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReportRepository struct {
	DB *gorm.DB
}

type ReportFilter struct {
	Category string
	Status   string
}

func (r *ReportRepository) Create(ctx context.Context, rep *model.Report) error {
	return r.DB.WithContext(ctx).Create(rep).Error
}

func (r *ReportRepository) FindByID(ctx context.Context, id string) (*model.Report, error) {
	var rep model.Report
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&rep).Error
	return &rep, err
}

// ListByCommunity 待處理优先，其余按建立时间倒序
func (r *ReportRepository) ListByCommunity(ctx context.Context, communityID string, f ReportFilter, offset, limit int) ([]model.Report, int64, error) {
	db := r.DB.WithContext(ctx).Model(&model.Report{}).Where("community_id = ?", communityID)
	if f.Category != "" {
		db = db.Where("category = ?", f.Category)
	}
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.Report
	err := db.Order(clause.OrderBy{Expression: clause.Expr{
		SQL:                "status = ? DESC, created_at DESC",
		Vars:               []any{model.ReportPending},
		WithoutParentheses: true,
	}}).
		Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

func (r *ReportRepository) ListByCreator(ctx context.Context, userID string, offset, limit int) ([]model.Report, int64, error) {
	db := r.DB.WithContext(ctx).Model(&model.Report{}).Where("creator_id = ?", userID)
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.Report
	err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

func (r *ReportRepository) Update(ctx context.Context, rep *model.Report) error {
	return r.DB.WithContext(ctx).Save(rep).Error
}

func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.Report{}).Error
}
