package mysql

import (
	"context"
	"strings"

	"hoodlink/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error
	return &user, err
}

func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("phone = ?", phone).First(&user).Error
	return &user, err
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var list []model.User
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error
	return list, err
}

// Update 只写入白名单字段，由 service 负责过滤
func (r *UserRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	tx := r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		// 值未变化时 MySQL 也会返回 0，这里再确认一次用户是否存在
		var n int64
		if err := r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}

// Search 名称/Email/LINE 子串匹配，手机号按前缀或后缀匹配
func (r *UserRepository) Search(ctx context.Context, q string, exclude []string, limit int) ([]model.User, error) {
	like := "%" + escapeLike(q) + "%"
	cond := r.DB.Where("name LIKE ? OR email LIKE ? OR line_id LIKE ?", like, like, like)
	if isDigits(q) && len(q) >= 4 {
		cond = cond.Or("phone LIKE ? OR phone LIKE ?", escapeLike(q)+"%", "%"+escapeLike(q))
	}
	db := r.DB.WithContext(ctx).Where(cond)
	if len(exclude) > 0 {
		db = db.Where("id NOT IN ?", exclude)
	}
	var list []model.User
	err := db.Order("name ASC").Limit(limit).Find(&list).Error
	return list, err
}

// ListNotifiable 社区中开启了对应通知的成员（有 email 才能收信）
func (r *UserRepository) ListNotifiable(ctx context.Context, communityID, kind string) ([]model.User, error) {
	column := "receive_daily_check"
	if kind == model.KindDisasterCheck {
		column = "receive_disaster_check"
	}
	var list []model.User
	err := r.DB.WithContext(ctx).
		Joins("JOIN community_members m ON m.user_id = users.id").
		Where("m.community_id = ? AND users."+column+" = ? AND users.email IS NOT NULL", communityID, true).
		Find(&list).Error
	return list, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
