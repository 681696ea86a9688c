package mysql

import (
	"context"

	"hoodlink/internal/model"

	"gorm.io/gorm"
)

type PostRepository struct {
	DB *gorm.DB
}

func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	return r.DB.WithContext(ctx).Create(post).Error
}

func (r *PostRepository) FindByID(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&post).Error
	return &post, err
}

// ListByCommunity 最新优先；category 为空不过滤
func (r *PostRepository) ListByCommunity(ctx context.Context, communityID, category string, offset, limit int) ([]model.Post, int64, error) {
	db := r.DB.WithContext(ctx).Model(&model.Post{}).Where("community_id = ?", communityID)
	if category != "" {
		db = db.Where("category = ?", category)
	}
	return r.page(db, offset, limit)
}

func (r *PostRepository) ListByCreator(ctx context.Context, userID string, offset, limit int) ([]model.Post, int64, error) {
	db := r.DB.WithContext(ctx).Model(&model.Post{}).Where("creator_id = ?", userID)
	return r.page(db, offset, limit)
}

func (r *PostRepository) page(db *gorm.DB, offset, limit int) ([]model.Post, int64, error) {
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.Post
	err := db.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

func (r *PostRepository) Update(ctx context.Context, post *model.Post) error {
	return r.DB.WithContext(ctx).Save(post).Error
}

// Delete 硬删除帖子及其留言
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Post{}).Error
	})
}

type CommentRepository struct {
	DB *gorm.DB
}

func (r *CommentRepository) Create(ctx context.Context, c *model.Comment) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *CommentRepository) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	var c model.Comment
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error
	return &c, err
}

// ListByPost 留言按时间正序
func (r *CommentRepository) ListByPost(ctx context.Context, postID string) ([]model.Comment, error) {
	var list []model.Comment
	err := r.DB.WithContext(ctx).Where("post_id = ?", postID).Order("created_at ASC, id ASC").Find(&list).Error
	return list, err
}

func (r *CommentRepository) Update(ctx context.Context, c *model.Comment) error {
	return r.DB.WithContext(ctx).Save(c).Error
}

func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.Comment{}).Error
}

// CountByPosts 每个帖子的留言数
func (r *CommentRepository) CountByPosts(ctx context.Context, postIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		PostID string
		N      int64
	}
	if err := r.DB.WithContext(ctx).Model(&model.Comment{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.PostID] = row.N
	}
	return out, nil
}
