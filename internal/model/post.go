package model

import "time"

const PostCategoryOther = "其他"

var PostCategories = []string{"鄰里閒聊", "推薦分享", "二手交換", "失物招領", "求助協尋", PostCategoryOther}

type Post struct {
	ID            string    `gorm:"primaryKey;type:char(36)" json:"id"`
	Title         string    `gorm:"size:200;not null" json:"title"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	Image         string    `gorm:"size:512" json:"image,omitempty"`
	ImagePublicID string    `gorm:"size:255" json:"imagePublicId,omitempty"`
	Category      string    `gorm:"size:16;not null;default:其他;index:idx_post_comm_cat,priority:2" json:"category"`
	CommunityID   string    `gorm:"type:char(36);not null;index:idx_post_comm_cat,priority:1" json:"communityId"`
	CreatorID     string    `gorm:"type:char(36);not null;index" json:"creatorId"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Comment struct {
	ID        string    `gorm:"primaryKey;type:char(36)" json:"id"`
	PostID    string    `gorm:"type:char(36);not null;index" json:"postId"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatorID string    `gorm:"type:char(36);not null" json:"creatorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func ValidPostCategory(c string) bool {
	for _, v := range PostCategories {
		if v == c {
			return true
		}
	}
	return false
}
