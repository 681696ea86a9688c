package model

import "time"

type Announcement struct {
	ID          string    `gorm:"primaryKey;type:char(36)" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	Image       string    `gorm:"size:512" json:"image,omitempty"`
	Pinned      bool      `gorm:"not null;default:false;index:idx_ann_community_pinned,priority:2" json:"pinned"`
	CommunityID string    `gorm:"type:char(36);not null;index:idx_ann_community_pinned,priority:1" json:"communityId"`
	CreatorID   string    `gorm:"type:char(36);not null" json:"creatorId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
