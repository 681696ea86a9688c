package model

import "time"

const (
	ReportPending    = "待處理"
	ReportInProgress = "處理中"
	ReportDone       = "已完成"
)

var (
	ReportCategories = []string{"水電", "設備", "環境", "其他", "治安"}
	ReportStatuses   = []string{ReportPending, ReportInProgress, ReportDone}
)

type Report struct {
	ID          string    `gorm:"primaryKey;type:char(36)" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Category    string    `gorm:"size:16;not null;default:其他" json:"category"`
	Location    string    `gorm:"size:255" json:"location,omitempty"`
	Status      string    `gorm:"size:16;not null;default:待處理;index" json:"status"`
	Image       string    `gorm:"size:512" json:"image,omitempty"`
	CommunityID string    `gorm:"type:char(36);not null;index" json:"communityId"`
	CreatorID   string    `gorm:"type:char(36);not null;index" json:"creatorId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func ValidReportCategory(c string) bool { return contains(ReportCategories, c) }

func ValidReportStatus(s string) bool { return contains(ReportStatuses, s) }

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
