package model

import "time"

const (
	KindDailyGreeting = "daily_greeting"
	KindDisasterCheck = "disaster_check"
)

const (
	CheckInOpen   = "進行中"
	CheckInClosed = "已結束"
)

const (
	ReplyGoodDay     = "美好的一天"
	ReplyNeedHelp    = "需要幫助QQ"
	ReplySafe        = "我沒事"
	ReplyRequestHelp = "請求幫助"
)

// CheckIn 每日问候与防灾回报共用一张表，用 Kind 区分
// Date 仅每日问候使用（YYYY-MM-DD），防灾回报为空
type CheckIn struct {
	ID          string    `gorm:"primaryKey;type:char(36)" json:"id"`
	Kind        string    `gorm:"size:16;not null;uniqueIndex:uk_checkin_day,priority:2" json:"kind"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	Date        *string   `gorm:"size:10;uniqueIndex:uk_checkin_day,priority:3" json:"date,omitempty"`
	Status      string    `gorm:"size:16;not null;default:進行中" json:"status"`
	CommunityID string    `gorm:"type:char(36);not null;uniqueIndex:uk_checkin_day,priority:1" json:"communityId"`
	CreatorID   string    `gorm:"type:char(36);not null" json:"creatorId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CheckInResponse struct {
	ID        uint64    `gorm:"primaryKey" json:"-"`
	CheckInID string    `gorm:"type:char(36);not null;uniqueIndex:uk_checkin_user" json:"checkInId"`
	UserID    string    `gorm:"type:char(36);not null;uniqueIndex:uk_checkin_user" json:"userId"`
	Reply     string    `gorm:"size:16;not null" json:"reply"`
	ReplyAt   time.Time `gorm:"not null" json:"replyAt"`
}

// ReplyOptions 各类型允许的回覆值
func ReplyOptions(kind string) []string {
	switch kind {
	case KindDailyGreeting:
		return []string{ReplyGoodDay, ReplyNeedHelp}
	case KindDisasterCheck:
		return []string{ReplySafe, ReplyRequestHelp}
	}
	return nil
}

func ValidReply(kind, reply string) bool { return contains(ReplyOptions(kind), reply) }

// NeedsHelp 回覆是否代表求助
func NeedsHelp(reply string) bool { return reply == ReplyNeedHelp || reply == ReplyRequestHelp }
