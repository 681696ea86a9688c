package model

import "time"

const (
	EventAnnouncementPublished = "announcement.published"
	EventCheckInCreated        = "checkin.created"
)

const (
	OutboxPending int8 = 0
	OutboxSent    int8 = 1
	OutboxFailed  int8 = 2
)

// OutboxEvent 与业务写入同事务落库，由 relayer 异步投递
type OutboxEvent struct {
	ID          uint64 `gorm:"primaryKey"`
	EventType   string `gorm:"size:32;not null"`
	CommunityID string `gorm:"type:char(36);not null"`
	AggregateID string `gorm:"type:char(36);not null"`
	Payload     string `gorm:"type:json;not null"`
	Status      int8   `gorm:"not null;default:0;index;comment:'0=pending,1=sent,2=failed'"`
	Retry       int    `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (OutboxEvent) TableName() string { return "outbox_events" }
