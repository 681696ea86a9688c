package model

import "time"

type Event struct {
	ID                   string     `gorm:"primaryKey;type:char(36)" json:"id"`
	Title                string     `gorm:"size:200;not null" json:"title"`
	Date                 time.Time  `gorm:"not null" json:"date"`
	RegistrationDeadline *time.Time `json:"registrationDeadline"`
	Content              string     `gorm:"type:text;not null" json:"content"`
	Image                string     `gorm:"size:512" json:"image,omitempty"`
	CommunityID          string     `gorm:"type:char(36);not null;index" json:"communityId"`
	CreatorID            string     `gorm:"type:char(36);not null" json:"creatorId"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// RegistrationOpen 截止日（若有）与活动日期都未过
func (e *Event) RegistrationOpen(now time.Time) bool {
	if e.RegistrationDeadline != nil && now.After(*e.RegistrationDeadline) {
		return false
	}
	return !now.After(e.Date)
}

type EventParticipant struct {
	ID        uint64    `gorm:"primaryKey" json:"-"`
	EventID   string    `gorm:"type:char(36);not null;uniqueIndex:uk_event_user" json:"eventId"`
	UserID    string    `gorm:"type:char(36);not null;uniqueIndex:uk_event_user" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}
