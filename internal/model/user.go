package model

import "time"

const (
	UserRoleUser  = "user"
	UserRoleAdmin = "admin"
)

type User struct {
	ID                   string    `gorm:"primaryKey;type:char(36)" json:"id"`
	Name                 string    `gorm:"size:64;not null" json:"name"`
	Email                *string   `gorm:"uniqueIndex;size:128" json:"email,omitempty"`
	Phone                *string   `gorm:"uniqueIndex;size:16" json:"phone,omitempty"`
	Password             string    `gorm:"size:255;not null" json:"-"`
	Role                 string    `gorm:"size:16;not null;default:user" json:"role"` // 仅展示，不参与社区权限
	LineID               *string   `gorm:"uniqueIndex;size:64" json:"lineId,omitempty"`
	IsElder              bool      `gorm:"not null;default:false" json:"isElder"`
	IsLivingAlone        bool      `gorm:"not null;default:false" json:"isLivingAlone"`
	ReceiveDailyCheck    bool      `gorm:"not null;default:false" json:"receiveDailyCheck"`
	ReceiveDisasterCheck bool      `gorm:"not null;default:false" json:"receiveDisasterCheck"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// UserBrief 嵌入到其他资源里的公开身份
type UserBrief struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Email  *string `json:"email,omitempty"`
	Phone  *string `json:"phone,omitempty"`
	LineID *string `json:"lineId,omitempty"`
}

func (u *User) Brief() UserBrief {
	return UserBrief{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, LineID: u.LineID}
}
