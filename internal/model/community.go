package model

import "time"

const (
	CommunityApproved = "approved"
	CommunityPending  = "pending"
	CommunityRejected = "rejected"
)

type Community struct {
	ID        string    `gorm:"primaryKey;type:char(36)" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Address   string    `gorm:"size:255;not null" json:"address"`
	IsPublic  bool      `gorm:"not null;default:true" json:"isPublic"`
	CreatorID string    `gorm:"type:char(36);not null;index" json:"creatorId"`
	Status    string    `gorm:"size:16;not null;default:approved" json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const (
	MemberRoleMember = "member"
	MemberRoleAdmin  = "admin"
)

// CommunityMember 社区成员关系的唯一来源；admin 也是 member
type CommunityMember struct {
	ID          uint64    `gorm:"primaryKey" json:"-"`
	CommunityID string    `gorm:"type:char(36);not null;uniqueIndex:uk_community_user" json:"communityId"`
	UserID      string    `gorm:"type:char(36);not null;index;uniqueIndex:uk_community_user" json:"userId"`
	Role        string    `gorm:"size:16;not null;default:member" json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Roster 某个社区的成员快照，供权限判断使用
type Roster struct {
	Community *Community
	Members   map[string]string // userID -> role
}

func (r *Roster) IsMember(userID string) bool {
	_, ok := r.Members[userID]
	return ok
}

func (r *Roster) IsAdmin(userID string) bool {
	return r.Members[userID] == MemberRoleAdmin
}

func (r *Roster) AdminCount() int {
	n := 0
	for _, role := range r.Members {
		if role == MemberRoleAdmin {
			n++
		}
	}
	return n
}

const (
	JoinPending  = "pending"
	JoinApproved = "approved"
	JoinRejected = "rejected"
)

type JoinRequest struct {
	ID          string    `gorm:"primaryKey;type:char(36)" json:"id"`
	CommunityID string    `gorm:"type:char(36);not null;index:idx_join_community_user" json:"communityId"`
	UserID      string    `gorm:"type:char(36);not null;index:idx_join_community_user" json:"userId"`
	Status      string    `gorm:"size:16;not null;default:pending;index" json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
