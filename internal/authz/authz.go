// Package authz 社区内的权限判断，所有内容服务共用
//
// 判断只依赖社区成员快照与资源作者，不访问存储。
// 失败统一返回 Forbidden，不做静默过滤。
package authz

import (
	"hoodlink/internal/model"
	"hoodlink/internal/pkg"
)

const (
	msgNotMember = "您不是該社區成員"
	msgNotAdmin  = "僅限社區管理員操作"
	msgNotOwner  = "只有作者可以執行此操作"
	msgNoRight   = "沒有權限執行此操作"
)

func IsCreator(creatorID, userID string) bool {
	return creatorID != "" && creatorID == userID
}

func IsCommunityAdmin(r *model.Roster, userID string) bool {
	return r != nil && r.IsAdmin(userID)
}

func IsCommunityMember(r *model.Roster, userID string) bool {
	return r != nil && r.IsMember(userID)
}

// Member 读取与一般建立：社区成员
func Member(r *model.Roster, userID string) error {
	if !IsCommunityMember(r, userID) {
		return pkg.Forbidden(msgNotMember)
	}
	return nil
}

// Admin 发布公告/活动/关怀、审核、成员管理：社区管理员
func Admin(r *model.Roster, userID string) error {
	if !IsCommunityAdmin(r, userID) {
		return pkg.Forbidden(msgNotAdmin)
	}
	return nil
}

// Owner 仅作者本人
func Owner(creatorID, userID string) error {
	if !IsCreator(creatorID, userID) {
		return pkg.Forbidden(msgNotOwner)
	}
	return nil
}

// CreatorOrAdmin 修改与删除：作者或社区管理员
func CreatorOrAdmin(r *model.Roster, creatorID, userID string) error {
	if IsCreator(creatorID, userID) || IsCommunityAdmin(r, userID) {
		return nil
	}
	return pkg.Forbidden(msgNoRight)
}
