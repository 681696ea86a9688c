package service

import (
	"context"
	"errors"
	"time"

	"hoodlink/internal/model"
	"hoodlink/internal/pkg"
	"hoodlink/internal/repository/mysql"

	"gorm.io/gorm"
)

// 以下接口由 repository/mysql 与 repository/redis 实现
// 查询不到返回 gorm.ErrRecordNotFound，唯一约束冲突返回 gorm.ErrDuplicatedKey

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByPhone(ctx context.Context, phone string) (*model.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.User, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	Search(ctx context.Context, q string, exclude []string, limit int) ([]model.User, error)
	ListNotifiable(ctx context.Context, communityID, kind string) ([]model.User, error)
}

type SessionStore interface {
	Add(ctx context.Context, userID, jti string, ttl time.Duration) error
	Exists(ctx context.Context, userID, jti string) (bool, error)
	Revoke(ctx context.Context, userID, jti string) error
	RevokeAll(ctx context.Context, userID, keepJTI string) error
}

type CommunityStore interface {
	Create(ctx context.Context, c *model.Community) error
	FindByID(ctx context.Context, id string) (*model.Community, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	Search(ctx context.Context, q string, offset, limit int) ([]model.Community, int64, error)
	ListByMember(ctx context.Context, userID string) ([]model.Community, error)
}

type MemberStore interface {
	Join(ctx context.Context, communityID, userID, role string) error
	Leave(ctx context.Context, communityID, userID string) (bool, error)
	SetRole(ctx context.Context, communityID, userID, role string) error
	List(ctx context.Context, communityID string) ([]model.CommunityMember, error)
	Roster(ctx context.Context, communityID string) (*model.Roster, error)
}

type JoinRequestStore interface {
	CreatePending(ctx context.Context, jr *model.JoinRequest) error
	FindByID(ctx context.Context, id string) (*model.JoinRequest, error)
	FindLatest(ctx context.Context, communityID, userID string) (*model.JoinRequest, error)
	ListPending(ctx context.Context, communityID string) ([]model.JoinRequest, error)
	Review(ctx context.Context, id, status string) (*model.JoinRequest, error)
	ResolvePending(ctx context.Context, communityID, userID, status string) error
}

type AnnouncementStore interface {
	Create(ctx context.Context, a *model.Announcement, ev *model.OutboxEvent) error
	Update(ctx context.Context, a *model.Announcement, ev *model.OutboxEvent) error
	FindByID(ctx context.Context, id string) (*model.Announcement, error)
	ListByCommunity(ctx context.Context, communityID string, offset, limit int) ([]model.Announcement, int64, error)
	Delete(ctx context.Context, id string) error
}

type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	FindByID(ctx context.Context, id string) (*model.Event, error)
	ListByCommunity(ctx context.Context, communityID string, offset, limit int) ([]model.Event, int64, error)
	Update(ctx context.Context, e *model.Event) error
	Delete(ctx context.Context, id string) error
	AddParticipant(ctx context.Context, eventID, userID string) error
	RemoveParticipant(ctx context.Context, eventID, userID string) (bool, error)
	Participants(ctx context.Context, eventIDs ...string) (map[string][]string, error)
}

type PostStore interface {
	Create(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id string) (*model.Post, error)
	ListByCommunity(ctx context.Context, communityID, category string, offset, limit int) ([]model.Post, int64, error)
	ListByCreator(ctx context.Context, userID string, offset, limit int) ([]model.Post, int64, error)
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id string) error
}

type CommentStore interface {
	Create(ctx context.Context, c *model.Comment) error
	FindByID(ctx context.Context, id string) (*model.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]model.Comment, error)
	Update(ctx context.Context, c *model.Comment) error
	Delete(ctx context.Context, id string) error
	CountByPosts(ctx context.Context, postIDs []string) (map[string]int64, error)
}

type ReportStore interface {
	Create(ctx context.Context, r *model.Report) error
	FindByID(ctx context.Context, id string) (*model.Report, error)
	ListByCommunity(ctx context.Context, communityID string, f mysql.ReportFilter, offset, limit int) ([]model.Report, int64, error)
	ListByCreator(ctx context.Context, userID string, offset, limit int) ([]model.Report, int64, error)
	Update(ctx context.Context, r *model.Report) error
	Delete(ctx context.Context, id string) error
}

type CheckInStore interface {
	Create(ctx context.Context, ci *model.CheckIn, ev *model.OutboxEvent) error
	FindByID(ctx context.Context, kind, id string) (*model.CheckIn, error)
	ListByCommunity(ctx context.Context, communityID, kind string, offset, limit int) ([]model.CheckIn, int64, error)
	ListByDateRange(ctx context.Context, communityID, kind, start, end string) ([]model.CheckIn, error)
	Update(ctx context.Context, ci *model.CheckIn) error
	Delete(ctx context.Context, id string) error
	UpsertResponse(ctx context.Context, resp *model.CheckInResponse) error
	Responses(ctx context.Context, checkInIDs ...string) (map[string][]model.CheckInResponse, error)
}

type OutboxStore interface {
	ListPending(ctx context.Context, batchSize int) ([]model.OutboxEvent, error)
	MarkSent(ctx context.Context, id uint64) error
	MarkRetry(ctx context.Context, id uint64, maxRetry int) error
}

type Locker interface {
	Acquire(ctx context.Context, name, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name, token string) error
}

// ImageStore 远端图片删除
type ImageStore interface {
	Destroy(ctx context.Context, publicID string) error
}

// Page 分页结果
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

func newPage[T any](items []T, total int64, page, limit int) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{Items: items, Total: total, Page: page, Limit: limit, TotalPages: pkg.TotalPages(total, limit)}
}

// storeErr 把存储层错误翻译成业务错误
func storeErr(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkg.NotFound(notFound)
	default:
		return pkg.Internal(err)
	}
}

func requireID(id, what string) error {
	if !pkg.ValidID(id) {
		return pkg.InvalidInput(what + " ID 格式錯誤")
	}
	return nil
}

// loadRoster 取社区成员快照，社区不存在返回 NotFound
func loadRoster(ctx context.Context, members MemberStore, communityID string) (*model.Roster, error) {
	if err := requireID(communityID, "社區"); err != nil {
		return nil, err
	}
	roster, err := members.Roster(ctx, communityID)
	if err != nil {
		return nil, storeErr(err, "找不到社區")
	}
	return roster, nil
}

// briefs 批量查出用户公开身份
func briefs(ctx context.Context, users UserStore, ids []string) (map[string]model.UserBrief, error) {
	seen := make(map[string]struct{}, len(ids))
	uniq := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	out := make(map[string]model.UserBrief, len(uniq))
	if len(uniq) == 0 {
		return out, nil
	}
	list, err := users.FindByIDs(ctx, uniq)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	for i := range list {
		out[list[i].ID] = list[i].Brief()
	}
	return out, nil
}

func briefPtr(m map[string]model.UserBrief, id string) *model.UserBrief {
	if b, ok := m[id]; ok {
		return &b
	}
	return nil
}
