package service

import (
	"context"
	"strings"

	"hoodlink/internal/authz"
	"hoodlink/internal/model"
	"hoodlink/internal/pkg"

	"go.uber.org/zap"
)

type AnnouncementService struct {
	repo    AnnouncementStore
	members MemberStore
	users   UserStore
	log     *zap.Logger
}

func NewAnnouncementService(repo AnnouncementStore, members MemberStore, users UserStore, log *zap.Logger) *AnnouncementService {
	return &AnnouncementService{repo: repo, members: members, users: users, log: log}
}

type AnnouncementInput struct {
	CommunityID string
	Title       string
	Content     string
	Image       string
	Pinned      bool
}

type AnnouncementPatch struct {
	Title   *string
	Content *string
	Image   *string
	Pinned  *bool
}

type AnnouncementView struct {
	model.Announcement
	Creator *model.UserBrief `json:"creator,omitempty"`
}

// Create 仅管理员；置顶时同事务取消其他置顶并发布事件
func (s *AnnouncementService) Create(ctx context.Context, callerID string, in AnnouncementInput) (*model.Announcement, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || strings.TrimSpace(in.Content) == "" {
		return nil, pkg.InvalidInput("請填寫標題與內容")
	}
	roster, err := loadRoster(ctx, s.members, in.CommunityID)
	if err != nil {
		return nil, err
	}
	if err := authz.Admin(roster, callerID); err != nil {
		return nil, pkg.Forbidden("只有社區管理員可以發布公告")
	}
	a := &model.Announcement{
		ID:          pkg.NewID(),
		Title:       in.Title,
		Content:     in.Content,
		Image:       in.Image,
		Pinned:      in.Pinned,
		CommunityID: in.CommunityID,
		CreatorID:   callerID,
	}
	if err := s.repo.Create(ctx, a, s.publishEvent(a)); err != nil {
		return nil, pkg.Internal(err)
	}
	return a, nil
}

// publishEvent 置顶公告需要推送给下游
func (s *AnnouncementService) publishEvent(a *model.Announcement) *model.OutboxEvent {
	if !a.Pinned {
		return nil
	}
	return newOutboxEvent(model.EventAnnouncementPublished, a.CommunityID, a.ID, map[string]any{
		"title":   a.Title,
		"content": a.Content,
	})
}

func (s *AnnouncementService) Get(ctx context.Context, callerID, id string) (*AnnouncementView, error) {
	a, _, err := s.load(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	b, err := briefs(ctx, s.users, []string{a.CreatorID})
	if err != nil {
		return nil, err
	}
	return &AnnouncementView{Announcement: *a, Creator: briefPtr(b, a.CreatorID)}, nil
}

// ListByCommunity 置顶优先，再按更新时间倒序
func (s *AnnouncementService) ListByCommunity(ctx context.Context, callerID, communityID string, page, size int) (*Page[AnnouncementView], error) {
	roster, err := loadRoster(ctx, s.members, communityID)
	if err != nil {
		return nil, err
	}
	if err := authz.Member(roster, callerID); err != nil {
		return nil, err
	}
	page, size, offset := pkg.Page(page, size)
	list, total, err := s.repo.ListByCommunity(ctx, communityID, offset, size)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	ids := make([]string, 0, len(list))
	for _, a := range list {
		ids = append(ids, a.CreatorID)
	}
	b, err := briefs(ctx, s.users, ids)
	if err != nil {
		return nil, err
	}
	views := make([]AnnouncementView, 0, len(list))
	for _, a := range list {
		views = append(views, AnnouncementView{Announcement: a, Creator: briefPtr(b, a.CreatorID)})
	}
	return newPage(views, total, page, size), nil
}

func (s *AnnouncementService) Update(ctx context.Context, callerID, id string, p AnnouncementPatch) (*model.Announcement, error) {
	a, roster, err := s.load(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CreatorOrAdmin(roster, a.CreatorID, callerID); err != nil {
		return nil, err
	}
	wasPinned := a.Pinned
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			return nil, pkg.InvalidInput("標題不可為空")
		}
		a.Title = t
	}
	if p.Content != nil {
		if strings.TrimSpace(*p.Content) == "" {
			return nil, pkg.InvalidInput("內容不可為空")
		}
		a.Content = *p.Content
	}
	if p.Image != nil {
		a.Image = *p.Image
	}
	if p.Pinned != nil {
		a.Pinned = *p.Pinned
	}
	var ev *model.OutboxEvent
	if a.Pinned && !wasPinned {
		ev = s.publishEvent(a)
	}
	if err := s.repo.Update(ctx, a, ev); err != nil {
		return nil, pkg.Internal(err)
	}
	return a, nil
}

func (s *AnnouncementService) Delete(ctx context.Context, callerID, id string) error {
	a, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	roster, err := loadRoster(ctx, s.members, a.CommunityID)
	if err != nil {
		return err
	}
	if err := authz.CreatorOrAdmin(roster, a.CreatorID, callerID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkg.Internal(err)
	}
	return nil
}

func (s *AnnouncementService) find(ctx context.Context, id string) (*model.Announcement, error) {
	if err := requireID(id, "公告"); err != nil {
		return nil, err
	}
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "找不到公告")
	}
	return a, nil
}

// load 查公告并要求调用者是该社区成员
func (s *AnnouncementService) load(ctx context.Context, callerID, id string) (*model.Announcement, *model.Roster, error) {
	a, err := s.find(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	roster, err := loadRoster(ctx, s.members, a.CommunityID)
	if err != nil {
		return nil, nil, err
	}
	if err := authz.Member(roster, callerID); err != nil {
		return nil, nil, err
	}
	return a, roster, nil
}
