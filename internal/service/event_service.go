package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"hoodlink/internal/authz"
	"hoodlink/internal/model"
	"hoodlink/internal/pkg"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type EventService struct {
	repo    EventStore
	members MemberStore
	users   UserStore
	log     *zap.Logger
	now     func() time.Time
}

func NewEventService(repo EventStore, members MemberStore, users UserStore, log *zap.Logger) *EventService {
	return &EventService{repo: repo, members: members, users: users, log: log, now: time.Now}
}

type EventInput struct {
	CommunityID          string
	Title                string
	Content              string
	Image                string
	Date                 time.Time
	RegistrationDeadline *time.Time
}

type EventPatch struct {
	Title                *string
	Content              *string
	Image                *string
	Date                 *time.Time
	RegistrationDeadline *time.Time
	ClearDeadline        bool
}

type EventView struct {
	model.Event
	Creator      *model.UserBrief `json:"creator,omitempty"`
	Participants []string         `json:"participants"`
}

func validateEventTimes(date time.Time, deadline *time.Time) error {
	if date.IsZero() {
		return pkg.InvalidInput("請提供活動日期")
	}
	if deadline != nil && deadline.After(date) {
		return pkg.InvalidInput("報名截止日不可晚於活動日期")
	}
	return nil
}

func (s *EventService) Create(ctx context.Context, callerID string, in EventInput) (*model.Event, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || strings.TrimSpace(in.Content) == "" {
		return nil, pkg.InvalidInput("請填寫標題與內容")
	}
	if err := validateEventTimes(in.Date, in.RegistrationDeadline); err != nil {
		return nil, err
	}
	roster, err := loadRoster(ctx, s.members, in.CommunityID)
	if err != nil {
		return nil, err
	}
	if err := authz.Admin(roster, callerID); err != nil {
		return nil, pkg.Forbidden("只有社區管理員可以建立活動")
	}
	e := &model.Event{
		ID:                   pkg.NewID(),
		Title:                in.Title,
		Date:                 in.Date,
		RegistrationDeadline: in.RegistrationDeadline,
		Content:              in.Content,
		Image:                in.Image,
		CommunityID:          in.CommunityID,
		CreatorID:            callerID,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, pkg.Internal(err)
	}
	return e, nil
}

func (s *EventService) Get(ctx context.Context, callerID, id string) (*EventView, error) {
	e, _, err := s.load(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, []model.Event{*e})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *EventService) ListByCommunity(ctx context.Context, callerID, communityID string, page, size int) (*Page[EventView], error) {
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
	views, err := s.views(ctx, list)
	if err != nil {
		return nil, err
	}
	return newPage(views, total, page, size), nil
}

func (s *EventService) views(ctx context.Context, list []model.Event) ([]EventView, error) {
	ids := make([]string, 0, len(list))
	creators := make([]string, 0, len(list))
	for _, e := range list {
		ids = append(ids, e.ID)
		creators = append(creators, e.CreatorID)
	}
	parts, err := s.repo.Participants(ctx, ids...)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	b, err := briefs(ctx, s.users, creators)
	if err != nil {
		return nil, err
	}
	out := make([]EventView, 0, len(list))
	for _, e := range list {
		p := parts[e.ID]
		if p == nil {
			p = []string{}
		}
		out = append(out, EventView{Event: e, Creator: briefPtr(b, e.CreatorID), Participants: p})
	}
	return out, nil
}

func (s *EventService) Update(ctx context.Context, callerID, id string, p EventPatch) (*model.Event, error) {
	e, roster, err := s.load(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CreatorOrAdmin(roster, e.CreatorID, callerID); err != nil {
		return nil, err
	}
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			return nil, pkg.InvalidInput("標題不可為空")
		}
		e.Title = t
	}
	if p.Content != nil {
		if strings.TrimSpace(*p.Content) == "" {
			return nil, pkg.InvalidInput("內容不可為空")
		}
		e.Content = *p.Content
	}
	if p.Image != nil {
		e.Image = *p.Image
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.ClearDeadline {
		e.RegistrationDeadline = nil
	} else if p.RegistrationDeadline != nil {
		e.RegistrationDeadline = p.RegistrationDeadline
	}
	if err := validateEventTimes(e.Date, e.RegistrationDeadline); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, pkg.Internal(err)
	}
	return e, nil
}

func (s *EventService) Delete(ctx context.Context, callerID, id string) error {
	e, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	roster, err := loadRoster(ctx, s.members, e.CommunityID)
	if err != nil {
		return err
	}
	if err := authz.CreatorOrAdmin(roster, e.CreatorID, callerID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkg.Internal(err)
	}
	return nil
}

// Participants 报名名单，作者或管理员可见
func (s *EventService) Participants(ctx context.Context, callerID, id string) ([]model.UserBrief, error) {
	e, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	roster, err := loadRoster(ctx, s.members, e.CommunityID)
	if err != nil {
		return nil, err
	}
	if err := authz.CreatorOrAdmin(roster, e.CreatorID, callerID); err != nil {
		return nil, err
	}
	parts, err := s.repo.Participants(ctx, id)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	b, err := briefs(ctx, s.users, parts[id])
	if err != nil {
		return nil, err
	}
	out := make([]model.UserBrief, 0, len(parts[id]))
	for _, uid := range parts[id] {
		if brief, ok := b[uid]; ok {
			out = append(out, brief)
		}
	}
	return out, nil
}

// Register 截止或活动已过拒绝；重复报名返回 Conflict
func (s *EventService) Register(ctx context.Context, callerID, id string) error {
	e, _, err := s.load(ctx, callerID, id)
	if err != nil {
		return err
	}
	if !e.RegistrationOpen(s.now()) {
		return pkg.Conflict("報名已截止")
	}
	if err := s.repo.AddParticipant(ctx, id, callerID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return pkg.Conflict("你已經報名過此活動")
		}
		return pkg.Internal(err)
	}
	return nil
}

func (s *EventService) Cancel(ctx context.Context, callerID, id string) error {
	if _, _, err := s.load(ctx, callerID, id); err != nil {
		return err
	}
	removed, err := s.repo.RemoveParticipant(ctx, id, callerID)
	if err != nil {
		return pkg.Internal(err)
	}
	if !removed {
		return pkg.Conflict("你尚未報名此活動")
	}
	return nil
}

func (s *EventService) find(ctx context.Context, id string) (*model.Event, error) {
	if err := requireID(id, "活動"); err != nil {
		return nil, err
	}
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "找不到活動")
	}
	return e, nil
}

func (s *EventService) load(ctx context.Context, callerID, id string) (*model.Event, *model.Roster, error) {
	e, err := s.find(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	roster, err := loadRoster(ctx, s.members, e.CommunityID)
	if err != nil {
		return nil, nil, err
	}
	if err := authz.Member(roster, callerID); err != nil {
		return nil, nil, err
	}
	return e, roster, nil
}
