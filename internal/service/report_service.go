package service

import (
	"context"
	"strings"

	"hoodlink/internal/authz"
	"hoodlink/internal/model"
	"hoodlink/internal/pkg"
	"hoodlink/internal/repository/mysql"

	"go.uber.org/zap"
)

type ReportService struct {
	repo    ReportStore
	members MemberStore
	users   UserStore
	log     *zap.Logger
}

func NewReportService(repo ReportStore, members MemberStore, users UserStore, log *zap.Logger) *ReportService {
	return &ReportService{repo: repo, members: members, users: users, log: log}
}

type ReportInput struct {
	CommunityID string
	Title       string
	Description string
	Category    string
	Location    string
	Image       string
}

type ReportPatch struct {
	Title       *string
	Description *string
	Category    *string
	Location    *string
	Image       *string
}

type ReportView struct {
	model.Report
	Creator *model.UserBrief `json:"creator,omitempty"`
}

func reportCategory(c string) (string, error) {
	c = strings.TrimSpace(c)
	if c == "" {
		return "其他", nil
	}
	if !model.ValidReportCategory(c) {
		return "", pkg.InvalidInput("無效的回報分類")
	}
	return c, nil
}

// Create 社区成员都可以回报
func (s *ReportService) Create(ctx context.Context, callerID string, in ReportInput) (*model.Report, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" || in.Description == "" {
		return nil, pkg.InvalidInput("請填寫標題與描述")
	}
	category, err := reportCategory(in.Category)
	if err != nil {
		return nil, err
	}
	roster, err := loadRoster(ctx, s.members, in.CommunityID)
	if err != nil {
		return nil, err
	}
	if err := authz.Member(roster, callerID); err != nil {
		return nil, err
	}
	r := &model.Report{
		ID:          pkg.NewID(),
		Title:       in.Title,
		Description: in.Description,
		Category:    category,
		Location:    strings.TrimSpace(in.Location),
		Status:      model.ReportPending,
		Image:       in.Image,
		CommunityID: in.CommunityID,
		CreatorID:   callerID,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, pkg.Internal(err)
	}
	return r, nil
}

// Get 回报者本人或社区管理员
func (s *ReportService) Get(ctx context.Context, callerID, id string) (*ReportView, error) {
	r, _, err := s.authorized(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	b, err := briefs(ctx, s.users, []string{r.CreatorID})
	if err != nil {
		return nil, err
	}
	return &ReportView{Report: *r, Creator: briefPtr(b, r.CreatorID)}, nil
}

// ListByCommunity 仅管理员，可按分类/状态过滤
func (s *ReportService) ListByCommunity(ctx context.Context, callerID, communityID string, f mysql.ReportFilter, page, size int) (*Page[ReportView], error) {
	if f.Category != "" && !model.ValidReportCategory(f.Category) {
		return nil, pkg.InvalidInput("無效的回報分類")
	}
	if f.Status != "" && !model.ValidReportStatus(f.Status) {
		return nil, pkg.InvalidInput("無效的處理狀態")
	}
	roster, err := loadRoster(ctx, s.members, communityID)
	if err != nil {
		return nil, err
	}
	if err := authz.Admin(roster, callerID); err != nil {
		return nil, err
	}
	page, size, offset := pkg.Page(page, size)
	list, total, err := s.repo.ListByCommunity(ctx, communityID, f, offset, size)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	return s.page(ctx, list, total, page, size)
}

func (s *ReportService) ListMine(ctx context.Context, callerID string, page, size int) (*Page[ReportView], error) {
	page, size, offset := pkg.Page(page, size)
	list, total, err := s.repo.ListByCreator(ctx, callerID, offset, size)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	return s.page(ctx, list, total, page, size)
}

func (s *ReportService) page(ctx context.Context, list []model.Report, total int64, page, size int) (*Page[ReportView], error) {
	ids := make([]string, 0, len(list))
	for _, r := range list {
		ids = append(ids, r.CreatorID)
	}
	b, err := briefs(ctx, s.users, ids)
	if err != nil {
		return nil, err
	}
	views := make([]ReportView, 0, len(list))
	for _, r := range list {
		views = append(views, ReportView{Report: r, Creator: briefPtr(b, r.CreatorID)})
	}
	return newPage(views, total, page, size), nil
}

func (s *ReportService) Update(ctx context.Context, callerID, id string, p ReportPatch) (*model.Report, error) {
	r, _, err := s.authorized(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			return nil, pkg.InvalidInput("標題不可為空")
		}
		r.Title = t
	}
	if p.Description != nil {
		d := strings.TrimSpace(*p.Description)
		if d == "" {
			return nil, pkg.InvalidInput("描述不可為空")
		}
		r.Description = d
	}
	if p.Category != nil {
		c, err := reportCategory(*p.Category)
		if err != nil {
			return nil, err
		}
		r.Category = c
	}
	if p.Location != nil {
		r.Location = strings.TrimSpace(*p.Location)
	}
	if p.Image != nil {
		r.Image = *p.Image
	}
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, pkg.Internal(err)
	}
	return r, nil
}

// UpdateStatus 仅管理员；三个状态之间可任意切换
func (s *ReportService) UpdateStatus(ctx context.Context, callerID, id, status string) (*model.Report, error) {
	if !model.ValidReportStatus(status) {
		return nil, pkg.InvalidInput("無效的處理狀態")
	}
	r, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	roster, err := loadRoster(ctx, s.members, r.CommunityID)
	if err != nil {
		return nil, err
	}
	if err := authz.Admin(roster, callerID); err != nil {
		return nil, pkg.Forbidden("只有社區管理員可以更新處理狀態")
	}
	r.Status = status
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, pkg.Internal(err)
	}
	return r, nil
}

// Delete 回报者本人或管理员
func (s *ReportService) Delete(ctx context.Context, callerID, id string) error {
	if _, _, err := s.authorized(ctx, callerID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkg.Internal(err)
	}
	return nil
}

func (s *ReportService) find(ctx context.Context, id string) (*model.Report, error) {
	if err := requireID(id, "回報"); err != nil {
		return nil, err
	}
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "找不到回報")
	}
	return r, nil
}

func (s *ReportService) authorized(ctx context.Context, callerID, id string) (*model.Report, *model.Roster, error) {
	r, err := s.find(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	roster, err := loadRoster(ctx, s.members, r.CommunityID)
	if err != nil {
		return nil, nil, err
	}
	if err := authz.CreatorOrAdmin(roster, r.CreatorID, callerID); err != nil {
		return nil, nil, err
	}
	return r, roster, nil
}
