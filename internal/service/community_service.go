package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"hoodlink/internal/authz"
	"hoodlink/internal/model"
	"hoodlink/internal/pkg"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 查询加入状态的返回值
const (
	StatusMember = "member"
	StatusAdmin  = "admin"
	StatusNone   = "none"
)

type CommunityService struct {
	users       UserStore
	communities CommunityStore
	members     MemberStore
	requests    JoinRequestStore
	log         *zap.Logger
}

func NewCommunityService(users UserStore, communities CommunityStore, members MemberStore, requests JoinRequestStore, log *zap.Logger) *CommunityService {
	return &CommunityService{users: users, communities: communities, members: members, requests: requests, log: log}
}

type CreateCommunityInput struct {
	Name     string
	Address  string
	IsPublic *bool
}

type CommunityPatch struct {
	Name     *string
	Address  *string
	IsPublic *bool
}

// CommunityDetail 社区及其成员/管理员 id 列表
type CommunityDetail struct {
	model.Community
	Creator *model.UserBrief `json:"creator,omitempty"`
	Admins  []string         `json:"admins"`
	Members []string         `json:"members"`
}

type JoinRequestView struct {
	model.JoinRequest
	User *model.UserBrief `json:"user,omitempty"`
}

type RosterView struct {
	Admins  []model.UserBrief `json:"admins"`
	Members []model.UserBrief `json:"members"`
}

type JoinResult struct {
	Joined  bool               `json:"joined"`
	Request *model.JoinRequest `json:"request,omitempty"`
}

func (s *CommunityService) Create(ctx context.Context, creatorID string, in CreateCommunityInput) (*CommunityDetail, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	if in.Name == "" || in.Address == "" {
		return nil, pkg.InvalidInput("請提供社區名稱與地址")
	}
	exists, err := s.communities.ExistsByName(ctx, in.Name, "")
	if err != nil {
		return nil, pkg.Internal(err)
	}
	if exists {
		return nil, pkg.Conflict("已有相同名稱的社區")
	}
	isPublic := true
	if in.IsPublic != nil {
		isPublic = *in.IsPublic
	}
	c := &model.Community{
		ID:        pkg.NewID(),
		Name:      in.Name,
		Address:   in.Address,
		IsPublic:  isPublic,
		CreatorID: creatorID,
		Status:    model.CommunityApproved,
	}
	if err := s.communities.Create(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, pkg.Conflict("已有相同名稱的社區")
		}
		return nil, pkg.Internal(err)
	}
	return s.Get(ctx, c.ID)
}

// Get 任何登录用户都可以查看社区基本资料
func (s *CommunityService) Get(ctx context.Context, communityID string) (*CommunityDetail, error) {
	roster, err := loadRoster(ctx, s.members, communityID)
	if err != nil {
		return nil, err
	}
	list, err := s.members.List(ctx, communityID)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	d := &CommunityDetail{Community: *roster.Community, Admins: []string{}, Members: []string{}}
	for _, m := range list {
		d.Members = append(d.Members, m.UserID)
		if m.Role == model.MemberRoleAdmin {
			d.Admins = append(d.Admins, m.UserID)
		}
	}
	b, err := briefs(ctx, s.users, []string{roster.Community.CreatorID})
	if err != nil {
		return nil, err
	}
	d.Creator = briefPtr(b, roster.Community.CreatorID)
	return d, nil
}

func (s *CommunityService) ListMine(ctx context.Context, userID string) ([]model.Community, error) {
	list, err := s.communities.ListByMember(ctx, userID)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	if list == nil {
		list = []model.Community{}
	}
	return list, nil
}

func (s *CommunityService) Search(ctx context.Context, q string, page, size int) (*Page[model.Community], error) {
	page, size, offset := pkg.Page(page, size)
	list, total, err := s.communities.Search(ctx, strings.TrimSpace(q), offset, size)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	return newPage(list, total, page, size), nil
}

// RequestOrJoin 公开社区直接加入；私人社区建立待审核申请
func (s *CommunityService) RequestOrJoin(ctx context.Context, communityID, userID string) (*JoinResult, error) {
	roster, err := loadRoster(ctx, s.members, communityID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, storeErr(err, "找不到使用者")
	}
	if roster.IsMember(userID) {
		return nil, pkg.Conflict("你已經是該社區成員")
	}
	if roster.Community.IsPublic {
		if err := s.members.Join(ctx, communityID, userID, model.MemberRoleMember); err != nil {
			return nil, pkg.Internal(err)
		}
		// 社区由私人改为公开前留下的申请
		if err := s.requests.ResolvePending(ctx, communityID, userID, model.JoinApproved); err != nil {
			return nil, pkg.Internal(err)
		}
		return &JoinResult{Joined: true}, nil
	}
	jr := &model.JoinRequest{ID: pkg.NewID(), CommunityID: communityID, UserID: userID, Status: model.JoinPending}
	if err := s.requests.CreatePending(ctx, jr); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, pkg.Conflict("你已經申請加入此社區，請等待審核")
		}
		return nil, storeErr(err, "找不到社區")
	}
	return &JoinResult{Joined: false, Request: jr}, nil
}

// Leave 创建者不能退出自己建立的社区
func (s *CommunityService) Leave(ctx context.Context, communityID, userID string) error {
	roster, err := loadRoster(ctx, s.members, communityID)
	if err != nil {
		return err
	}
	if !roster.IsMember(userID) {
		return pkg.Conflict("你不是該社區成員")
	}
	if roster.Community.CreatorID == userID {
		return pkg.Conflict("社區建立者無法退出社區")
	}
	if roster.IsAdmin(userID) && roster.AdminCount() == 1 {
		return pkg.Conflict("社區至少需保留一位管理員")
	}
	if _, err := s.members.Leave(ctx, communityID, userID); err != nil {
		return pkg.Internal(err)
	}
	return nil
}

func (s *CommunityService) Update(ctx context.Context, communityID, callerID string, p CommunityPatch) (*CommunityDetail, error) {
	roster, err := loadRoster(ctx, s.members, communityID)
	if err != nil {
		return nil, err
	}
	if err := authz.Admin(roster, callerID); err != nil {
		return nil, pkg.Forbidden("你沒有權限修改這個社區")
	}
	fields := map[string]any{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, pkg.InvalidInput("社區名稱不可為空")
		}
		exists, err := s.communities.ExistsByName(ctx, name, communityID)
		if err != nil {
			return nil, pkg.Internal(err)
		}
		if exists {
			return nil, pkg.Conflict("已有相同名稱的社區")
		}
		fields["name"] = name
	}
	if p.Address != nil {
		addr := strings.TrimSpace(*p.Address)
		if addr == "" {
			return nil, pkg.InvalidInput("社區地址不可為空")
		}
		fields["address"] = addr
	}
	if p.IsPublic != nil {
		fields["is_public"] = *p.IsPublic
	}
	if err := s.communities.Update(ctx, communityID, fields); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, pkg.Conflict("已有相同名稱的社區")
		}
		return nil, pkg.Internal(err)
	}
	return s.Get(ctx, communityID)
}

func (s *CommunityService) ListJoinRequests(ctx context.Context, communityID, callerID string) ([]JoinRequestView, error) {
	roster, err := loadRoster(ctx, s.members, communityID)
	if err != nil {
		return nil, err
	}
	if err := authz.Admin(roster, callerID); err != nil {
		return nil, pkg.Forbidden("你不是此社區的管理員，無法檢視申請")
	}
	list, err := s.requests.ListPending(ctx, communityID)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	ids := make([]string, 0, len(list))
	for _, jr := range list {
		ids = append(ids, jr.UserID)
	}
	b, err := briefs(ctx, s.users, ids)
	if err != nil {
		return nil, err
	}
	out := make([]JoinRequestView, 0, len(list))
	for _, jr := range list {
		out = append(out, JoinRequestView{JoinRequest: jr, User: briefPtr(b, jr.UserID)})
	}
	return out, nil
}

// ReviewJoinRequest 只审核 pending 申请；核准时幂等加入成员，重复核准不会产生重复成员
func (s *CommunityService) ReviewJoinRequest(ctx context.Context, requestID, callerID, decision string) (*model.JoinRequest, error) {
	if err := requireID(requestID, "申請"); err != nil {
		return nil, err
	}
	jr, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, storeErr(err, "找不到申請資料")
	}
	roster, err := loadRoster(ctx, s.members, jr.CommunityID)
	if err != nil {
		return nil, err
	}
	if err := authz.Admin(roster, callerID); err != nil {
		return nil, pkg.Forbidden("你沒有權限審核這項申請")
	}
	if decision != model.JoinApproved && decision != model.JoinRejected {
		return nil, pkg.InvalidInput("請提供有效的決定（approved 或 rejected）")
	}
	reviewed, err := s.requests.Review(ctx, requestID, decision)
	if err != nil {
		return nil, storeErr(err, "找不到申請資料")
	}
	// 终态不可翻转；同一决定重复提交视为成功
	if reviewed.Status != decision {
		return nil, pkg.Conflict("此申請已審核過")
	}
	s.log.Info("join request reviewed",
		zap.String("request_id", requestID),
		zap.String("community_id", jr.CommunityID),
		zap.String("decision", decision),
		zap.String("reviewer", callerID))
	return reviewed, nil
}

// Status 依序判断：成员 -> 管理员 -> 最近一次申请状态 -> none
func (s *CommunityService) Status(ctx context.Context, communityID, userID string) (string, bool, error) {
	roster, err := loadRoster(ctx, s.members, communityID)
	if err != nil {
		return "", false, err
	}
	isAdmin := roster.IsAdmin(userID)
	if roster.IsMember(userID) {
		return StatusMember, isAdmin, nil
	}
	if isAdmin {
		return StatusAdmin, true, nil
	}
	jr, err := s.requests.FindLatest(ctx, communityID, userID)
	if err == nil {
		return jr.Status, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, pkg.Internal(err)
	}
	return StatusNone, false, nil
}

// Roster 成员名单，成员可见
func (s *CommunityService) Roster(ctx context.Context, communityID, callerID string) (*RosterView, error) {
	roster, err := loadRoster(ctx, s.members, communityID)
	if err != nil {
		return nil, err
	}
	if err := authz.Member(roster, callerID); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(roster.Members))
	for uid := range roster.Members {
		ids = append(ids, uid)
	}
	sort.Strings(ids)
	b, err := briefs(ctx, s.users, ids)
	if err != nil {
		return nil, err
	}
	view := &RosterView{Admins: []model.UserBrief{}, Members: []model.UserBrief{}}
	for _, uid := range ids {
		brief, ok := b[uid]
		if !ok {
			brief = model.UserBrief{ID: uid}
		}
		view.Members = append(view.Members, brief)
		if roster.IsAdmin(uid) {
			view.Admins = append(view.Admins, brief)
		}
	}
	return view, nil
}

// AddMember 管理员直接加人，顺带结案该用户的待审核申请
func (s *CommunityService) AddMember(ctx context.Context, communityID, callerID, targetID string) error {
	roster, err := s.adminRoster(ctx, communityID, callerID, targetID)
	if err != nil {
		return err
	}
	if _, err := s.users.FindByID(ctx, targetID); err != nil {
		return storeErr(err, "找不到使用者")
	}
	if roster.IsMember(targetID) {
		return pkg.Conflict("該使用者已經是社區成員")
	}
	if err := s.members.Join(ctx, communityID, targetID, model.MemberRoleMember); err != nil {
		return pkg.Internal(err)
	}
	if err := s.requests.ResolvePending(ctx, communityID, targetID, model.JoinApproved); err != nil {
		s.log.Warn("resolve pending join request failed",
			zap.String("community_id", communityID), zap.String("user_id", targetID), zap.Error(err))
	}
	return nil
}

// RemoveMember 不能移除创建者，也不能移除最后一位管理员
func (s *CommunityService) RemoveMember(ctx context.Context, communityID, callerID, targetID string) error {
	roster, err := s.adminRoster(ctx, communityID, callerID, targetID)
	if err != nil {
		return err
	}
	if !roster.IsMember(targetID) {
		return pkg.Conflict("該使用者不是社區成員")
	}
	if roster.Community.CreatorID == targetID {
		return pkg.Conflict("無法移除社區建立者")
	}
	if roster.IsAdmin(targetID) && roster.AdminCount() == 1 {
		return pkg.Conflict("社區至少需保留一位管理員")
	}
	if _, err := s.members.Leave(ctx, communityID, targetID); err != nil {
		return pkg.Internal(err)
	}
	return nil
}

// AddAdmin 只能授予已是成员的用户
func (s *CommunityService) AddAdmin(ctx context.Context, communityID, callerID, targetID string) error {
	roster, err := s.adminRoster(ctx, communityID, callerID, targetID)
	if err != nil {
		return err
	}
	if !roster.IsMember(targetID) {
		return pkg.Conflict("該使用者不是社區成員，請先加入社區")
	}
	if roster.IsAdmin(targetID) {
		return pkg.Conflict("該使用者已經是管理員")
	}
	if err := s.members.SetRole(ctx, communityID, targetID, model.MemberRoleAdmin); err != nil {
		return storeErr(err, "該使用者不是社區成員")
	}
	return nil
}

// RemoveAdmin 创建者的管理员身份不能撤销，且至少保留一位管理员
func (s *CommunityService) RemoveAdmin(ctx context.Context, communityID, callerID, targetID string) error {
	roster, err := s.adminRoster(ctx, communityID, callerID, targetID)
	if err != nil {
		return err
	}
	if roster.Community.CreatorID == targetID {
		return pkg.Conflict("無法撤銷社區建立者的管理員身分")
	}
	if !roster.IsAdmin(targetID) {
		return pkg.Conflict("該使用者不是管理員")
	}
	if roster.AdminCount() == 1 {
		return pkg.Conflict("社區至少需保留一位管理員")
	}
	if err := s.members.SetRole(ctx, communityID, targetID, model.MemberRoleMember); err != nil {
		return storeErr(err, "該使用者不是社區成員")
	}
	return nil
}

func (s *CommunityService) adminRoster(ctx context.Context, communityID, callerID, targetID string) (*model.Roster, error) {
	if err := requireID(targetID, "使用者"); err != nil {
		return nil, err
	}
	roster, err := loadRoster(ctx, s.members, communityID)
	if err != nil {
		return nil, err
	}
	if err := authz.Admin(roster, callerID); err != nil {
		return nil, err
	}
	return roster, nil
}
