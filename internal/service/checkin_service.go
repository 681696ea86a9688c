package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"hoodlink/internal/authz"
	"hoodlink/internal/model"
	"hoodlink/internal/pkg"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// CheckInService 每日问候与防灾回报；两者流程相同，以 kind 区分
type CheckInService struct {
	repo    CheckInStore
	members MemberStore
	users   UserStore
	log     *zap.Logger
	now     func() time.Time
}

func NewCheckInService(repo CheckInStore, members MemberStore, users UserStore, log *zap.Logger) *CheckInService {
	return &CheckInService{repo: repo, members: members, users: users, log: log, now: time.Now}
}

type CheckInInput struct {
	CommunityID string
	Message     string
	Date        string // 仅每日问候
}

type ResponseView struct {
	model.CheckInResponse
	User *model.UserBrief `json:"user,omitempty"`
}

type CheckInView struct {
	model.CheckIn
	ReplyCounts map[string]int `json:"replyCounts"`
	MyReply     string         `json:"myReply,omitempty"`
	Responses   []ResponseView `json:"responses,omitempty"` // 仅管理员可见
}

type UnrepliedRow struct {
	UserID        string  `json:"userId"`
	Name          string  `json:"name"`
	Phone         *string `json:"phone,omitempty"`
	UnrepliedDays int     `json:"unrepliedDays"`
}

type HelpDate struct {
	Date    string    `json:"date"`
	ReplyAt time.Time `json:"replyAt"`
}

type HelpRow struct {
	UserID    string     `json:"userId"`
	Name      string     `json:"name"`
	Phone     *string    `json:"phone,omitempty"`
	HelpDates []HelpDate `json:"helpDates"`
	Count     int        `json:"count"`
}

func kindLabel(kind string) string {
	if kind == model.KindDisasterCheck {
		return "防災安全回報"
	}
	return "每日問候"
}

func greetingMessage(date string) string {
	return fmt.Sprintf("早安！今天是%s\n祝您有個美好的一天😊", date)
}

// Create 仅管理员；每日问候同社区同日期只能一笔
func (s *CheckInService) Create(ctx context.Context, callerID, kind string, in CheckInInput) (*model.CheckIn, error) {
	ci := &model.CheckIn{
		ID:          pkg.NewID(),
		Kind:        kind,
		Message:     strings.TrimSpace(in.Message),
		Status:      model.CheckInOpen,
		CommunityID: in.CommunityID,
		CreatorID:   callerID,
	}
	switch kind {
	case model.KindDailyGreeting:
		if _, err := time.Parse(dateLayout, in.Date); err != nil {
			return nil, pkg.InvalidInput("請提供日期（YYYY-MM-DD）")
		}
		date := in.Date
		ci.Date = &date
		if ci.Message == "" {
			ci.Message = greetingMessage(date)
		}
	case model.KindDisasterCheck:
		if ci.Message == "" {
			return nil, pkg.InvalidInput("請填寫訊息內容")
		}
	default:
		return nil, pkg.InvalidInput("未知的關懷類型")
	}

	roster, err := loadRoster(ctx, s.members, in.CommunityID)
	if err != nil {
		return nil, err
	}
	if err := authz.Admin(roster, callerID); err != nil {
		return nil, pkg.Forbidden("您不是該社區管理員，無法發送" + kindLabel(kind))
	}

	payload := map[string]any{
		"kind":           kind,
		"message":        ci.Message,
		"community_name": roster.Community.Name,
	}
	if ci.Date != nil {
		payload["date"] = *ci.Date
	}
	ev := newOutboxEvent(model.EventCheckInCreated, ci.CommunityID, ci.ID, payload)
	if err := s.repo.Create(ctx, ci, ev); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, pkg.Conflict("今天已經發送過每日問候囉！")
		}
		return nil, pkg.Internal(err)
	}
	return ci, nil
}

func (s *CheckInService) Get(ctx context.Context, callerID, kind, id string) (*CheckInView, error) {
	ci, roster, err := s.load(ctx, callerID, kind, id)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, callerID, roster, []model.CheckIn{*ci}, true)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *CheckInService) ListByCommunity(ctx context.Context, callerID, kind, communityID string, page, size int) (*Page[CheckInView], error) {
	roster, err := loadRoster(ctx, s.members, communityID)
	if err != nil {
		return nil, err
	}
	if err := authz.Member(roster, callerID); err != nil {
		return nil, err
	}
	page, size, offset := pkg.Page(page, size)
	list, total, err := s.repo.ListByCommunity(ctx, communityID, kind, offset, size)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	views, err := s.views(ctx, callerID, roster, list, false)
	if err != nil {
		return nil, err
	}
	return newPage(views, total, page, size), nil
}

// views withResponses 为真且调用者是管理员时附上完整回覆名单
func (s *CheckInService) views(ctx context.Context, callerID string, roster *model.Roster, list []model.CheckIn, withResponses bool) ([]CheckInView, error) {
	ids := make([]string, 0, len(list))
	for _, ci := range list {
		ids = append(ids, ci.ID)
	}
	resps, err := s.repo.Responses(ctx, ids...)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	showAll := withResponses && authz.IsCommunityAdmin(roster, callerID)
	var b map[string]model.UserBrief
	if showAll {
		var uids []string
		for _, rs := range resps {
			for _, r := range rs {
				uids = append(uids, r.UserID)
			}
		}
		if b, err = briefs(ctx, s.users, uids); err != nil {
			return nil, err
		}
	}
	out := make([]CheckInView, 0, len(list))
	for _, ci := range list {
		v := CheckInView{CheckIn: ci, ReplyCounts: map[string]int{}}
		for _, opt := range model.ReplyOptions(ci.Kind) {
			v.ReplyCounts[opt] = 0
		}
		for _, r := range resps[ci.ID] {
			v.ReplyCounts[r.Reply]++
			if r.UserID == callerID {
				v.MyReply = r.Reply
			}
			if showAll {
				v.Responses = append(v.Responses, ResponseView{CheckInResponse: r, User: briefPtr(b, r.UserID)})
			}
		}
		out = append(out, v)
	}
	return out, nil
}

// Update 仅管理员，只能改讯息内容
func (s *CheckInService) Update(ctx context.Context, callerID, kind, id, message string) (*model.CheckIn, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, pkg.InvalidInput("請填寫訊息內容")
	}
	ci, err := s.adminLoad(ctx, callerID, kind, id)
	if err != nil {
		return nil, err
	}
	ci.Message = message
	if err := s.repo.Update(ctx, ci); err != nil {
		return nil, pkg.Internal(err)
	}
	return ci, nil
}

func (s *CheckInService) Delete(ctx context.Context, callerID, kind, id string) error {
	if _, err := s.adminLoad(ctx, callerID, kind, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkg.Internal(err)
	}
	return nil
}

// Reply 同一用户重复回覆覆盖原回覆；已结束的不再接受回覆
func (s *CheckInService) Reply(ctx context.Context, callerID, kind, id, reply string) (*model.CheckInResponse, error) {
	if !model.ValidReply(kind, reply) {
		return nil, pkg.InvalidInput("回應內容不正確")
	}
	ci, _, err := s.load(ctx, callerID, kind, id)
	if err != nil {
		return nil, err
	}
	if ci.Status == model.CheckInClosed {
		return nil, pkg.Conflict("此" + kindLabel(kind) + "已結束")
	}
	resp := &model.CheckInResponse{CheckInID: id, UserID: callerID, Reply: reply, ReplyAt: s.now()}
	if err := s.repo.UpsertResponse(ctx, resp); err != nil {
		return nil, pkg.Internal(err)
	}
	return resp, nil
}

// Unreplied 日期区间内每位成员未回覆的天数，只列出至少一天未回覆的成员
func (s *CheckInService) Unreplied(ctx context.Context, callerID, communityID, start, end string) ([]UnrepliedRow, error) {
	roster, greetings, resps, err := s.greetingRange(ctx, callerID, communityID, start, end)
	if err != nil {
		return nil, err
	}
	missed := map[string]int{}
	for uid := range roster.Members {
		for _, g := range greetings {
			if !repliedBy(resps[g.ID], uid) {
				missed[uid]++
			}
		}
	}
	ids := make([]string, 0, len(missed))
	for uid, n := range missed {
		if n > 0 {
			ids = append(ids, uid)
		}
	}
	b, err := briefs(ctx, s.users, ids)
	if err != nil {
		return nil, err
	}
	rows := make([]UnrepliedRow, 0, len(ids))
	for _, uid := range ids {
		row := UnrepliedRow{UserID: uid, UnrepliedDays: missed[uid]}
		if u, ok := b[uid]; ok {
			row.Name, row.Phone = u.Name, u.Phone
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].UnrepliedDays != rows[j].UnrepliedDays {
			return rows[i].UnrepliedDays > rows[j].UnrepliedDays
		}
		return rows[i].UserID < rows[j].UserID
	})
	return rows, nil
}

// HelpNeeded 日期区间内回覆「需要幫助」的成员及日期
func (s *CheckInService) HelpNeeded(ctx context.Context, callerID, communityID, start, end string) ([]HelpRow, error) {
	_, greetings, resps, err := s.greetingRange(ctx, callerID, communityID, start, end)
	if err != nil {
		return nil, err
	}
	dates := map[string][]HelpDate{}
	var order []string
	for _, g := range greetings {
		for _, r := range resps[g.ID] {
			if !model.NeedsHelp(r.Reply) {
				continue
			}
			if _, ok := dates[r.UserID]; !ok {
				order = append(order, r.UserID)
			}
			dates[r.UserID] = append(dates[r.UserID], HelpDate{Date: deref(g.Date), ReplyAt: r.ReplyAt})
		}
	}
	b, err := briefs(ctx, s.users, order)
	if err != nil {
		return nil, err
	}
	rows := make([]HelpRow, 0, len(order))
	for _, uid := range order {
		row := HelpRow{UserID: uid, HelpDates: dates[uid], Count: len(dates[uid])}
		if u, ok := b[uid]; ok {
			row.Name, row.Phone = u.Name, u.Phone
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ExportUnreplied 未回覆名单的 xlsx
func (s *CheckInService) ExportUnreplied(ctx context.Context, callerID, communityID, start, end string) ([]byte, error) {
	rows, err := s.Unreplied(ctx, callerID, communityID, start, end)
	if err != nil {
		return nil, err
	}
	data := make([][]any, 0, len(rows))
	for _, r := range rows {
		data = append(data, []any{r.Name, deref(r.Phone), r.UnrepliedDays})
	}
	out, err := pkg.BuildSheet("未回覆名單", []string{"姓名", "手機", "未回覆天數"}, data)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	return out, nil
}

// ExportHelpNeeded 需要帮助名单的 xlsx，每个求助日期一行
func (s *CheckInService) ExportHelpNeeded(ctx context.Context, callerID, communityID, start, end string) ([]byte, error) {
	rows, err := s.HelpNeeded(ctx, callerID, communityID, start, end)
	if err != nil {
		return nil, err
	}
	var data [][]any
	for _, r := range rows {
		for _, d := range r.HelpDates {
			data = append(data, []any{r.Name, deref(r.Phone), d.Date, d.ReplyAt.Format("2006-01-02 15:04")})
		}
	}
	out, err := pkg.BuildSheet("需要幫助名單", []string{"姓名", "手機", "日期", "回覆時間"}, data)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	return out, nil
}

func (s *CheckInService) greetingRange(ctx context.Context, callerID, communityID, start, end string) (*model.Roster, []model.CheckIn, map[string][]model.CheckInResponse, error) {
	if _, err := time.Parse(dateLayout, start); err != nil {
		return nil, nil, nil, pkg.InvalidInput("請提供 startDate（YYYY-MM-DD）")
	}
	if _, err := time.Parse(dateLayout, end); err != nil {
		return nil, nil, nil, pkg.InvalidInput("請提供 endDate（YYYY-MM-DD）")
	}
	if start > end {
		return nil, nil, nil, pkg.InvalidInput("startDate 不可晚於 endDate")
	}
	roster, err := loadRoster(ctx, s.members, communityID)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := authz.Admin(roster, callerID); err != nil {
		return nil, nil, nil, err
	}
	greetings, err := s.repo.ListByDateRange(ctx, communityID, model.KindDailyGreeting, start, end)
	if err != nil {
		return nil, nil, nil, pkg.Internal(err)
	}
	if len(greetings) == 0 {
		return nil, nil, nil, pkg.NotFound("指定日期區間沒有每日問候記錄")
	}
	ids := make([]string, 0, len(greetings))
	for _, g := range greetings {
		ids = append(ids, g.ID)
	}
	resps, err := s.repo.Responses(ctx, ids...)
	if err != nil {
		return nil, nil, nil, pkg.Internal(err)
	}
	return roster, greetings, resps, nil
}

func repliedBy(list []model.CheckInResponse, userID string) bool {
	for _, r := range list {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s *CheckInService) find(ctx context.Context, kind, id string) (*model.CheckIn, error) {
	if err := requireID(id, kindLabel(kind)); err != nil {
		return nil, err
	}
	ci, err := s.repo.FindByID(ctx, kind, id)
	if err != nil {
		return nil, storeErr(err, "找不到該"+kindLabel(kind))
	}
	return ci, nil
}

func (s *CheckInService) load(ctx context.Context, callerID, kind, id string) (*model.CheckIn, *model.Roster, error) {
	ci, err := s.find(ctx, kind, id)
	if err != nil {
		return nil, nil, err
	}
	roster, err := loadRoster(ctx, s.members, ci.CommunityID)
	if err != nil {
		return nil, nil, err
	}
	if err := authz.Member(roster, callerID); err != nil {
		return nil, nil, err
	}
	return ci, roster, nil
}

func (s *CheckInService) adminLoad(ctx context.Context, callerID, kind, id string) (*model.CheckIn, error) {
	ci, err := s.find(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	roster, err := loadRoster(ctx, s.members, ci.CommunityID)
	if err != nil {
		return nil, err
	}
	if err := authz.Admin(roster, callerID); err != nil {
		return nil, err
	}
	return ci, nil
}
