package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"hoodlink/internal/model"
	"hoodlink/internal/repository/mysql"

	"gorm.io/gorm"
)

// memDB 内存版存储，遵守与 MySQL 仓库相同的唯一约束与排序约定
type memDB struct {
	mu sync.Mutex

	clock time.Time

	users         map[string]*model.User
	sessions      map[string]bool // uid:jti
	communities   map[string]*model.Community
	members       map[string]map[string]string // cid -> uid -> role
	requests      map[string]*model.JoinRequest
	announcements map[string]*model.Announcement
	events        map[string]*model.Event
	participants  map[string][]string
	posts         map[string]*model.Post
	comments      map[string]*model.Comment
	reports       map[string]*model.Report
	checkIns      map[string]*model.CheckIn
	responses     map[string][]model.CheckInResponse
	outbox        []model.OutboxEvent
}

func newMemDB() *memDB {
	return &memDB{
		clock:         time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
		users:         map[string]*model.User{},
		sessions:      map[string]bool{},
		communities:   map[string]*model.Community{},
		members:       map[string]map[string]string{},
		requests:      map[string]*model.JoinRequest{},
		announcements: map[string]*model.Announcement{},
		events:        map[string]*model.Event{},
		participants:  map[string][]string{},
		posts:         map[string]*model.Post{},
		comments:      map[string]*model.Comment{},
		reports:       map[string]*model.Report{},
		checkIns:      map[string]*model.CheckIn{},
		responses:     map[string][]model.CheckInResponse{},
	}
}

// tick 每次写入推进一秒，保证时间排序稳定
func (m *memDB) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memDB) addOutbox(ev *model.OutboxEvent) {
	if ev == nil {
		return
	}
	ev.ID = uint64(len(m.outbox) + 1)
	m.outbox = append(m.outbox, *ev)
}

func pageSlice[T any](list []T, offset, limit int) []T {
	if offset >= len(list) {
		return nil
	}
	end := offset + limit
	if end > len(list) {
		end = len(list)
	}
	return list[offset:end]
}

func strEq(p *string, v string) bool { return p != nil && *p == v }

type memUsers struct{ *memDB }

func (s memUsers) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.users {
		if (u.Email != nil && strEq(o.Email, *u.Email)) || (u.Phone != nil && strEq(o.Phone, *u.Phone)) ||
			(u.LineID != nil && strEq(o.LineID, *u.LineID)) {
			return gorm.ErrDuplicatedKey
		}
	}
	u.CreatedAt = s.tick()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s memUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (s memUsers) find(match func(*model.User) bool) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return s.find(func(u *model.User) bool { return strEq(u.Email, email) })
}

func (s memUsers) FindByPhone(_ context.Context, phone string) (*model.User, error) {
	return s.find(func(u *model.User) bool { return strEq(u.Phone, phone) })
}

func (s memUsers) FindByIDs(_ context.Context, ids []string) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s memUsers) Update(_ context.Context, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "name":
			u.Name = v.(string)
		case "email":
			u.Email = v.(*string)
		case "phone":
			u.Phone = v.(*string)
		case "line_id":
			u.LineID = v.(*string)
		case "password":
			u.Password = v.(string)
		case "is_elder":
			u.IsElder = v.(bool)
		case "is_living_alone":
			u.IsLivingAlone = v.(bool)
		case "receive_daily_check":
			u.ReceiveDailyCheck = v.(bool)
		case "receive_disaster_check":
			u.ReceiveDisasterCheck = v.(bool)
		}
	}
	u.UpdatedAt = s.tick()
	return nil
}

func (s memUsers) Search(_ context.Context, q string, exclude []string, limit int) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	skip := map[string]bool{}
	for _, id := range exclude {
		skip[id] = true
	}
	var out []model.User
	for _, u := range s.users {
		if skip[u.ID] {
			continue
		}
		if strings.Contains(u.Name, q) || (u.Email != nil && strings.Contains(*u.Email, q)) ||
			(u.Phone != nil && (strings.HasPrefix(*u.Phone, q) || strings.HasSuffix(*u.Phone, q))) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return pageSlice(out, 0, limit), nil
}

func (s memUsers) ListNotifiable(_ context.Context, communityID, kind string) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.User
	for uid := range s.members[communityID] {
		u, ok := s.users[uid]
		if !ok {
			continue
		}
		if (kind == model.KindDailyGreeting && u.ReceiveDailyCheck) || (kind == model.KindDisasterCheck && u.ReceiveDisasterCheck) {
			out = append(out, *u)
		}
	}
	return out, nil
}

type memSessions struct{ *memDB }

func (s memSessions) Add(_ context.Context, uid, jti string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[uid+":"+jti] = true
	return nil
}

func (s memSessions) Exists(_ context.Context, uid, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[uid+":"+jti], nil
}

func (s memSessions) Revoke(_ context.Context, uid, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, uid+":"+jti)
	return nil
}

func (s memSessions) RevokeAll(_ context.Context, uid, keep string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.sessions {
		if strings.HasPrefix(k, uid+":") && k != uid+":"+keep {
			delete(s.sessions, k)
		}
	}
	return nil
}

type memCommunities struct{ *memDB }

func (s memCommunities) Create(_ context.Context, c *model.Community) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.communities {
		if o.Name == c.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	c.CreatedAt = s.tick()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	s.communities[c.ID] = &cp
	s.members[c.ID] = map[string]string{c.CreatorID: model.MemberRoleAdmin}
	return nil
}

func (s memCommunities) FindByID(_ context.Context, id string) (*model.Community, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.communities[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (s memCommunities) ExistsByName(_ context.Context, name, excludeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.communities {
		if c.Name == name && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s memCommunities) Update(_ context.Context, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.communities[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "name":
			c.Name = v.(string)
		case "address":
			c.Address = v.(string)
		case "is_public":
			c.IsPublic = v.(bool)
		}
	}
	c.UpdatedAt = s.tick()
	return nil
}

func (s memCommunities) Search(_ context.Context, q string, offset, limit int) ([]model.Community, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Community
	for _, c := range s.communities {
		if strings.Contains(c.Name, q) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return pageSlice(out, offset, limit), int64(len(out)), nil
}

func (s memCommunities) ListByMember(_ context.Context, uid string) ([]model.Community, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Community
	for cid, ms := range s.members {
		if _, ok := ms[uid]; ok {
			out = append(out, *s.communities[cid])
		}
	}
	return out, nil
}

type memMembers struct{ *memDB }

func (s memMembers) Join(_ context.Context, cid, uid, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[cid][uid]; !ok {
		s.members[cid][uid] = role
	}
	return nil
}

func (s memMembers) Leave(_ context.Context, cid, uid string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[cid][uid]; !ok {
		return false, nil
	}
	delete(s.members[cid], uid)
	return true, nil
}

func (s memMembers) SetRole(_ context.Context, cid, uid, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[cid][uid]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.members[cid][uid] = role
	return nil
}

func (s memMembers) List(_ context.Context, cid string) ([]model.CommunityMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.CommunityMember
	for uid, role := range s.members[cid] {
		out = append(out, model.CommunityMember{CommunityID: cid, UserID: uid, Role: role})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s memMembers) Roster(_ context.Context, cid string) (*model.Roster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.communities[cid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	ms := map[string]string{}
	for uid, role := range s.members[cid] {
		ms[uid] = role
	}
	return &model.Roster{Community: &cp, Members: ms}, nil
}

type memRequests struct{ *memDB }

func (s memRequests) CreatePending(_ context.Context, jr *model.JoinRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.communities[jr.CommunityID]; !ok {
		return gorm.ErrRecordNotFound
	}
	for _, o := range s.requests {
		if o.CommunityID == jr.CommunityID && o.UserID == jr.UserID && o.Status == model.JoinPending {
			return gorm.ErrDuplicatedKey
		}
	}
	jr.CreatedAt = s.tick()
	jr.UpdatedAt = jr.CreatedAt
	cp := *jr
	s.requests[jr.ID] = &cp
	return nil
}

func (s memRequests) FindByID(_ context.Context, id string) (*model.JoinRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	jr, ok := s.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *jr
	return &cp, nil
}

func (s memRequests) FindLatest(_ context.Context, cid, uid string) (*model.JoinRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *model.JoinRequest
	for _, jr := range s.requests {
		if jr.CommunityID == cid && jr.UserID == uid && (latest == nil || jr.CreatedAt.After(latest.CreatedAt)) {
			latest = jr
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *latest
	return &cp, nil
}

func (s memRequests) ListPending(_ context.Context, cid string) ([]model.JoinRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.JoinRequest
	for _, jr := range s.requests {
		if jr.CommunityID == cid && jr.Status == model.JoinPending {
			out = append(out, *jr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s memRequests) Review(_ context.Context, id, status string) (*model.JoinRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	jr, ok := s.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if jr.Status != model.JoinPending {
		cp := *jr
		return &cp, nil
	}
	jr.Status = status
	jr.UpdatedAt = s.tick()
	if status == model.JoinApproved {
		if _, ok := s.members[jr.CommunityID][jr.UserID]; !ok {
			s.members[jr.CommunityID][jr.UserID] = model.MemberRoleMember
		}
		for _, o := range s.requests {
			if o.CommunityID == jr.CommunityID && o.UserID == jr.UserID && o.Status == model.JoinPending {
				o.Status = model.JoinApproved
			}
		}
	}
	cp := *jr
	return &cp, nil
}

func (s memRequests) ResolvePending(_ context.Context, cid, uid, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, jr := range s.requests {
		if jr.CommunityID == cid && jr.UserID == uid && jr.Status == model.JoinPending {
			jr.Status = status
		}
	}
	return nil
}

type memAnnouncements struct{ *memDB }

func (s memAnnouncements) save(a *model.Announcement, ev *model.OutboxEvent) {
	if a.Pinned {
		for _, o := range s.announcements {
			if o.CommunityID == a.CommunityID && o.ID != a.ID {
				o.Pinned = false
			}
		}
	}
	a.UpdatedAt = s.tick()
	cp := *a
	s.announcements[a.ID] = &cp
	s.addOutbox(ev)
}

func (s memAnnouncements) Create(_ context.Context, a *model.Announcement, ev *model.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.CreatedAt = s.clock
	s.save(a, ev)
	return nil
}

func (s memAnnouncements) Update(_ context.Context, a *model.Announcement, ev *model.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.announcements[a.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.save(a, ev)
	return nil
}

func (s memAnnouncements) FindByID(_ context.Context, id string) (*model.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.announcements[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (s memAnnouncements) ListByCommunity(_ context.Context, cid string, offset, limit int) ([]model.Announcement, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Announcement
	for _, a := range s.announcements {
		if a.CommunityID == cid {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pinned != out[j].Pinned {
			return out[i].Pinned
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return pageSlice(out, offset, limit), int64(len(out)), nil
}

func (s memAnnouncements) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.announcements, id)
	return nil
}

type memEvents struct{ *memDB }

func (s memEvents) Create(_ context.Context, e *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.CreatedAt = s.tick()
	e.UpdatedAt = e.CreatedAt
	cp := *e
	s.events[e.ID] = &cp
	return nil
}

func (s memEvents) FindByID(_ context.Context, id string) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	return &cp, nil
}

func (s memEvents) ListByCommunity(_ context.Context, cid string, offset, limit int) ([]model.Event, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Event
	for _, e := range s.events {
		if e.CommunityID == cid {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return pageSlice(out, offset, limit), int64(len(out)), nil
}

func (s memEvents) Update(_ context.Context, e *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.UpdatedAt = s.tick()
	cp := *e
	s.events[e.ID] = &cp
	return nil
}

func (s memEvents) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, id)
	delete(s.participants, id)
	return nil
}

func (s memEvents) AddParticipant(_ context.Context, eid, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.participants[eid] {
		if p == uid {
			return gorm.ErrDuplicatedKey
		}
	}
	s.participants[eid] = append(s.participants[eid], uid)
	return nil
}

func (s memEvents) RemoveParticipant(_ context.Context, eid, uid string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.participants[eid]
	for i, p := range list {
		if p == uid {
			s.participants[eid] = append(list[:i:i], list[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s memEvents) Participants(_ context.Context, ids ...string) (map[string][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string][]string{}
	for _, id := range ids {
		out[id] = append([]string(nil), s.participants[id]...)
	}
	return out, nil
}

type memPosts struct{ *memDB }

func (s memPosts) Create(_ context.Context, p *model.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.CreatedAt = s.tick()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	s.posts[p.ID] = &cp
	return nil
}

func (s memPosts) FindByID(_ context.Context, id string) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (s memPosts) list(match func(*model.Post) bool, offset, limit int) ([]model.Post, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Post
	for _, p := range s.posts {
		if match(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return pageSlice(out, offset, limit), int64(len(out)), nil
}

func (s memPosts) ListByCommunity(_ context.Context, cid, category string, offset, limit int) ([]model.Post, int64, error) {
	return s.list(func(p *model.Post) bool {
		return p.CommunityID == cid && (category == "" || p.Category == category)
	}, offset, limit)
}

func (s memPosts) ListByCreator(_ context.Context, uid string, offset, limit int) ([]model.Post, int64, error) {
	return s.list(func(p *model.Post) bool { return p.CreatorID == uid }, offset, limit)
}

func (s memPosts) Update(_ context.Context, p *model.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.UpdatedAt = s.tick()
	cp := *p
	s.posts[p.ID] = &cp
	return nil
}

func (s memPosts) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.posts, id)
	for cid, c := range s.comments {
		if c.PostID == id {
			delete(s.comments, cid)
		}
	}
	return nil
}

type memComments struct{ *memDB }

func (s memComments) Create(_ context.Context, c *model.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.CreatedAt = s.tick()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	s.comments[c.ID] = &cp
	return nil
}

func (s memComments) FindByID(_ context.Context, id string) (*model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (s memComments) ListByPost(_ context.Context, postID string) ([]model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Comment
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s memComments) Update(_ context.Context, c *model.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.UpdatedAt = s.tick()
	cp := *c
	s.comments[c.ID] = &cp
	return nil
}

func (s memComments) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.comments, id)
	return nil
}

func (s memComments) CountByPosts(_ context.Context, ids []string) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]int64{}
	for _, c := range s.comments {
		for _, id := range ids {
			if c.PostID == id {
				out[id]++
			}
		}
	}
	return out, nil
}

type memReports struct{ *memDB }

func (s memReports) Create(_ context.Context, r *model.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.CreatedAt = s.tick()
	r.UpdatedAt = r.CreatedAt
	cp := *r
	s.reports[r.ID] = &cp
	return nil
}

func (s memReports) FindByID(_ context.Context, id string) (*model.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (s memReports) ListByCommunity(_ context.Context, cid string, f mysql.ReportFilter, offset, limit int) ([]model.Report, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Report
	for _, r := range s.reports {
		if r.CommunityID == cid && (f.Category == "" || r.Category == f.Category) && (f.Status == "" || r.Status == f.Status) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := out[i].Status == model.ReportPending, out[j].Status == model.ReportPending
		if pi != pj {
			return pi
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return pageSlice(out, offset, limit), int64(len(out)), nil
}

func (s memReports) ListByCreator(_ context.Context, uid string, offset, limit int) ([]model.Report, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Report
	for _, r := range s.reports {
		if r.CreatorID == uid {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return pageSlice(out, offset, limit), int64(len(out)), nil
}

func (s memReports) Update(_ context.Context, r *model.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.UpdatedAt = s.tick()
	cp := *r
	s.reports[r.ID] = &cp
	return nil
}

func (s memReports) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reports, id)
	return nil
}

type memCheckIns struct{ *memDB }

func (s memCheckIns) Create(_ context.Context, ci *model.CheckIn, ev *model.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ci.Date != nil {
		for _, o := range s.checkIns {
			if o.CommunityID == ci.CommunityID && o.Kind == ci.Kind && strEq(o.Date, *ci.Date) {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	ci.CreatedAt = s.tick()
	ci.UpdatedAt = ci.CreatedAt
	cp := *ci
	s.checkIns[ci.ID] = &cp
	s.addOutbox(ev)
	return nil
}

func (s memCheckIns) FindByID(_ context.Context, kind, id string) (*model.CheckIn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ci, ok := s.checkIns[id]
	if !ok || ci.Kind != kind {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *ci
	return &cp, nil
}

func (s memCheckIns) ListByCommunity(_ context.Context, cid, kind string, offset, limit int) ([]model.CheckIn, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.CheckIn
	for _, ci := range s.checkIns {
		if ci.CommunityID == cid && ci.Kind == kind {
			out = append(out, *ci)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return pageSlice(out, offset, limit), int64(len(out)), nil
}

func (s memCheckIns) ListByDateRange(_ context.Context, cid, kind, start, end string) ([]model.CheckIn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.CheckIn
	for _, ci := range s.checkIns {
		if ci.CommunityID == cid && ci.Kind == kind && ci.Date != nil && *ci.Date >= start && *ci.Date <= end {
			out = append(out, *ci)
		}
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].Date < *out[j].Date })
	return out, nil
}

func (s memCheckIns) Update(_ context.Context, ci *model.CheckIn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ci.UpdatedAt = s.tick()
	cp := *ci
	s.checkIns[ci.ID] = &cp
	return nil
}

func (s memCheckIns) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.checkIns, id)
	delete(s.responses, id)
	return nil
}

func (s memCheckIns) UpsertResponse(_ context.Context, r *model.CheckInResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.responses[r.CheckInID]
	for i := range list {
		if list[i].UserID == r.UserID {
			list[i].Reply, list[i].ReplyAt = r.Reply, r.ReplyAt
			return nil
		}
	}
	s.responses[r.CheckInID] = append(list, *r)
	return nil
}

func (s memCheckIns) Responses(_ context.Context, ids ...string) (map[string][]model.CheckInResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string][]model.CheckInResponse{}
	for _, id := range ids {
		out[id] = append([]model.CheckInResponse(nil), s.responses[id]...)
	}
	return out, nil
}

// memImages 记录被删除的远端图片
type memImages struct {
	mu        sync.Mutex
	destroyed []string
}

func (m *memImages) Destroy(_ context.Context, publicID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.destroyed = append(m.destroyed, publicID)
	return nil
}

func (m *memImages) list() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.destroyed...)
}
