package service

import (
	"context"
	"testing"
	"time"

	"hoodlink/internal/model"
	"hoodlink/internal/pkg"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	db     *memDB
	images *memImages

	users         *UserService
	communities   *CommunityService
	announcements *AnnouncementService
	events        *EventService
	posts         *PostService
	comments      *CommentService
	reports       *ReportService
	checkIns      *CheckInService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newMemDB()
	log := zap.NewNop()
	users, members := memUsers{db}, memMembers{db}
	images := &memImages{}
	tokens := pkg.NewTokenIssuer("test-secret-0123456789", time.Hour)
	return &testEnv{
		db:            db,
		images:        images,
		users:         NewUserService(users, members, memSessions{db}, tokens, log),
		communities:   NewCommunityService(users, memCommunities{db}, members, memRequests{db}, log),
		announcements: NewAnnouncementService(memAnnouncements{db}, members, users, log),
		events:        NewEventService(memEvents{db}, members, users, log),
		posts:         NewPostService(memPosts{db}, memComments{db}, members, users, images, log),
		comments:      NewCommentService(memComments{db}, memPosts{db}, members, users, log),
		reports:       NewReportService(memReports{db}, members, users, log),
		checkIns:      NewCheckInService(memCheckIns{db}, members, users, log),
	}
}

// user 直接写入一位用户，跳过 bcrypt 以加快测试
func (e *testEnv) user(t *testing.T, name string) *model.User {
	t.Helper()
	email := name + "@example.com"
	u := &model.User{ID: pkg.NewID(), Name: name, Email: &email, Password: "x", Role: model.UserRoleUser}
	require.NoError(t, memUsers{e.db}.Create(context.Background(), u))
	return u
}

func (e *testEnv) community(t *testing.T, creatorID, name string, public bool) string {
	t.Helper()
	d, err := e.communities.Create(context.Background(), creatorID, CreateCommunityInput{Name: name, Address: "台北市中正區", IsPublic: &public})
	require.NoError(t, err)
	return d.ID
}

func (e *testEnv) join(t *testing.T, communityID, userID string) {
	t.Helper()
	require.NoError(t, memMembers{e.db}.Join(context.Background(), communityID, userID, model.MemberRoleMember))
}

func ptr[T any](v T) *T { return &v }
