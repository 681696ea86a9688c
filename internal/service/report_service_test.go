package service

import (
	"context"
	"testing"

	"hoodlink/internal/model"
	"hoodlink/internal/pkg"
	"hoodlink/internal/repository/mysql"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportService_CreatorDeletesOwn(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin, member, other := env.user(t, "admin"), env.user(t, "member"), env.user(t, "other")
	cid := env.community(t, admin.ID, "社區", true)
	env.join(t, cid, member.ID)
	env.join(t, cid, other.ID)

	r, err := env.reports.Create(ctx, member.ID, ReportInput{CommunityID: cid, Title: "路燈壞了", Description: "巷口路燈不亮", Category: "設備"})
	require.NoError(t, err)
	assert.Equal(t, model.ReportPending, r.Status)

	_, err = env.reports.Get(ctx, other.ID, r.ID)
	assert.True(t, pkg.IsKind(err, pkg.KindForbidden))
	assert.True(t, pkg.IsKind(env.reports.Delete(ctx, other.ID, r.ID), pkg.KindForbidden))

	require.NoError(t, env.reports.Delete(ctx, member.ID, r.ID))
	_, err = env.reports.Get(ctx, member.ID, r.ID)
	assert.True(t, pkg.IsKind(err, pkg.KindNotFound))
}

func TestReportService_AdminListAndStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin, member := env.user(t, "admin"), env.user(t, "member")
	cid := env.community(t, admin.ID, "社區", true)
	env.join(t, cid, member.ID)

	first, err := env.reports.Create(ctx, member.ID, ReportInput{CommunityID: cid, Title: "漏水", Description: "樓梯間漏水", Category: "水電"})
	require.NoError(t, err)
	second, err := env.reports.Create(ctx, member.ID, ReportInput{CommunityID: cid, Title: "垃圾", Description: "垃圾堆積"})
	require.NoError(t, err)
	assert.Equal(t, "其他", second.Category)

	_, err = env.reports.Create(ctx, member.ID, ReportInput{CommunityID: cid, Title: "t", Description: "d", Category: "不存在"})
	assert.True(t, pkg.IsKind(err, pkg.KindInvalidInput))

	_, err = env.reports.UpdateStatus(ctx, member.ID, second.ID, model.ReportDone)
	assert.True(t, pkg.IsKind(err, pkg.KindForbidden))
	_, err = env.reports.UpdateStatus(ctx, admin.ID, second.ID, "已結案")
	assert.True(t, pkg.IsKind(err, pkg.KindInvalidInput))
	_, err = env.reports.UpdateStatus(ctx, admin.ID, second.ID, model.ReportDone)
	require.NoError(t, err)

	_, err = env.reports.ListByCommunity(ctx, member.ID, cid, mysql.ReportFilter{}, 1, 10)
	assert.True(t, pkg.IsKind(err, pkg.KindForbidden))

	page, err := env.reports.ListByCommunity(ctx, admin.ID, cid, mysql.ReportFilter{}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, first.ID, page.Items[0].ID, "待處理 first")

	page, err = env.reports.ListByCommunity(ctx, admin.ID, cid, mysql.ReportFilter{Status: model.ReportDone}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, second.ID, page.Items[0].ID)

	// 管理员可以改别人的回报内容
	updated, err := env.reports.Update(ctx, admin.ID, first.ID, ReportPatch{Location: ptr("B1")})
	require.NoError(t, err)
	assert.Equal(t, "B1", updated.Location)

	mine, err := env.reports.ListMine(ctx, member.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, mine.Total)
}
