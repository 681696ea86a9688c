package service

import (
	"context"
	"testing"

	"hoodlink/internal/model"
	"hoodlink/internal/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pinnedCount(db *memDB, communityID string) int {
	n := 0
	for _, a := range db.announcements {
		if a.CommunityID == communityID && a.Pinned {
			n++
		}
	}
	return n
}

func TestAnnouncementService_AtMostOnePinned(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.user(t, "admin")
	cid := env.community(t, admin.ID, "社區", true)
	other := env.community(t, admin.ID, "另一個社區", true)

	first, err := env.announcements.Create(ctx, admin.ID, AnnouncementInput{CommunityID: cid, Title: "停水", Content: "週六停水", Pinned: true})
	require.NoError(t, err)
	_, err = env.announcements.Create(ctx, admin.ID, AnnouncementInput{CommunityID: other, Title: "別處", Content: "不受影響", Pinned: true})
	require.NoError(t, err)
	second, err := env.announcements.Create(ctx, admin.ID, AnnouncementInput{CommunityID: cid, Title: "停電", Content: "週日停電", Pinned: true})
	require.NoError(t, err)
	assert.Equal(t, 1, pinnedCount(env.db, cid))
	assert.Equal(t, 1, pinnedCount(env.db, other))
	assert.False(t, env.db.announcements[first.ID].Pinned)

	_, err = env.announcements.Update(ctx, admin.ID, first.ID, AnnouncementPatch{Pinned: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, 1, pinnedCount(env.db, cid))
	assert.False(t, env.db.announcements[second.ID].Pinned)

	page, err := env.announcements.ListByCommunity(ctx, admin.ID, cid, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, first.ID, page.Items[0].ID)

	// 每次新置顶都写入一条 outbox
	require.Len(t, env.db.outbox, 4)
	for _, ev := range env.db.outbox {
		assert.Equal(t, model.EventAnnouncementPublished, ev.EventType)
	}
}

func TestAnnouncementService_Permissions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin, member, outsider := env.user(t, "admin"), env.user(t, "member"), env.user(t, "outsider")
	cid := env.community(t, admin.ID, "社區", true)
	env.join(t, cid, member.ID)

	_, err := env.announcements.Create(ctx, member.ID, AnnouncementInput{CommunityID: cid, Title: "t", Content: "c"})
	assert.True(t, pkg.IsKind(err, pkg.KindForbidden))

	a, err := env.announcements.Create(ctx, admin.ID, AnnouncementInput{CommunityID: cid, Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.Empty(t, env.db.outbox)

	v, err := env.announcements.Get(ctx, member.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, v.Creator.ID)

	_, err = env.announcements.Get(ctx, outsider.ID, a.ID)
	assert.True(t, pkg.IsKind(err, pkg.KindForbidden))
	_, err = env.announcements.Update(ctx, member.ID, a.ID, AnnouncementPatch{Title: ptr("改")})
	assert.True(t, pkg.IsKind(err, pkg.KindForbidden))
	assert.True(t, pkg.IsKind(env.announcements.Delete(ctx, member.ID, a.ID), pkg.KindForbidden))

	require.NoError(t, env.announcements.Delete(ctx, admin.ID, a.ID))
	_, err = env.announcements.Get(ctx, admin.ID, a.ID)
	assert.True(t, pkg.IsKind(err, pkg.KindNotFound))
	_, err = env.announcements.Get(ctx, admin.ID, "not-an-id")
	assert.True(t, pkg.IsKind(err, pkg.KindInvalidInput))
}
