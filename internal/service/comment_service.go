package service

import (
	"context"
	"strings"

	"hoodlink/internal/authz"
	"hoodlink/internal/model"
	"hoodlink/internal/pkg"

	"go.uber.org/zap"
)

type CommentService struct {
	repo    CommentStore
	posts   PostStore
	members MemberStore
	users   UserStore
	log     *zap.Logger
}

func NewCommentService(repo CommentStore, posts PostStore, members MemberStore, users UserStore, log *zap.Logger) *CommentService {
	return &CommentService{repo: repo, posts: posts, members: members, users: users, log: log}
}

type CommentView struct {
	model.Comment
	Creator *model.UserBrief `json:"creator,omitempty"`
}

func (s *CommentService) Create(ctx context.Context, callerID, postID, content string) (*CommentView, error) {
	if strings.TrimSpace(content) == "" {
		return nil, pkg.InvalidInput("留言內容不可為空")
	}
	if _, _, err := s.postRoster(ctx, callerID, postID); err != nil {
		return nil, err
	}
	c := &model.Comment{ID: pkg.NewID(), PostID: postID, Content: strings.TrimSpace(content), CreatorID: callerID}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, pkg.Internal(err)
	}
	b, err := briefs(ctx, s.users, []string{callerID})
	if err != nil {
		return nil, err
	}
	return &CommentView{Comment: *c, Creator: briefPtr(b, callerID)}, nil
}

// ListByPost 留言按时间正序
func (s *CommentService) ListByPost(ctx context.Context, callerID, postID string) ([]CommentView, error) {
	if _, _, err := s.postRoster(ctx, callerID, postID); err != nil {
		return nil, err
	}
	list, err := s.repo.ListByPost(ctx, postID)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	ids := make([]string, 0, len(list))
	for _, c := range list {
		ids = append(ids, c.CreatorID)
	}
	b, err := briefs(ctx, s.users, ids)
	if err != nil {
		return nil, err
	}
	out := make([]CommentView, 0, len(list))
	for _, c := range list {
		out = append(out, CommentView{Comment: c, Creator: briefPtr(b, c.CreatorID)})
	}
	return out, nil
}

// Update 仅作者，且仍需是社区成员
func (s *CommentService) Update(ctx context.Context, callerID, commentID, content string) (*model.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, pkg.InvalidInput("留言內容不可為空")
	}
	c, err := s.find(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if err := authz.Owner(c.CreatorID, callerID); err != nil {
		return nil, err
	}
	if _, _, err := s.postRoster(ctx, callerID, c.PostID); err != nil {
		return nil, err
	}
	c.Content = strings.TrimSpace(content)
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, pkg.Internal(err)
	}
	return c, nil
}

// Delete 作者或社区管理员
func (s *CommentService) Delete(ctx context.Context, callerID, commentID string) error {
	c, err := s.find(ctx, commentID)
	if err != nil {
		return err
	}
	post, err := s.posts.FindByID(ctx, c.PostID)
	if err != nil {
		return storeErr(err, "找不到文章")
	}
	roster, err := loadRoster(ctx, s.members, post.CommunityID)
	if err != nil {
		return err
	}
	if err := authz.CreatorOrAdmin(roster, c.CreatorID, callerID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, commentID); err != nil {
		return pkg.Internal(err)
	}
	return nil
}

func (s *CommentService) find(ctx context.Context, id string) (*model.Comment, error) {
	if err := requireID(id, "留言"); err != nil {
		return nil, err
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "找不到留言")
	}
	return c, nil
}

// postRoster 查帖子所在社区并要求调用者是成员
func (s *CommentService) postRoster(ctx context.Context, callerID, postID string) (*model.Post, *model.Roster, error) {
	if err := requireID(postID, "文章"); err != nil {
		return nil, nil, err
	}
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, nil, storeErr(err, "找不到文章")
	}
	roster, err := loadRoster(ctx, s.members, post.CommunityID)
	if err != nil {
		return nil, nil, err
	}
	if err := authz.Member(roster, callerID); err != nil {
		return nil, nil, err
	}
	return post, roster, nil
}
