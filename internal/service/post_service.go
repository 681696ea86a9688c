package service

import (
	"context"
	"strings"
	"time"

	"hoodlink/internal/authz"
	"hoodlink/internal/model"
	"hoodlink/internal/pkg"

	"go.uber.org/zap"
)

const imageDestroyTimeout = 10 * time.Second

type PostService struct {
	repo     PostStore
	comments CommentStore
	members  MemberStore
	users    UserStore
	images   ImageStore // 可为 nil，未配置图床时跳过远端删除
	log      *zap.Logger
}

func NewPostService(repo PostStore, comments CommentStore, members MemberStore, users UserStore, images ImageStore, log *zap.Logger) *PostService {
	return &PostService{repo: repo, comments: comments, members: members, users: users, images: images, log: log}
}

type PostInput struct {
	CommunityID   string
	Title         string
	Content       string
	Image         string
	ImagePublicID string
	Category      string
}

type PostPatch struct {
	Title         *string
	Content       *string
	Image         *string
	ImagePublicID *string
	Category      *string
}

type PostView struct {
	model.Post
	Creator      *model.UserBrief `json:"creator,omitempty"`
	CommentCount int64            `json:"commentCount"`
}

func normalizeCategory(c string) (string, error) {
	c = strings.TrimSpace(c)
	if c == "" {
		return model.PostCategoryOther, nil
	}
	if !model.ValidPostCategory(c) {
		return "", pkg.InvalidInput("無效的文章分類")
	}
	return c, nil
}

func (s *PostService) Create(ctx context.Context, callerID string, in PostInput) (*model.Post, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || strings.TrimSpace(in.Content) == "" {
		return nil, pkg.InvalidInput("請填寫標題與內容")
	}
	category, err := normalizeCategory(in.Category)
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
	p := &model.Post{
		ID:            pkg.NewID(),
		Title:         in.Title,
		Content:       in.Content,
		Image:         in.Image,
		ImagePublicID: in.ImagePublicID,
		Category:      category,
		CommunityID:   in.CommunityID,
		CreatorID:     callerID,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, pkg.Internal(err)
	}
	return p, nil
}

// Get 帖子必须属于路径中的社区
func (s *PostService) Get(ctx context.Context, callerID, communityID, postID string) (*PostView, error) {
	p, _, err := s.load(ctx, callerID, postID)
	if err != nil {
		return nil, err
	}
	if communityID != "" && p.CommunityID != communityID {
		return nil, pkg.NotFound("找不到文章")
	}
	views, err := s.views(ctx, []model.Post{*p})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *PostService) ListByCommunity(ctx context.Context, callerID, communityID, category string, page, size int) (*Page[PostView], error) {
	if category != "" && !model.ValidPostCategory(category) {
		return nil, pkg.InvalidInput("無效的文章分類")
	}
	roster, err := loadRoster(ctx, s.members, communityID)
	if err != nil {
		return nil, err
	}
	if err := authz.Member(roster, callerID); err != nil {
		return nil, err
	}
	page, size, offset := pkg.Page(page, size)
	list, total, err := s.repo.ListByCommunity(ctx, communityID, category, offset, size)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	views, err := s.views(ctx, list)
	if err != nil {
		return nil, err
	}
	return newPage(views, total, page, size), nil
}

// ListMine 我发布的帖子
func (s *PostService) ListMine(ctx context.Context, callerID string, page, size int) (*Page[PostView], error) {
	page, size, offset := pkg.Page(page, size)
	list, total, err := s.repo.ListByCreator(ctx, callerID, offset, size)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	views, err := s.views(ctx, list)
	if err != nil {
		return nil, err
	}
	return newPage(views, total, page, size), nil
}

func (s *PostService) views(ctx context.Context, list []model.Post) ([]PostView, error) {
	ids := make([]string, 0, len(list))
	creators := make([]string, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.ID)
		creators = append(creators, p.CreatorID)
	}
	counts, err := s.comments.CountByPosts(ctx, ids)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	b, err := briefs(ctx, s.users, creators)
	if err != nil {
		return nil, err
	}
	out := make([]PostView, 0, len(list))
	for _, p := range list {
		out = append(out, PostView{Post: p, Creator: briefPtr(b, p.CreatorID), CommentCount: counts[p.ID]})
	}
	return out, nil
}

// Update 仅作者；换图后尽力删除旧图
func (s *PostService) Update(ctx context.Context, callerID, postID string, patch PostPatch) (*model.Post, error) {
	p, _, err := s.load(ctx, callerID, postID)
	if err != nil {
		return nil, err
	}
	if err := authz.Owner(p.CreatorID, callerID); err != nil {
		return nil, err
	}
	oldPublicID := p.ImagePublicID
	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		if t == "" {
			return nil, pkg.InvalidInput("標題不可為空")
		}
		p.Title = t
	}
	if patch.Content != nil {
		if strings.TrimSpace(*patch.Content) == "" {
			return nil, pkg.InvalidInput("內容不可為空")
		}
		p.Content = *patch.Content
	}
	if patch.Category != nil {
		c, err := normalizeCategory(*patch.Category)
		if err != nil {
			return nil, err
		}
		p.Category = c
	}
	if patch.Image != nil {
		p.Image = *patch.Image
		if *patch.Image == "" {
			p.ImagePublicID = ""
		}
	}
	if patch.ImagePublicID != nil {
		p.ImagePublicID = *patch.ImagePublicID
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, pkg.Internal(err)
	}
	if oldPublicID != "" && oldPublicID != p.ImagePublicID {
		s.destroyImage(ctx, oldPublicID)
	}
	return p, nil
}

// Delete 作者或管理员；留言一并删除，图片尽力删除
func (s *PostService) Delete(ctx context.Context, callerID, postID string) error {
	p, err := s.find(ctx, postID)
	if err != nil {
		return err
	}
	roster, err := loadRoster(ctx, s.members, p.CommunityID)
	if err != nil {
		return err
	}
	if err := authz.CreatorOrAdmin(roster, p.CreatorID, callerID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, postID); err != nil {
		return pkg.Internal(err)
	}
	s.destroyImage(ctx, p.ImagePublicID)
	return nil
}

// destroyImage 失败只记日志，不影响主流程
func (s *PostService) destroyImage(ctx context.Context, publicID string) {
	if s.images == nil || publicID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), imageDestroyTimeout)
	defer cancel()
	if err := s.images.Destroy(ctx, publicID); err != nil {
		s.log.Warn("destroy post image failed", zap.String("public_id", publicID), zap.Error(err))
	}
}

func (s *PostService) find(ctx context.Context, id string) (*model.Post, error) {
	if err := requireID(id, "文章"); err != nil {
		return nil, err
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "找不到文章")
	}
	return p, nil
}

func (s *PostService) load(ctx context.Context, callerID, id string) (*model.Post, *model.Roster, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	roster, err := loadRoster(ctx, s.members, p.CommunityID)
	if err != nil {
		return nil, nil, err
	}
	if err := authz.Member(roster, callerID); err != nil {
		return nil, nil, err
	}
	return p, roster, nil
}
