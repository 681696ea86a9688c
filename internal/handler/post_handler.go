package handler

import (
	"net/http"

	"hoodlink/internal/middleware"
	"hoodlink/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PostHandler struct {
	svc *service.PostService
	log *zap.Logger
}

type CreatePostReq struct {
	CommunityID   string `json:"communityId" binding:"required"`
	Title         string `json:"title" binding:"required"`
	Content       string `json:"content" binding:"required"`
	Image         string `json:"image"`
	ImagePublicID string `json:"imagePublicId"`
	Category      string `json:"category"`
}

type UpdatePostReq struct {
	Title         *string `json:"title"`
	Content       *string `json:"content"`
	Image         *string `json:"image"`
	ImagePublicID *string `json:"imagePublicId"`
	Category      *string `json:"category"`
}

func NewPostHandler(svc *service.PostService, log *zap.Logger) *PostHandler {
	return &PostHandler{svc: svc, log: log}
}

// CreatePost 发帖接口
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req CreatePostReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	post, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), service.PostInput{
		CommunityID:   req.CommunityID,
		Title:         req.Title,
		Content:       req.Content,
		Image:         req.Image,
		ImagePublicID: req.ImagePublicID,
		Category:      req.Category,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusCreated, "貼文建立成功", "post", post)
}

// ListByCommunity ?category=&page=&limit=
func (h *PostHandler) ListByCommunity(c *gin.Context) {
	page, size := pageQuery(c)
	res, err := h.svc.ListByCommunity(c.Request.Context(), middleware.UserID(c), c.Param("communityId"), c.Query("category"), page, size)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "", "posts", res)
}

func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.svc.Get(c.Request.Context(), middleware.UserID(c), c.Param("communityId"), c.Param("postId"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "", "post", post)
}

func (h *PostHandler) UpdatePost(c *gin.Context) {
	var req UpdatePostReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	post, err := h.svc.Update(c.Request.Context(), middleware.UserID(c), c.Param("postId"), service.PostPatch{
		Title:         req.Title,
		Content:       req.Content,
		Image:         req.Image,
		ImagePublicID: req.ImagePublicID,
		Category:      req.Category,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "貼文已更新", "post", post)
}

// DeletePost 作者或社区管理员可删除
func (h *PostHandler) DeletePost(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.UserID(c), c.Param("postId")); err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "貼文已刪除", "", nil)
}
