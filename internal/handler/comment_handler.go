package handler

import (
	"net/http"

	"hoodlink/internal/middleware"
	"hoodlink/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CommentHandler struct {
	svc *service.CommentService
	log *zap.Logger
}

type CommentReq struct {
	Content string `json:"content" binding:"required"`
}

func NewCommentHandler(svc *service.CommentService, log *zap.Logger) *CommentHandler {
	return &CommentHandler{svc: svc, log: log}
}

func (h *CommentHandler) Create(c *gin.Context) {
	var req CommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	cm, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), c.Param("postId"), req.Content)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusCreated, "留言成功", "comment", cm)
}

func (h *CommentHandler) ListByPost(c *gin.Context) {
	list, err := h.svc.ListByPost(c.Request.Context(), middleware.UserID(c), c.Param("postId"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "", "comments", list)
}

func (h *CommentHandler) Update(c *gin.Context) {
	var req CommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	cm, err := h.svc.Update(c.Request.Context(), middleware.UserID(c), c.Param("commentId"), req.Content)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "留言已更新", "comment", cm)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.UserID(c), c.Param("commentId")); err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "留言已刪除", "", nil)
}
