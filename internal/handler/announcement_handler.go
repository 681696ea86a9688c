package handler

import (
	"net/http"

	"hoodlink/internal/middleware"
	"hoodlink/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AnnouncementHandler struct {
	svc *service.AnnouncementService
	log *zap.Logger
}

type CreateAnnouncementReq struct {
	CommunityID string `json:"communityId" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Content     string `json:"content" binding:"required"`
	Image       string `json:"image"`
	Pinned      bool   `json:"pinned"`
}

type UpdateAnnouncementReq struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Image   *string `json:"image"`
	Pinned  *bool   `json:"pinned"`
}

func NewAnnouncementHandler(svc *service.AnnouncementService, log *zap.Logger) *AnnouncementHandler {
	return &AnnouncementHandler{svc: svc, log: log}
}

func (h *AnnouncementHandler) Create(c *gin.Context) {
	var req CreateAnnouncementReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	a, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), service.AnnouncementInput{
		CommunityID: req.CommunityID,
		Title:       req.Title,
		Content:     req.Content,
		Image:       req.Image,
		Pinned:      req.Pinned,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusCreated, "公告建立成功", "announcement", a)
}

func (h *AnnouncementHandler) ListByCommunity(c *gin.Context) {
	page, size := pageQuery(c)
	res, err := h.svc.ListByCommunity(c.Request.Context(), middleware.UserID(c), c.Param("communityId"), page, size)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "", "announcements", res)
}

func (h *AnnouncementHandler) Get(c *gin.Context) {
	a, err := h.svc.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "", "announcement", a)
}

func (h *AnnouncementHandler) Update(c *gin.Context) {
	var req UpdateAnnouncementReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	a, err := h.svc.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), service.AnnouncementPatch{
		Title:   req.Title,
		Content: req.Content,
		Image:   req.Image,
		Pinned:  req.Pinned,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "公告已更新", "announcement", a)
}

func (h *AnnouncementHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "公告已刪除", "", nil)
}
