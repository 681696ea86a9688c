package handler

import (
	"net/http"

	"hoodlink/internal/middleware"
	"hoodlink/internal/repository/mysql"
	"hoodlink/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReportHandler struct {
	svc *service.ReportService
	log *zap.Logger
}

type CreateReportReq struct {
	CommunityID string `json:"communityId" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Image       string `json:"image"`
}

type UpdateReportReq struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Location    *string `json:"location"`
	Image       *string `json:"image"`
}

type ReportStatusReq struct {
	Status string `json:"status" binding:"required"`
}

func NewReportHandler(svc *service.ReportService, log *zap.Logger) *ReportHandler {
	return &ReportHandler{svc: svc, log: log}
}

func (h *ReportHandler) Create(c *gin.Context) {
	var req CreateReportReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	r, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), service.ReportInput{
		CommunityID: req.CommunityID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		Image:       req.Image,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusCreated, "回報已送出", "report", r)
}

func (h *ReportHandler) My(c *gin.Context) {
	page, size := pageQuery(c)
	res, err := h.svc.ListMine(c.Request.Context(), middleware.UserID(c), page, size)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "", "reports", res)
}

// ListByCommunity ?category=&status=&page=&limit=，仅管理员
func (h *ReportHandler) ListByCommunity(c *gin.Context) {
	page, size := pageQuery(c)
	f := mysql.ReportFilter{Category: c.Query("category"), Status: c.Query("status")}
	res, err := h.svc.ListByCommunity(c.Request.Context(), middleware.UserID(c), c.Param("communityId"), f, page, size)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "", "reports", res)
}

func (h *ReportHandler) Get(c *gin.Context) {
	r, err := h.svc.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "", "report", r)
}

func (h *ReportHandler) Update(c *gin.Context) {
	var req UpdateReportReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	r, err := h.svc.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), service.ReportPatch{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		Image:       req.Image,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "回報已更新", "report", r)
}

func (h *ReportHandler) UpdateStatus(c *gin.Context) {
	var req ReportStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	r, err := h.svc.UpdateStatus(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Status)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "處理狀態已更新", "report", r)
}

func (h *ReportHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "回報已刪除", "", nil)
}
