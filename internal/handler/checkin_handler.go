package handler

import (
	"fmt"
	"net/http"

	"hoodlink/internal/middleware"
	"hoodlink/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CheckInHandler 每日问候与防灾回报共用，kind 决定处理哪一种
type CheckInHandler struct {
	svc  *service.CheckInService
	kind string
	key  string
	log  *zap.Logger
}

type CreateCheckInReq struct {
	CommunityID string `json:"communityId" binding:"required"`
	Date        string `json:"date"`
	Message     string `json:"message"`
}

type UpdateCheckInReq struct {
	Message string `json:"message" binding:"required"`
}

type ReplyReq struct {
	Reply string `json:"reply" binding:"required"`
}

// NewCheckInHandler key 为响应里资源的字段名
func NewCheckInHandler(svc *service.CheckInService, kind, key string, log *zap.Logger) *CheckInHandler {
	return &CheckInHandler{svc: svc, kind: kind, key: key, log: log}
}

func (h *CheckInHandler) Create(c *gin.Context) {
	var req CreateCheckInReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ci, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), h.kind, service.CheckInInput{
		CommunityID: req.CommunityID,
		Date:        req.Date,
		Message:     req.Message,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusCreated, "已發送", h.key, ci)
}

func (h *CheckInHandler) ListByCommunity(c *gin.Context) {
	page, size := pageQuery(c)
	res, err := h.svc.ListByCommunity(c.Request.Context(), middleware.UserID(c), h.kind, c.Param("communityId"), page, size)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "", h.key+"s", res)
}

func (h *CheckInHandler) Get(c *gin.Context) {
	v, err := h.svc.Get(c.Request.Context(), middleware.UserID(c), h.kind, c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "", h.key, v)
}

func (h *CheckInHandler) Update(c *gin.Context) {
	var req UpdateCheckInReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ci, err := h.svc.Update(c.Request.Context(), middleware.UserID(c), h.kind, c.Param("id"), req.Message)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "已更新", h.key, ci)
}

func (h *CheckInHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.UserID(c), h.kind, c.Param("id")); err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "已刪除", "", nil)
}

// Reply 同一用户再次回覆会覆盖上一次
func (h *CheckInHandler) Reply(c *gin.Context) {
	var req ReplyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.Reply(c.Request.Context(), middleware.UserID(c), h.kind, c.Param("id"), req.Reply)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "回覆成功", "response", resp)
}

// Unreplied ?communityId=&startDate=&endDate=&format=xlsx
func (h *CheckInHandler) Unreplied(c *gin.Context) {
	ctx, caller := c.Request.Context(), middleware.UserID(c)
	cid, start, end := c.Query("communityId"), c.Query("startDate"), c.Query("endDate")
	if c.Query("format") == "xlsx" {
		data, err := h.svc.ExportUnreplied(ctx, caller, cid, start, end)
		if err != nil {
			fail(c, h.log, err)
			return
		}
		attachment(c, fmt.Sprintf("unreplied_%s_%s.xlsx", start, end), data)
		return
	}

	rows, err := h.svc.Unreplied(ctx, caller, cid, start, end)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": rows, "count": len(rows)})
}

// HelpNeeded ?communityId=&startDate=&endDate=&format=xlsx
func (h *CheckInHandler) HelpNeeded(c *gin.Context) {
	ctx, caller := c.Request.Context(), middleware.UserID(c)
	cid, start, end := c.Query("communityId"), c.Query("startDate"), c.Query("endDate")
	if c.Query("format") == "xlsx" {
		data, err := h.svc.ExportHelpNeeded(ctx, caller, cid, start, end)
		if err != nil {
			fail(c, h.log, err)
			return
		}
		attachment(c, fmt.Sprintf("help_needed_%s_%s.xlsx", start, end), data)
		return
	}

	rows, err := h.svc.HelpNeeded(ctx, caller, cid, start, end)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": rows, "count": len(rows)})
}

func attachment(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
