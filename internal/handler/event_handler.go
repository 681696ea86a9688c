package handler

import (
	"net/http"
	"time"

	"hoodlink/internal/middleware"
	"hoodlink/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type EventHandler struct {
	svc *service.EventService
	log *zap.Logger
}

// CreateEventReq 时间使用 RFC3339
type CreateEventReq struct {
	CommunityID          string     `json:"communityId" binding:"required"`
	Title                string     `json:"title" binding:"required"`
	Content              string     `json:"content" binding:"required"`
	Image                string     `json:"image"`
	Date                 *time.Time `json:"date" binding:"required"`
	RegistrationDeadline *time.Time `json:"registrationDeadline"`
}

type UpdateEventReq struct {
	Title                *string    `json:"title"`
	Content              *string    `json:"content"`
	Image                *string    `json:"image"`
	Date                 *time.Time `json:"date"`
	RegistrationDeadline *time.Time `json:"registrationDeadline"`
	ClearDeadline        bool       `json:"clearDeadline"`
}

func NewEventHandler(svc *service.EventService, log *zap.Logger) *EventHandler {
	return &EventHandler{svc: svc, log: log}
}

func (h *EventHandler) Create(c *gin.Context) {
	var req CreateEventReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	e, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), service.EventInput{
		CommunityID:          req.CommunityID,
		Title:                req.Title,
		Content:              req.Content,
		Image:                req.Image,
		Date:                 *req.Date,
		RegistrationDeadline: req.RegistrationDeadline,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusCreated, "活動建立成功", "event", e)
}

func (h *EventHandler) ListByCommunity(c *gin.Context) {
	page, size := pageQuery(c)
	res, err := h.svc.ListByCommunity(c.Request.Context(), middleware.UserID(c), c.Param("communityId"), page, size)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "", "events", res)
}

func (h *EventHandler) Get(c *gin.Context) {
	e, err := h.svc.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "", "event", e)
}

func (h *EventHandler) Update(c *gin.Context) {
	var req UpdateEventReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	e, err := h.svc.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), service.EventPatch{
		Title:                req.Title,
		Content:              req.Content,
		Image:                req.Image,
		Date:                 req.Date,
		RegistrationDeadline: req.RegistrationDeadline,
		ClearDeadline:        req.ClearDeadline,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "活動已更新", "event", e)
}

func (h *EventHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "活動已刪除", "", nil)
}

func (h *EventHandler) Participants(c *gin.Context) {
	list, err := h.svc.Participants(c.Request.Context(), middleware.UserID(c), c.Param("eventId"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "", "participants", list)
}

func (h *EventHandler) Register(c *gin.Context) {
	if err := h.svc.Register(c.Request.Context(), middleware.UserID(c), c.Param("eventId")); err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "報名成功", "", nil)
}

func (h *EventHandler) Cancel(c *gin.Context) {
	if err := h.svc.Cancel(c.Request.Context(), middleware.UserID(c), c.Param("eventId")); err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "已取消報名", "", nil)
}
