package handler

import (
	"net/http"

	"hoodlink/internal/middleware"
	"hoodlink/internal/model"
	"hoodlink/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CommunityHandler struct {
	svc *service.CommunityService
	log *zap.Logger
}

type CreateCommunityReq struct {
	Name     string `json:"name" binding:"required"`
	Address  string `json:"address" binding:"required"`
	IsPublic *bool  `json:"isPublic"`
}

type CommunityIDReq struct {
	CommunityID string `json:"communityId" binding:"required"`
}

type UpdateCommunityReq struct {
	CommunityID string  `json:"communityId" binding:"required"`
	Name        *string `json:"name"`
	Address     *string `json:"address"`
	IsPublic    *bool   `json:"isPublic"`
}

// ReviewJoinReq decision 取 approved / rejected，其他值由 service 判为无效
type ReviewJoinReq struct {
	RequestID string `json:"requestId" binding:"required"`
	Decision  string `json:"decision" binding:"required"`
}

// RosterChangeReq 成员/管理员增删
type RosterChangeReq struct {
	Action string `json:"action" binding:"required,oneof=add remove"`
	UserID string `json:"userId" binding:"required"`
}

func NewCommunityHandler(svc *service.CommunityService, log *zap.Logger) *CommunityHandler {
	return &CommunityHandler{svc: svc, log: log}
}

// Create 创建社区，创建者即管理员
func (h *CommunityHandler) Create(c *gin.Context) {
	var req CreateCommunityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	detail, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), service.CreateCommunityInput{
		Name:     req.Name,
		Address:  req.Address,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusCreated, "社區建立成功", "community", detail)
}

// Join 公开社区直接加入，私人社区送出申请
func (h *CommunityHandler) Join(c *gin.Context) {
	var req CommunityIDReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.svc.RequestOrJoin(c.Request.Context(), req.CommunityID, middleware.UserID(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if res.Joined {
		ok(c, http.StatusOK, "已加入社區", "joined", true)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "已送出加入申請，請等待管理員審核", "joined": false, "request": res.Request})
}

func (h *CommunityHandler) Leave(c *gin.Context) {
	var req CommunityIDReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.Leave(c.Request.Context(), req.CommunityID, middleware.UserID(c)); err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "已退出社區", "", nil)
}

func (h *CommunityHandler) ReviewJoinRequest(c *gin.Context) {
	var req ReviewJoinReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	decision := req.Decision
	jr, err := h.svc.ReviewJoinRequest(c.Request.Context(), req.RequestID, middleware.UserID(c), decision)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	msg := "已拒絕加入申請"
	if decision == model.JoinApproved {
		msg = "已核准加入申請"
	}
	ok(c, http.StatusOK, msg, "request", jr)
}

func (h *CommunityHandler) Update(c *gin.Context) {
	var req UpdateCommunityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	detail, err := h.svc.Update(c.Request.Context(), req.CommunityID, middleware.UserID(c), service.CommunityPatch{
		Name:     req.Name,
		Address:  req.Address,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "社區資料已更新", "community", detail)
}

// List ?q=名称关键字&page&limit
func (h *CommunityHandler) List(c *gin.Context) {
	page, size := pageQuery(c)
	res, err := h.svc.Search(c.Request.Context(), c.Query("q"), page, size)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "", "communities", res)
}

func (h *CommunityHandler) My(c *gin.Context) {
	list, err := h.svc.ListMine(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "", "communities", list)
}

func (h *CommunityHandler) Get(c *gin.Context) {
	detail, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "", "community", detail)
}

func (h *CommunityHandler) Status(c *gin.Context) {
	status, isAdmin, err := h.svc.Status(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": status, "isAdmin": isAdmin})
}

func (h *CommunityHandler) JoinRequests(c *gin.Context) {
	list, err := h.svc.ListJoinRequests(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "", "requests", list)
}

func (h *CommunityHandler) Members(c *gin.Context) {
	roster, err := h.svc.Roster(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "", "members", roster.Members)
}

func (h *CommunityHandler) Admins(c *gin.Context) {
	roster, err := h.svc.Roster(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "", "admins", roster.Admins)
}

func (h *CommunityHandler) ChangeMembers(c *gin.Context) {
	var req RosterChangeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx, cid, caller := c.Request.Context(), c.Param("id"), middleware.UserID(c)

	var err error
	msg := "已新增成員"
	if req.Action == "add" {
		err = h.svc.AddMember(ctx, cid, caller, req.UserID)
	} else {
		err = h.svc.RemoveMember(ctx, cid, caller, req.UserID)
		msg = "已移除成員"
	}
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, msg, "", nil)
}

func (h *CommunityHandler) ChangeAdmins(c *gin.Context) {
	var req RosterChangeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx, cid, caller := c.Request.Context(), c.Param("id"), middleware.UserID(c)

	var err error
	msg := "已新增管理員"
	if req.Action == "add" {
		err = h.svc.AddAdmin(ctx, cid, caller, req.UserID)
	} else {
		err = h.svc.RemoveAdmin(ctx, cid, caller, req.UserID)
		msg = "已移除管理員"
	}
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, msg, "", nil)
}
