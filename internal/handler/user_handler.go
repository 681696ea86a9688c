package handler

import (
	"net/http"

	"hoodlink/internal/middleware"
	"hoodlink/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	svc     *service.UserService
	posts   *service.PostService
	reports *service.ReportService
	log     *zap.Logger
}

// RegisterReq 注册请求体，email 与 phone 至少填一个
type RegisterReq struct {
	Name                 string `json:"name" binding:"required"`
	Email                string `json:"email"`
	Phone                string `json:"phone"`
	Password             string `json:"password" binding:"required,min=6"`
	LineID               string `json:"lineId"`
	IsElder              bool   `json:"isElder"`
	IsLivingAlone        bool   `json:"isLivingAlone"`
	ReceiveDailyCheck    bool   `json:"receiveDailyCheck"`
	ReceiveDisasterCheck bool   `json:"receiveDisasterCheck"`
}

// LoginReq 以 email 或手机号登录
type LoginReq struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileReq struct {
	Name                 *string `json:"name"`
	Email                *string `json:"email"`
	Phone                *string `json:"phone"`
	LineID               *string `json:"lineId"`
	Password             *string `json:"password"`
	IsElder              *bool   `json:"isElder"`
	IsLivingAlone        *bool   `json:"isLivingAlone"`
	ReceiveDailyCheck    *bool   `json:"receiveDailyCheck"`
	ReceiveDisasterCheck *bool   `json:"receiveDisasterCheck"`
}

func NewUserHandler(svc *service.UserService, posts *service.PostService, reports *service.ReportService, log *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, posts: posts, reports: reports, log: log}
}

// Register 注册接口
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.svc.Register(c.Request.Context(), service.RegisterInput{
		Name:                 req.Name,
		Email:                req.Email,
		Phone:                req.Phone,
		Password:             req.Password,
		LineID:               req.LineID,
		IsElder:              req.IsElder,
		IsLivingAlone:        req.IsLivingAlone,
		ReceiveDailyCheck:    req.ReceiveDailyCheck,
		ReceiveDisasterCheck: req.ReceiveDisasterCheck,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusCreated, "註冊成功", "user", user)
}

// Login 登录接口
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	account := req.Email
	if account == "" {
		account = req.Phone
	}

	res, err := h.svc.Login(c.Request.Context(), account, req.Password)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "登入成功",
		"token":     res.Token,
		"expiresAt": res.ExpiresAt,
		"user":      res.User,
	})
}

func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), middleware.UserID(c), middleware.TokenID(c)); err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "已登出", "", nil)
}

func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.svc.Profile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "", "user", user)
}

// UpdateMe 只更新请求里出现的字段
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req UpdateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.svc.UpdateProfile(c.Request.Context(), middleware.UserID(c), middleware.TokenID(c), service.ProfilePatch{
		Name:                 req.Name,
		Email:                req.Email,
		Phone:                req.Phone,
		LineID:               req.LineID,
		Password:             req.Password,
		IsElder:              req.IsElder,
		IsLivingAlone:        req.IsLivingAlone,
		ReceiveDailyCheck:    req.ReceiveDailyCheck,
		ReceiveDisasterCheck: req.ReceiveDisasterCheck,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "個人資料已更新", "user", user)
}

func (h *UserHandler) MyPosts(c *gin.Context) {
	page, size := pageQuery(c)
	res, err := h.posts.ListMine(c.Request.Context(), middleware.UserID(c), page, size)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "", "posts", res)
}

func (h *UserHandler) MyReports(c *gin.Context) {
	page, size := pageQuery(c)
	res, err := h.reports.ListMine(c.Request.Context(), middleware.UserID(c), page, size)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "", "reports", res)
}

// Search ?q=关键字&communityId=可选，带 communityId 时排除已是成员的用户
func (h *UserHandler) Search(c *gin.Context) {
	users, err := h.svc.Search(c.Request.Context(), middleware.UserID(c), c.Query("q"), c.Query("communityId"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, "", "users", users)
}
