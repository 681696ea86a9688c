package router

import (
	"net/http"

	"hoodlink/internal/handler"
	"hoodlink/internal/middleware"
	"hoodlink/internal/pkg"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handlers 路由需要的全部 handler
type Handlers struct {
	User          *handler.UserHandler
	Community     *handler.CommunityHandler
	Announcement  *handler.AnnouncementHandler
	Event         *handler.EventHandler
	Post          *handler.PostHandler
	Comment       *handler.CommentHandler
	Report        *handler.ReportHandler
	DailyGreeting *handler.CheckInHandler
	Disaster      *handler.CheckInHandler
	Upload        *handler.UploadHandler
}

type Deps struct {
	Handlers Handlers
	Verifier middleware.TokenVerifier
	Metrics  *pkg.Metrics
	Gatherer prometheus.Gatherer
	Log      *zap.Logger
}

func InitRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(d.Log), middleware.RequestLogger(d.Log))
	if d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics))
	}
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "找不到該路徑"})
	})

	h := d.Handlers
	auth := middleware.AuthMiddleware(d.Verifier)
	api := r.Group("/api")

	// 用户相关接口，注册与登录不需要 token
	userGroup := api.Group("/users")
	{
		userGroup.POST("/register", h.User.Register)
		userGroup.POST("/login", h.User.Login)
	}
	userAuth := api.Group("/users", auth)
	{
		userAuth.POST("/logout", h.User.Logout)
		userAuth.GET("/me", h.User.Me)
		userAuth.PATCH("/me", h.User.UpdateMe)
		userAuth.PATCH("/update", h.User.UpdateMe)
		userAuth.GET("/me/posts", h.User.MyPosts)
		userAuth.GET("/me/reports", h.User.MyReports)
		userAuth.GET("/search", h.User.Search)
	}

	// 社区相关接口
	communityGroup := api.Group("/communities", auth)
	{
		communityGroup.POST("/create", h.Community.Create)
		communityGroup.POST("/join", h.Community.Join)
		communityGroup.POST("/leave", h.Community.Leave)
		communityGroup.POST("/review-join-request", h.Community.ReviewJoinRequest)
		communityGroup.PATCH("/update", h.Community.Update)
		communityGroup.GET("", h.Community.List)
		communityGroup.GET("/my", h.Community.My)
		communityGroup.GET("/:id", h.Community.Get)
		communityGroup.GET("/:id/status", h.Community.Status)
		communityGroup.GET("/:id/join-requests", h.Community.JoinRequests)
		communityGroup.GET("/:id/members", h.Community.Members)
		communityGroup.GET("/:id/admins", h.Community.Admins)
		communityGroup.PATCH("/:id/members", h.Community.ChangeMembers)
		communityGroup.PATCH("/:id/admins", h.Community.ChangeAdmins)
	}

	announcementGroup := api.Group("/announcements", auth)
	{
		announcementGroup.POST("/create", h.Announcement.Create)
		announcementGroup.GET("/community/:communityId", h.Announcement.ListByCommunity)
		announcementGroup.GET("/:id", h.Announcement.Get)
		announcementGroup.PUT("/:id", h.Announcement.Update)
		announcementGroup.DELETE("/:id", h.Announcement.Delete)
	}

	eventGroup := api.Group("/events", auth)
	{
		eventGroup.POST("/create", h.Event.Create)
		eventGroup.GET("/community/:communityId", h.Event.ListByCommunity)
		eventGroup.GET("/id/:id", h.Event.Get)
		eventGroup.PUT("/:id", h.Event.Update)
		eventGroup.DELETE("/:id", h.Event.Delete)
		eventGroup.GET("/participants/:eventId", h.Event.Participants)
		eventGroup.POST("/register/:eventId", h.Event.Register)
		eventGroup.DELETE("/register/:eventId", h.Event.Cancel)
	}

	// 帖子相关接口
	postGroup := api.Group("/posts", auth)
	{
		postGroup.POST("/create", h.Post.CreatePost)
		postGroup.GET("/community/:communityId", h.Post.ListByCommunity)
		postGroup.GET("/community/:communityId/posts/:postId", h.Post.GetPost)
		postGroup.PUT("/:postId", h.Post.UpdatePost)
		postGroup.DELETE("/:postId", h.Post.DeletePost)
	}

	commentGroup := api.Group("/comments", auth)
	{
		commentGroup.POST("/post/:postId", h.Comment.Create)
		commentGroup.GET("/post/:postId", h.Comment.ListByPost)
		commentGroup.PUT("/:commentId", h.Comment.Update)
		commentGroup.DELETE("/:commentId", h.Comment.Delete)
	}

	reportGroup := api.Group("/reports", auth)
	{
		reportGroup.POST("/create", h.Report.Create)
		reportGroup.GET("/my", h.Report.My)
		reportGroup.GET("/community/:communityId", h.Report.ListByCommunity)
		reportGroup.GET("/:id", h.Report.Get)
		reportGroup.PUT("/:id", h.Report.Update)
		reportGroup.PATCH("/:id/status", h.Report.UpdateStatus)
		reportGroup.DELETE("/:id", h.Report.Delete)
	}

	greetingGroup := api.Group("/dailygreeting", auth)
	{
		greetingGroup.POST("/", h.DailyGreeting.Create)
		greetingGroup.GET("/community/:communityId", h.DailyGreeting.ListByCommunity)
		greetingGroup.GET("/unreplied", h.DailyGreeting.Unreplied)
		greetingGroup.GET("/helpneeded", h.DailyGreeting.HelpNeeded)
		greetingGroup.GET("/:id", h.DailyGreeting.Get)
		greetingGroup.PUT("/:id", h.DailyGreeting.Update)
		greetingGroup.DELETE("/:id", h.DailyGreeting.Delete)
		greetingGroup.POST("/:id/reply", h.DailyGreeting.Reply)
	}

	disasterGroup := api.Group("/disaster", auth)
	{
		disasterGroup.POST("/", h.Disaster.Create)
		disasterGroup.GET("/community/:communityId", h.Disaster.ListByCommunity)
		disasterGroup.GET("/:id", h.Disaster.Get)
		disasterGroup.PUT("/:id", h.Disaster.Update)
		disasterGroup.DELETE("/:id", h.Disaster.Delete)
		disasterGroup.POST("/:id/reply", h.Disaster.Reply)
	}

	// 前端直传图床的签名
	api.GET("/cloudinary/signature", auth, h.Upload.Signature)

	return r
}
