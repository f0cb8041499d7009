package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"Redrow_Exposed/internal/handler"
	"Redrow_Exposed/internal/logger"
	"Redrow_Exposed/internal/metrics"
	"Redrow_Exposed/internal/middleware"
	"Redrow_Exposed/internal/model"
)

// Handlers 路由用到的全部 handler
type Handlers struct {
	User       *handler.UserHandler
	Evidence   *handler.EvidenceHandler
	Claim      *handler.ClaimHandler
	Complaint  *handler.ComplaintHandler
	FAQ        *handler.ContentHandler[model.FAQ, handler.FAQInput]
	Article    *handler.ArticleHandler
	SocialPost *handler.ContentHandler[model.SocialPost, handler.SocialPostInput]
	GLO        *handler.GLOHandler
	Analytics  *handler.AnalyticsHandler
	Email      *handler.EmailHandler
}

type Options struct {
	Log         *zap.Logger
	Metrics     *metrics.Metrics
	Auth        *middleware.Auth
	CORSOrigins []string
	MaxBodySize int64
	// Ready /healthz 检查依赖（数据库、redis）
	Ready       func(ctx context.Context) error
}

// contentRoutes FAQ、文章、社媒帖子的后台路由
type contentRoutes interface {
	AdminList(*gin.Context)
	Get(*gin.Context)
	Create(*gin.Context)
	Update(*gin.Context)
	Move(*gin.Context)
	Toggle(*gin.Context)
	Moderate(*gin.Context)
	Delete(*gin.Context)
}

func mountContent(g *gin.RouterGroup, h contentRoutes) {
	g.GET("", h.AdminList)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.POST("/:id/move", h.Move)
	g.POST("/:id/toggle", h.Toggle)
	g.POST("/:id/moderate", h.Moderate)
	g.DELETE("/:id", h.Delete)
}

func New(h Handlers, opt Options) *gin.Engine {
	middleware.SetupValidator()

	r := gin.New()
	r.Use(logger.Recovery(opt.Log), logger.GinMiddleware(opt.Log))
	if opt.Metrics != nil {
		r.Use(opt.Metrics.GinMiddleware())
		r.GET("/metrics", gin.WrapH(opt.Metrics.Handler()))
	}
	r.Use(middleware.CORS(opt.CORSOrigins), middleware.MaxBodySize(opt.MaxBodySize))

	r.GET("/healthz", func(c *gin.Context) {
		if opt.Ready != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := opt.Ready(ctx); err != nil {
				logger.FromGin(c).Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"msg": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"msg": "ok"})
	})

	auth := opt.Auth
	api := r.Group("/api")

	// 登录注册相关接口
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/:scope/code", h.User.SendCode)
		authGroup.POST("/register", h.User.Register)
		authGroup.POST("/login", h.User.Login)
		authGroup.POST("/refresh", h.User.Refresh)
		authGroup.POST("/reset", h.User.ResetPassword)
	}
	// 登录态接口
	meGroup := authGroup.Group("", auth.RequireAuth())
	{
		meGroup.POST("/logout", h.User.Logout)
		meGroup.POST("/change-password", h.User.ChangePassword)
		meGroup.GET("/me", h.User.Me)
		meGroup.PUT("/me", h.User.UpdateMe)
	}

	// 证据：公开读（作者可见自己的待审核内容），登录后写
	evidence := api.Group("/evidence")
	{
		evidence.GET("", h.Evidence.List)
		evidence.GET("/:id", auth.OptionalAuth(), h.Evidence.Get)
		evidence.GET("/:id/download", auth.OptionalAuth(), h.Evidence.Download)

		owner := evidence.Group("", auth.RequireAuth())
		owner.GET("/mine", h.Evidence.Mine)
		owner.POST("", h.Evidence.Create)
		owner.PUT("/:id", h.Evidence.Update)
		owner.DELETE("/:id", h.Evidence.Delete)
		owner.POST("/:id/photos", h.Evidence.UploadPhoto)
		owner.PATCH("/photos/:photoId", h.Evidence.UpdateCaption)
		owner.POST("/photos/:photoId/move", h.Evidence.MovePhoto)
		owner.DELETE("/photos/:photoId", h.Evidence.DeletePhoto)
	}

	claims := api.Group("/claims", auth.RequireAuth())
	{
		claims.POST("", h.Claim.Submit)
		claims.GET("/mine", h.Claim.Mine)
		claims.GET("/:id", h.Claim.Get)
	}

	complaints := api.Group("/complaints")
	{
		complaints.GET("", h.Complaint.List)
		complaints.POST("", auth.RequireAuth(), h.Complaint.Submit)
	}

	api.GET("/faqs", h.FAQ.List)
	api.GET("/articles", h.Article.List)
	api.GET("/articles/:slug", h.Article.BySlug)
	api.GET("/social-posts", h.SocialPost.List)
	api.POST("/glo-interest", h.GLO.Register)
	api.POST("/analytics/visit", h.Analytics.Visit)

	// 后台：审核员及以上
	admin := api.Group("/admin", auth.RequireAuth(), middleware.RequireRole(model.RoleModerator))
	{
		ev := admin.Group("/evidence")
		ev.GET("", h.Evidence.AdminList)
		ev.POST("/:id/moderate", h.Evidence.Moderate)
		ev.POST("/:id/toggle", h.Evidence.Toggle)

		cp := admin.Group("/complaints")
		cp.GET("", h.Complaint.AdminList)
		cp.POST("/:id/moderate", h.Complaint.Moderate)
		cp.POST("/:id/toggle", h.Complaint.Toggle)
		cp.DELETE("/:id", h.Complaint.Delete)

		mountContent(admin.Group("/faqs"), h.FAQ)
		mountContent(admin.Group("/articles"), h.Article)
		mountContent(admin.Group("/social-posts"), h.SocialPost)

		cl := admin.Group("/claims")
		cl.GET("", h.Claim.AdminList)
		cl.PUT("/:id/status", h.Claim.UpdateStatus)

		glo := admin.Group("/glo-interest")
		glo.GET("", h.GLO.List)
		glo.GET("/export", h.GLO.Export)
		glo.DELETE("/:id", h.GLO.Delete)

		admin.GET("/analytics/summary", h.Analytics.Summary)
	}

	// 后台：仅管理员
	root := admin.Group("", middleware.RequireRole(model.RoleAdmin))
	{
		root.GET("/users", h.User.List)
		root.PUT("/users/:id/role", h.User.SetRole)

		em := root.Group("/email")
		em.GET("/templates", h.Email.ListTemplates)
		em.POST("/templates", h.Email.CreateTemplate)
		em.PUT("/templates/:id", h.Email.UpdateTemplate)
		em.DELETE("/templates/:id", h.Email.DeleteTemplate)
		em.GET("/triggers", h.Email.ListTriggers)
		em.POST("/triggers", h.Email.CreateTrigger)
		em.PUT("/triggers/:id", h.Email.UpdateTrigger)
		em.DELETE("/triggers/:id", h.Email.DeleteTrigger)
		em.GET("/logs", h.Email.ListLogs)
		em.POST("/batch-test", h.Email.BatchTest)
	}

	functions := r.Group("/functions", auth.RequireAuth(), middleware.RequireRole(model.RoleAdmin))
	{
		functions.POST("/send-admin-email", h.Email.SendAdminEmail)
		functions.POST("/sync-email-templates", h.Email.SyncTemplates)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"msg": "not found"})
	})
	return r
}
