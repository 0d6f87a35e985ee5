package router

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"assembly-qc/config"
	"assembly-qc/internal/api/handler"
	"assembly-qc/internal/api/middleware"
	"assembly-qc/internal/model"
	"assembly-qc/pkg/jwt"
)

// Deps 路由层可选依赖，Redis 不可用时传 nil 降级
type Deps struct {
	Blacklist middleware.BlacklistChecker
	Limiter   middleware.RateLimiter
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, deps Deps, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/v1/export"})))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/register", h.Auth.Register)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, deps.Blacklist, logger))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.GET("/users/active", middleware.RoleAuth(model.RoleInspector, model.RoleAdmin), h.Auth.ListActive)

			// 账号管理（管理员）
			users := authorized.Group("/users")
			users.Use(middleware.RoleAuth(model.RoleAdmin))
			{
				users.GET("", h.User.List)
				users.POST("", h.User.Create)
				users.POST("/import", h.User.Import)
				users.GET("/:id", h.User.GetByID)
				users.PUT("/:id", h.User.Update)
				users.POST("/:id/reset-password", h.User.ResetPassword)
			}

			// 检验记录模块（作业员本人；按作业员查询统计限检验员 / 管理员）
			qc := authorized.Group("/qc")
			{
				qc.POST("/logs",
					middleware.RateLimit(deps.Limiter, cfg.RateLimit.QCLogLimit, cfg.RateLimit.QCLogWindow),
					h.QC.Log)
				qc.DELETE("/logs/last", h.QC.UndoLast)
				qc.DELETE("/logs/today", h.QC.ResetToday)
				qc.GET("/stats", h.QC.Stats)
				qc.GET("/stats/:operator_id", middleware.RoleAuth(model.RoleInspector, model.RoleAdmin), h.QC.OperatorStats)
			}

			// 生产计划模块
			plans := authorized.Group("/plans")
			{
				plans.GET("", h.Plan.ListPlans)
				plans.PUT("", middleware.RoleAuth(model.RoleAdmin), h.Plan.SetPlan)
			}

			// 看板模块
			dashboard := authorized.Group("/dashboard")
			{
				dashboard.GET("", h.Dashboard.GetDashboard)
				dashboard.GET("/rework", h.Dashboard.ListWindowRework)
			}

			// 返工模块
			rework := authorized.Group("/rework")
			{
				rework.GET("", h.Rework.ListPending)
				rework.GET("/history", h.Rework.History)
				rework.PUT("/:id", middleware.RoleAuth(model.RoleInspector, model.RoleAdmin), h.Rework.Update)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/shift-report", middleware.RoleAuth(model.RoleInspector, model.RoleAdmin), h.Export.ShiftReport)
				export.GET("/plan-calendar", h.Export.PlanCalendar)
			}
		}
	}

	return r
}
