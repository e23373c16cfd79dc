package router

import (
	"estate-listing/controllers/app"
	"estate-listing/controllers/health"
	"estate-listing/middleware"
	"estate-listing/pkg/jwt"
	"estate-listing/pkg/session"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options 路由依赖
type Options struct {
	Home         *app.HomeController
	Health       *health.HealthController
	Users        middleware.UserLoader
	JWT          *jwt.JWTManager
	SessionName  string
	SessionStore sessions.Store // 为 nil 时不启用会话
}

// Init 注册全部路由
func Init(r *gin.Engine, opts Options) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	healthGroup := r.Group("/health")
	{
		healthGroup.GET("", opts.Health.CheckHealth)
		healthGroup.GET("/live", opts.Health.CheckLiveness)
		healthGroup.GET("/ready", opts.Health.CheckReadiness)
		healthGroup.GET("/info", opts.Health.GetSystemInfo)
	}

	r.GET("/placeholder/:file", app.Placeholder)

	web := r.Group("")
	if opts.SessionStore != nil {
		web.Use(session.Middleware(opts.SessionName, opts.SessionStore))
	}
	web.Use(middleware.CurrentUser(opts.Users, opts.JWT))
	{
		web.GET("/", opts.Home.Index)

		api := web.Group("/api")
		api.Use(middleware.RequireUser())
		api.GET("/stats/top-cities", app.TopCities)
	}
}
