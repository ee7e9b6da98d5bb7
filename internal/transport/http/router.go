package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/arcade/internal/transport/http/middleware"
)

type RouterConfig struct {
	Auth    *AuthHandler
	History *HistoryHandler
	Rooms   *RoomsHandler
	// Live upgrades /api/live; nil leaves the route out.
	Live           gin.HandlerFunc
	AllowedOrigins []string
}

// NewRouter mounts every HTTP route under /api.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	requireAuth := middleware.RequireAuth()

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/auth")
	{
		api.POST("/guest", cfg.Auth.Guest)
		api.POST("/logout", cfg.Auth.Logout)
		api.POST("/refresh", cfg.Auth.Refresh)
		api.POST("/login/getCode", cfg.Auth.GetLoginCode)
		api.POST("/login/useCode", cfg.Auth.UseLoginCode)
		api.POST("/login/password", cfg.Auth.LoginWithPassword)
	}

	protected := router.Group("/api")
	protected.Use(requireAuth)
	{
		protected.GET("/auth/me", cfg.Auth.Me)
		protected.POST("/auth/email/setup", cfg.Auth.SetupEmail)
		protected.POST("/auth/email/verify", cfg.Auth.VerifyEmail)
		protected.POST("/auth/pass/request", cfg.Auth.RequestPassCode)
		protected.POST("/auth/pass/set", cfg.Auth.SetPassword)

		if cfg.History != nil {
			protected.GET("/history", cfg.History.GetHistory)
			protected.GET("/history/:id", cfg.History.GetGameDetails)
		}
		if cfg.Rooms != nil {
			protected.GET("/rooms", cfg.Rooms.GetRooms)
		}
	}

	// The live handler checks the token itself before upgrading.
	if cfg.Live != nil {
		router.GET("/api/live", cfg.Live)
	}

	return router
}
