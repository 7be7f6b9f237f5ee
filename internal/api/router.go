package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/windy-novel-api/internal/config"
	"github.com/windy-novel-api/internal/service"
)

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, limiter *RateLimiter, log zerolog.Logger) *gin.Engine {
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.Server.IsProduction() {
		router.Use(rateLimitMiddleware(limiter, "global", cfg.RateLimit.MaxRequests))
	}

	// Handlers
	authHandler := NewAuthHandler(services, log)
	userHandler := NewUserHandler(services, log)
	storyHandler := NewStoryHandler(services, log)
	chapterHandler := NewChapterHandler(services, log)
	commentHandler := NewCommentHandler(services, log)

	// Health check
	router.GET("/health", healthCheck)

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		auth.Use(rateLimitMiddleware(limiter, "auth", cfg.RateLimit.AuthMax))
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authenticate(services.Auth), authHandler.Refresh)
			auth.GET("/me", authenticate(services.Auth), authHandler.Me)
			auth.POST("/logout", authenticate(services.Auth), authHandler.Logout)
			auth.PUT("/change-password", authenticate(services.Auth), authHandler.ChangePassword)
		}

		users := api.Group("/users")
		users.Use(authenticate(services.Auth))
		{
			users.GET("/profile", userHandler.GetProfile)
			users.PUT("/profile", userHandler.UpdateProfile)
			users.GET("/bookmarks", userHandler.ListBookmarks)
			users.POST("/bookmarks/:storyId", userHandler.AddBookmark)
			users.DELETE("/bookmarks/:storyId", userHandler.RemoveBookmark)
			users.GET("/reading-history", userHandler.ReadingHistory)
			users.POST("/reading-history", userHandler.RecordReading)

			admin := users.Group("/admin", adminOnly())
			{
				admin.GET("/all", userHandler.AdminList)
				admin.PUT("/:id/role", userHandler.SetRole)
				admin.PUT("/:id/status", userHandler.SetActive)
			}
		}

		stories := api.Group("/stories")
		{
			stories.GET("", optionalAuth(services.Auth), storyHandler.List)
			stories.GET("/featured", storyHandler.Featured)
			stories.GET("/trending", storyHandler.Trending)
			stories.GET("/statistics", storyHandler.Statistics)
			stories.GET("/:slug", optionalAuth(services.Auth), storyHandler.GetBySlug)

			stories.POST("", authenticate(services.Auth), storyHandler.Create)
			stories.PUT("/id/:id", authenticate(services.Auth), storyHandler.Update)
			stories.PUT("/id/:id/publish", authenticate(services.Auth), adminOnly(), storyHandler.SetPublished)
			stories.PUT("/id/:id/feature", authenticate(services.Auth), adminOnly(), storyHandler.SetFeatured)
			stories.DELETE("/id/:id", authenticate(services.Auth), storyHandler.Delete)

			admin := stories.Group("/admin", authenticate(services.Auth), adminOnly())
			{
				admin.GET("/all", storyHandler.AdminList)
			}
		}

		chapters := api.Group("/chapters")
		{
			chapters.GET("/latest", chapterHandler.Latest)
			chapters.GET("/story/:storyId", optionalAuth(services.Auth), chapterHandler.ListByStory)
			chapters.GET("/read/:storyId/:number", optionalAuth(services.Auth), chapterHandler.GetByNumber)
			chapters.GET("/:id/rating", chapterHandler.GetRating)
			chapters.GET("/:id/user-rating", authenticate(services.Auth), chapterHandler.GetUserRating)

			chapters.POST("", authenticate(services.Auth), chapterHandler.Create)
			chapters.PUT("/:id", authenticate(services.Auth), chapterHandler.Update)
			chapters.PUT("/:id/publish", authenticate(services.Auth), chapterHandler.SetPublished)
			chapters.DELETE("/:id", authenticate(services.Auth), chapterHandler.Delete)
			chapters.POST("/:id/like", chapterHandler.Like)
			chapters.POST("/:id/rate", authenticate(services.Auth), chapterHandler.Rate)

			admin := chapters.Group("/admin", authenticate(services.Auth), adminOnly())
			{
				admin.GET("/all", chapterHandler.AdminList)
			}
		}

		comments := api.Group("/comments")
		{
			comments.GET("/latest", commentHandler.Latest)
			comments.GET("/story/:storyId", optionalAuth(services.Auth), commentHandler.ListForStory)
			comments.GET("/chapter/:chapterId", optionalAuth(services.Auth), commentHandler.ListForChapter)
			comments.GET("/user/:userId", authenticate(services.Auth), commentHandler.ListByUser)

			comments.POST("", authenticate(services.Auth), commentHandler.Create)
			comments.PUT("/:id", authenticate(services.Auth), commentHandler.Edit)
			comments.DELETE("/:id", authenticate(services.Auth), commentHandler.Delete)
			comments.POST("/:id/like", authenticate(services.Auth), commentHandler.ToggleLike)
			comments.POST("/:id/report", authenticate(services.Auth), commentHandler.Report)

			admin := comments.Group("/admin", authenticate(services.Auth), adminOnly())
			{
				admin.GET("/all", commentHandler.AdminList)
				admin.PUT("/:id/approve", commentHandler.SetApproved)
				admin.DELETE("/:id", commentHandler.HardDelete)
			}
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "windy-novel-api",
	})
}
