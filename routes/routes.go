package routes

import (
	"lichess-stats-api/controllers"
	"lichess-stats-api/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Lichess OAuth flow
	auth := router.Group("/auth")
	{
		auth.GET("/login", controllers.Login)
		auth.GET("/callback", controllers.Callback)
		auth.POST("/logout", controllers.Logout)
		auth.GET("/me", middleware.AuthMiddleware(), controllers.GetMe)
	}

	// Protected API
	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		api.GET("/profile", controllers.GetProfile)

		games := api.Group("/games")
		{
			games.GET("", controllers.GetGames)
			games.POST("/sync", controllers.TriggerGamesSync)
			games.GET("/sync/status/:task_id", controllers.GetSyncStatus)
		}
	}
}
