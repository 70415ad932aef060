package transport

import (
	"github.com/ise-alumni/portal-sub001/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

func InitRoutes(reminderHandler *ReminderHandler, queueHandler *QueueHandler, emailHandler *EmailHandler, unsubscribeHandler *UnsubscribeHandler) *gin.Engine {

	router := gin.New()

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(30))

	// Unsubscribe link clicks arrive from mail clients; the page is plain
	// HTML, never JSON, and lives outside the API group.
	router.GET("/unsubscribe", unsubscribeHandler.Unsubscribe)

	// API routes
	api := router.Group("/api/v1")
	{
		// Reminder routes
		reminders := api.Group("/reminders")
		{
			reminders.POST("", reminderHandler.SetReminder)
			reminders.DELETE("", reminderHandler.ClearReminder)
			reminders.GET("/:user_id", reminderHandler.ListReminders)
			reminders.GET("/:user_id/:target_type/:target_id", reminderHandler.HasReminder)
		}

		// Email queue routes (collaborator-facing)
		queue := api.Group("/queue")
		{
			queue.POST("", queueHandler.Enqueue)
			queue.GET("/:user_id", queueHandler.ListByUser)
		}

		// Direct send
		api.POST("/send-email", emailHandler.SendEmail)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "ok",
			"timestamp": gin.H{"time": "server is running"},
		})
	})

	return router
}
