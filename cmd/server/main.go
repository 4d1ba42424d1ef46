package main

import (
	"fmt"
	"log"
	"net/http"

	"chatwave/backend/internal/auth"
	"chatwave/backend/internal/config"
	"chatwave/backend/internal/database"
	"chatwave/backend/internal/handler"
	"chatwave/backend/internal/hub"

	"github.com/gin-gonic/gin"

	// Swagger imports
	_ "chatwave/backend/docs" // This is important for swag to find the generated docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

// @title           Chatwave API
// @version         1.0
// @description     This is the API for the Chatwave messaging service.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	// Connect to the database
	database.Connect(config.AppConfig.DatabaseURL)

	router := gin.Default()

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// Live event channel. Clients bind their identity with a registerUser
	// frame after connecting.
	router.GET("/ws", hub.ServeWS(hub.GlobalHub))

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", handler.RegisterUser)
			authRoutes.POST("/login", handler.LoginUser)
		}

		// User routes (protected)
		userRoutes := apiV1.Group("/user")
		userRoutes.Use(auth.AuthMiddleware())
		{
			userRoutes.GET("/me", handler.GetMe)
			userRoutes.GET("/search/:term", handler.SearchUsers)
		}

		// Friend routes (protected)
		friendRoutes := apiV1.Group("/friends")
		friendRoutes.Use(auth.AuthMiddleware())
		{
			friendRoutes.GET("", handler.GetFriends)
			friendRoutes.POST("/request", handler.SendFriendRequest)
			friendRoutes.GET("/requests", handler.GetFriendRequests)
			friendRoutes.GET("/requests/pending", handler.GetPendingFriendRequests)
			friendRoutes.POST("/requests/:id/accept", handler.AcceptFriendRequest)
			friendRoutes.POST("/requests/:id/reject", handler.RejectFriendRequest)
			friendRoutes.GET("/status/:id", handler.GetFriendStatus)
		}

		// Chat routes (protected)
		chatRoutes := apiV1.Group("/chats")
		chatRoutes.Use(auth.AuthMiddleware())
		{
			chatRoutes.GET("", handler.GetChats)
			chatRoutes.POST("/start", handler.StartDirectChat)
			chatRoutes.POST("/group", handler.CreateGroupChat)
			chatRoutes.GET("/:chatId/messages", handler.GetChatMessages)
			chatRoutes.POST("/:chatId/messages", handler.PostChatMessage)
		}
	}

	addr := ":" + config.AppConfig.Port
	fmt.Printf("Server is running on %s\n", addr)
	fmt.Printf("Swagger UI is available at http://localhost%s/swagger/index.html\n", addr)
	log.Fatal(router.Run(addr))
}
