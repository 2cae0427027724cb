package server

import (
	"net/http"

	auction "auction-house/internal/auctionService"
	"auction-house/internal/auth"
	bidding "auction-house/internal/biddingService"
	"auction-house/internal/broadcast"
	notification "auction-house/internal/notificationService"
	user "auction-house/internal/userService"
	auctionhandler "auction-house/services/auction/handler"
	biddinghandler "auction-house/services/bidding/handler"
	notificationhandler "auction-house/services/notification/handler"
	realtimehandler "auction-house/services/realtime/handler"
	userhandler "auction-house/services/user/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(
	jwter *auth.JWTer,
	userService *user.UserService,
	auctionService *auction.AuctionService,
	biddingService *bidding.BiddingService,
	notificationService *notification.NotificationService,
	hub *broadcast.Hub,
) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	userHandler := userhandler.NewUserHandler(userService)
	auctionHandler := auctionhandler.NewAuctionHandler(auctionService)
	biddingHandler := biddinghandler.NewBiddingHandler(biddingService)
	notificationHandler := notificationhandler.NewNotificationHandler(notificationService)
	wsHandler := realtimehandler.NewWSHandler(hub, jwter)

	authed := AuthRequired(jwter)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signup", userHandler.SignupHandler)
		authGroup.POST("/login", userHandler.LoginHandler)
		authGroup.GET("/me", authed, userHandler.ProfileHandler)

		admin := authGroup.Group("/users", authed, AdminRequired(userService))
		{
			admin.GET("", userHandler.ListUsersHandler)
			admin.PUT("/:user_id", userHandler.UpdateUserHandler)
			admin.DELETE("/:user_id", userHandler.DeleteUserHandler)
		}
	}

	auctions := router.Group("/auctions")
	{
		auctions.GET("", auctionHandler.ListAuctionsHandler)
		auctions.GET("/:auction_id", auctionHandler.GetAuctionHandler)
		auctions.POST("", authed, auctionHandler.CreateAuctionHandler)
		auctions.POST("/:auction_id/close", authed, auctionHandler.CloseAuctionHandler)
	}

	bids := router.Group("/bids")
	{
		bids.POST("", authed, biddingHandler.PlaceBidHandler)
		bids.GET("/auction/:auction_id", biddingHandler.ListBidsByAuctionHandler)
	}

	notifications := router.Group("/notifications", authed)
	{
		notifications.GET("", notificationHandler.ListNotificationsHandler)
		notifications.POST("", notificationHandler.CreateNotificationHandler)
		notifications.PUT("/:notification_id/read", notificationHandler.MarkNotificationReadHandler)
		notifications.DELETE("/:notification_id", notificationHandler.DeleteNotificationHandler)
	}

	router.GET("/ws", wsHandler.ServeWS)

	return router
}
