package transport

import (
	"github.com/bookhub/bookhub.go/controllers"
	"github.com/bookhub/bookhub.go/lib/service"
	"github.com/labstack/echo/v4"
)

func RegisterEndpoints(svc *service.BookhubService, e *echo.Echo, secured *echo.Group, securedWithStrictRateLimit *echo.Group, strictRateLimitMiddleware echo.MiddlewareFunc, adminMw echo.MiddlewareFunc, logMw echo.MiddlewareFunc) {
	e.POST("/auth", controllers.NewAuthController(svc).Auth, strictRateLimitMiddleware, logMw)
	if svc.Config.AllowAccountCreation {
		e.POST("/users", controllers.NewCreateUserController(svc).CreateUser, strictRateLimitMiddleware, adminMw, logMw)
	}

	listingCtrl := controllers.NewListingController(svc)
	secured.GET("/books", listingCtrl.GetListings)
	secured.GET("/books/:postId", listingCtrl.GetListing)
	secured.POST("/books", listingCtrl.CreateListing)

	transactionCtrl := controllers.NewTransactionController(svc)
	// settlement endpoints move credits, so they get the strict limit
	securedWithStrictRateLimit.POST("/transactions/request", transactionCtrl.RequestBook)
	securedWithStrictRateLimit.POST("/transactions/complete", transactionCtrl.CompleteTransaction)
	securedWithStrictRateLimit.POST("/transactions/reject", transactionCtrl.RejectRequest)
	secured.GET("/transactions/pending-requests", transactionCtrl.GetPendingRequests)
	secured.GET("/transactions", transactionCtrl.GetTransactions)

	secured.GET("/balance", controllers.NewBalanceController(svc).Balance)

	notificationCtrl := controllers.NewNotificationController(svc)
	secured.GET("/notifications", notificationCtrl.GetNotifications)
	secured.PUT("/notifications/:notificationId/read", notificationCtrl.MarkRead)
	secured.PUT("/notifications/read-all", notificationCtrl.MarkAllRead)
}
