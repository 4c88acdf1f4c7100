package controllers

import (
	"net/http"
	"strconv"

	"github.com/bookhub/bookhub.go/lib/responses"
	"github.com/bookhub/bookhub.go/lib/service"
	"github.com/labstack/echo/v4"
)

// NotificationController : NotificationController struct
type NotificationController struct {
	svc *service.BookhubService
}

func NewNotificationController(svc *service.BookhubService) *NotificationController {
	return &NotificationController{svc: svc}
}

func (controller *NotificationController) GetNotifications(c echo.Context) error {
	userId := c.Get("UserID").(int64)

	notifications, err := controller.svc.NotificationsFor(c.Request().Context(), userId)
	if err != nil {
		c.Logger().Errorf("Failed to load notifications: user_id:%v error: %v", userId, err)
		return c.JSON(http.StatusInternalServerError, responses.GeneralServerError)
	}
	return c.JSON(http.StatusOK, notifications)
}

func (controller *NotificationController) MarkRead(c echo.Context) error {
	userId := c.Get("UserID").(int64)

	notificationId, err := strconv.ParseInt(c.Param("notificationId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	if errResp := controller.svc.MarkNotificationRead(c.Request().Context(), userId, notificationId); errResp != nil {
		return c.JSON(errResp.HttpStatusCode, errResp)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Notification marked as read"})
}

func (controller *NotificationController) MarkAllRead(c echo.Context) error {
	userId := c.Get("UserID").(int64)

	if err := controller.svc.MarkAllNotificationsRead(c.Request().Context(), userId); err != nil {
		c.Logger().Errorf("Failed to mark notifications read: user_id:%v error: %v", userId, err)
		return c.JSON(http.StatusInternalServerError, responses.GeneralServerError)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "All notifications marked as read"})
}
