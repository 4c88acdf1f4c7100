package controllers

import (
	"net/http"

	"github.com/bookhub/bookhub.go/lib/responses"
	"github.com/bookhub/bookhub.go/lib/service"
	"github.com/labstack/echo/v4"
)

// BalanceController : BalanceController struct
type BalanceController struct {
	svc *service.BookhubService
}

func NewBalanceController(svc *service.BookhubService) *BalanceController {
	return &BalanceController{svc: svc}
}

func (controller *BalanceController) Balance(c echo.Context) error {
	userId := c.Get("UserID").(int64)

	balance, err := controller.svc.BalanceFor(c.Request().Context(), userId)
	if err != nil {
		c.Logger().Errorf("Failed to load balance: user_id:%v error: %v", userId, err)
		return c.JSON(http.StatusInternalServerError, responses.GeneralServerError)
	}

	return c.JSON(http.StatusOK, balance)
}
