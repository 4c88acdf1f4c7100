package controllers

import (
	"net/http"

	"github.com/bookhub/bookhub.go/db/models"
	"github.com/bookhub/bookhub.go/lib/responses"
	"github.com/bookhub/bookhub.go/lib/service"
	"github.com/labstack/echo/v4"
)

// TransactionController : TransactionController struct
type TransactionController struct {
	svc *service.BookhubService
}

func NewTransactionController(svc *service.BookhubService) *TransactionController {
	return &TransactionController{svc: svc}
}

type RequestBookRequestBody struct {
	PostID int64 `json:"postId" validate:"required"`
}

type RequestBookResponseBody struct {
	Message          string              `json:"message"`
	Transaction      *models.Transaction `json:"transaction"`
	RemainingCredits int64               `json:"remainingCredits"`
	TransactionType  string              `json:"transactionType"`
}

type SettleTransactionRequestBody struct {
	TransactionID int64 `json:"transactionId" validate:"required"`
}

type SettleResponseBody struct {
	Message        string `json:"message"`
	UpdatedCredits int64  `json:"updatedCredits,omitempty"`
}

func (controller *TransactionController) RequestBook(c echo.Context) error {
	userId := c.Get("UserID").(int64)

	var body RequestBookRequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load request book request body: user_id:%v error: %v", userId, err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid request book request body: user_id:%v error: %v", userId, err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	result, errResp := controller.svc.RequestBook(c.Request().Context(), userId, body.PostID)
	if errResp != nil {
		return c.JSON(errResp.HttpStatusCode, errResp)
	}

	return c.JSON(http.StatusCreated, &RequestBookResponseBody{
		Message:          "Request submitted successfully",
		Transaction:      result.Transaction,
		RemainingCredits: result.RemainingCredits,
		TransactionType:  result.TransactionType,
	})
}

func (controller *TransactionController) CompleteTransaction(c echo.Context) error {
	userId := c.Get("UserID").(int64)

	var body SettleTransactionRequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load complete transaction request body: user_id:%v error: %v", userId, err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid complete transaction request body: user_id:%v error: %v", userId, err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	result, errResp := controller.svc.CompleteTransaction(c.Request().Context(), userId, body.TransactionID)
	if errResp != nil {
		return c.JSON(errResp.HttpStatusCode, errResp)
	}

	return c.JSON(http.StatusOK, &SettleResponseBody{
		Message:        result.Message,
		UpdatedCredits: result.UpdatedCredits,
	})
}

func (controller *TransactionController) RejectRequest(c echo.Context) error {
	userId := c.Get("UserID").(int64)

	var body SettleTransactionRequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load reject request body: user_id:%v error: %v", userId, err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid reject request body: user_id:%v error: %v", userId, err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	result, errResp := controller.svc.RejectRequest(c.Request().Context(), userId, body.TransactionID)
	if errResp != nil {
		return c.JSON(errResp.HttpStatusCode, errResp)
	}

	return c.JSON(http.StatusOK, &SettleResponseBody{Message: result.Message})
}

func (controller *TransactionController) GetPendingRequests(c echo.Context) error {
	userId := c.Get("UserID").(int64)

	transactions, err := controller.svc.PendingRequestsFor(c.Request().Context(), userId)
	if err != nil {
		c.Logger().Errorf("Failed to load pending requests: user_id:%v error: %v", userId, err)
		return c.JSON(http.StatusInternalServerError, responses.GeneralServerError)
	}
	return c.JSON(http.StatusOK, transactions)
}

func (controller *TransactionController) GetTransactions(c echo.Context) error {
	userId := c.Get("UserID").(int64)

	transactions, err := controller.svc.TransactionsFor(c.Request().Context(), userId)
	if err != nil {
		c.Logger().Errorf("Failed to load transactions: user_id:%v error: %v", userId, err)
		return c.JSON(http.StatusInternalServerError, responses.GeneralServerError)
	}
	return c.JSON(http.StatusOK, transactions)
}
