package controllers

import (
	"net/http"
	"strings"

	"github.com/bookhub/bookhub.go/lib/responses"
	"github.com/bookhub/bookhub.go/lib/service"
	"github.com/labstack/echo/v4"
)

// CreateUserController : Create user controller struct
type CreateUserController struct {
	svc *service.BookhubService
}

func NewCreateUserController(svc *service.BookhubService) *CreateUserController {
	return &CreateUserController{svc: svc}
}

type CreateUserRequestBody struct {
	Login     string `json:"login"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type CreateUserResponseBody struct {
	ID       int64  `json:"id"`
	Login    string `json:"login"`
	Password string `json:"password"`
	Credits  int64  `json:"credits"`
}

func (controller *CreateUserController) CreateUser(c echo.Context) error {
	var body CreateUserRequestBody

	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load create user request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid create user request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	user, err := controller.svc.CreateUser(c.Request().Context(), service.CreateUserParams{
		Login:     body.Login,
		Password:  body.Password,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Email:     body.Email,
		Phone:     body.Phone,
	})
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value") || strings.Contains(err.Error(), "UNIQUE constraint failed") {
			c.Logger().Errorf("Failed to create user: login already exists: %v", body.Login)
			return c.JSON(http.StatusBadRequest, &responses.ErrorResponse{
				Error:   true,
				Code:    8,
				Message: "The login is already taken",
			})
		}
		c.Logger().Errorf("Failed to create user: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	var ResponseBody CreateUserResponseBody
	ResponseBody.ID = user.ID
	ResponseBody.Login = user.Login
	ResponseBody.Password = user.Password
	ResponseBody.Credits = user.Credits

	return c.JSON(http.StatusOK, &ResponseBody)
}
