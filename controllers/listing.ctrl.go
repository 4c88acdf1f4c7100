package controllers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/bookhub/bookhub.go/lib/responses"
	"github.com/bookhub/bookhub.go/lib/service"
	"github.com/labstack/echo/v4"
)

// ListingController : ListingController struct
type ListingController struct {
	svc *service.BookhubService
}

func NewListingController(svc *service.BookhubService) *ListingController {
	return &ListingController{svc: svc}
}

type CreateListingRequestBody struct {
	BookName      string `json:"bookName" validate:"required"`
	AuthorName    string `json:"authorName"`
	Description   string `json:"description"`
	ListingType   string `json:"listingType" validate:"required,oneof=donate sell"`
	Price         int64  `json:"price"`
	Address       string `json:"address"`
	PaymentMethod string `json:"paymentMethod"`
}

func (controller *ListingController) CreateListing(c echo.Context) error {
	userId := c.Get("UserID").(int64)

	var body CreateListingRequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load create listing request body: user_id:%v error: %v", userId, err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid create listing request body: user_id:%v error: %v", userId, err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	listing, err := controller.svc.CreateListing(c.Request().Context(), userId, service.CreateListingParams{
		BookName:      body.BookName,
		AuthorName:    body.AuthorName,
		Description:   body.Description,
		ListingType:   body.ListingType,
		Price:         body.Price,
		Address:       body.Address,
		PaymentMethod: body.PaymentMethod,
	})
	if err != nil {
		if errors.Is(err, service.ErrPriceRequired) {
			return c.JSON(http.StatusBadRequest, responses.PriceRequiredError)
		}
		c.Logger().Errorf("Failed to create listing: user_id:%v error: %v", userId, err)
		return c.JSON(http.StatusInternalServerError, responses.GeneralServerError)
	}

	return c.JSON(http.StatusCreated, listing)
}

func (controller *ListingController) GetListings(c echo.Context) error {
	listings, err := controller.svc.ListAvailableListings(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("Failed to load listings: %v", err)
		return c.JSON(http.StatusInternalServerError, responses.GeneralServerError)
	}
	return c.JSON(http.StatusOK, listings)
}

func (controller *ListingController) GetListing(c echo.Context) error {
	listingId, err := strconv.ParseInt(c.Param("postId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	listing, err := controller.svc.FindListing(c.Request().Context(), listingId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, responses.BookNotFoundError)
		}
		c.Logger().Errorf("Failed to load listing: listing_id:%v error: %v", listingId, err)
		return c.JSON(http.StatusInternalServerError, responses.GeneralServerError)
	}
	return c.JSON(http.StatusOK, listing)
}
