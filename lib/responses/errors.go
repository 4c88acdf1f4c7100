package responses

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error          bool   `json:"error"`
	Code           int    `json:"code"`
	Message        string `json:"message"`
	HttpStatusCode int    `json:"-"`
}

var GeneralServerError = ErrorResponse{
	Error:          true,
	Code:           6,
	Message:        "Something went wrong. Please try again later",
	HttpStatusCode: 500,
}

var BadArgumentsError = ErrorResponse{
	Error:          true,
	Code:           8,
	Message:        "Bad arguments",
	HttpStatusCode: 400,
}

var BadAuthError = ErrorResponse{
	Error:          true,
	Code:           1,
	Message:        "bad auth",
	HttpStatusCode: 401,
}

var NotAuthorizedError = ErrorResponse{
	Error:          true,
	Code:           1,
	Message:        "Not authorized",
	HttpStatusCode: 403,
}

var BookNotFoundError = ErrorResponse{
	Error:          true,
	Code:           2,
	Message:        "Book not found",
	HttpStatusCode: 404,
}

var TransactionNotFoundError = ErrorResponse{
	Error:          true,
	Code:           2,
	Message:        "Transaction not found",
	HttpStatusCode: 404,
}

var NotificationNotFoundError = ErrorResponse{
	Error:          true,
	Code:           2,
	Message:        "Notification not found",
	HttpStatusCode: 404,
}

var BookNotAvailableError = ErrorResponse{
	Error:          true,
	Code:           3,
	Message:        "This book is no longer available",
	HttpStatusCode: 400,
}

var AlreadyRequestedError = ErrorResponse{
	Error:          true,
	Code:           3,
	Message:        "You've already requested this book",
	HttpStatusCode: 400,
}

var AlreadyProcessedError = ErrorResponse{
	Error:          true,
	Code:           3,
	Message:        "Transaction already processed",
	HttpStatusCode: 400,
}

var OwnListingError = ErrorResponse{
	Error:          true,
	Code:           4,
	Message:        "You cannot request your own book",
	HttpStatusCode: 400,
}

var NotEnoughCreditsError = ErrorResponse{
	Error:          true,
	Code:           5,
	Message:        "You need at least 1 credit to request this book",
	HttpStatusCode: 400,
}

var PriceRequiredError = ErrorResponse{
	Error:          true,
	Code:           8,
	Message:        "A price is required for a listing that is for sale",
	HttpStatusCode: 400,
}

func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	c.Logger().Error(err)
	if hub := sentryecho.GetHubFromContext(c); hub != nil && isErrAllowedForSentry(err) {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetExtra("UserID", c.Get("UserID"))
			hub.CaptureException(err)
		})
	}
	if he, ok := err.(*echo.HTTPError); ok {
		c.JSON(he.Code, he.Message)
	} else {
		c.JSON(http.StatusInternalServerError, GeneralServerError)
	}
}

// auth failures are expected noise and are kept out of sentry
func isErrAllowedForSentry(err error) bool {
	he, ok := err.(*echo.HTTPError)
	if !ok {
		return true
	}
	m, ok := he.Message.(echo.Map)
	if !ok {
		return true
	}
	return m["code"] != BadAuthError.Code
}
