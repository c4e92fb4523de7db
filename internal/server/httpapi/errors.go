package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/dmitrijs2005/feedbackhub/internal/common"
	"github.com/dmitrijs2005/feedbackhub/internal/logging"
	"github.com/dmitrijs2005/feedbackhub/internal/server/services"
	"github.com/dmitrijs2005/feedbackhub/internal/server/validation"
)

var (
	errHttpNotFound  = echo.NewHTTPError(http.StatusNotFound, "not found")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
)

// newHTTPErrorHandler maps service errors to responses. Handlers that render
// HTML deal with rejections themselves; what reaches this point is answered
// with JSON.
//
// Denials map to 403, not 401: the admin pages sit behind Basic auth and a
// 401 would make the browser ask for credentials again.
func newHTTPErrorHandler(logger logging.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			code    int
			message any

			httpErr  *echo.HTTPError
			rejected *services.RejectedError
			verrs    validator.ValidationErrors
		)

		switch {
		case errors.As(err, &httpErr):
			if herr, ok := httpErr.Internal.(*echo.HTTPError); ok {
				httpErr = herr
			}
			code = httpErr.Code
			message = httpErr.Message
		case errors.As(err, &verrs):
			code = http.StatusBadRequest
			message = validation.FieldErrors(verrs)
		case errors.As(err, &rejected):
			code = http.StatusBadRequest
			if len(rejected.Fields) > 0 {
				message = rejected.Fields
			} else {
				message = rejected.Reason
			}
		case errors.Is(err, common.ErrorNotFound):
			code = http.StatusNotFound
			message = errHttpNotFound.Message
		case errors.Is(err, common.ErrorUnauthorized):
			code = http.StatusForbidden
			message = errHttpForbidden.Message
		default:
			code = http.StatusInternalServerError
			message = http.StatusText(http.StatusInternalServerError)
			logger.Error(c.Request().Context(), "request failed",
				"method", c.Request().Method, "uri", c.Request().RequestURI, "error", err)
		}

		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, message)
		}
		if err != nil {
			logger.Error(c.Request().Context(), "writing error response", "error", err)
		}
	}
}
