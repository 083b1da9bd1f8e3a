package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theatre-ticketing/internal/repository"
	"github.com/iliyamo/theatre-ticketing/internal/service"
)

// writeError maps service and repository errors onto HTTP responses.
// Unexpected errors are logged and reported as 500 without detail.
func writeError(c echo.Context, log logrus.FieldLogger, err error) error {
	var (
		verr   *service.ValidationError
		capErr *service.CapacityError
		dupErr *service.AlreadyCheckedInError
	)
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Error(), "fields": verr.Fields})
	case errors.As(err, &capErr):
		return c.JSON(http.StatusConflict, echo.Map{"error": capErr.Error(), "detail": capErr.Error(), "remaining": capErr.Remaining})
	case errors.As(err, &dupErr):
		return c.JSON(http.StatusConflict, echo.Map{"error": dupErr.Error(), "detail": dupErr.Error()})
	case errors.Is(err, repository.ErrTicketNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Ticket not found."})
	case errors.Is(err, service.ErrNoReceipt):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "No receipt uploaded for this ticket."})
	}
	log.WithError(err).WithField("path", c.Request().URL.Path).Error("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}

// badBody answers a body that could not be decoded.
func badBody(c echo.Context) error {
	return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid request body"})
}
