package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinelog/internal/logging"
	"github.com/iliyamo/cinelog/internal/service"
	"github.com/iliyamo/cinelog/internal/validation"
)

// getUserID extracts the user_id set by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		if t != 0 {
			return t, nil
		}
	case int64:
		if t > 0 {
			return uint64(t), nil
		}
	case float64:
		if t > 0 {
			return uint64(t), nil
		}
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil && n != 0 {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// bindValid binds the request body into dst and runs struct validation.
// On failure it writes the 400 response and returns false.
func bindValid(c echo.Context, dst any) (bool, error) {
	if err := c.Bind(dst); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := validation.Struct(dst); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return true, nil
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

// respondError maps service errors onto HTTP statuses.  Messages of typed
// errors are shown to the client; anything else becomes a generic 500.
func respondError(c echo.Context, err error) error {
	var se *service.Error
	if errors.As(err, &se) {
		status := http.StatusInternalServerError
		switch se.Kind {
		case service.ErrValidation:
			status = http.StatusBadRequest
		case service.ErrNotFound:
			status = http.StatusNotFound
		case service.ErrConflict:
			status = http.StatusConflict
		case service.ErrUnauthorized:
			status = http.StatusUnauthorized
		case service.ErrUpstream:
			status = http.StatusBadGateway
			logging.Ctx(c.Request().Context()).Warn().Err(err).Msg("upstream failure")
		}
		return c.JSON(status, echo.Map{"error": se.Message})
	}
	logging.Ctx(c.Request().Context()).Error().Err(err).Str("route", c.Path()).Msg("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}
