package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-ticket-booking/internal/booking"
	"github.com/iliyamo/movie-ticket-booking/internal/log"
	"github.com/iliyamo/movie-ticket-booking/internal/middleware"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

var errUnauthorized = errors.New("unauthorized")

// currentUser returns the identity set by middleware.JWTAuth.
func currentUser(c echo.Context) (model.Identity, error) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return model.Identity{}, errUnauthorized
	}
	return id, nil
}

// parseIDParam reads a positive numeric path parameter.
func parseIDParam(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

var kindStatus = map[booking.Kind]int{
	booking.KindValidation:   http.StatusBadRequest,
	booking.KindNotFound:     http.StatusNotFound,
	booking.KindSeatConflict: http.StatusConflict,
	booking.KindForbidden:    http.StatusForbidden,
	booking.KindServer:       http.StatusInternalServerError,
}

// writeError renders err as {"error": kind, "message": ...}.  Seat
// conflicts also list the seats; server errors hide their cause.
func writeError(c echo.Context, err error) error {
	kind := booking.KindOf(err)
	body := echo.Map{"error": kind, "message": err.Error()}
	switch kind {
	case booking.KindSeatConflict:
		if seats := booking.ConflictSeats(err); len(seats) > 0 {
			body["seats"] = seats
		}
	case booking.KindServer:
		log.FromContext(c.Request().Context()).WithError(err).Error("request failed")
		body["message"] = "internal error, please retry"
	}
	return c.JSON(kindStatus[kind], body)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": booking.KindValidation, "message": msg})
}
