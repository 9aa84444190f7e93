package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-ticket-booking/internal/booking"
)

// BookingHandler serves seat reservations and booking listings.
type BookingHandler struct {
	Coordinator *booking.Coordinator
	Queries     *booking.Queries
}

func NewBookingHandler(coord *booking.Coordinator, queries *booking.Queries) *BookingHandler {
	if coord == nil || queries == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Coordinator: coord, Queries: queries}
}

type createBookingRequest struct {
	ShowID uint64   `json:"show_id" validate:"required"`
	Seats  []string `json:"seats" validate:"required,min=1,max=50,dive,required,max=32"`
}

// CreateBooking handles POST /v1/bookings.  It responds 201 when a new
// booking is created and 200 when seats were merged into the caller's
// existing booking for the show (including the case where nothing new was
// added).
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, err.Error())
	}

	res, err := h.Coordinator.Reserve(c.Request().Context(), booking.Request{
		UserID: user.UserID,
		ShowID: req.ShowID,
		Seats:  req.Seats,
	})
	if err != nil {
		return writeError(c, err)
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	return c.JSON(status, echo.Map{
		"booking":         toBookingResponse(res.Booking),
		"new_seats_added": res.NewSeatsAdded,
		"message":         res.Message(),
	})
}

// ListMyBookings handles GET /v1/bookings/me.
func (h *BookingHandler) ListMyBookings(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	views, err := h.Queries.UserBookings(c.Request().Context(), user.UserID)
	if err != nil {
		return writeError(c, err)
	}
	items := make([]MyBookingResponse, 0, len(views))
	for i := range views {
		items = append(items, MyBookingResponse{
			BookingResponse: toBookingResponse(&views[i].Booking),
			Show:            toShowSummary(&views[i].Show),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// ListShowBookings handles GET /v1/shows/:id/bookings for admins and the
// owner of the show's theater.
func (h *BookingHandler) ListShowBookings(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid show id")
	}
	detail, list, err := h.Queries.ShowBookings(c.Request().Context(), user, showID)
	if err != nil {
		return writeError(c, err)
	}
	items := make([]BookingResponse, 0, len(list))
	for i := range list {
		items = append(items, toBookingResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"show":         toShowSummary(detail),
		"booked_seats": nonNil(detail.BookedSeats),
		"items":        items,
		"count":        len(items),
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
