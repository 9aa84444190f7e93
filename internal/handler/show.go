package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-ticket-booking/internal/booking"
)

// PublicHandler serves unauthenticated show browsing.
type PublicHandler struct {
	Queries *booking.Queries
}

func NewPublicHandler(queries *booking.Queries) *PublicHandler {
	return &PublicHandler{Queries: queries}
}

// GetShow handles GET /v1/shows/:id.  The seat map is advisory; a later
// booking request may still conflict.
func (h *PublicHandler) GetShow(c echo.Context) error {
	showID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid show id")
	}
	a, err := h.Queries.ShowAvailability(c.Request().Context(), showID)
	if err != nil {
		return writeError(c, err)
	}
	resp := ShowAvailabilityResponse{
		ShowSummary: toShowSummary(&a.Show),
		Capacity:    a.Show.Capacity,
		BookedSeats: nonNil(a.Show.BookedSeats),
	}
	if a.Available >= 0 {
		avail := a.Available
		resp.Available = &avail
	}
	return c.JSON(http.StatusOK, resp)
}
