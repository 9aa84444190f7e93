package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-ticket-booking/internal/payment"
)

// PaymentHandler exposes checkout and the gateway callback.
type PaymentHandler struct {
	Bridge *payment.Bridge
}

func NewPaymentHandler(b *payment.Bridge) *PaymentHandler {
	return &PaymentHandler{Bridge: b}
}

type checkoutRequest struct {
	ShowID uint64   `json:"show_id" validate:"required"`
	Seats  []string `json:"seats" validate:"required,min=1,max=50,dive,required,max=32"`
}

// Checkout handles POST /v1/payments/checkout.
func (h *PaymentHandler) Checkout(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, err.Error())
	}
	co, err := h.Bridge.StartCheckout(c.Request().Context(), user.UserID, req.ShowID, req.Seats)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"session_id":   co.SessionID,
		"state":        co.State,
		"amount_cents": co.AmountCents,
		"seats":        co.Seats,
		"success_url":  co.SuccessURL,
		"cancel_url":   co.CancelURL,
		"expires_at":   co.ExpiresAt.Format(time.RFC3339),
	})
}

type callbackRequest struct {
	State  string `json:"state" query:"state" form:"state" validate:"required"`
	Status string `json:"status" query:"status" form:"status" validate:"omitempty,oneof=paid failed"`
}

// Callback handles POST /v1/payments/callback from the payment gateway.
// Identity comes from the signed state, not from a bearer token.  Any 5xx
// answer tells the gateway to retry; retries are safe because a repeated
// confirmation adds no seats.
func (h *PaymentHandler) Callback(c echo.Context) error {
	var req callbackRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, err.Error())
	}
	res, err := h.Bridge.HandleCallback(c.Request().Context(), req.State, req.Status)
	if err != nil {
		return writeError(c, err)
	}
	if res == nil {
		return c.JSON(http.StatusOK, echo.Map{"status": "ignored", "message": "payment not successful, nothing reserved"})
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	return c.JSON(status, echo.Map{
		"status":          "confirmed",
		"booking":         toBookingResponse(res.Booking),
		"new_seats_added": res.NewSeatsAdded,
		"message":         res.Message(),
	})
}
