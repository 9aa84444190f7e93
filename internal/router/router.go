package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-ticket-booking/internal/handler"
	"github.com/iliyamo/movie-ticket-booking/internal/middleware"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// RegisterRoutes registers the unauthenticated probe endpoints.  ready may
// be nil, in which case /readyz is not mounted.
func RegisterRoutes(e *echo.Echo, ready *handler.ReadyHandler) {
	e.GET("/healthz", handler.Health)
	if ready != nil {
		e.GET("/readyz", ready.Ready)
	}
}

// RegisterPublic registers guest browse endpoints.  Responses pass through
// the Redis response cache when cache is non-nil; the booking flow
// invalidates a show's entry after every committed reservation.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache *middleware.ResponseCache) {
	var mws []echo.MiddlewareFunc
	if cache != nil {
		mws = append(mws, cache.Middleware())
	}
	e.GET("/v1/shows/:id", p.GetShow, mws...)
}

// RegisterCustomer registers the booking endpoints for end users.  All
// routes require a valid JWT with the user role and are rate limited per
// user and route.
func RegisterCustomer(e *echo.Echo, b *handler.BookingHandler, p *handler.PaymentHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	mws := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser),
	}
	if limiter != nil {
		mws = append(mws, limiter)
	}
	g := e.Group("/v1", mws...)
	g.POST("/bookings", b.CreateBooking)
	g.GET("/bookings/me", b.ListMyBookings)
	g.POST("/payments/checkout", p.Checkout)
}

// RegisterStaff registers read-only booking views for admins and theater
// owners.  Ownership of the show's theater is checked in the handler.
func RegisterStaff(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleTheaterOwner),
	)
	g.GET("/shows/:id/bookings", b.ListShowBookings)
}

// RegisterPayments registers the gateway callback.  It carries no bearer
// token; the signed checkout state identifies the payer.
func RegisterPayments(e *echo.Echo, p *handler.PaymentHandler) {
	e.POST("/v1/payments/callback", p.Callback)
}
