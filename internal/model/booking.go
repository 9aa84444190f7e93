package model

import "time"

// PaymentStatus is the payment state recorded on a booking.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Booking records the seats one user holds for one show.  There is at
// most one booking per (UserID, ShowID); later purchases by the same
// user for the same show are merged into it.
//
// Fields:
//  ID              – primary key identifier.
//  UserID          – user who owns the booking.
//  ShowID          – show being booked.
//  Seats           – seat labels in first-purchased order, no duplicates.
//  TotalPriceCents – len(Seats) × show price at the time of the last change.
//  PaymentStatus   – pending, paid or failed.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Booking struct {
	ID              uint64        // bookings.id
	UserID          uint64        // bookings.user_id
	ShowID          uint64        // bookings.show_id
	Seats           []string      // bookings.seats (JSON array)
	TotalPriceCents uint32        // bookings.total_price_cents
	PaymentStatus   PaymentStatus // bookings.payment_status
	CreatedAt       time.Time     // bookings.created_at
	UpdatedAt       time.Time     // bookings.updated_at
}

// BookingView is a booking resolved against the catalog for display.
type BookingView struct {
	Booking
	Show ShowDetail
}
