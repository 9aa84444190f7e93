package booking

import (
	"context"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// Store opens serialized scopes over a single show.  While fn runs no other
// scope for the same show may observe or change its seats or bookings.
// When fn returns an error every change made through tx is discarded;
// otherwise all of them become visible together.
type Store interface {
	WithShow(ctx context.Context, showID uint64, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the view of one locked show.  Show returns the state loaded when
// the scope opened, including the booked seat set.
type Tx interface {
	Show() *model.Show
	// FindBooking returns (nil, nil) when the user has no booking for the show.
	FindBooking(ctx context.Context, userID uint64) (*model.Booking, error)
	// InsertBooking assigns ID and timestamps on b.
	InsertBooking(ctx context.Context, b *model.Booking) error
	UpdateBooking(ctx context.Context, b *model.Booking) error
	// MarkSeatsTaken appends labels to the show's booked set.  A label
	// already present yields a *SeatConflictError.
	MarkSeatsTaken(ctx context.Context, bookingID uint64, labels []string) error
}

// Catalog resolves shows for display.
type Catalog interface {
	GetShowDetail(ctx context.Context, showID uint64) (*model.ShowDetail, error)
}

// BookingFinder lists committed bookings.
type BookingFinder interface {
	ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error)
	ListByShow(ctx context.Context, showID uint64) ([]model.Booking, error)
}
