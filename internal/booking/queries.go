package booking

import (
	"context"
	"errors"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// Availability is the public, advisory seat map of a show.
type Availability struct {
	Show      model.ShowDetail
	Available int // -1 when the theater capacity is unknown
}

// Queries serves read-only views over the catalog and the ledger.
type Queries struct {
	catalog  Catalog
	bookings BookingFinder
}

func NewQueries(catalog Catalog, bookings BookingFinder) *Queries {
	return &Queries{catalog: catalog, bookings: bookings}
}

// UserBookings returns every booking of userID resolved against its show.
// Bookings whose show vanished from the catalog are returned with only the
// show ID set.
func (q *Queries) UserBookings(ctx context.Context, userID uint64) ([]model.BookingView, error) {
	if userID == 0 {
		return nil, validationf("user id is required")
	}
	bookings, err := q.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, serverErr("list bookings", err)
	}
	shows := make(map[uint64]*model.ShowDetail)
	out := make([]model.BookingView, 0, len(bookings))
	for _, b := range bookings {
		d, ok := shows[b.ShowID]
		if !ok {
			d, err = q.catalog.GetShowDetail(ctx, b.ShowID)
			if err != nil && !errors.Is(err, ErrShowNotFound) {
				return nil, serverErr("load show", err)
			}
			if d == nil {
				d = &model.ShowDetail{Show: model.Show{ID: b.ShowID}}
			}
			shows[b.ShowID] = d
		}
		out = append(out, model.BookingView{Booking: b, Show: *d})
	}
	return out, nil
}

// ShowBookings lists the bookings of a show for staff.  Theater owners only
// see shows in their own theaters; admins see everything.
func (q *Queries) ShowBookings(ctx context.Context, caller model.Identity, showID uint64) (*model.ShowDetail, []model.Booking, error) {
	d, err := q.catalog.GetShowDetail(ctx, showID)
	if err != nil {
		return nil, nil, serverErr("load show", err)
	}
	switch caller.Role {
	case model.RoleAdmin:
	case model.RoleTheaterOwner:
		if d.TheaterOwnerID != caller.UserID {
			return nil, nil, ErrForbidden
		}
	default:
		return nil, nil, ErrForbidden
	}
	list, err := q.bookings.ListByShow(ctx, showID)
	if err != nil {
		return nil, nil, serverErr("list bookings", err)
	}
	return d, list, nil
}

// ShowAvailability reports the booked seats of a show and how many remain.
func (q *Queries) ShowAvailability(ctx context.Context, showID uint64) (*Availability, error) {
	d, err := q.catalog.GetShowDetail(ctx, showID)
	if err != nil {
		return nil, serverErr("load show", err)
	}
	avail := -1
	if d.Capacity > 0 {
		avail = int(d.Capacity) - len(d.BookedSeats)
		if avail < 0 {
			avail = 0
		}
	}
	return &Availability{Show: *d, Available: avail}, nil
}
