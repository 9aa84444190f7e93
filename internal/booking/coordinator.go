package booking

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-ticket-booking/internal/log"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// Request asks for seats on a show on behalf of an authenticated user.
type Request struct {
	UserID uint64
	ShowID uint64
	Seats  []string
}

// Result is the outcome of a successful reservation.
type Result struct {
	Booking       *model.Booking
	NewSeatsAdded int
	Created       bool
}

func (r *Result) Message() string {
	if r.Created {
		return fmt.Sprintf("Booking created with %d seat(s).", r.NewSeatsAdded)
	}
	return fmt.Sprintf("Booking updated with %d new seat(s).", r.NewSeatsAdded)
}

// Quote is the advisory price of a request, computed without writing.
type Quote struct {
	Show        model.Show
	Seats       []string
	AmountCents uint32
}

// Notifier is told about every committed reservation that changed storage.
// It must not fail the request; implementations log their own errors.
type Notifier interface {
	BookingCommitted(ctx context.Context, res *Result)
}

type NotifierFunc func(ctx context.Context, res *Result)

func (f NotifierFunc) BookingCommitted(ctx context.Context, res *Result) { f(ctx, res) }

// Coordinator turns a seat request into a booking.  The conflict check
// and both writes run inside one Store scope, so concurrent requests for
// the same show are serialized and either fully apply or leave no trace.
type Coordinator struct {
	store     Store
	notifiers []Notifier
}

func NewCoordinator(store Store, notifiers ...Notifier) *Coordinator {
	return &Coordinator{store: store, notifiers: notifiers}
}

// AddNotifier registers n for subsequent reservations.  Not safe to call
// concurrently with Reserve.
func (c *Coordinator) AddNotifier(n Notifier) {
	c.notifiers = append(c.notifiers, n)
}

// Reserve books req.Seats for req.UserID.  Seats the user already holds
// are not conflicts; they are merged and not charged twice.
func (c *Coordinator) Reserve(ctx context.Context, req Request) (*Result, error) {
	seats, err := validate(req)
	if err != nil {
		return nil, err
	}
	logger := log.FromContext(ctx).WithFields(logrus.Fields{
		"user_id": req.UserID,
		"show_id": req.ShowID,
	})

	var res *Result
	err = c.store.WithShow(ctx, req.ShowID, func(ctx context.Context, tx Tx) error {
		inv := NewInventory(tx)
		ledger := NewLedger(tx)

		existing, err := ledger.FindBooking(ctx, req.UserID)
		if err != nil {
			return serverErr("find booking", err)
		}
		var own []string
		if existing != nil {
			own = existing.Seats
		}
		fresh := missing(seats, own)
		if taken := inv.Taken(fresh); len(taken) > 0 {
			return &SeatConflictError{Seats: taken}
		}
		if left := inv.Remaining(); left >= 0 && len(fresh) > left {
			return &SeatConflictError{
				Seats:  fresh,
				Reason: fmt.Sprintf("only %d seat(s) left", left),
			}
		}

		if existing == nil {
			b, err := ledger.CreateBooking(ctx, req.UserID, seats)
			if err != nil {
				return serverErr("create booking", err)
			}
			if err := inv.MarkSeatsTaken(ctx, b.ID, seats); err != nil {
				return serverErr("mark seats", err)
			}
			res = &Result{Booking: b, NewSeatsAdded: len(seats), Created: true}
			return nil
		}

		added, err := ledger.MergeSeats(ctx, existing, seats)
		if err != nil {
			return serverErr("merge seats", err)
		}
		if err := inv.MarkSeatsTaken(ctx, existing.ID, added); err != nil {
			return serverErr("mark seats", err)
		}
		res = &Result{Booking: existing, NewSeatsAdded: len(added)}
		return nil
	})
	if err != nil {
		err = serverErr("reserve", err)
		if KindOf(err) == KindServer {
			logger.WithError(err).Error("reservation failed")
		} else {
			logger.WithError(err).Info("reservation rejected")
		}
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"booking_id": res.Booking.ID,
		"added":      res.NewSeatsAdded,
		"created":    res.Created,
	}).Info("reservation committed")

	if res.NewSeatsAdded > 0 {
		for _, n := range c.notifiers {
			n.BookingCommitted(ctx, res)
		}
	}
	return res, nil
}

// Quote validates req and checks it against the current seat map without
// writing.  The answer is advisory: Reserve re-checks under the lock.
func (c *Coordinator) Quote(ctx context.Context, req Request) (*Quote, error) {
	seats, err := validate(req)
	if err != nil {
		return nil, err
	}
	var q *Quote
	err = c.store.WithShow(ctx, req.ShowID, func(ctx context.Context, tx Tx) error {
		inv := NewInventory(tx)
		existing, err := tx.FindBooking(ctx, req.UserID)
		if err != nil {
			return serverErr("find booking", err)
		}
		var own []string
		if existing != nil {
			own = existing.Seats
		}
		if taken := inv.Taken(missing(seats, own)); len(taken) > 0 {
			return &SeatConflictError{Seats: taken}
		}
		show := *tx.Show()
		show.BookedSeats = nil
		amount, err := TotalPrice(len(seats), show.PriceCents)
		if err != nil {
			return err
		}
		q = &Quote{Show: show, Seats: seats, AmountCents: amount}
		return nil
	})
	if err != nil {
		return nil, serverErr("quote", err)
	}
	return q, nil
}

func validate(req Request) ([]string, error) {
	if req.UserID == 0 {
		return nil, validationf("user id is required")
	}
	if req.ShowID == 0 {
		return nil, validationf("show id is required")
	}
	return NormalizeSeats(req.Seats)
}

// missing returns the labels of want not present in have.
func missing(want, have []string) []string {
	if len(have) == 0 {
		return want
	}
	set := seatSet(have)
	out := make([]string, 0, len(want))
	for _, s := range want {
		if _, ok := set[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}
