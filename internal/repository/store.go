package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/movie-ticket-booking/internal/booking"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// Store is the MySQL booking.Store.  Each scope is one transaction that
// starts by locking the show row with SELECT ... FOR UPDATE.
type Store struct {
	shows    *ShowRepo
	bookings *BookingRepo
}

func NewStore(shows *ShowRepo, bookings *BookingRepo) *Store {
	return &Store{shows: shows, bookings: bookings}
}

func (s *Store) WithShow(ctx context.Context, showID uint64, fn func(ctx context.Context, tx booking.Tx) error) error {
	tx, err := s.shows.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	show, err := s.shows.GetForUpdateTx(ctx, tx, showID)
	if err != nil {
		if errors.Is(err, ErrShowNotFound) {
			return booking.ErrShowNotFound
		}
		return err
	}
	if err := fn(ctx, &storeTx{store: s, tx: tx, show: show}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) GetShowDetail(ctx context.Context, showID uint64) (*model.ShowDetail, error) {
	d, err := s.shows.GetDetail(ctx, showID)
	if errors.Is(err, ErrShowNotFound) {
		return nil, booking.ErrShowNotFound
	}
	return d, err
}

func (s *Store) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

func (s *Store) ListByShow(ctx context.Context, showID uint64) ([]model.Booking, error) {
	return s.bookings.ListByShow(ctx, showID)
}

type storeTx struct {
	store *Store
	tx    *sql.Tx
	show  *model.Show
}

func (t *storeTx) Show() *model.Show { return t.show }

func (t *storeTx) FindBooking(ctx context.Context, userID uint64) (*model.Booking, error) {
	return t.store.bookings.FindByUserTx(ctx, t.tx, userID, t.show.ID)
}

func (t *storeTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	return t.store.bookings.CreateTx(ctx, t.tx, b)
}

func (t *storeTx) UpdateBooking(ctx context.Context, b *model.Booking) error {
	return t.store.bookings.UpdateSeatsTx(ctx, t.tx, b)
}

func (t *storeTx) MarkSeatsTaken(ctx context.Context, bookingID uint64, labels []string) error {
	err := t.store.shows.MarkSeatsTakenTx(ctx, t.tx, t.show.ID, bookingID, labels)
	if errors.Is(err, ErrConflict) {
		// InnoDB rolls back only the failed statement; the tx stays usable
		taken, qerr := t.store.shows.TakenSeatsTx(ctx, t.tx, t.show.ID, labels)
		if qerr != nil || len(taken) == 0 {
			taken = labels
		}
		return &booking.SeatConflictError{Seats: taken}
	}
	if err != nil {
		return err
	}
	t.show.BookedSeats = append(t.show.BookedSeats, labels...)
	return nil
}
