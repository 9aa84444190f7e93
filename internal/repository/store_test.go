package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-ticket-booking/internal/booking"
	"github.com/iliyamo/movie-ticket-booking/internal/database"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// These tests need a disposable MySQL database, e.g.
// MYSQL_TEST_DSN="root:secret@tcp(localhost:3306)/booking_test?parseTime=true&loc=UTC"
func openTestStore(t *testing.T) (*Store, *ShowRepo) {
	t.Helper()
	dsn := os.Getenv("MYSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MYSQL_TEST_DSN not set")
	}
	db, err := database.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	shows := NewShowRepo(db)
	return NewStore(shows, NewBookingRepo(db)), shows
}

func seedShow(t *testing.T, shows *ShowRepo, price, capacity uint32) uint64 {
	t.Helper()
	ctx := context.Background()
	m := model.Movie{Title: fmt.Sprintf("movie-%d", time.Now().UnixNano())}
	require.NoError(t, shows.CreateMovie(ctx, &m))
	th := model.Theater{OwnerID: 77, Name: "Grand", Location: "Center", TotalSeats: capacity}
	require.NoError(t, shows.CreateTheater(ctx, &th))
	s := model.Show{MovieID: m.ID, TheaterID: th.ID, ShowDate: time.Now().UTC(), ShowTime: "20:00", PriceCents: price}
	require.NoError(t, shows.Create(ctx, &s))
	return s.ID
}

func TestStore_ReserveScenario(t *testing.T) {
	store, shows := openTestStore(t)
	showID := seedShow(t, shows, 200, 0)
	ctx := context.Background()
	c := booking.NewCoordinator(store)

	res, err := c.Reserve(ctx, booking.Request{UserID: 1, ShowID: showID, Seats: []string{"S1", "S3"}})
	require.NoError(t, err)
	assert.Equal(t, uint32(400), res.Booking.TotalPriceCents)

	_, err = c.Reserve(ctx, booking.Request{UserID: 2, ShowID: showID, Seats: []string{"S3", "S4"}})
	require.ErrorIs(t, err, booking.ErrSeatConflict)
	assert.Equal(t, []string{"S3"}, booking.ConflictSeats(err))

	res, err = c.Reserve(ctx, booking.Request{UserID: 1, ShowID: showID, Seats: []string{"S3", "S5"}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.NewSeatsAdded)
	assert.Equal(t, []string{"S1", "S3", "S5"}, res.Booking.Seats)
	assert.Equal(t, uint32(600), res.Booking.TotalPriceCents)

	d, err := store.GetShowDetail(ctx, showID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"S1", "S3", "S5"}, d.BookedSeats)
	assert.Equal(t, uint64(77), d.TheaterOwnerID)

	list, err := store.ListByShow(ctx, showID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.PaymentPaid, list[0].PaymentStatus)
}

func TestStore_ConcurrentSingleSeat(t *testing.T) {
	store, shows := openTestStore(t)
	showID := seedShow(t, shows, 100, 0)
	c := booking.NewCoordinator(store)

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(user uint64) {
			defer wg.Done()
			_, err := c.Reserve(context.Background(), booking.Request{UserID: user, ShowID: showID, Seats: []string{"A1"}})
			errs <- err
		}(uint64(i + 100))
	}
	wg.Wait()
	close(errs)

	var ok int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.True(t, errors.Is(err, booking.ErrSeatConflict), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, ok)
}

func TestStore_UnknownShow(t *testing.T) {
	store, _ := openTestStore(t)

	err := store.WithShow(context.Background(), 1<<40, func(context.Context, booking.Tx) error { return nil })
	assert.ErrorIs(t, err, booking.ErrShowNotFound)

	_, err = store.GetShowDetail(context.Background(), 1<<40)
	assert.ErrorIs(t, err, booking.ErrShowNotFound)
}

func TestStore_RollbackOnError(t *testing.T) {
	store, shows := openTestStore(t)
	showID := seedShow(t, shows, 100, 0)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.WithShow(ctx, showID, func(ctx context.Context, tx booking.Tx) error {
		b := &model.Booking{UserID: 9, ShowID: showID, Seats: []string{"Z1"}, PaymentStatus: model.PaymentPaid}
		require.NoError(t, tx.InsertBooking(ctx, b))
		require.NoError(t, tx.MarkSeatsTaken(ctx, b.ID, b.Seats))
		return boom
	})
	require.ErrorIs(t, err, boom)

	d, err := store.GetShowDetail(ctx, showID)
	require.NoError(t, err)
	assert.Empty(t, d.BookedSeats)
	list, err := store.ListByUser(ctx, 9)
	require.NoError(t, err)
	for _, b := range list {
		assert.NotEqual(t, showID, b.ShowID)
	}
}

func TestStore_SeatLabelsAreCaseSensitive(t *testing.T) {
	store, shows := openTestStore(t)
	showID := seedShow(t, shows, 100, 0)
	ctx := context.Background()
	c := booking.NewCoordinator(store)

	_, err := c.Reserve(ctx, booking.Request{UserID: 1, ShowID: showID, Seats: []string{"S1"}})
	require.NoError(t, err)
	_, err = c.Reserve(ctx, booking.Request{UserID: 2, ShowID: showID, Seats: []string{"s1"}})
	require.NoError(t, err)
	res, err := c.Reserve(ctx, booking.Request{UserID: 1, ShowID: showID, Seats: []string{"S1", "s2"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "s2"}, res.Booking.Seats)

	d, err := store.GetShowDetail(ctx, showID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"S1", "s1", "s2"}, d.BookedSeats)
}

func TestStore_MarkSeatsTakenNamesOnlyCollidingSeats(t *testing.T) {
	store, shows := openTestStore(t)
	showID := seedShow(t, shows, 100, 0)
	ctx := context.Background()

	_, err := booking.NewCoordinator(store).Reserve(ctx, booking.Request{UserID: 1, ShowID: showID, Seats: []string{"Q2"}})
	require.NoError(t, err)

	err = store.WithShow(ctx, showID, func(ctx context.Context, tx booking.Tx) error {
		b := &model.Booking{UserID: 2, ShowID: showID, Seats: []string{"Q1", "Q2", "Q3"}, PaymentStatus: model.PaymentPaid}
		require.NoError(t, tx.InsertBooking(ctx, b))
		return tx.MarkSeatsTaken(ctx, b.ID, b.Seats)
	})
	require.ErrorIs(t, err, booking.ErrSeatConflict)
	assert.Equal(t, []string{"Q2"}, booking.ConflictSeats(err))

	d, err := store.GetShowDetail(ctx, showID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Q2"}, d.BookedSeats)
}
