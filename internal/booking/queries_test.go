package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

func TestQueries_UserBookings(t *testing.T) {
	ctx := context.Background()
	store, showID := newShow(t, 200, 10)
	c := NewCoordinator(store)
	q := NewQueries(store, store)

	_, err := c.Reserve(ctx, Request{UserID: 5, ShowID: showID, Seats: []string{"B1", "B2"}})
	require.NoError(t, err)

	views, err := q.UserBookings(ctx, 5)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Arrival", views[0].Show.MovieTitle)
	assert.Equal(t, "Rex", views[0].Show.TheaterName)
	assert.Equal(t, "19:30", views[0].Show.ShowTime)
	assert.Equal(t, []string{"B1", "B2"}, views[0].Seats)

	views, err = q.UserBookings(ctx, 6)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestQueries_ShowBookings_Access(t *testing.T) {
	ctx := context.Background()
	store, showID := newShow(t, 200, 10)
	c := NewCoordinator(store)
	q := NewQueries(store, store)

	_, err := c.Reserve(ctx, Request{UserID: 5, ShowID: showID, Seats: []string{"B1"}})
	require.NoError(t, err)

	_, list, err := q.ShowBookings(ctx, model.Identity{UserID: 900, Role: model.RoleTheaterOwner}, showID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, list, err = q.ShowBookings(ctx, model.Identity{UserID: 1, Role: model.RoleAdmin}, showID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, _, err = q.ShowBookings(ctx, model.Identity{UserID: 901, Role: model.RoleTheaterOwner}, showID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, _, err = q.ShowBookings(ctx, model.Identity{UserID: 1, Role: model.RoleAdmin}, showID+1)
	assert.ErrorIs(t, err, ErrShowNotFound)
}

func TestQueries_ShowAvailability(t *testing.T) {
	ctx := context.Background()
	store, showID := newShow(t, 200, 10)
	c := NewCoordinator(store)
	q := NewQueries(store, store)

	_, err := c.Reserve(ctx, Request{UserID: 5, ShowID: showID, Seats: []string{"B1", "B2", "B3"}})
	require.NoError(t, err)

	a, err := q.ShowAvailability(ctx, showID)
	require.NoError(t, err)
	assert.Equal(t, 7, a.Available)
	assert.Equal(t, []string{"B1", "B2", "B3"}, a.Show.BookedSeats)

	store2, unlimited := newShow(t, 200, 0)
	a, err = NewQueries(store2, store2).ShowAvailability(ctx, unlimited)
	require.NoError(t, err)
	assert.Equal(t, -1, a.Available)
}
