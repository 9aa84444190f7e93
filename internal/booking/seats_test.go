package booking

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSeats(t *testing.T) {
	got, err := NormalizeSeats([]string{" A1", "B2 ", "C3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B2", "C3"}, got)

	_, err = NormalizeSeats(nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NormalizeSeats([]string{"A1", " A1 "})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUnion(t *testing.T) {
	merged, added := Union([]string{"S1", "S3"}, []string{"S3", "S5", "S2"})
	assert.Equal(t, []string{"S1", "S3", "S5", "S2"}, merged)
	assert.Equal(t, []string{"S5", "S2"}, added)

	merged, added = Union([]string{"S1"}, []string{"S1"})
	assert.Equal(t, []string{"S1"}, merged)
	assert.Empty(t, added)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindSeatConflict, KindOf(&SeatConflictError{Seats: []string{"S1"}}))
	assert.Equal(t, KindForbidden, KindOf(ErrForbidden))
	assert.Equal(t, KindServer, KindOf(assert.AnError))
	assert.Equal(t, "seats already booked: S1, S2", (&SeatConflictError{Seats: []string{"S1", "S2"}}).Error())
}

func TestTotalPrice(t *testing.T) {
	got, err := TotalPrice(3, 250)
	require.NoError(t, err)
	assert.Equal(t, uint32(750), got)

	got, err = TotalPrice(1, math.MaxUint32)
	require.NoError(t, err)
	assert.Equal(t, uint32(math.MaxUint32), got)

	_, err = TotalPrice(2, math.MaxUint32)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = TotalPrice(65537, 65536)
	assert.ErrorIs(t, err, ErrValidation)
}
