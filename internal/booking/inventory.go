package booking

import (
	"context"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// Inventory tracks which seats of a show are taken.  It is only valid
// inside the Store scope it was created from.
type Inventory struct {
	tx    Tx
	show  *model.Show
	taken map[string]struct{}
}

func NewInventory(tx Tx) *Inventory {
	show := tx.Show()
	return &Inventory{tx: tx, show: show, taken: seatSet(show.BookedSeats)}
}

func (i *Inventory) IsSeatTaken(label string) bool {
	_, ok := i.taken[label]
	return ok
}

// Taken returns the labels that are already booked, in request order.
func (i *Inventory) Taken(labels []string) []string {
	var out []string
	for _, s := range labels {
		if i.IsSeatTaken(s) {
			out = append(out, s)
		}
	}
	return out
}

// Remaining reports how many more seats can be sold, or -1 when the show
// has no known capacity.
func (i *Inventory) Remaining() int {
	if i.show.Capacity == 0 {
		return -1
	}
	left := int(i.show.Capacity) - len(i.taken)
	if left < 0 {
		return 0
	}
	return left
}

// MarkSeatsTaken records labels as booked by bookingID.  Callers pass only
// seats that are not taken yet.
func (i *Inventory) MarkSeatsTaken(ctx context.Context, bookingID uint64, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	if taken := i.Taken(labels); len(taken) > 0 {
		return &SeatConflictError{Seats: taken}
	}
	if err := i.tx.MarkSeatsTaken(ctx, bookingID, labels); err != nil {
		return err
	}
	for _, s := range labels {
		i.taken[s] = struct{}{}
	}
	return nil
}
