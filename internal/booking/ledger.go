package booking

import (
	"context"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// Ledger reads and writes the bookings of one show inside a Store scope.
type Ledger struct {
	tx   Tx
	show *model.Show
}

func NewLedger(tx Tx) *Ledger {
	return &Ledger{tx: tx, show: tx.Show()}
}

func (l *Ledger) FindBooking(ctx context.Context, userID uint64) (*model.Booking, error) {
	return l.tx.FindBooking(ctx, userID)
}

// CreateBooking stores a paid booking for seats, priced at the show's
// current seat price.
func (l *Ledger) CreateBooking(ctx context.Context, userID uint64, seats []string) (*model.Booking, error) {
	total, err := TotalPrice(len(seats), l.show.PriceCents)
	if err != nil {
		return nil, err
	}
	b := &model.Booking{
		UserID:          userID,
		ShowID:          l.show.ID,
		Seats:           append([]string(nil), seats...),
		TotalPriceCents: total,
		PaymentStatus:   model.PaymentPaid,
	}
	if err := l.tx.InsertBooking(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// MergeSeats adds to b the seats it does not hold yet, reprices the whole
// booking and persists it.  It returns the labels that were added; an
// empty result leaves storage untouched.
func (l *Ledger) MergeSeats(ctx context.Context, b *model.Booking, seats []string) ([]string, error) {
	merged, added := Union(b.Seats, seats)
	if len(added) == 0 {
		return nil, nil
	}
	total, err := TotalPrice(len(merged), l.show.PriceCents)
	if err != nil {
		return nil, err
	}
	b.Seats = merged
	b.TotalPriceCents = total
	if err := l.tx.UpdateBooking(ctx, b); err != nil {
		return nil, err
	}
	return added, nil
}
