package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// BookingRepo provides persistence for bookings.  A booking's seats are
// stored as a JSON array on the row; the per-seat ledger lives in
// show_booked_seats and is written through ShowRepo.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, user_id, show_id, seats, total_price_cents, payment_status, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
	var (
		b     model.Booking
		seats []byte
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.ShowID, &seats, &b.TotalPriceCents, &b.PaymentStatus, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(seats, &b.Seats); err != nil {
		return nil, fmt.Errorf("decode seats of booking %d: %w", b.ID, err)
	}
	return &b, nil
}

// FindByUserTx returns the user's booking for a show or (nil, nil).
func (r *BookingRepo) FindByUserTx(ctx context.Context, tx *sql.Tx, userID, showID uint64) (*model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? AND show_id = ?`
	b, err := scanBooking(tx.QueryRowContext(ctx, q, userID, showID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

// CreateTx inserts b within tx and populates its ID and timestamps.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	seats, err := json.Marshal(b.Seats)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (user_id, show_id, seats, total_price_cents, payment_status) VALUES (?, ?, ?, ?, ?)`,
		b.UserID, b.ShowID, seats, b.TotalPriceCents, b.PaymentStatus)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return tx.QueryRowContext(ctx, `SELECT created_at, updated_at FROM bookings WHERE id = ?`, b.ID).
		Scan(&b.CreatedAt, &b.UpdatedAt)
}

// UpdateSeatsTx rewrites the seat list and total of b.
func (r *BookingRepo) UpdateSeatsTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	seats, err := json.Marshal(b.Seats)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET seats = ?, total_price_cents = ?, payment_status = ? WHERE id = ?`,
		seats, b.TotalPriceCents, b.PaymentStatus, b.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrBookingNotFound
	}
	return tx.QueryRowContext(ctx, `SELECT updated_at FROM bookings WHERE id = ?`, b.ID).Scan(&b.UpdatedAt)
}

// ListByUser returns the user's bookings, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
}

// ListByShow returns a show's bookings in creation order.
func (r *BookingRepo) ListByShow(ctx context.Context, showID uint64) ([]model.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE show_id = ? ORDER BY id`, showID)
}

func (r *BookingRepo) list(ctx context.Context, q string, arg uint64) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}
