package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ShowRepo manages persistence for shows and their booked seat ledger.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo {
	return &ShowRepo{db: db}
}

// DB exposes the underlying sql.DB so callers can begin transactions
// spanning multiple repositories.
func (r *ShowRepo) DB() *sql.DB {
	return r.db
}

const showColumns = `s.id, s.movie_id, s.theater_id, s.show_date, s.show_time, s.price_cents,
	t.total_seats, s.created_at, s.updated_at`

func scanShow(row interface{ Scan(...any) error }, s *model.Show) error {
	return row.Scan(&s.ID, &s.MovieID, &s.TheaterID, &s.ShowDate, &s.ShowTime, &s.PriceCents,
		&s.Capacity, &s.CreatedAt, &s.UpdatedAt)
}

// GetForUpdateTx loads a show and locks its row until tx ends.  Every
// writer of a show's seats goes through this lock, which serializes
// reservations per show.  The booked seat set is loaded after the lock is
// held.
func (r *ShowRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Show, error) {
	q := `SELECT ` + showColumns + `
		FROM shows s JOIN theaters t ON t.id = s.theater_id
		WHERE s.id = ? FOR UPDATE`
	var s model.Show
	if err := scanShow(tx.QueryRowContext(ctx, q, id), &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowNotFound
		}
		return nil, err
	}
	seats, err := r.bookedSeats(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	s.BookedSeats = seats
	return &s, nil
}

// GetDetail returns a show joined with its movie and theater.  It returns
// ErrShowNotFound if there is no matching row.
func (r *ShowRepo) GetDetail(ctx context.Context, id uint64) (*model.ShowDetail, error) {
	q := `SELECT ` + showColumns + `, m.title, m.poster_url, t.name, t.location, t.owner_id
		FROM shows s
		JOIN theaters t ON t.id = s.theater_id
		JOIN movies m ON m.id = s.movie_id
		WHERE s.id = ?`
	var d model.ShowDetail
	s := &d.Show
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.MovieID, &s.TheaterID, &s.ShowDate, &s.ShowTime,
		&s.PriceCents, &s.Capacity, &s.CreatedAt, &s.UpdatedAt,
		&d.MovieTitle, &d.PosterURL, &d.TheaterName, &d.TheaterLocation, &d.TheaterOwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowNotFound
		}
		return nil, err
	}
	seats, err := r.bookedSeats(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	d.BookedSeats = seats
	return &d, nil
}

// bookedSeats returns the show's booked labels in the order they were sold.
func (r *ShowRepo) bookedSeats(ctx context.Context, q querier, showID uint64) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT seat_label FROM show_booked_seats WHERE show_id = ? ORDER BY created_at, booking_id, seat_label`, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]string, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// MarkSeatsTakenTx appends labels to the show's ledger in one statement.
// A label that is already booked fails the whole insert with ErrConflict.
// Passing an empty slice has no effect.
func (r *ShowRepo) MarkSeatsTakenTx(ctx context.Context, tx *sql.Tx, showID, bookingID uint64, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO show_booked_seats (show_id, seat_label, booking_id) VALUES `)
	args := make([]any, 0, len(labels)*3)
	for i, l := range labels {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?)")
		args = append(args, showID, l, bookingID)
	}
	if _, err := tx.ExecContext(ctx, b.String(), args...); err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// TakenSeatsTx returns the labels of the show's ledger that are among
// labels, in the order of labels.
func (r *ShowRepo) TakenSeatsTx(ctx context.Context, tx *sql.Tx, showID uint64, labels []string) ([]string, error) {
	if len(labels) == 0 {
		return nil, nil
	}
	q := `SELECT seat_label FROM show_booked_seats WHERE show_id = ? AND seat_label IN (?` +
		strings.Repeat(", ?", len(labels)-1) + `)`
	args := make([]any, 0, len(labels)+1)
	args = append(args, showID)
	for _, l := range labels {
		args = append(args, l)
	}
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	found := make(map[string]bool, len(labels))
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		found[s] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	var out []string
	for _, l := range labels {
		if found[l] {
			out = append(out, l)
		}
	}
	return out, nil
}

// CreateMovie, CreateTheater and Create insert catalog rows.  The catalog
// is owned by another service; these exist for seeding and tests.
func (r *ShowRepo) CreateMovie(ctx context.Context, m *model.Movie) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO movies (title, poster_url) VALUES (?, ?)`, m.Title, m.PosterURL)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

func (r *ShowRepo) CreateTheater(ctx context.Context, t *model.Theater) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO theaters (owner_id, name, location, total_seats) VALUES (?, ?, ?, ?)`,
		t.OwnerID, t.Name, t.Location, t.TotalSeats)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

func (r *ShowRepo) Create(ctx context.Context, s *model.Show) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO shows (movie_id, theater_id, show_date, show_time, price_cents) VALUES (?, ?, ?, ?, ?)`,
		s.MovieID, s.TheaterID, s.ShowDate.Format("2006-01-02"), s.ShowTime, s.PriceCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}
