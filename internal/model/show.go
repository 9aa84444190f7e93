package model

import "time"

// Show represents a scheduled screening of a movie in a theater.
// BookedSeats is the set of seat labels already sold for the show; it
// never contains duplicates and only grows.
//
// Fields:
//  ID          – primary key identifier.
//  MovieID     – movie being screened.
//  TheaterID   – theater hosting the screening.
//  ShowDate    – calendar date of the screening (UTC midnight).
//  ShowTime    – local start time as "HH:MM".
//  PriceCents  – price per seat in cents.
//  Capacity    – total seats of the theater, 0 when unknown.
//  BookedSeats – seat labels taken by any booking.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Show struct {
	ID          uint64    // shows.id
	MovieID     uint64    // shows.movie_id
	TheaterID   uint64    // shows.theater_id
	ShowDate    time.Time // shows.show_date
	ShowTime    string    // shows.show_time
	PriceCents  uint32    // shows.price_cents
	Capacity    uint32    // theaters.total_seats
	BookedSeats []string  // show_booked_seats.seat_label
	CreatedAt   time.Time // shows.created_at
	UpdatedAt   time.Time // shows.updated_at
}

// ShowDetail joins a show with the display fields of its movie and
// theater.  It is read-only catalog data used for listings.
type ShowDetail struct {
	Show
	MovieTitle      string
	PosterURL       string
	TheaterName     string
	TheaterLocation string
	TheaterOwnerID  uint64
}
