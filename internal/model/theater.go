package model

import "time"

// Theater is a venue owned by a user with the theater_owner role.
// TotalSeats bounds how many seats a show in this theater can sell.
type Theater struct {
	ID         uint64    // theaters.id
	OwnerID    uint64    // theaters.owner_id
	Name       string    // theaters.name
	Location   string    // theaters.location
	TotalSeats uint32    // theaters.total_seats
	CreatedAt  time.Time // theaters.created_at
	UpdatedAt  time.Time // theaters.updated_at
}

// Movie holds the catalog fields shown next to a booking.
type Movie struct {
	ID        uint64 // movies.id
	Title     string // movies.title
	PosterURL string // movies.poster_url
}
