package handler

import (
	"time"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// BookingResponse is the public shape of a booking.
type BookingResponse struct {
	ID              uint64    `json:"id"`
	UserID          uint64    `json:"user_id"`
	ShowID          uint64    `json:"show_id"`
	Seats           []string  `json:"seats"`
	TotalPriceCents uint32    `json:"total_price_cents"`
	PaymentStatus   string    `json:"payment_status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type MovieSummary struct {
	ID        uint64 `json:"id"`
	Title     string `json:"title"`
	PosterURL string `json:"poster_url,omitempty"`
}

type TheaterSummary struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

// ShowSummary is a show with its movie and theater, without seat data.
type ShowSummary struct {
	ID         uint64         `json:"id"`
	Date       string         `json:"date,omitempty"`
	Time       string         `json:"time"`
	PriceCents uint32         `json:"price_cents"`
	Movie      MovieSummary   `json:"movie"`
	Theater    TheaterSummary `json:"theater"`
}

// MyBookingResponse is one entry of GET /v1/bookings/me.
type MyBookingResponse struct {
	BookingResponse
	Show ShowSummary `json:"show"`
}

// ShowAvailabilityResponse is the public seat map of a show.
type ShowAvailabilityResponse struct {
	ShowSummary
	Capacity    uint32   `json:"capacity"`
	BookedSeats []string `json:"booked_seats"`
	Available   *int     `json:"available,omitempty"`
}

func toBookingResponse(b *model.Booking) BookingResponse {
	seats := b.Seats
	if seats == nil {
		seats = []string{}
	}
	return BookingResponse{
		ID:              b.ID,
		UserID:          b.UserID,
		ShowID:          b.ShowID,
		Seats:           seats,
		TotalPriceCents: b.TotalPriceCents,
		PaymentStatus:   string(b.PaymentStatus),
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func toShowSummary(d *model.ShowDetail) ShowSummary {
	s := ShowSummary{
		ID:         d.ID,
		Time:       d.ShowTime,
		PriceCents: d.PriceCents,
		Movie:      MovieSummary{ID: d.MovieID, Title: d.MovieTitle, PosterURL: d.PosterURL},
		Theater:    TheaterSummary{ID: d.TheaterID, Name: d.TheaterName, Location: d.TheaterLocation},
	}
	if !d.ShowDate.IsZero() {
		s.Date = d.ShowDate.Format("2006-01-02")
	}
	return s
}
