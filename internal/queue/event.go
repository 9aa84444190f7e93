// Package queue carries booking events over RabbitMQ.
package queue

// BookingConfirmedQueue is the durable queue booking events are published to.
const BookingConfirmedQueue = "booking.confirmed"

// BookingConfirmedEvent is published after a reservation commits.  It
// carries enough context for consumers to log or notify without querying
// the booking database.
type BookingConfirmedEvent struct {
	BookingID       uint64   `json:"booking_id"`
	UserID          uint64   `json:"user_id"`
	ShowID          uint64   `json:"show_id"`
	MovieTitle      string   `json:"movie_title"`
	TheaterName     string   `json:"theater_name"`
	ShowDate        string   `json:"show_date"`
	ShowTime        string   `json:"show_time"`
	Seats           []string `json:"seats"`
	NewSeats        int      `json:"new_seats"`
	TotalPriceCents uint32   `json:"total_price_cents"`
	PaymentStatus   string   `json:"payment_status"`
	CorrelationID   string   `json:"correlation_id,omitempty"`
	ConfirmedAt     string   `json:"confirmed_at"`
}
