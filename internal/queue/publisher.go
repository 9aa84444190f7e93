package queue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-ticket-booking/internal/booking"
	"github.com/iliyamo/movie-ticket-booking/internal/log"
)

const publishTimeout = 5 * time.Second

// Publisher sends BookingConfirmedEvents to RabbitMQ.  It implements
// booking.Notifier; publishing happens off the request path and failures
// are only logged.
type Publisher struct {
	url     string
	catalog booking.Catalog
	publish func(ctx context.Context, ev BookingConfirmedEvent) error
	pending sync.WaitGroup
}

// NewPublisher returns a Publisher for the broker at url.  catalog is used
// to add movie and theater names to events and may be nil.
func NewPublisher(url string, catalog booking.Catalog) *Publisher {
	p := &Publisher{url: url, catalog: catalog}
	p.publish = p.Publish
	return p
}

func (p *Publisher) BookingCommitted(ctx context.Context, res *booking.Result) {
	ev := p.buildEvent(ctx, res)
	logger := log.FromContext(ctx)
	p.pending.Add(1)
	go func() {
		defer p.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := p.publish(log.ToContext(ctx, logger), ev); err != nil {
			logger.WithError(err).WithField("booking_id", ev.BookingID).Warn("booking event not published")
		}
	}()
}

// Wait blocks until every publish started by BookingCommitted has finished
// or ctx is done.  Call it on shutdown after the HTTP server stopped.
func (p *Publisher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Publisher) buildEvent(ctx context.Context, res *booking.Result) BookingConfirmedEvent {
	b := res.Booking
	ev := BookingConfirmedEvent{
		BookingID:       b.ID,
		UserID:          b.UserID,
		ShowID:          b.ShowID,
		Seats:           append([]string(nil), b.Seats...),
		NewSeats:        res.NewSeatsAdded,
		TotalPriceCents: b.TotalPriceCents,
		PaymentStatus:   string(b.PaymentStatus),
		CorrelationID:   log.CorrelationIDFromContext(ctx),
		ConfirmedAt:     b.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if p.catalog == nil {
		return ev
	}
	d, err := p.catalog.GetShowDetail(ctx, b.ShowID)
	if err != nil {
		log.FromContext(ctx).WithError(err).Debug("booking event without show details")
		return ev
	}
	ev.MovieTitle = d.MovieTitle
	ev.TheaterName = d.TheaterName
	if !d.ShowDate.IsZero() {
		ev.ShowDate = d.ShowDate.Format("2006-01-02")
	}
	ev.ShowTime = d.ShowTime
	return ev
}

// Publish sends ev to the booking.confirmed queue as a persistent JSON
// message.  It dials the broker for each call.
func (p *Publisher) Publish(ctx context.Context, ev BookingConfirmedEvent) error {
	logger := log.FromContext(ctx).WithField("queue", BookingConfirmedQueue)

	conn, err := amqp.Dial(p.url)
	if err != nil {
		logger.WithError(err).Debug("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(BookingConfirmedQueue, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		Timestamp:     time.Now().UTC(),
		CorrelationId: ev.CorrelationID,
		Body:          body,
	}
	if err := ch.PublishWithContext(ctx, "", BookingConfirmedQueue, false, false, pub); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{"booking_id": ev.BookingID, "new_seats": ev.NewSeats}).Debug("booking event published")
	return nil
}
