package payment

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-ticket-booking/internal/booking"
	"github.com/iliyamo/movie-ticket-booking/internal/log"
)

// Callback statuses reported by the gateway.
const (
	StatusPaid   = "paid"
	StatusFailed = "failed"
)

// Reserver is the part of booking.Coordinator the bridge needs.
type Reserver interface {
	Reserve(ctx context.Context, req booking.Request) (*booking.Result, error)
	Quote(ctx context.Context, req booking.Request) (*booking.Quote, error)
}

// Checkout is handed to the client, which forwards State to the gateway.
type Checkout struct {
	SessionID   string
	State       string
	AmountCents uint32
	Seats       []string
	SuccessURL  string
	CancelURL   string
	ExpiresAt   time.Time
}

// Bridge starts checkouts and confirms them when the gateway reports back.
type Bridge struct {
	reserver    Reserver
	signer      *Signer
	frontendURL string
}

func NewBridge(r Reserver, s *Signer, frontendURL string) *Bridge {
	return &Bridge{reserver: r, signer: s, frontendURL: strings.TrimRight(frontendURL, "/")}
}

// StartCheckout prices the request and signs a state for it.  Availability
// is only advisory here; seats are taken when the payment is confirmed.
func (b *Bridge) StartCheckout(ctx context.Context, userID, showID uint64, seats []string) (*Checkout, error) {
	q, err := b.reserver.Quote(ctx, booking.Request{UserID: userID, ShowID: showID, Seats: seats})
	if err != nil {
		return nil, err
	}
	raw, st, err := b.signer.Issue(userID, showID, q.Seats)
	if err != nil {
		return nil, fmt.Errorf("%w: sign checkout state: %w", booking.ErrServer, err)
	}
	log.FromContext(ctx).WithFields(logrus.Fields{
		"session_id": st.SessionID,
		"user_id":    userID,
		"show_id":    showID,
		"amount":     q.AmountCents,
	}).Info("checkout started")

	return &Checkout{
		SessionID:   st.SessionID,
		State:       raw,
		AmountCents: q.AmountCents,
		Seats:       q.Seats,
		SuccessURL:  b.frontendURL + "/payment-success?state=" + url.QueryEscape(raw),
		CancelURL:   b.frontendURL + "/payment-cancelled?session_id=" + url.QueryEscape(st.SessionID),
		ExpiresAt:   st.ExpiresAt,
	}, nil
}

// HandleCallback processes one gateway delivery.  A paid callback reserves
// the seats named in the state exactly once per delivery; redelivery merges
// into the existing booking and adds nothing.  A failed callback reserves
// nothing and returns a nil result.
func (b *Bridge) HandleCallback(ctx context.Context, rawState, status string) (*booking.Result, error) {
	st, err := b.signer.Verify(rawState)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", booking.ErrValidation, err)
	}
	logger := log.FromContext(ctx).WithFields(logrus.Fields{
		"session_id": st.SessionID,
		"user_id":    st.UserID,
		"show_id":    st.ShowID,
	})

	switch strings.ToLower(strings.TrimSpace(status)) {
	case "", StatusPaid:
	case StatusFailed:
		logger.Info("payment failed, nothing reserved")
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown payment status %q", booking.ErrValidation, status)
	}

	res, err := b.reserver.Reserve(ctx, booking.Request{UserID: st.UserID, ShowID: st.ShowID, Seats: st.Seats})
	if err != nil {
		if booking.KindOf(err) == booking.KindSeatConflict {
			// paid but the seats went to someone else in the meantime
			logger.WithField("seats", booking.ConflictSeats(err)).Warn("paid checkout lost its seats")
		}
		return nil, err
	}
	logger.WithField("added", res.NewSeatsAdded).Info("payment confirmed")
	return res, nil
}
