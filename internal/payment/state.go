// Package payment connects the external payment gateway to the reservation
// flow.  Checkout hands the gateway an opaque, signed state; the gateway's
// success callback returns it and the Bridge turns it into a reservation.
package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidState is returned for states that are malformed, tampered with
// or expired.
var ErrInvalidState = errors.New("invalid checkout state")

// State is what a checkout commits to: who pays, for which show and seats.
type State struct {
	SessionID string
	UserID    uint64
	ShowID    uint64
	Seats     []string
	ExpiresAt time.Time
}

type stateClaims struct {
	ShowID uint64   `json:"show_id"`
	Seats  []string `json:"seats"`
	jwt.RegisteredClaims
}

// Signer issues and verifies HS256-signed checkout states.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a new state for userID with a fresh session ID.
func (s *Signer) Issue(userID, showID uint64, seats []string) (string, State, error) {
	now := s.now().UTC()
	st := State{
		SessionID: uuid.NewString(),
		UserID:    userID,
		ShowID:    showID,
		Seats:     append([]string(nil), seats...),
		ExpiresAt: now.Add(s.ttl).Truncate(time.Second),
	}
	claims := stateClaims{
		ShowID: showID,
		Seats:  st.Seats,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        st.SessionID,
			Subject:   fmt.Sprint(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(st.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", State{}, err
	}
	return token, st, nil
}

// Verify checks the signature and expiry of raw and returns its contents.
func (s *Signer) Verify(raw string) (State, error) {
	var claims stateClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	var userID uint64
	if _, err := fmt.Sscan(claims.Subject, &userID); err != nil || userID == 0 {
		return State{}, fmt.Errorf("%w: bad subject", ErrInvalidState)
	}
	st := State{
		SessionID: claims.ID,
		UserID:    userID,
		ShowID:    claims.ShowID,
		Seats:     claims.Seats,
	}
	if claims.ExpiresAt != nil {
		st.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return st, nil
}
