package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-ticket-booking/internal/booking"
	"github.com/iliyamo/movie-ticket-booking/internal/middleware"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/payment"
	"github.com/iliyamo/movie-ticket-booking/internal/utils"
)

const jwtSecret = "handler-test-secret"

type testServer struct {
	e      *echo.Echo
	store  *booking.MemoryStore
	showID uint64
	signer *payment.Signer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := booking.NewMemoryStore()
	show := store.AddShow(
		model.Movie{ID: 7, Title: "Heat", PosterURL: "https://img.example/heat.jpg"},
		model.Theater{ID: 3, OwnerID: 900, Name: "Rex", Location: "Downtown", TotalSeats: 5},
		model.Show{PriceCents: 250, ShowTime: "21:00", ShowDate: time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)},
	)

	coord := booking.NewCoordinator(store)
	queries := booking.NewQueries(store, store)
	signer := payment.NewSigner("state-secret", time.Minute)
	bh := NewBookingHandler(coord, queries)
	ph := NewPaymentHandler(payment.NewBridge(coord, signer, "https://front.example"))
	pub := NewPublicHandler(queries)

	e := echo.New()
	e.Validator = NewRequestValidator()
	e.GET("/v1/shows/:id", pub.GetShow)
	user := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleUser))
	user.POST("/bookings", bh.CreateBooking)
	user.GET("/bookings/me", bh.ListMyBookings)
	user.POST("/payments/checkout", ph.Checkout)
	staff := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleAdmin, model.RoleTheaterOwner))
	staff.GET("/shows/:id/bookings", bh.ListShowBookings)
	e.POST("/v1/payments/callback", ph.Callback)

	return &testServer{e: e, store: store, showID: show.ID, signer: signer}
}

func (s *testServer) do(t *testing.T, method, path string, userID uint64, role, body string) (int, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if userID != 0 {
		tok, err := utils.NewAccessToken(jwtSecret, userID, role, time.Minute)
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	out := map[string]any{}
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func bookingBody(showID uint64, seats ...string) string {
	bs, _ := json.Marshal(map[string]any{"show_id": showID, "seats": seats})
	return string(bs)
}

func seatsOf(t *testing.T, v any) []string {
	t.Helper()
	raw, ok := v.([]any)
	require.True(t, ok, "seats is %T", v)
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		out = append(out, s.(string))
	}
	return out
}

func TestCreateBooking_CreateThenMerge(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodPost, "/v1/bookings", 1, model.RoleUser, bookingBody(s.showID, "A1", "A2"))
	require.Equal(t, http.StatusCreated, code, body)
	assert.EqualValues(t, 2, body["new_seats_added"])
	assert.Equal(t, "Booking created with 2 seat(s).", body["message"])
	b := body["booking"].(map[string]any)
	assert.Equal(t, []string{"A1", "A2"}, seatsOf(t, b["seats"]))
	assert.EqualValues(t, 500, b["total_price_cents"])
	assert.Equal(t, "paid", b["payment_status"])

	code, body = s.do(t, http.MethodPost, "/v1/bookings", 1, model.RoleUser, bookingBody(s.showID, "A2", "A3"))
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 1, body["new_seats_added"])
	assert.Equal(t, "Booking updated with 1 new seat(s).", body["message"])
	b = body["booking"].(map[string]any)
	assert.Equal(t, []string{"A1", "A2", "A3"}, seatsOf(t, b["seats"]))
	assert.EqualValues(t, 750, b["total_price_cents"])
}

func TestCreateBooking_Conflict(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.do(t, http.MethodPost, "/v1/bookings", 1, model.RoleUser, bookingBody(s.showID, "A1"))
	require.Equal(t, http.StatusCreated, code)

	code, body := s.do(t, http.MethodPost, "/v1/bookings", 2, model.RoleUser, bookingBody(s.showID, "A1", "B1"))
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "seat_conflict", body["error"])
	assert.Equal(t, []string{"A1"}, seatsOf(t, body["seats"]))

	// B1 must not have been taken by the rejected request
	code, _ = s.do(t, http.MethodPost, "/v1/bookings", 3, model.RoleUser, bookingBody(s.showID, "B1"))
	assert.Equal(t, http.StatusCreated, code)
}

func TestCreateBooking_Errors(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name   string
		userID uint64
		role   string
		body   string
		want   int
	}{
		{"no token", 0, "", bookingBody(s.showID, "A1"), http.StatusUnauthorized},
		{"wrong role", 900, model.RoleTheaterOwner, bookingBody(s.showID, "A1"), http.StatusForbidden},
		{"malformed json", 1, model.RoleUser, `{"show_id":`, http.StatusBadRequest},
		{"missing show", 1, model.RoleUser, `{"seats":["A1"]}`, http.StatusBadRequest},
		{"empty seats", 1, model.RoleUser, bookingBody(s.showID), http.StatusBadRequest},
		{"blank seat", 1, model.RoleUser, bookingBody(s.showID, "  "), http.StatusBadRequest},
		{"duplicate seat", 1, model.RoleUser, bookingBody(s.showID, "A1", "A1"), http.StatusBadRequest},
		{"unknown show", 1, model.RoleUser, bookingBody(999, "A1"), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := s.do(t, http.MethodPost, "/v1/bookings", tt.userID, tt.role, tt.body)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestListMyBookings(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.do(t, http.MethodPost, "/v1/bookings", 1, model.RoleUser, bookingBody(s.showID, "C1"))
	require.Equal(t, http.StatusCreated, code)

	code, body := s.do(t, http.MethodGet, "/v1/bookings/me", 1, model.RoleUser, "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["count"])
	item := body["items"].([]any)[0].(map[string]any)
	assert.Equal(t, []string{"C1"}, seatsOf(t, item["seats"]))
	show := item["show"].(map[string]any)
	assert.Equal(t, "2026-11-02", show["date"])
	assert.Equal(t, "21:00", show["time"])
	assert.Equal(t, "Heat", show["movie"].(map[string]any)["title"])
	assert.Equal(t, "Rex", show["theater"].(map[string]any)["name"])

	code, body = s.do(t, http.MethodGet, "/v1/bookings/me", 2, model.RoleUser, "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, body["count"])
}

func TestListShowBookings_Access(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.do(t, http.MethodPost, "/v1/bookings", 1, model.RoleUser, bookingBody(s.showID, "A1"))
	require.Equal(t, http.StatusCreated, code)
	path := "/v1/shows/" + jsonNumber(s.showID) + "/bookings"

	code, body := s.do(t, http.MethodGet, path, 900, model.RoleTheaterOwner, "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["count"])
	assert.Equal(t, []string{"A1"}, seatsOf(t, body["booked_seats"]))

	code, _ = s.do(t, http.MethodGet, path, 1, model.RoleAdmin, "")
	assert.Equal(t, http.StatusOK, code)

	code, body = s.do(t, http.MethodGet, path, 901, model.RoleTheaterOwner, "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "forbidden", body["error"])

	code, _ = s.do(t, http.MethodGet, "/v1/shows/abc/bookings", 1, model.RoleAdmin, "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestGetShow(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.do(t, http.MethodPost, "/v1/bookings", 1, model.RoleUser, bookingBody(s.showID, "A1", "A2"))
	require.Equal(t, http.StatusCreated, code)

	code, body := s.do(t, http.MethodGet, "/v1/shows/"+jsonNumber(s.showID), 0, "", "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 5, body["capacity"])
	assert.EqualValues(t, 3, body["available"])
	assert.EqualValues(t, 250, body["price_cents"])
	assert.Equal(t, []string{"A1", "A2"}, seatsOf(t, body["booked_seats"]))

	code, body = s.do(t, http.MethodGet, "/v1/shows/404", 0, "", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", body["error"])
}

func TestCheckoutAndCallback(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodPost, "/v1/payments/checkout", 1, model.RoleUser, bookingBody(s.showID, "D1", "D2"))
	require.Equal(t, http.StatusCreated, code, body)
	assert.EqualValues(t, 500, body["amount_cents"])
	state := body["state"].(string)
	require.NotEmpty(t, state)
	u, err := url.Parse(body["success_url"].(string))
	require.NoError(t, err)
	assert.Equal(t, "/payment-success", u.Path)
	assert.Equal(t, state, u.Query().Get("state"))

	// checkout alone reserves nothing
	d, err := s.store.GetShowDetail(context.Background(), s.showID)
	require.NoError(t, err)
	assert.Empty(t, d.BookedSeats)

	cb, _ := json.Marshal(map[string]string{"state": state, "status": "paid"})
	code, body = s.do(t, http.MethodPost, "/v1/payments/callback", 0, "", string(cb))
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "confirmed", body["status"])
	assert.EqualValues(t, 2, body["new_seats_added"])

	// redelivery is a no-op merge
	code, body = s.do(t, http.MethodPost, "/v1/payments/callback", 0, "", string(cb))
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 0, body["new_seats_added"])

	d, err = s.store.GetShowDetail(context.Background(), s.showID)
	require.NoError(t, err)
	assert.Equal(t, []string{"D1", "D2"}, d.BookedSeats)
}

func TestCallback_FailedAndInvalid(t *testing.T) {
	s := newTestServer(t)
	raw, _, err := s.signer.Issue(1, s.showID, []string{"E1"})
	require.NoError(t, err)

	cb, _ := json.Marshal(map[string]string{"state": raw, "status": "failed"})
	code, body := s.do(t, http.MethodPost, "/v1/payments/callback", 0, "", string(cb))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ignored", body["status"])

	cb, _ = json.Marshal(map[string]string{"state": raw + "x", "status": "paid"})
	code, body = s.do(t, http.MethodPost, "/v1/payments/callback", 0, "", string(cb))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation_error", body["error"])

	cb, _ = json.Marshal(map[string]string{"state": raw, "status": "refunded"})
	code, _ = s.do(t, http.MethodPost, "/v1/payments/callback", 0, "", string(cb))
	assert.Equal(t, http.StatusBadRequest, code)

	d, err := s.store.GetShowDetail(context.Background(), s.showID)
	require.NoError(t, err)
	assert.Empty(t, d.BookedSeats)
}

func TestCallback_SeatsLostToAnotherUser(t *testing.T) {
	s := newTestServer(t)
	raw, _, err := s.signer.Issue(1, s.showID, []string{"F1"})
	require.NoError(t, err)

	code, _ := s.do(t, http.MethodPost, "/v1/bookings", 2, model.RoleUser, bookingBody(s.showID, "F1"))
	require.Equal(t, http.StatusCreated, code)

	cb, _ := json.Marshal(map[string]string{"state": raw})
	code, body := s.do(t, http.MethodPost, "/v1/payments/callback", 0, "", string(cb))
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, []string{"F1"}, seatsOf(t, body["seats"]))
}

func TestHealthAndReady(t *testing.T) {
	e := echo.New()
	e.GET("/healthz", Health)
	failing := NewReadyHandler(map[string]ReadyCheck{
		"db":    func(ctx context.Context) error { return nil },
		"redis": func(ctx context.Context) error { return errors.New("connection refused") },
	})
	e.GET("/readyz", failing.Ready)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"db":"ok"`)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func jsonNumber(id uint64) string {
	return strconv.FormatUint(id, 10)
}
