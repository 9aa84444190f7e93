package booking

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

type userShow struct{ userID, showID uint64 }

type memShow struct {
	lock   sync.Mutex // held for the duration of a WithShow scope
	detail model.ShowDetail
}

// MemoryStore is an in-process Store, Catalog and BookingFinder.  Scopes on
// the same show are serialized by a per-show mutex; writes are staged and
// applied only when the scope's function succeeds.
type MemoryStore struct {
	mu       sync.RWMutex
	shows    map[uint64]*memShow
	bookings map[uint64]*model.Booking
	byUser   map[userShow]uint64

	showSeq    atomic.Uint64
	bookingSeq atomic.Uint64
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		shows:    make(map[uint64]*memShow),
		bookings: make(map[uint64]*model.Booking),
		byUser:   make(map[userShow]uint64),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AddShow registers a show with its movie and theater.  A zero show ID is
// replaced by the next free one.  Capacity comes from the theater.
func (m *MemoryStore) AddShow(movie model.Movie, theater model.Theater, show model.Show) model.Show {
	m.mu.Lock()
	defer m.mu.Unlock()
	if show.ID == 0 {
		show.ID = m.showSeq.Add(1)
	} else if show.ID > m.showSeq.Load() {
		m.showSeq.Store(show.ID)
	}
	show.MovieID = movie.ID
	show.TheaterID = theater.ID
	show.Capacity = theater.TotalSeats
	show.BookedSeats = append([]string(nil), show.BookedSeats...)
	if show.CreatedAt.IsZero() {
		show.CreatedAt = m.now()
		show.UpdatedAt = show.CreatedAt
	}
	m.shows[show.ID] = &memShow{detail: model.ShowDetail{
		Show:            show,
		MovieTitle:      movie.Title,
		PosterURL:       movie.PosterURL,
		TheaterName:     theater.Name,
		TheaterLocation: theater.Location,
		TheaterOwnerID:  theater.OwnerID,
	}}
	return show
}

func (m *MemoryStore) WithShow(ctx context.Context, showID uint64, fn func(ctx context.Context, tx Tx) error) error {
	m.mu.RLock()
	ms, ok := m.shows[showID]
	m.mu.RUnlock()
	if !ok {
		return ErrShowNotFound
	}

	ms.lock.Lock()
	defer ms.lock.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.RLock()
	show := cloneShow(ms.detail.Show)
	m.mu.RUnlock()
	tx := &memTx{
		store:  m,
		show:   &show,
		taken:  seatSet(show.BookedSeats),
		staged: make(map[uint64]*model.Booking),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, b := range tx.staged {
		cp := cloneBooking(*b)
		m.bookings[id] = &cp
		m.byUser[userShow{b.UserID, b.ShowID}] = id
	}
	if tx.marked {
		ms.detail.BookedSeats = tx.show.BookedSeats
		ms.detail.UpdatedAt = m.now()
	}
	return nil
}

func (m *MemoryStore) GetShowDetail(_ context.Context, showID uint64) (*model.ShowDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ms, ok := m.shows[showID]
	if !ok {
		return nil, ErrShowNotFound
	}
	d := ms.detail
	d.Show = cloneShow(d.Show)
	return &d, nil
}

func (m *MemoryStore) ListByUser(_ context.Context, userID uint64) ([]model.Booking, error) {
	return m.list(func(b *model.Booking) bool { return b.UserID == userID }, true), nil
}

func (m *MemoryStore) ListByShow(_ context.Context, showID uint64) ([]model.Booking, error) {
	return m.list(func(b *model.Booking) bool { return b.ShowID == showID }, false), nil
}

// list returns matching bookings ordered by ID, newest first when desc.
func (m *MemoryStore) list(match func(*model.Booking) bool, desc bool) []model.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Booking, 0)
	for _, b := range m.bookings {
		if match(b) {
			out = append(out, cloneBooking(*b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if desc {
			return out[i].ID > out[j].ID
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type memTx struct {
	store  *MemoryStore
	show   *model.Show
	taken  map[string]struct{}
	staged map[uint64]*model.Booking
	marked bool
}

func (t *memTx) Show() *model.Show { return t.show }

func (t *memTx) FindBooking(_ context.Context, userID uint64) (*model.Booking, error) {
	for _, b := range t.staged {
		if b.UserID == userID {
			cp := cloneBooking(*b)
			return &cp, nil
		}
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	id, ok := t.store.byUser[userShow{userID, t.show.ID}]
	if !ok {
		return nil, nil
	}
	cp := cloneBooking(*t.store.bookings[id])
	return &cp, nil
}

func (t *memTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	if existing, _ := t.FindBooking(ctx, b.UserID); existing != nil {
		return fmt.Errorf("booking for user %d and show %d already exists", b.UserID, b.ShowID)
	}
	b.ID = t.store.bookingSeq.Add(1)
	b.CreatedAt = t.store.now()
	b.UpdatedAt = b.CreatedAt
	cp := cloneBooking(*b)
	t.staged[b.ID] = &cp
	return nil
}

func (t *memTx) UpdateBooking(_ context.Context, b *model.Booking) error {
	if _, ok := t.staged[b.ID]; !ok {
		t.store.mu.RLock()
		_, ok = t.store.bookings[b.ID]
		t.store.mu.RUnlock()
		if !ok {
			return fmt.Errorf("booking %d not found", b.ID)
		}
	}
	b.UpdatedAt = t.store.now()
	cp := cloneBooking(*b)
	t.staged[b.ID] = &cp
	return nil
}

func (t *memTx) MarkSeatsTaken(_ context.Context, _ uint64, labels []string) error {
	var dup []string
	for _, s := range labels {
		if _, ok := t.taken[s]; ok {
			dup = append(dup, s)
		}
	}
	if len(dup) > 0 {
		return &SeatConflictError{Seats: dup}
	}
	for _, s := range labels {
		t.taken[s] = struct{}{}
		t.show.BookedSeats = append(t.show.BookedSeats, s)
	}
	t.marked = t.marked || len(labels) > 0
	return nil
}

func cloneShow(s model.Show) model.Show {
	s.BookedSeats = append([]string(nil), s.BookedSeats...)
	return s
}

func cloneBooking(b model.Booking) model.Booking {
	b.Seats = append([]string(nil), b.Seats...)
	return b
}
