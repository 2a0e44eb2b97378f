// Package memrepo is an in-process booking store for tests. It must not be
// wired into the API.
package memrepo

import (
	"context"
	"slices"
	"sync"
	"time"

	domain "github.com/BruksfildServices01/barber-marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/barber-marketplace/internal/models"
)

// Store is an in-process domain.Repository. Transactions run one at a time,
// which stands in for the row locks the gorm repository takes.
type Store struct {
	txMu     sync.Mutex
	mu       sync.Mutex
	users    map[uint]models.User
	profiles map[uint]models.BarberProfile
	bookings map[uint]models.Booking
	nextID   uint

	// CreateErr, when set, is returned by the next CreateBooking call.
	CreateErr error
}

func New() *Store {
	return &Store{
		users:    make(map[uint]models.User),
		profiles: make(map[uint]models.BarberProfile),
		bookings: make(map[uint]models.Booking),
	}
}

func (r *Store) PutUser(u models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

func (r *Store) PutProfile(p models.BarberProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.UserID] = p
}

// PutBooking stores b as-is, assigning an id when it has none.
func (r *Store) PutBooking(b models.Booking) models.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == 0 {
		r.nextID++
		b.ID = r.nextID
	}
	if b.UpdatedAt.IsZero() {
		b.CreatedAt = time.Now()
		b.UpdatedAt = b.CreatedAt
	}
	b.EndTime = b.End()
	r.bookings[b.ID] = b
	return b
}

func (r *Store) Bookings() []models.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Booking, 0, len(r.bookings))
	for _, b := range r.bookings {
		out = append(out, b)
	}
	sortByStart(out)
	return out
}

func (r *Store) GetBarber(_ context.Context, barberID uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[barberID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *Store) GetBarberProfile(_ context.Context, barberID uint) (*models.BarberProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[barberID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *Store) LockBarber(ctx context.Context, barberID uint) error {
	_, err := r.GetBarber(ctx, barberID)
	return err
}

func (r *Store) FetchActiveBookings(
	_ context.Context,
	barberID uint,
	window domain.Interval,
) ([]models.Booking, error) {

	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Booking
	for _, b := range r.bookings {
		if b.BarberID != barberID || !domain.Status(b.Status).IsActive() {
			continue
		}
		if domain.NewInterval(b.StartTime, b.DurationMinutes).Overlaps(window) {
			out = append(out, b)
		}
	}
	sortByStart(out)
	return out, nil
}

func (r *Store) CreateBooking(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.CreateErr; err != nil {
		r.CreateErr = nil
		return err
	}

	r.nextID++
	now := time.Now()
	b.ID = r.nextID
	b.EndTime = b.End()
	b.CreatedAt, b.UpdatedAt = now, now
	r.bookings[b.ID] = *b
	return nil
}

func (r *Store) GetBooking(_ context.Context, id uint) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

// GetBookingForUpdate needs no lock of its own: the caller already holds
// txMu through Transaction.
func (r *Store) GetBookingForUpdate(ctx context.Context, id uint) (*models.Booking, error) {
	return r.GetBooking(ctx, id)
}

func (r *Store) GetBookingByPaymentIntent(_ context.Context, intentID string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if intentID != "" && b.PaymentIntentID == intentID {
			return &b, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *Store) UpdateBooking(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[b.ID]; !ok {
		return domain.ErrNotFound
	}
	b.EndTime = b.End()
	b.UpdatedAt = time.Now()
	r.bookings[b.ID] = *b
	return nil
}

func (r *Store) ListBookings(_ context.Context, f domain.ListFilter) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Booking
	for _, b := range r.bookings {
		owner := b.BarberID
		if f.AsCustomer {
			owner = b.CustomerID
		}
		if owner != f.UserID {
			continue
		}
		if !f.From.IsZero() && !b.End().After(f.From) {
			continue
		}
		if !f.To.IsZero() && !b.StartTime.Before(f.To) {
			continue
		}
		out = append(out, b)
	}
	sortByStart(out)
	return out, nil
}

func (r *Store) Transaction(
	_ context.Context,
	fn func(tx domain.Repository) error,
) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	return fn(r)
}

func sortByStart(bs []models.Booking) {
	slices.SortFunc(bs, func(a, b models.Booking) int {
		return a.StartTime.Compare(b.StartTime)
	})
}

var _ domain.Repository = (*Store)(nil)
