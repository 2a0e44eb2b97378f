package booking

import (
	"context"
	"errors"
	"time"

	"github.com/BruksfildServices01/barber-marketplace/internal/models"
)

var ErrNotFound = errors.New("booking: record not found")

type ListFilter struct {
	UserID     uint
	AsCustomer bool

	// Zero values leave the window open on that side.
	From time.Time
	To   time.Time
}

type Repository interface {
	BookingFetcher

	// -------- Barber --------
	GetBarber(
		ctx context.Context,
		barberID uint,
	) (*models.User, error)

	GetBarberProfile(
		ctx context.Context,
		barberID uint,
	) (*models.BarberProfile, error)

	// LockBarber serializes writers per barber until the surrounding
	// transaction ends.
	LockBarber(
		ctx context.Context,
		barberID uint,
	) error

	// -------- Booking --------
	CreateBooking(
		ctx context.Context,
		b *models.Booking,
	) error

	GetBooking(
		ctx context.Context,
		id uint,
	) (*models.Booking, error)

	// GetBookingForUpdate row-locks the booking until the surrounding
	// transaction ends. Every read-modify-write of a booking goes through it.
	GetBookingForUpdate(
		ctx context.Context,
		id uint,
	) (*models.Booking, error)

	GetBookingByPaymentIntent(
		ctx context.Context,
		intentID string,
	) (*models.Booking, error)

	UpdateBooking(
		ctx context.Context,
		b *models.Booking,
	) error

	ListBookings(
		ctx context.Context,
		filter ListFilter,
	) ([]models.Booking, error)

	// Transaction runs fn against a repository bound to one DB transaction.
	Transaction(
		ctx context.Context,
		fn func(tx Repository) error,
	) error
}
