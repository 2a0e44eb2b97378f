package booking

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/barber-marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/barber-marketplace/internal/httperr"
	"github.com/BruksfildServices01/barber-marketplace/internal/identity"
	"github.com/BruksfildServices01/barber-marketplace/internal/models"
)

type ListBookingsInput struct {
	AsCustomer bool
	From       time.Time
	To         time.Time
}

type ListBookings struct {
	repo domain.Repository
}

func NewListBookings(repo domain.Repository) *ListBookings {
	return &ListBookings{repo: repo}
}

func (uc *ListBookings) Execute(
	ctx context.Context,
	caller identity.Caller,
	in ListBookingsInput,
) ([]models.Booking, error) {

	if !in.AsCustomer {
		if err := caller.RequireBarber(); err != nil {
			return nil, err
		}
	}
	if !in.From.IsZero() && !in.To.IsZero() && !in.From.Before(in.To) {
		return nil, httperr.ErrBusiness("invalid_input")
	}

	return uc.repo.ListBookings(ctx, domain.ListFilter{
		UserID:     caller.UserID,
		AsCustomer: in.AsCustomer,
		From:       in.From,
		To:         in.To,
	})
}

// ListBarberBookings is the barber's own calendar.
type ListBarberBookings struct {
	repo domain.Repository
}

func NewListBarberBookings(repo domain.Repository) *ListBarberBookings {
	return &ListBarberBookings{repo: repo}
}

func (uc *ListBarberBookings) Execute(
	ctx context.Context,
	caller identity.Caller,
	barberID uint,
) ([]models.Booking, error) {

	if !caller.Is(barberID) {
		return nil, httperr.ErrBusiness("forbidden")
	}
	if err := caller.RequireBarber(); err != nil {
		return nil, err
	}

	return uc.repo.ListBookings(ctx, domain.ListFilter{
		UserID:     barberID,
		AsCustomer: false,
	})
}
