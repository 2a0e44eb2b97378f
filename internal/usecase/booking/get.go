package booking

import (
	"context"
	"errors"

	domain "github.com/BruksfildServices01/barber-marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/barber-marketplace/internal/httperr"
	"github.com/BruksfildServices01/barber-marketplace/internal/identity"
	"github.com/BruksfildServices01/barber-marketplace/internal/models"
)

type GetBooking struct {
	repo domain.Repository
}

func NewGetBooking(repo domain.Repository) *GetBooking {
	return &GetBooking{repo: repo}
}

func (uc *GetBooking) Execute(
	ctx context.Context,
	caller identity.Caller,
	id uint,
) (*models.Booking, error) {

	b, err := loadBooking(ctx, uc.repo, id)
	if err != nil {
		return nil, err
	}
	if err := caller.RequireParty(b.CustomerID, b.BarberID); err != nil {
		return nil, err
	}
	return b, nil
}

func loadBooking(ctx context.Context, repo domain.Repository, id uint) (*models.Booking, error) {
	b, err := repo.GetBooking(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, httperr.ErrBusiness("booking_not_found")
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// lockBooking is loadBooking for use inside Transaction.
func lockBooking(ctx context.Context, tx domain.Repository, id uint) (*models.Booking, error) {
	b, err := tx.GetBookingForUpdate(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, httperr.ErrBusiness("booking_not_found")
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}
