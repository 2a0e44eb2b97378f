package booking

import (
	"context"
	"time"

	"github.com/BruksfildServices01/barber-marketplace/internal/audit"
	domain "github.com/BruksfildServices01/barber-marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/barber-marketplace/internal/identity"
	"github.com/BruksfildServices01/barber-marketplace/internal/models"
)

type CancelBooking struct {
	repo   domain.Repository
	audit  *audit.Dispatcher
	notice time.Duration
	now    func() time.Time
}

func NewCancelBooking(
	repo domain.Repository,
	audit *audit.Dispatcher,
	notice time.Duration,
) *CancelBooking {
	return &CancelBooking{
		repo:   repo,
		audit:  audit,
		notice: notice,
		now:    time.Now,
	}
}

func (uc *CancelBooking) Execute(
	ctx context.Context,
	caller identity.Caller,
	id uint,
) (*models.Booking, error) {

	var b *models.Booking
	err := uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		var err error
		if b, err = lockBooking(ctx, tx, id); err != nil {
			return err
		}
		if err := caller.RequireParty(b.CustomerID, b.BarberID); err != nil {
			return err
		}
		if err := domain.Cancel(b, uc.now(), uc.notice); err != nil {
			return err
		}
		return tx.UpdateBooking(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   &caller.UserID,
		Action:   "booking_cancelled",
		Entity:   "booking",
		EntityID: &b.ID,
	})

	return b, nil
}
