package booking

import (
	"context"
	"time"

	"github.com/BruksfildServices01/barber-marketplace/internal/audit"
	domain "github.com/BruksfildServices01/barber-marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/barber-marketplace/internal/httperr"
	"github.com/BruksfildServices01/barber-marketplace/internal/identity"
	"github.com/BruksfildServices01/barber-marketplace/internal/models"
)

type UpdateBookingStatus struct {
	repo  domain.Repository
	audit *audit.Dispatcher
	now   func() time.Time
}

func NewUpdateBookingStatus(
	repo domain.Repository,
	audit *audit.Dispatcher,
) *UpdateBookingStatus {
	return &UpdateBookingStatus{
		repo:  repo,
		audit: audit,
		now:   time.Now,
	}
}

func (uc *UpdateBookingStatus) Execute(
	ctx context.Context,
	caller identity.Caller,
	id uint,
	status string,
) (*models.Booking, error) {

	to := domain.Status(status)
	if !to.Valid() {
		return nil, httperr.ErrBusiness("invalid_input")
	}

	var (
		b    *models.Booking
		from string
	)
	err := uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		var err error
		if b, err = lockBooking(ctx, tx, id); err != nil {
			return err
		}
		if !caller.Is(b.BarberID) {
			return httperr.ErrBusiness("forbidden")
		}

		from = b.Status
		if err := domain.Transition(b, to, uc.now()); err != nil {
			return err
		}
		return tx.UpdateBooking(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   &caller.UserID,
		Action:   "booking_status_changed",
		Entity:   "booking",
		EntityID: &b.ID,
		Metadata: map[string]string{"from": from, "to": b.Status},
	})

	return b, nil
}
