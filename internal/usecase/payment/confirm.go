package payment

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-marketplace/internal/audit"
	domain "github.com/BruksfildServices01/barber-marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/barber-marketplace/internal/httperr"
	"github.com/BruksfildServices01/barber-marketplace/internal/identity"
	"github.com/BruksfildServices01/barber-marketplace/internal/metrics"
	"github.com/BruksfildServices01/barber-marketplace/internal/models"
	gateway "github.com/BruksfildServices01/barber-marketplace/internal/payment"
)

type ConfirmPayment struct {
	repo    domain.Repository
	gateway gateway.Gateway
	audit   *audit.Dispatcher
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewConfirmPayment(
	repo domain.Repository,
	gw gateway.Gateway,
	audit *audit.Dispatcher,
	metrics *metrics.Metrics,
	log *zap.Logger,
) *ConfirmPayment {
	return &ConfirmPayment{
		repo:    repo,
		gateway: gw,
		audit:   audit,
		metrics: metrics,
		log:     log,
	}
}

func (uc *ConfirmPayment) Execute(
	ctx context.Context,
	caller identity.Caller,
	intentID string,
) (*models.Booking, error) {

	if intentID == "" {
		return nil, httperr.ErrBusiness("invalid_input")
	}

	b, err := uc.repo.GetBookingByPaymentIntent(ctx, intentID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, httperr.ErrBusiness("booking_not_found")
	}
	if err != nil {
		return nil, err
	}
	if err := caller.RequireParty(b.CustomerID, b.BarberID); err != nil {
		return nil, err
	}

	intent, err := uc.gateway.GetIntent(ctx, intentID)
	if err != nil {
		return nil, providerFailure(uc.log, err)
	}

	switch intent.Status {
	case gateway.IntentSucceeded:
	case gateway.IntentRequiresPaymentMethod:
		return nil, httperr.ErrBusiness("payment_requires_action")
	default:
		uc.log.Info("payment not completed",
			zap.Uint("booking_id", b.ID),
			zap.String("intent_status", intent.Status),
		)
		return nil, httperr.ErrBusiness("payment_failed")
	}

	// Re-read under the row lock; the booking may have changed while the
	// processor was being asked.
	changed := false
	err = uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		locked, err := lockBooking(ctx, tx, b.ID)
		if err != nil {
			return err
		}
		b = locked

		if domain.PaymentStatus(b.PaymentStatus) == domain.PaymentPaid {
			return nil
		}
		if err := domain.MarkPaid(b); err != nil {
			return err
		}
		changed = true
		return tx.UpdateBooking(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return b, nil
	}

	uc.metrics.PaymentEvent("paid")
	uc.audit.Dispatch(audit.Event{
		UserID:   &caller.UserID,
		Action:   "payment_confirmed",
		Entity:   "booking",
		EntityID: &b.ID,
	})

	return b, nil
}

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
