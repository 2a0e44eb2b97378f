package payment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-marketplace/internal/audit"
	domain "github.com/BruksfildServices01/barber-marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/barber-marketplace/internal/httperr"
	"github.com/BruksfildServices01/barber-marketplace/internal/identity"
	"github.com/BruksfildServices01/barber-marketplace/internal/models"
	gateway "github.com/BruksfildServices01/barber-marketplace/internal/payment"
)

type CreateIntentInput struct {
	BookingID uint   `json:"booking_id" binding:"required"`
	Currency  string `json:"currency"`
}

type CreateIntentResult struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
}

type CreatePaymentIntent struct {
	repo    domain.Repository
	gateway gateway.Gateway
	audit   *audit.Dispatcher
	log     *zap.Logger
}

func NewCreatePaymentIntent(
	repo domain.Repository,
	gw gateway.Gateway,
	audit *audit.Dispatcher,
	log *zap.Logger,
) *CreatePaymentIntent {
	return &CreatePaymentIntent{
		repo:    repo,
		gateway: gw,
		audit:   audit,
		log:     log,
	}
}

func (uc *CreatePaymentIntent) Execute(
	ctx context.Context,
	caller identity.Caller,
	in CreateIntentInput,
) (*CreateIntentResult, error) {

	b, err := loadBooking(ctx, uc.repo, in.BookingID)
	if err != nil {
		return nil, err
	}
	// Other users' bookings are reported as missing.
	if !caller.Is(b.CustomerID) {
		return nil, httperr.ErrBusiness("booking_not_found")
	}
	if domain.PaymentStatus(b.PaymentStatus) == domain.PaymentPaid {
		return nil, httperr.ErrBusiness("already_paid")
	}
	if !domain.Status(b.Status).IsActive() {
		return nil, httperr.ErrBusiness("invalid_state")
	}

	amount := gateway.ToCents(b.ServicePrice)
	if amount <= 0 {
		return nil, httperr.ErrBusiness("invalid_input")
	}

	intent, err := uc.gateway.CreateIntent(ctx, gateway.IntentRequest{
		BookingID:      b.ID,
		CustomerID:     b.CustomerID,
		BarberID:       b.BarberID,
		AmountCents:    amount,
		Currency:       in.Currency,
		IdempotencyKey: intentKey(b),
	})
	if err != nil {
		return nil, providerFailure(uc.log, err)
	}

	err = uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		locked, err := lockBooking(ctx, tx, b.ID)
		if err != nil {
			return err
		}
		if domain.PaymentStatus(locked.PaymentStatus) == domain.PaymentPaid {
			return httperr.ErrBusiness("already_paid")
		}
		locked.PaymentIntentID = intent.ID
		return tx.UpdateBooking(ctx, locked)
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   &caller.UserID,
		Action:   "payment_intent_created",
		Entity:   "booking",
		EntityID: &b.ID,
		Metadata: map[string]string{"payment_intent_id": intent.ID},
	})

	return &CreateIntentResult{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
	}, nil
}

// intentKey stays the same across retries until the booking row changes,
// which storing the new intent id does.
func intentKey(b *models.Booking) string {
	return fmt.Sprintf("booking-%d-%d", b.ID, b.UpdatedAt.UnixNano())
}
