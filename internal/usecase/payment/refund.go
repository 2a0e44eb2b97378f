package payment

import (
	"context"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-marketplace/internal/audit"
	domain "github.com/BruksfildServices01/barber-marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/barber-marketplace/internal/httperr"
	"github.com/BruksfildServices01/barber-marketplace/internal/identity"
	"github.com/BruksfildServices01/barber-marketplace/internal/metrics"
	gateway "github.com/BruksfildServices01/barber-marketplace/internal/payment"
)

type RefundResult struct {
	RefundID string  `json:"refund_id"`
	Amount   float64 `json:"amount"`
	Status   string  `json:"status"`
}

type RefundPayment struct {
	repo    domain.Repository
	gateway gateway.Gateway
	audit   *audit.Dispatcher
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewRefundPayment(
	repo domain.Repository,
	gw gateway.Gateway,
	audit *audit.Dispatcher,
	metrics *metrics.Metrics,
	log *zap.Logger,
) *RefundPayment {
	return &RefundPayment{
		repo:    repo,
		gateway: gw,
		audit:   audit,
		metrics: metrics,
		log:     log,
	}
}

func (uc *RefundPayment) Execute(
	ctx context.Context,
	caller identity.Caller,
	bookingID uint,
) (*RefundResult, error) {

	b, err := loadBooking(ctx, uc.repo, bookingID)
	if err != nil {
		return nil, err
	}
	if !caller.Is(b.BarberID) {
		return nil, httperr.ErrBusiness("forbidden")
	}
	if b.PaymentIntentID == "" {
		return nil, httperr.ErrBusiness("no_payment")
	}
	if err := domain.CanTransitionPayment(domain.PaymentStatus(b.PaymentStatus), domain.PaymentRefunded); err != nil {
		return nil, httperr.ErrBusiness("no_payment")
	}

	refund, err := uc.gateway.Refund(ctx, b.PaymentIntentID)
	if err != nil {
		return nil, providerFailure(uc.log, err)
	}

	// Pending refunds settle later; the booking stays paid until then.
	if refund.Status == gateway.RefundSucceeded {
		err := uc.repo.Transaction(ctx, func(tx domain.Repository) error {
			locked, err := lockBooking(ctx, tx, b.ID)
			if err != nil {
				return err
			}
			if err := domain.MarkRefunded(locked); err != nil {
				return err
			}
			return tx.UpdateBooking(ctx, locked)
		})
		if err != nil {
			return nil, err
		}
		uc.metrics.PaymentEvent("refunded")
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   &caller.UserID,
		Action:   "payment_refunded",
		Entity:   "booking",
		EntityID: &b.ID,
		Metadata: map[string]string{"refund_id": refund.ID, "status": refund.Status},
	})

	return &RefundResult{
		RefundID: refund.ID,
		Amount:   gateway.FromCents(refund.AmountCents),
		Status:   refund.Status,
	}, nil
}
