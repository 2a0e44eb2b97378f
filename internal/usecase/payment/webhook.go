package payment

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-marketplace/internal/audit"
	domain "github.com/BruksfildServices01/barber-marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/barber-marketplace/internal/httperr"
	"github.com/BruksfildServices01/barber-marketplace/internal/metrics"
	"github.com/BruksfildServices01/barber-marketplace/internal/models"
	gateway "github.com/BruksfildServices01/barber-marketplace/internal/payment"
)

type WebhookResult struct {
	Status          string `json:"status"`
	EventType       string `json:"event_type,omitempty"`
	BookingID       *uint  `json:"booking_id,omitempty"`
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
}

type HandleWebhook struct {
	repo    domain.Repository
	gateway gateway.Gateway
	audit   *audit.Dispatcher
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewHandleWebhook(
	repo domain.Repository,
	gw gateway.Gateway,
	audit *audit.Dispatcher,
	metrics *metrics.Metrics,
	log *zap.Logger,
) *HandleWebhook {
	return &HandleWebhook{
		repo:    repo,
		gateway: gw,
		audit:   audit,
		metrics: metrics,
		log:     log,
	}
}

func (uc *HandleWebhook) Execute(
	ctx context.Context,
	payload []byte,
	signature string,
) (*WebhookResult, error) {

	event, err := uc.gateway.ParseWebhook(payload, signature)
	switch {
	case errors.Is(err, gateway.ErrMissingSignature):
		return nil, httperr.ErrBusiness("missing_signature")
	case errors.Is(err, gateway.ErrInvalidSignature):
		return nil, httperr.ErrBusiness("invalid_signature")
	case errors.Is(err, gateway.ErrInvalidPayload):
		return nil, httperr.ErrBusiness("invalid_payload")
	case err != nil:
		return nil, err
	}

	var (
		apply  func(*models.Booking) error
		status string
	)
	switch event.Type {
	case gateway.EventIntentSucceeded:
		apply, status = domain.MarkPaid, "success"
	case gateway.EventIntentFailed:
		apply, status = domain.MarkPaymentFailed, "failed"
	default:
		return &WebhookResult{Status: "ignored", EventType: event.Type}, nil
	}

	result := &WebhookResult{
		Status:          status,
		EventType:       event.Type,
		PaymentIntentID: event.IntentID,
	}

	found, err := uc.repo.GetBookingByPaymentIntent(ctx, event.IntentID)
	if errors.Is(err, domain.ErrNotFound) {
		uc.log.Warn("webhook for unknown payment intent",
			zap.String("event_id", event.ID),
			zap.String("payment_intent_id", event.IntentID),
		)
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	result.BookingID = &found.ID

	var (
		b       *models.Booking
		changed bool
	)
	err = uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		var err error
		if b, err = lockBooking(ctx, tx, found.ID); err != nil {
			return err
		}

		before := b.PaymentStatus
		if err := apply(b); err != nil {
			// Late or out-of-order events must not move a settled booking back.
			uc.log.Info("webhook transition skipped",
				zap.Uint("booking_id", b.ID),
				zap.String("payment_status", before),
				zap.String("event_type", event.Type),
			)
			return nil
		}
		if b.PaymentStatus == before {
			return nil
		}
		changed = true
		return tx.UpdateBooking(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return result, nil
	}

	uc.metrics.PaymentEvent(b.PaymentStatus)
	uc.audit.Dispatch(audit.Event{
		Action:   "payment_webhook",
		Entity:   "booking",
		EntityID: &b.ID,
		Metadata: map[string]string{"event": event.Type, "payment_status": b.PaymentStatus},
	})

	return result, nil
}
