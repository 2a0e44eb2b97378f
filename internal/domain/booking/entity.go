package booking

import (
	"time"

	"github.com/BruksfildServices01/barber-marketplace/internal/httperr"
	"github.com/BruksfildServices01/barber-marketplace/internal/models"
)

// ===============================
// Domain Actions
// ===============================

// Transition applies a barber-driven status change.
func Transition(b *models.Booking, to Status, now time.Time) error {
	if err := CanTransition(Status(b.Status), to); err != nil {
		return err
	}

	b.Status = string(to)
	switch to {
	case StatusCancelled:
		b.CancelledAt = &now
	case StatusCompleted:
		b.CompletedAt = &now
	}
	return nil
}

// Cancel is the customer/barber cancellation. It is refused once the
// appointment is closer than notice.
func Cancel(b *models.Booking, now time.Time, notice time.Duration) error {
	if !Status(b.Status).IsActive() {
		return httperr.ErrBusiness("invalid_state")
	}
	if b.StartTime.Sub(now) < notice {
		return httperr.ErrBusiness("cancel_window_closed")
	}

	b.Status = string(StatusCancelled)
	b.CancelledAt = &now
	return nil
}

func MarkPaid(b *models.Booking) error {
	return setPayment(b, PaymentPaid)
}

func MarkPaymentFailed(b *models.Booking) error {
	return setPayment(b, PaymentFailed)
}

func MarkRefunded(b *models.Booking) error {
	return setPayment(b, PaymentRefunded)
}

func setPayment(b *models.Booking, to PaymentStatus) error {
	if PaymentStatus(b.PaymentStatus) == to {
		return nil
	}
	if err := CanTransitionPayment(PaymentStatus(b.PaymentStatus), to); err != nil {
		return err
	}
	b.PaymentStatus = string(to)
	return nil
}
