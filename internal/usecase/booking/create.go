package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-marketplace/internal/audit"
	domain "github.com/BruksfildServices01/barber-marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/barber-marketplace/internal/httperr"
	"github.com/BruksfildServices01/barber-marketplace/internal/identity"
	"github.com/BruksfildServices01/barber-marketplace/internal/infra/lock"
	"github.com/BruksfildServices01/barber-marketplace/internal/metrics"
	"github.com/BruksfildServices01/barber-marketplace/internal/models"
	"github.com/BruksfildServices01/barber-marketplace/internal/validators"
)

// ======================================================
// INPUT
// ======================================================

type CreateBookingInput struct {
	BarberID        uint      `json:"barber_id" validate:"required"`
	ServiceName     string    `json:"service_name" validate:"required,max=200"`
	ServicePrice    float64   `json:"service_price" validate:"gte=0"`
	StartTime       time.Time `json:"appointment_date" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"gt=0,lte=1440"`
	Notes           string    `json:"notes" validate:"max=2000"`
}

// ======================================================
// USE CASE
// ======================================================

type CreateBooking struct {
	repo    domain.Repository
	locker  lock.Locker
	audit   *audit.Dispatcher
	metrics *metrics.Metrics
	log     *zap.Logger

	now      func() time.Time
	lockWait time.Duration
}

func NewCreateBooking(
	repo domain.Repository,
	locker lock.Locker,
	audit *audit.Dispatcher,
	metrics *metrics.Metrics,
	log *zap.Logger,
) *CreateBooking {
	return &CreateBooking{
		repo:    repo,
		locker:  locker,
		audit:   audit,
		metrics: metrics,
		log:     log,

		now:      time.Now,
		lockWait: 5 * time.Second,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CreateBooking) Execute(
	ctx context.Context,
	caller identity.Caller,
	in CreateBookingInput,
) (*models.Booking, error) {

	// --------------------------------------------------
	// Input
	// --------------------------------------------------
	in.ServiceName = strings.TrimSpace(in.ServiceName)
	if err := validators.ValidateStruct(in); err != nil {
		return nil, httperr.ErrBusinessDetail("invalid_input", err.Error())
	}

	start := in.StartTime.UTC()
	if !start.After(uc.now()) {
		return nil, httperr.ErrBusiness("start_in_past")
	}

	// --------------------------------------------------
	// Barber
	// --------------------------------------------------
	barber, err := uc.repo.GetBarber(ctx, in.BarberID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, httperr.ErrBusiness("barber_not_found")
	}
	if err != nil {
		return nil, err
	}
	if !barber.IsBarber || !barber.IsActive {
		return nil, httperr.ErrBusiness("barber_not_found")
	}

	// --------------------------------------------------
	// Check and insert under the barber lock
	// --------------------------------------------------
	lockCtx, cancel := context.WithTimeout(ctx, uc.lockWait)
	release, err := uc.locker.Acquire(lockCtx, lock.BarberKey(barber.ID))
	cancel()
	if errors.Is(err, lock.ErrNotAcquired) {
		return nil, httperr.ErrBusiness("booking_busy")
	}
	if err != nil {
		return nil, fmt.Errorf("acquire barber lock: %w", err)
	}
	defer release()

	b := &models.Booking{
		CustomerID:      caller.UserID,
		BarberID:        barber.ID,
		ServiceName:     in.ServiceName,
		ServicePrice:    in.ServicePrice,
		Notes:           in.Notes,
		StartTime:       start,
		DurationMinutes: in.DurationMinutes,
		Status:          string(domain.InitialStatus()),
		PaymentStatus:   string(domain.InitialPaymentStatus()),
	}

	err = uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		if err := tx.LockBarber(ctx, barber.ID); err != nil {
			return err
		}

		ok, err := domain.NewEngine(tx).CheckSlotAvailable(ctx, barber.ID, start, in.DurationMinutes)
		if err != nil {
			return err
		}
		if !ok {
			return httperr.ErrBusiness("slot_unavailable")
		}

		return tx.CreateBooking(ctx, b)
	})

	if httperr.IsExclusionConflict(err) {
		err = httperr.ErrBusiness("slot_unavailable")
	}
	if httperr.IsBusiness(err, "slot_unavailable") {
		uc.metrics.BookingConflict()
		uc.audit.Dispatch(audit.Event{
			UserID:   &caller.UserID,
			Action:   "booking_conflict",
			Entity:   "booking",
			Metadata: map[string]any{"barber_id": barber.ID, "start_time": start},
		})
		return nil, err
	}
	if errors.Is(err, domain.ErrInvalidInput) {
		return nil, httperr.ErrBusiness("invalid_input")
	}
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// Audit
	// --------------------------------------------------
	uc.metrics.BookingCreated()
	uc.audit.Dispatch(audit.Event{
		UserID:   &caller.UserID,
		Action:   "booking_created",
		Entity:   "booking",
		EntityID: &b.ID,
	})
	uc.log.Info("booking created",
		zap.Uint("booking_id", b.ID),
		zap.Uint("barber_id", b.BarberID),
		zap.Time("start_time", b.StartTime),
	)

	return b, nil
}
