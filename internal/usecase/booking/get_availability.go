package booking

import (
	"context"
	"errors"
	"slices"
	"time"

	domain "github.com/BruksfildServices01/barber-marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/barber-marketplace/internal/httperr"
)

type GetDailyAvailability struct {
	repo domain.Repository
	loc  *time.Location
}

func NewGetDailyAvailability(repo domain.Repository, loc *time.Location) *GetDailyAvailability {
	if loc == nil {
		loc = time.UTC
	}
	return &GetDailyAvailability{repo: repo, loc: loc}
}

type DailyAvailability struct {
	BarberID uint          `json:"barber_id"`
	Date     string        `json:"date"`
	Slots    []domain.Slot `json:"slots"`
}

// Execute reads date as YYYY-MM-DD in the booking timezone.
func (uc *GetDailyAvailability) Execute(
	ctx context.Context,
	barberID uint,
	date string,
) (*DailyAvailability, error) {

	day, err := time.ParseInLocation("2006-01-02", date, uc.loc)
	if err != nil {
		return nil, httperr.ErrBusiness("invalid_date")
	}

	barber, err := uc.repo.GetBarber(ctx, barberID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, httperr.ErrBusiness("barber_not_found")
	}
	if err != nil {
		return nil, err
	}
	if !barber.IsBarber || !barber.IsActive {
		return nil, httperr.ErrBusiness("barber_not_found")
	}

	window := domain.DefaultDayWindow
	profile, err := uc.repo.GetBarberProfile(ctx, barberID)
	switch {
	case err == nil:
		window = domain.WindowFor(profile.WorkingHours, day)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	seq, err := domain.NewEngine(uc.repo).ComputeDailyAvailability(ctx, barberID, day, window)
	if err != nil {
		return nil, err
	}

	slots := slices.Collect(seq)
	if slots == nil {
		slots = []domain.Slot{}
	}

	return &DailyAvailability{
		BarberID: barberID,
		Date:     day.Format("2006-01-02"),
		Slots:    slots,
	}, nil
}
