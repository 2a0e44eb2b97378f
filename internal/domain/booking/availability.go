package booking

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/BruksfildServices01/barber-marketplace/internal/models"
)

var ErrInvalidInput = errors.New("availability: invalid input")

// Interval is half-open: [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func NewInterval(start time.Time, durationMinutes int) Interval {
	return Interval{
		Start: start,
		End:   start.Add(time.Duration(durationMinutes) * time.Minute),
	}
}

// Overlaps is strict: touching endpoints do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

type Slot struct {
	Start     time.Time `json:"start_time"`
	End       time.Time `json:"end_time"`
	Available bool      `json:"available"`
}

type BookingFetcher interface {
	// FetchActiveBookings returns the barber's bookings that intersect window.
	// Implementations should filter to active statuses; the engine re-checks.
	FetchActiveBookings(
		ctx context.Context,
		barberID uint,
		window Interval,
	) ([]models.Booking, error)
}

// Engine answers slot questions for one barber at a time. It only reads
// from the store.
type Engine struct {
	store BookingFetcher
}

func NewEngine(store BookingFetcher) *Engine {
	return &Engine{store: store}
}

func (e *Engine) CheckSlotAvailable(
	ctx context.Context,
	barberID uint,
	start time.Time,
	durationMinutes int,
) (bool, error) {

	if durationMinutes <= 0 || start.IsZero() {
		return false, ErrInvalidInput
	}

	candidate := NewInterval(start, durationMinutes)

	existing, err := e.store.FetchActiveBookings(ctx, barberID, candidate)
	if err != nil {
		return false, err
	}

	return !overlapsAny(activeIntervals(existing), candidate), nil
}

// ComputeDailyAvailability walks the working window of date in fixed slots.
// The returned sequence can be ranged over more than once.
func (e *Engine) ComputeDailyAvailability(
	ctx context.Context,
	barberID uint,
	date time.Time,
	window DayWindow,
) (iter.Seq[Slot], error) {

	if err := window.Validate(); err != nil {
		return nil, err
	}
	if window.Closed {
		return func(func(Slot) bool) {}, nil
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	day := Interval{Start: dayStart, End: dayStart.AddDate(0, 0, 1)}

	existing, err := e.store.FetchActiveBookings(ctx, barberID, day)
	if err != nil {
		return nil, err
	}

	busy := activeIntervals(existing)
	opensAt, closesAt := window.Bounds(dayStart)
	step := window.Slot

	return func(yield func(Slot) bool) {
		for cur := opensAt; !cur.Add(step).After(closesAt); cur = cur.Add(step) {
			slot := Interval{Start: cur, End: cur.Add(step)}
			if !yield(Slot{
				Start:     slot.Start,
				End:       slot.End,
				Available: !overlapsAny(busy, slot),
			}) {
				return
			}
		}
	}, nil
}

func activeIntervals(bookings []models.Booking) []Interval {
	out := make([]Interval, 0, len(bookings))
	for _, b := range bookings {
		if !Status(b.Status).IsActive() {
			continue
		}
		out = append(out, NewInterval(b.StartTime, b.DurationMinutes))
	}
	return out
}

func overlapsAny(busy []Interval, candidate Interval) bool {
	for _, b := range busy {
		if b.Overlaps(candidate) {
			return true
		}
	}
	return false
}
