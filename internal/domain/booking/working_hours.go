package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/BruksfildServices01/barber-marketplace/internal/models"
)

// DayWindow is a working day expressed as offsets from local midnight.
type DayWindow struct {
	Open   time.Duration
	Close  time.Duration
	Slot   time.Duration
	Closed bool
}

// DefaultDayWindow is used when a barber has not configured the weekday.
var DefaultDayWindow = DayWindow{
	Open:  9 * time.Hour,
	Close: 18 * time.Hour,
	Slot:  time.Hour,
}

func (w DayWindow) Validate() error {
	if w.Closed {
		return nil
	}
	if w.Slot <= 0 || w.Open < 0 || w.Close > 24*time.Hour || w.Open >= w.Close {
		return ErrInvalidInput
	}
	return nil
}

// Bounds returns wall-clock open and close on the day of dayStart, so DST
// shifts do not move the window.
func (w DayWindow) Bounds(dayStart time.Time) (time.Time, time.Time) {
	at := func(offset time.Duration) time.Time {
		h := int(offset / time.Hour)
		m := int((offset % time.Hour) / time.Minute)
		return time.Date(dayStart.Year(), dayStart.Month(), dayStart.Day(), h, m, 0, 0, dayStart.Location())
	}
	return at(w.Open), at(w.Close)
}

// ParseDayHours converts a stored "HH:MM" entry. The slot length stays at
// the default hour.
func ParseDayHours(dh models.DayHours) (DayWindow, error) {
	if dh.Closed {
		return DayWindow{Closed: true, Slot: DefaultDayWindow.Slot}, nil
	}

	open, err := parseClock(dh.Start)
	if err != nil {
		return DayWindow{}, err
	}
	closeAt, err := parseClock(dh.End)
	if err != nil {
		return DayWindow{}, err
	}

	w := DayWindow{Open: open, Close: closeAt, Slot: DefaultDayWindow.Slot}
	if err := w.Validate(); err != nil {
		return DayWindow{}, fmt.Errorf("working hours %s-%s: %w", dh.Start, dh.End, err)
	}
	return w, nil
}

// WindowFor picks the configured hours for date's weekday. Configured hours
// replace the default; missing or unparsable entries fall back to it.
func WindowFor(hours map[string]models.DayHours, date time.Time) DayWindow {
	dh, ok := hours[WeekdayKey(date.Weekday())]
	if !ok {
		return DefaultDayWindow
	}
	w, err := ParseDayHours(dh)
	if err != nil {
		return DefaultDayWindow
	}
	return w
}

func WeekdayKey(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// ValidateWorkingHours is used when a barber saves a profile.
func ValidateWorkingHours(hours map[string]models.DayHours) error {
	for key, dh := range hours {
		if !isWeekdayKey(key) {
			return fmt.Errorf("unknown weekday %q: %w", key, ErrInvalidInput)
		}
		if _, err := ParseDayHours(dh); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

func isWeekdayKey(key string) bool {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if WeekdayKey(d) == key {
			return true
		}
	}
	return false
}

func parseClock(hm string) (time.Duration, error) {
	t, err := time.Parse("15:04", hm)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", hm, ErrInvalidInput)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
