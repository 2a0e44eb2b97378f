package timezone

import (
	"fmt"
	"time"
)

// Resolve loads an IANA zone name. Empty means UTC.
func Resolve(name string) (*time.Location, error) {
	if name == "" || name == "UTC" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", name, err)
	}
	return loc, nil
}

// Location is Resolve for values already checked at startup; unknown names
// fall back to UTC.
func Location(name string) *time.Location {
	loc, err := Resolve(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
