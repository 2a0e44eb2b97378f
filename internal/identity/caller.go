package identity

import "github.com/BruksfildServices01/barber-marketplace/internal/httperr"

// Caller is the authenticated principal handed to every use case.
// Capabilities are checked explicitly; there is no role hierarchy.
type Caller struct {
	UserID   uint
	Email    string
	IsBarber bool
}

func (c Caller) Is(userID uint) bool {
	return c.UserID != 0 && c.UserID == userID
}

func (c Caller) RequireBarber() error {
	if !c.IsBarber {
		return httperr.ErrBusiness("barber_only")
	}
	return nil
}

// RequireParty allows the caller only if they are one of ids.
func (c Caller) RequireParty(ids ...uint) error {
	for _, id := range ids {
		if c.Is(id) {
			return nil
		}
	}
	return httperr.ErrBusiness("forbidden")
}
