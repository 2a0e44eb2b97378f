package payment

import (
	"errors"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-marketplace/internal/httperr"
	gateway "github.com/BruksfildServices01/barber-marketplace/internal/payment"
)

// providerFailure logs processor errors and hides them behind a business code.
func providerFailure(log *zap.Logger, err error) error {
	var pe *gateway.ProviderError
	if errors.As(err, &pe) {
		log.Warn("payment provider error",
			zap.String("op", pe.Op),
			zap.String("code", pe.Code),
			zap.String("message", pe.Message),
		)
		return httperr.ErrBusiness("payment_provider_error")
	}
	return err
}
