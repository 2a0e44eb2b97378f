package httperr

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type HTTPError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

type mapping struct {
	status  int
	message string
}

// Business codes known to the API. Anything else is a 400 with the code as message.
var business = map[string]mapping{
	"invalid_request":         {http.StatusBadRequest, "Invalid request."},
	"invalid_input":           {http.StatusBadRequest, "Invalid input."},
	"invalid_date":            {http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD"},
	"start_in_past":           {http.StatusBadRequest, "Appointment must start in the future."},
	"slot_unavailable":        {http.StatusConflict, "Requested time slot is not available"},
	"booking_busy":            {http.StatusConflict, "Another booking for this barber is in progress, retry shortly"},
	"barber_not_found":        {http.StatusNotFound, "Barber not found or not active"},
	"booking_not_found":       {http.StatusNotFound, "Booking not found"},
	"user_not_found":          {http.StatusNotFound, "User not found"},
	"profile_not_found":       {http.StatusNotFound, "Barber profile not found"},
	"profile_exists":          {http.StatusBadRequest, "Barber profile already exists"},
	"already_reviewed":        {http.StatusBadRequest, "You have already reviewed this barber"},
	"email_taken":             {http.StatusBadRequest, "Email already registered"},
	"forbidden":               {http.StatusForbidden, "Not authorized to access this booking"},
	"barber_only":             {http.StatusForbidden, "User is not a barber"},
	"invalid_state":           {http.StatusBadRequest, "Booking cannot move to the requested status"},
	"cancel_window_closed":    {http.StatusBadRequest, "Cannot cancel booking within the cancellation notice of the appointment"},
	"already_paid":            {http.StatusBadRequest, "Booking is already paid"},
	"no_payment":              {http.StatusBadRequest, "No payment found for this booking"},
	"payment_requires_action": {http.StatusBadRequest, "Payment requires additional authentication"},
	"payment_failed":          {http.StatusBadRequest, "Payment failed"},
	"payment_provider_error":  {http.StatusBadGateway, "Payment provider request failed"},
	"missing_signature":       {http.StatusBadRequest, "Missing Stripe signature"},
	"invalid_signature":       {http.StatusBadRequest, "Invalid signature"},
	"invalid_payload":         {http.StatusBadRequest, "Invalid payload"},
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

func Forbidden(c *gin.Context, code, message string) {
	Write(c, http.StatusForbidden, code, message)
}

// FromError writes business errors with their mapped status and logs the rest as 500s.
func FromError(c *gin.Context, log *zap.Logger, err error) {
	if be, ok := AsBusiness(err); ok {
		m, known := business[be.Code]
		if !known {
			m = mapping{http.StatusBadRequest, be.Code}
		}
		if be.Detail != "" {
			m.message = be.Detail
		}
		Write(c, m.status, be.Code, m.message)
		return
	}

	log.Error("request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	Internal(c, "internal_error", "Internal server error.")
}
