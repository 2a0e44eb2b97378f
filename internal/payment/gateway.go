package payment

import (
	"context"
	"errors"
)

var (
	ErrMissingSignature = errors.New("payment: missing webhook signature")
	ErrInvalidSignature = errors.New("payment: invalid webhook signature")
	ErrInvalidPayload   = errors.New("payment: invalid webhook payload")
)

// Intent statuses relevant to booking payment state.
const (
	IntentSucceeded             = "succeeded"
	IntentRequiresPaymentMethod = "requires_payment_method"
	IntentRequiresAction        = "requires_action"
	IntentCanceled              = "canceled"
)

// Webhook event types the service reacts to.
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
)

const RefundSucceeded = "succeeded"

type IntentRequest struct {
	BookingID   uint
	CustomerID  uint
	BarberID    uint
	AmountCents int64
	Currency    string

	// IdempotencyKey must repeat when the same request is retried.
	// Empty makes the gateway generate a one-off key.
	IdempotencyKey string
}

type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	AmountCents  int64
	Currency     string
	Metadata     map[string]string
}

type Refund struct {
	ID          string
	Status      string
	AmountCents int64
}

type WebhookEvent struct {
	ID       string
	Type     string
	IntentID string
}

// Gateway is the narrow view of the payment processor used by the payment flows.
type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
	Refund(ctx context.Context, intentID string) (*Refund, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// ToCents converts a major-unit price.
func ToCents(amount float64) int64 {
	if amount < 0 {
		return 0
	}
	return int64(amount*100 + 0.5)
}

func FromCents(cents int64) float64 {
	return float64(cents) / 100
}
