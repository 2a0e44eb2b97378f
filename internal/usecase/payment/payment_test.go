package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/barber-marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/barber-marketplace/internal/httperr"
	"github.com/BruksfildServices01/barber-marketplace/internal/identity"
	"github.com/BruksfildServices01/barber-marketplace/internal/infra/repository/memrepo"
	"github.com/BruksfildServices01/barber-marketplace/internal/models"
	gateway "github.com/BruksfildServices01/barber-marketplace/internal/payment"
)

const (
	barberID   uint = 10
	customerID uint = 20
)

var (
	customer = identity.Caller{UserID: customerID}
	barber   = identity.Caller{UserID: barberID, IsBarber: true}
)

// fakeGateway records requests and answers from its fields.
type fakeGateway struct {
	keys       []string
	created    []gateway.IntentRequest
	intent     gateway.Intent
	refund     gateway.Refund
	event      *gateway.WebhookEvent
	err        error
	refundedID string
}

func (f *fakeGateway) CreateIntent(_ context.Context, req gateway.IntentRequest) (*gateway.Intent, error) {
	f.keys = append(f.keys, req.IdempotencyKey)
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, req)
	in := f.intent
	return &in, nil
}

func (f *fakeGateway) GetIntent(_ context.Context, id string) (*gateway.Intent, error) {
	if f.err != nil {
		return nil, f.err
	}
	in := f.intent
	in.ID = id
	return &in, nil
}

func (f *fakeGateway) Refund(_ context.Context, intentID string) (*gateway.Refund, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.refundedID = intentID
	r := f.refund
	return &r, nil
}

func (f *fakeGateway) ParseWebhook(_ []byte, _ string) (*gateway.WebhookEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.event, nil
}

var _ gateway.Gateway = (*fakeGateway)(nil)

func seed(t *testing.T, mutate func(*models.Booking)) (*memrepo.Store, models.Booking) {
	t.Helper()
	repo := memrepo.New()
	b := models.Booking{
		BarberID:        barberID,
		CustomerID:      customerID,
		ServiceName:     "Haircut",
		ServicePrice:    25.50,
		StartTime:       time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Status:          string(domain.StatusPending),
		PaymentStatus:   string(domain.PaymentPending),
	}
	if mutate != nil {
		mutate(&b)
	}
	return repo, repo.PutBooking(b)
}

func stored(t *testing.T, repo *memrepo.Store, id uint) *models.Booking {
	t.Helper()
	b, err := repo.GetBooking(context.Background(), id)
	require.NoError(t, err)
	return b
}

// ----------------------------------------
// CreatePaymentIntent
// ----------------------------------------

func TestCreatePaymentIntent_StoresIntent(t *testing.T) {
	repo, b := seed(t, nil)
	gw := &fakeGateway{intent: gateway.Intent{ID: "pi_123", ClientSecret: "pi_123_secret"}}
	uc := NewCreatePaymentIntent(repo, gw, nil, zap.NewNop())

	res, err := uc.Execute(context.Background(), customer, CreateIntentInput{BookingID: b.ID, Currency: "eur"})
	require.NoError(t, err)
	assert.Equal(t, "pi_123", res.PaymentIntentID)
	assert.Equal(t, "pi_123_secret", res.ClientSecret)

	require.Len(t, gw.created, 1)
	assert.Equal(t, int64(2550), gw.created[0].AmountCents)
	assert.Equal(t, "eur", gw.created[0].Currency)
	assert.Equal(t, b.ID, gw.created[0].BookingID)

	assert.Equal(t, "pi_123", stored(t, repo, b.ID).PaymentIntentID)
}

func TestCreatePaymentIntent_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		caller identity.Caller
		mutate func(*models.Booking)
		code   string
	}{
		{"not the customer", barber, nil, "booking_not_found"},
		{"already paid", customer, func(b *models.Booking) { b.PaymentStatus = string(domain.PaymentPaid) }, "already_paid"},
		{"cancelled", customer, func(b *models.Booking) { b.Status = string(domain.StatusCancelled) }, "invalid_state"},
		{"free service", customer, func(b *models.Booking) { b.ServicePrice = 0 }, "invalid_input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, b := seed(t, tt.mutate)
			gw := &fakeGateway{}
			uc := NewCreatePaymentIntent(repo, gw, nil, zap.NewNop())

			_, err := uc.Execute(context.Background(), tt.caller, CreateIntentInput{BookingID: b.ID})
			assert.True(t, httperr.IsBusiness(err, tt.code), "got %v", err)
			assert.Empty(t, gw.created)
		})
	}
}

func TestCreatePaymentIntent_ProviderError(t *testing.T) {
	repo, b := seed(t, nil)
	gw := &fakeGateway{err: &gateway.ProviderError{Op: "create_intent", Code: "card_declined", Message: "declined"}}
	uc := NewCreatePaymentIntent(repo, gw, nil, zap.NewNop())

	_, err := uc.Execute(context.Background(), customer, CreateIntentInput{BookingID: b.ID})
	assert.True(t, httperr.IsBusiness(err, "payment_provider_error"))
	assert.Empty(t, stored(t, repo, b.ID).PaymentIntentID)
}

func TestCreatePaymentIntent_RetryReusesIdempotencyKey(t *testing.T) {
	repo, b := seed(t, nil)
	gw := &fakeGateway{err: &gateway.ProviderError{Op: "create_intent", Message: "timeout"}}
	uc := NewCreatePaymentIntent(repo, gw, nil, zap.NewNop())
	ctx := context.Background()

	_, err := uc.Execute(ctx, customer, CreateIntentInput{BookingID: b.ID})
	require.Error(t, err)

	gw.err = nil
	gw.intent = gateway.Intent{ID: "pi_1"}
	_, err = uc.Execute(ctx, customer, CreateIntentInput{BookingID: b.ID})
	require.NoError(t, err)

	require.Len(t, gw.keys, 2)
	assert.NotEmpty(t, gw.keys[0])
	assert.Equal(t, gw.keys[0], gw.keys[1], "a retry must repeat the key")

	// Once the intent is stored the row changed, so a new attempt gets a new key.
	gw.intent = gateway.Intent{ID: "pi_2"}
	_, err = uc.Execute(ctx, customer, CreateIntentInput{BookingID: b.ID})
	require.NoError(t, err)
	assert.NotEqual(t, gw.keys[1], gw.keys[2])
}

// ----------------------------------------
// ConfirmPayment
// ----------------------------------------

func TestConfirmPayment(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		code    string
		payment domain.PaymentStatus
	}{
		{"succeeded", gateway.IntentSucceeded, "", domain.PaymentPaid},
		{"needs card", gateway.IntentRequiresPaymentMethod, "payment_requires_action", domain.PaymentPending},
		{"canceled", gateway.IntentCanceled, "payment_failed", domain.PaymentPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, b := seed(t, func(b *models.Booking) { b.PaymentIntentID = "pi_1" })
			gw := &fakeGateway{intent: gateway.Intent{Status: tt.status}}
			uc := NewConfirmPayment(repo, gw, nil, nil, zap.NewNop())

			_, err := uc.Execute(context.Background(), customer, "pi_1")
			if tt.code == "" {
				require.NoError(t, err)
			} else {
				assert.True(t, httperr.IsBusiness(err, tt.code), "got %v", err)
			}
			assert.Equal(t, string(tt.payment), stored(t, repo, b.ID).PaymentStatus)
		})
	}
}

func TestConfirmPayment_IdempotentAndScoped(t *testing.T) {
	repo, _ := seed(t, func(b *models.Booking) {
		b.PaymentIntentID = "pi_1"
		b.PaymentStatus = string(domain.PaymentPaid)
	})
	gw := &fakeGateway{intent: gateway.Intent{Status: gateway.IntentSucceeded}}
	uc := NewConfirmPayment(repo, gw, nil, nil, zap.NewNop())
	ctx := context.Background()

	b, err := uc.Execute(ctx, customer, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, string(domain.PaymentPaid), b.PaymentStatus)

	_, err = uc.Execute(ctx, identity.Caller{UserID: 99}, "pi_1")
	assert.True(t, httperr.IsBusiness(err, "forbidden"))

	_, err = uc.Execute(ctx, customer, "pi_missing")
	assert.True(t, httperr.IsBusiness(err, "booking_not_found"))

	_, err = uc.Execute(ctx, customer, "")
	assert.True(t, httperr.IsBusiness(err, "invalid_input"))
}

// ----------------------------------------
// HandleWebhook
// ----------------------------------------

func TestHandleWebhook_ParseErrors(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{gateway.ErrMissingSignature, "missing_signature"},
		{gateway.ErrInvalidSignature, "invalid_signature"},
		{gateway.ErrInvalidPayload, "invalid_payload"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			repo, _ := seed(t, nil)
			uc := NewHandleWebhook(repo, &fakeGateway{err: tt.err}, nil, nil, zap.NewNop())

			_, err := uc.Execute(context.Background(), []byte("{}"), "sig")
			assert.True(t, httperr.IsBusiness(err, tt.code), "got %v", err)
		})
	}
}

func TestHandleWebhook_Events(t *testing.T) {
	tests := []struct {
		name    string
		event   string
		initial domain.PaymentStatus
		status  string
		final   domain.PaymentStatus
	}{
		{"succeeded", gateway.EventIntentSucceeded, domain.PaymentPending, "success", domain.PaymentPaid},
		{"failed", gateway.EventIntentFailed, domain.PaymentPending, "failed", domain.PaymentFailed},
		{"retry after failure", gateway.EventIntentSucceeded, domain.PaymentFailed, "success", domain.PaymentPaid},
		{"late failure after paid", gateway.EventIntentFailed, domain.PaymentPaid, "failed", domain.PaymentPaid},
		{"duplicate success", gateway.EventIntentSucceeded, domain.PaymentPaid, "success", domain.PaymentPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, b := seed(t, func(b *models.Booking) {
				b.PaymentIntentID = "pi_1"
				b.PaymentStatus = string(tt.initial)
			})
			gw := &fakeGateway{event: &gateway.WebhookEvent{ID: "evt_1", Type: tt.event, IntentID: "pi_1"}}
			uc := NewHandleWebhook(repo, gw, nil, nil, zap.NewNop())

			res, err := uc.Execute(context.Background(), []byte("{}"), "sig")
			require.NoError(t, err)
			assert.Equal(t, tt.status, res.Status)
			require.NotNil(t, res.BookingID)
			assert.Equal(t, b.ID, *res.BookingID)
			assert.Equal(t, string(tt.final), stored(t, repo, b.ID).PaymentStatus)
		})
	}
}

func TestHandleWebhook_IgnoredAndUnknown(t *testing.T) {
	repo, _ := seed(t, nil)
	ctx := context.Background()

	gw := &fakeGateway{event: &gateway.WebhookEvent{Type: "charge.refunded"}}
	res, err := NewHandleWebhook(repo, gw, nil, nil, zap.NewNop()).Execute(ctx, nil, "sig")
	require.NoError(t, err)
	assert.Equal(t, "ignored", res.Status)

	gw = &fakeGateway{event: &gateway.WebhookEvent{Type: gateway.EventIntentSucceeded, IntentID: "pi_unknown"}}
	res, err = NewHandleWebhook(repo, gw, nil, nil, zap.NewNop()).Execute(ctx, nil, "sig")
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	assert.Nil(t, res.BookingID)
}

// ----------------------------------------
// RefundPayment
// ----------------------------------------

func TestRefundPayment(t *testing.T) {
	paid := func(b *models.Booking) {
		b.PaymentIntentID = "pi_1"
		b.PaymentStatus = string(domain.PaymentPaid)
	}

	t.Run("succeeded", func(t *testing.T) {
		repo, b := seed(t, paid)
		gw := &fakeGateway{refund: gateway.Refund{ID: "re_1", Status: gateway.RefundSucceeded, AmountCents: 2550}}

		res, err := NewRefundPayment(repo, gw, nil, nil, zap.NewNop()).Execute(context.Background(), barber, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "re_1", res.RefundID)
		assert.InDelta(t, 25.50, res.Amount, 0.001)
		assert.Equal(t, "pi_1", gw.refundedID)
		assert.Equal(t, string(domain.PaymentRefunded), stored(t, repo, b.ID).PaymentStatus)
	})

	t.Run("pending refund keeps booking paid", func(t *testing.T) {
		repo, b := seed(t, paid)
		gw := &fakeGateway{refund: gateway.Refund{ID: "re_2", Status: "pending", AmountCents: 2550}}

		res, err := NewRefundPayment(repo, gw, nil, nil, zap.NewNop()).Execute(context.Background(), barber, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "pending", res.Status)
		assert.Equal(t, string(domain.PaymentPaid), stored(t, repo, b.ID).PaymentStatus)
	})

	t.Run("customer cannot refund", func(t *testing.T) {
		repo, b := seed(t, paid)
		_, err := NewRefundPayment(repo, &fakeGateway{}, nil, nil, zap.NewNop()).Execute(context.Background(), customer, b.ID)
		assert.True(t, httperr.IsBusiness(err, "forbidden"))
	})

	t.Run("no intent", func(t *testing.T) {
		repo, b := seed(t, nil)
		_, err := NewRefundPayment(repo, &fakeGateway{}, nil, nil, zap.NewNop()).Execute(context.Background(), barber, b.ID)
		assert.True(t, httperr.IsBusiness(err, "no_payment"))
	})

	t.Run("not yet paid", func(t *testing.T) {
		repo, b := seed(t, func(b *models.Booking) { b.PaymentIntentID = "pi_1" })
		gw := &fakeGateway{}
		_, err := NewRefundPayment(repo, gw, nil, nil, zap.NewNop()).Execute(context.Background(), barber, b.ID)
		assert.True(t, httperr.IsBusiness(err, "no_payment"))
		assert.Empty(t, gw.refundedID)
	})
}
