package payment

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

const testWebhookSecret = "whsec_test"

func newTestGateway(t *testing.T, h http.HandlerFunc) *StripeGateway {
	t.Helper()

	var backends *stripe.Backends
	if h != nil {
		srv := httptest.NewServer(h)
		t.Cleanup(srv.Close)

		backends = &stripe.Backends{
			API: stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
				URL:               stripe.String(srv.URL),
				MaxNetworkRetries: stripe.Int64(0),
				LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
			}),
		}
	}

	g := NewStripeGateway(StripeConfig{
		SecretKey:     "sk_test_123",
		WebhookSecret: testWebhookSecret,
	}, backends)
	g.newKey = func() string { return "fixed" }
	return g
}

func signed(t *testing.T, payload string, secret string, at time.Time) (string, []byte) {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    secret,
		Timestamp: at,
	})
	return sp.Header, sp.Payload
}

func TestParseWebhook_PaymentIntentEvent(t *testing.T) {
	g := newTestGateway(t, nil)
	header, body := signed(t,
		`{"id":"evt_1","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_42","object":"payment_intent"}}}`,
		testWebhookSecret, time.Now())

	ev, err := g.ParseWebhook(body, header)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, EventIntentSucceeded, ev.Type)
	assert.Equal(t, "pi_42", ev.IntentID)
}

func TestParseWebhook_OtherEventHasNoIntent(t *testing.T) {
	g := newTestGateway(t, nil)
	header, body := signed(t,
		`{"id":"evt_2","object":"event","type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`,
		testWebhookSecret, time.Now())

	ev, err := g.ParseWebhook(body, header)
	require.NoError(t, err)
	assert.Equal(t, "customer.created", ev.Type)
	assert.Empty(t, ev.IntentID)
}

func TestParseWebhook_Errors(t *testing.T) {
	g := newTestGateway(t, nil)
	valid := `{"id":"evt_1","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`

	t.Run("missing signature", func(t *testing.T) {
		_, err := g.ParseWebhook([]byte(valid), "")
		assert.ErrorIs(t, err, ErrMissingSignature)
	})

	t.Run("wrong secret", func(t *testing.T) {
		header, body := signed(t, valid, "whsec_other", time.Now())
		_, err := g.ParseWebhook(body, header)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("garbage header", func(t *testing.T) {
		_, err := g.ParseWebhook([]byte(valid), "not-a-stripe-header")
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("too old", func(t *testing.T) {
		header, body := signed(t, valid, testWebhookSecret, time.Now().Add(-time.Hour))
		_, err := g.ParseWebhook(body, header)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("tampered body", func(t *testing.T) {
		header, _ := signed(t, valid, testWebhookSecret, time.Now())
		_, err := g.ParseWebhook([]byte(`{"id":"evt_x"}`), header)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("signed but malformed", func(t *testing.T) {
		header, body := signed(t, `{not json`, testWebhookSecret, time.Now())
		_, err := g.ParseWebhook(body, header)
		assert.ErrorIs(t, err, ErrInvalidPayload)
	})
}

func TestCreateIntent_SendsAmountAndMetadata(t *testing.T) {
	var (
		form        url.Values
		idempotency string
	)
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(raw))
		idempotency = r.Header.Get("Idempotency-Key")

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"pi_9","object":"payment_intent","client_secret":"pi_9_secret","status":"requires_payment_method","amount":2550,"currency":"usd"}`)
	})

	in, err := g.CreateIntent(context.Background(), IntentRequest{
		BookingID:   7,
		CustomerID:  20,
		BarberID:    10,
		AmountCents: 2550,
	})
	require.NoError(t, err)

	assert.Equal(t, "pi_9", in.ID)
	assert.Equal(t, "pi_9_secret", in.ClientSecret)
	assert.Equal(t, IntentRequiresPaymentMethod, in.Status)

	assert.Equal(t, "2550", form.Get("amount"))
	assert.Equal(t, "usd", form.Get("currency"))
	assert.Equal(t, "7", form.Get("metadata[booking_id]"))
	assert.Equal(t, "true", form.Get("automatic_payment_methods[enabled]"))
	assert.Equal(t, "booking-7-fixed", idempotency)
}

func TestCreateIntent_UsesCallerKey(t *testing.T) {
	var keys []string
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"pi_9","object":"payment_intent","status":"requires_payment_method"}`)
	})

	req := IntentRequest{BookingID: 7, AmountCents: 100, IdempotencyKey: "booking-7-1700000000"}
	for range 2 {
		_, err := g.CreateIntent(context.Background(), req)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"booking-7-1700000000", "booking-7-1700000000"}, keys)
}

func TestRefund_ProviderError(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"type":"invalid_request_error","code":"charge_already_refunded","message":"Charge has already been refunded."}}`)
	})

	_, err := g.Refund(context.Background(), "pi_1")
	require.Error(t, err)

	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "charge_already_refunded", pe.Code)
	assert.Equal(t, "create refund", pe.Op)
}

func TestCents(t *testing.T) {
	assert.Equal(t, int64(2550), ToCents(25.50))
	assert.Equal(t, int64(1999), ToCents(19.99))
	assert.Equal(t, int64(0), ToCents(-3))
	assert.InDelta(t, 19.99, FromCents(1999), 1e-9)
}
