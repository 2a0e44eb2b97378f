package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-marketplace/internal/httperr"
	"github.com/BruksfildServices01/barber-marketplace/internal/httpresp"
	ucPayment "github.com/BruksfildServices01/barber-marketplace/internal/usecase/payment"
)

const maxWebhookBody = 64 << 10

type PaymentHandler struct {
	createIntent *ucPayment.CreatePaymentIntent
	confirm      *ucPayment.ConfirmPayment
	webhook      *ucPayment.HandleWebhook
	refund       *ucPayment.RefundPayment
	log          *zap.Logger
}

func NewPaymentHandler(
	createIntent *ucPayment.CreatePaymentIntent,
	confirm *ucPayment.ConfirmPayment,
	webhook *ucPayment.HandleWebhook,
	refund *ucPayment.RefundPayment,
	log *zap.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		createIntent: createIntent,
		confirm:      confirm,
		webhook:      webhook,
		refund:       refund,
		log:          log,
	}
}

type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" form:"payment_intent_id"`
}

func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var req ucPayment.CreateIntentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	out, err := h.createIntent.Execute(c.Request.Context(), caller, req)
	if err != nil {
		httperr.FromError(c, h.log, err)
		return
	}
	httpresp.OK(c, out)
}

func (h *PaymentHandler) Confirm(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var req ConfirmPaymentRequest
	_ = c.ShouldBind(&req)
	if req.PaymentIntentID == "" {
		req.PaymentIntentID = c.Query("payment_intent_id")
	}

	b, err := h.confirm.Execute(c.Request.Context(), caller, req.PaymentIntentID)
	if err != nil {
		httperr.FromError(c, h.log, err)
		return
	}
	httpresp.OK(c, gin.H{
		"message":        "Payment confirmed successfully",
		"booking_id":     b.ID,
		"payment_status": b.PaymentStatus,
	})
}

// Webhook is unauthenticated; the signature header is the credential.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		httperr.BadRequest(c, "invalid_payload", "Invalid payload")
		return
	}

	out, err := h.webhook.Execute(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		httperr.FromError(c, h.log, err)
		return
	}
	httpresp.OK(c, out)
}

func (h *PaymentHandler) Refund(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}
	bookingID, ok := parseIDParam(c, "booking_id")
	if !ok {
		httperr.BadRequest(c, "invalid_id", "Invalid booking id")
		return
	}

	out, err := h.refund.Execute(c.Request.Context(), caller, bookingID)
	if err != nil {
		httperr.FromError(c, h.log, err)
		return
	}
	httpresp.OK(c, gin.H{
		"message":   "Payment refunded successfully",
		"refund_id": out.RefundID,
		"amount":    out.Amount,
		"status":    out.Status,
	})
}
