package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"voyago/internal/models"
)

// handlePaymentConfig hands the storefront the publishable key it needs
// to mount the payment element. The secret key never appears here.
func (s *Server) handlePaymentConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"publishableKey": s.cfg.Payment.PublishableKey,
		"currency":       s.cfg.Payment.Currency,
	})
}

func (s *Server) handleCreateIntent(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	var body struct {
		BookingID int64   `json:"bookingId"`
		Amount    float64 `json:"amount"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	paymentRow, err := s.payments.CreateIntent(r.Context(), body.BookingID, body.Amount, claims.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"paymentIntentId": paymentRow.IntentID,
		"clientSecret":    paymentRow.ClientSecret,
		"amount":          paymentRow.Amount,
		"currency":        paymentRow.Currency,
		"status":          paymentRow.Status,
	})
}

func (s *Server) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	// The storefront forwards the return-URL query params as-is; status
	// is the redirect_status value and is advisory only.
	var body struct {
		PaymentIntentID string `json:"paymentIntentId"`
		RedirectStatus  string `json:"status"`
		ClientSecret    string `json:"clientSecret"` // forwarded redirect param, unused
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.payments.Verify(r.Context(), body.PaymentIntentID, body.RedirectStatus)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// webhookEvent is the processor's event envelope; only intent events
// carry fields we read.
type webhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"object"`
	} `json:"data"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot read body")
		return
	}

	if !s.verifyWebhookSignature(body, r.Header.Get("Webhook-Signature")) {
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed", "payment_intent.canceled":
	default:
		// Unhandled event types are acknowledged so the processor stops
		// retrying them.
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	if event.Data.Object.ID == "" {
		writeError(w, http.StatusBadRequest, "missing intent id")
		return
	}

	status := event.Data.Object.Status
	if event.Type == "payment_intent.canceled" {
		status = models.IntentStatusCanceled
	}

	if _, err := s.payments.ApplyIntentStatus(r.Context(), event.Data.Object.ID, status); err != nil {
		s.logger.Error().Err(err).Str("intent_id", event.Data.Object.ID).Msg("webhook: apply intent status")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (s *Server) verifyWebhookSignature(body []byte, signature string) bool {
	if s.cfg.Payment.WebhookSecret == "" {
		// No secret configured (local dev); accept unsigned events.
		return true
	}
	if signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(s.cfg.Payment.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
