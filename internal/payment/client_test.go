package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"voyago/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := zerolog.Nop()
	return NewClient(config.PaymentConfig{
		SecretKey: "sk_test_123",
		BaseURL:   server.URL,
		Currency:  "usd",
	}, &logger)
}

func TestCreateIntent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("Idempotency-Key"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "45000", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "7", r.PostForm.Get("metadata[booking_id]"))
		assert.Equal(t, "VG-TEST", r.PostForm.Get("metadata[booking_reference]"))

		json.NewEncoder(w).Encode(map[string]any{
			"id":            "pi_123",
			"client_secret": "pi_123_secret_abc",
			"status":        "requires_payment_method",
			"amount":        45000,
			"currency":      "usd",
		})
	})

	intent, err := client.CreateIntent(context.Background(), 450, 7, "VG-TEST")
	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "pi_123_secret_abc", intent.ClientSecret)
	assert.Equal(t, "requires_payment_method", intent.Status)
}

func TestGetIntent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/payment_intents/pi_123", r.URL.Path)

		json.NewEncoder(w).Encode(map[string]any{
			"id":     "pi_123",
			"status": "succeeded",
		})
	})

	intent, err := client.GetIntent(context.Background(), "pi_123")
	require.NoError(t, err)
	assert.Equal(t, "succeeded", intent.Status)
}

func TestProcessorErrorSurfaced(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{
				"type":    "card_error",
				"message": "Your card was declined.",
			},
		})
	})

	_, err := client.CreateIntent(context.Background(), 100, 1, "VG-X")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "card_error", apiErr.Type)
	assert.Equal(t, "Your card was declined.", apiErr.Message)
}

func TestMalformedErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("gateway exploded"))
	})

	_, err := client.GetIntent(context.Background(), "pi_123")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestMissingIntentID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := client.GetIntent(context.Background(), "pi_123")
	assert.Error(t, err)
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(45000), toMinorUnits(450))
	assert.Equal(t, int64(9999), toMinorUnits(99.99))
	assert.Equal(t, int64(10), toMinorUnits(0.1))
}
