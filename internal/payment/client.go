// Package payment wraps the hosted payment processor's REST API. The
// processor owns the intent lifecycle; this client only creates intents
// and reads their current status.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"voyago/internal/config"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Intent is the processor-side payment intent as seen by this service.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// APIError carries the processor's own error message; handlers surface it
// verbatim so the user can retry with corrected details.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("processor error (%d %s): %s", e.StatusCode, e.Type, e.Message)
}

type Client struct {
	baseURL    string
	secretKey  string
	currency   string
	httpClient *http.Client
	logger     *zerolog.Logger
}

func NewClient(cfg config.PaymentConfig, logger *zerolog.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		secretKey: cfg.SecretKey,
		currency:  cfg.Currency,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// CreateIntent registers a new payment intent for a booking. Amount is in
// major currency units and converted to the processor's minor units.
func (c *Client) CreateIntent(ctx context.Context, amount float64, bookingID int64, reference string) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(toMinorUnits(amount), 10))
	form.Set("currency", c.currency)
	form.Set("metadata[booking_id]", strconv.FormatInt(bookingID, 10))
	form.Set("metadata[booking_reference]", reference)
	form.Set("automatic_payment_methods[enabled]", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build create intent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// One idempotency key per booking attempt keeps a double-submitted
	// checkout from minting two intents.
	req.Header.Set("Idempotency-Key", fmt.Sprintf("booking-%d-%s", bookingID, uuid.NewString()[:8]))

	intent, err := c.do(req)
	if err != nil {
		return nil, err
	}
	c.logger.Info().Str("intent_id", intent.ID).Int64("booking_id", bookingID).Msg("payment intent created")
	return intent, nil
}

// GetIntent fetches the current processor-side state of an intent. This
// is the only trusted source of payment status.
func (c *Client) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/payment_intents/"+url.PathEscape(intentID), nil)
	if err != nil {
		return nil, fmt.Errorf("build get intent request: %w", err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*Intent, error) {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("processor request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read processor response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error struct {
				Type    string `json:"type"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Type:       errResp.Error.Type,
			Message:    errResp.Error.Message,
		}
	}

	var intent Intent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, fmt.Errorf("decode processor response: %w", err)
	}
	if intent.ID == "" {
		return nil, fmt.Errorf("processor response missing intent id")
	}
	return &intent, nil
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
