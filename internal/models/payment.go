package models

import "time"

// Payment mirrors one processor-side PaymentIntent for a booking. The
// processor owns the intent lifecycle; this row tracks what we last saw.
type Payment struct {
	IntentID     string    `json:"paymentIntentId"`
	BookingID    int64     `json:"bookingId"`
	Amount       float64   `json:"amount"`
	Currency     string    `json:"currency"`
	Status       string    `json:"status"`
	ClientSecret string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Processor intent statuses we act on. Anything else is treated as still
// in flight.
const (
	IntentStatusRequiresPayment = "requires_payment_method"
	IntentStatusProcessing      = "processing"
	IntentStatusSucceeded       = "succeeded"
	IntentStatusCanceled        = "canceled"
)

// IntentTerminal reports whether the processor will not move the intent
// further on its own.
func IntentTerminal(status string) bool {
	return status == IntentStatusSucceeded || status == IntentStatusCanceled
}
