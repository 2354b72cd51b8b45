package models

import "time"

type Booking struct {
	ID              int64     `json:"id"`
	Reference       string    `json:"bookingReference"`
	UserID          int64     `json:"userId"`
	BookingType     ItemType  `json:"bookingType"` // hotel, tour, package
	ItemID          int64     `json:"itemId"`
	ItemName        string    `json:"itemName"`
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	Guests          int64     `json:"guests"`
	TotalPrice      float64   `json:"totalPrice"`
	Notes           string    `json:"notes,omitempty"`
	Status          string    `json:"status"`
	PaymentIntentID string    `json:"paymentIntentId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	Version         int64     `json:"version"`
}

// IsTerminal reports whether the booking can no longer change status
// through the payment pipeline.
func (b *Booking) IsTerminal() bool {
	switch b.Status {
	case StatusConfirmed, StatusCancelled, StatusPaymentFailed, StatusCompleted:
		return true
	}
	return false
}
