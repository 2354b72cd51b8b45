package service

import "errors"

var (
	ErrInvalidBooking     = errors.New("booking is missing required fields")
	ErrPastDate           = errors.New("start date is in the past")
	ErrDateOrder          = errors.New("end date is before start date")
	ErrPriceMismatch      = errors.New("total price does not match the listing price")
	ErrAmountMismatch     = errors.New("amount does not match the booking total")
	ErrNotOwner           = errors.New("booking belongs to another user")
	ErrAlreadyPaid        = errors.New("booking is already paid")
	ErrBookingFinal       = errors.New("booking is in a terminal status")
	ErrMissingIntentID    = errors.New("payment intent id is required")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidTransition  = errors.New("status transition is not allowed")
	ErrInvalidCredentials = errors.New("invalid username or password")
)
