package service

import (
	"context"
	"errors"
	"fmt"

	"voyago/internal/database"
	"voyago/internal/domain"
	"voyago/internal/events"
	"voyago/internal/metrics"
	"voyago/internal/models"

	"github.com/rs/zerolog"
)

// PaymentService drives the booking payment pipeline. The processor is
// the source of truth for intent state: confirmation only ever happens
// after a server-side intent lookup, never off a redirect parameter.
type PaymentService struct {
	repo       domain.Repository
	provider   domain.PaymentProvider
	cacheOwner *BookingService
	eventBus   domain.EventPublisher
	syncWorker domain.SyncWorker
	currency   string
	logger     *zerolog.Logger
}

func NewPaymentService(repo domain.Repository, provider domain.PaymentProvider, bookings *BookingService, eventBus domain.EventPublisher, syncWorker domain.SyncWorker, currency string, logger *zerolog.Logger) *PaymentService {
	if currency == "" {
		currency = models.DefaultCurrency
	}
	return &PaymentService{
		repo:       repo,
		provider:   provider,
		cacheOwner: bookings,
		eventBus:   eventBus,
		syncWorker: syncWorker,
		currency:   currency,
		logger:     logger,
	}
}

func (s *PaymentService) CreateIntent(ctx context.Context, bookingID int64, amount float64, userID int64) (*models.Payment, error) {
	if bookingID == 0 {
		return nil, ErrInvalidBooking
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrNotOwner
	}
	if booking.Status == models.StatusConfirmed || booking.Status == models.StatusCompleted {
		return nil, ErrAlreadyPaid
	}
	if booking.IsTerminal() {
		return nil, ErrBookingFinal
	}
	if amount != booking.TotalPrice {
		return nil, ErrAmountMismatch
	}

	// Re-use an open intent if one is already attached, so a customer
	// who reloads checkout keeps the same client secret.
	if existing, err := s.repo.GetPaymentByBooking(ctx, bookingID); err == nil {
		if !models.IntentTerminal(existing.Status) {
			return existing, nil
		}
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	intent, err := s.provider.CreateIntent(ctx, amount, booking.ID, booking.Reference)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	paymentRow := &models.Payment{
		IntentID:     intent.ID,
		BookingID:    booking.ID,
		Amount:       amount,
		Currency:     s.currency,
		Status:       intent.Status,
		ClientSecret: intent.ClientSecret,
	}
	if err := s.repo.CreatePayment(ctx, paymentRow); err != nil {
		return nil, fmt.Errorf("record payment intent: %w", err)
	}

	if err := s.repo.AttachPaymentIntent(ctx, booking.ID, booking.Version, intent.ID); err != nil {
		return nil, err
	}

	if s.cacheOwner != nil {
		s.cacheOwner.invalidateUserCache(ctx, booking.UserID)
	}
	if s.eventBus != nil {
		booking.PaymentIntentID = intent.ID
		booking.Status = models.StatusAwaitingPayment
		s.publishPaymentEvent(events.EventIntentCreated, booking)
	}

	return paymentRow, nil
}

func (s *PaymentService) Verify(ctx context.Context, intentID, redirectStatus string) (*domain.VerifyResult, error) {
	if intentID == "" {
		return nil, ErrMissingIntentID
	}

	// redirectStatus comes off the return URL and is attacker
	// controlled; it is only logged, never trusted.
	s.logger.Debug().Str("intent_id", intentID).Str("redirect_status", redirectStatus).Msg("verifying payment")

	intent, err := s.provider.GetIntent(ctx, intentID)
	if err != nil {
		return nil, fmt.Errorf("fetch payment intent: %w", err)
	}

	booking, err := s.ApplyIntentStatus(ctx, intentID, intent.Status)
	if err != nil {
		return nil, err
	}

	paymentRow, err := s.repo.GetPayment(ctx, intentID)
	if err != nil {
		return nil, err
	}

	result := &domain.VerifyResult{
		Booking: booking,
		Payment: paymentRow,
	}
	switch intent.Status {
	case models.IntentStatusSucceeded:
		result.Success = true
	case models.IntentStatusProcessing:
		result.Message = "payment is still processing, check back shortly"
	case models.IntentStatusCanceled:
		result.Message = "payment was not completed"
	default:
		result.Message = "payment requires a payment method"
	}
	return result, nil
}

// ApplyIntentStatus records a processor-reported intent status and moves
// the booking accordingly. It is shared by verification, the webhook
// handler and the reconciler, and is idempotent: replaying a status a
// second time changes nothing.
func (s *PaymentService) ApplyIntentStatus(ctx context.Context, intentID, status string) (*models.Booking, error) {
	paymentRow, err := s.repo.GetPayment(ctx, intentID)
	if err != nil {
		return nil, err
	}

	if paymentRow.Status != status {
		if err := s.repo.UpdatePaymentStatus(ctx, intentID, status); err != nil {
			return nil, err
		}
	}

	booking, err := s.repo.GetBooking(ctx, paymentRow.BookingID)
	if err != nil {
		return nil, err
	}

	var target string
	switch status {
	case models.IntentStatusSucceeded:
		target = models.StatusConfirmed
	case models.IntentStatusCanceled:
		target = models.StatusPaymentFailed
	default:
		// Still in flight; the booking stays awaiting_payment.
		return booking, nil
	}

	if booking.Status == target || booking.Status == models.StatusCompleted {
		return booking, nil
	}
	if booking.Status == models.StatusCancelled {
		// Customer cancelled before the processor settled; keep the
		// cancellation and let support resolve the charge.
		s.logger.Warn().Str("intent_id", intentID).Int64("booking_id", booking.ID).Msg("intent settled for a cancelled booking")
		return booking, nil
	}

	err = s.repo.UpdateBookingStatusWithVersion(ctx, booking.ID, booking.Version, target)
	if errors.Is(err, database.ErrVersionConflict) {
		// Webhook and verification raced; whoever won must have written
		// the same terminal status.
		booking, err = s.repo.GetBooking(ctx, booking.ID)
		if err != nil {
			return nil, err
		}
		if booking.Status == target {
			return booking, nil
		}
		return nil, database.ErrVersionConflict
	}
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.GetBooking(ctx, booking.ID)
	if err != nil {
		return nil, err
	}

	if s.cacheOwner != nil {
		s.cacheOwner.invalidateUserCache(ctx, updated.UserID)
	}

	if target == models.StatusConfirmed {
		metrics.IncPaymentOutcome(models.IntentStatusSucceeded)
		s.publishPaymentEvent(events.EventPaymentSucceeded, updated)
		s.publishPaymentEvent(events.EventBookingConfirmed, updated)
	} else {
		metrics.IncPaymentOutcome(models.IntentStatusCanceled)
		s.publishPaymentEvent(events.EventPaymentFailed, updated)
	}

	if s.syncWorker != nil {
		if err := s.syncWorker.EnqueueTask(ctx, "update_status", updated, updated.Status); err != nil {
			s.logger.Warn().Err(err).Int64("booking_id", updated.ID).Msg("failed to enqueue sync task")
		}
	}

	return updated, nil
}

func (s *PaymentService) publishPaymentEvent(eventType string, booking *models.Booking) {
	if s.eventBus == nil {
		return
	}
	payload := events.BookingEventPayload{
		BookingID:   booking.ID,
		Reference:   booking.Reference,
		UserID:      booking.UserID,
		BookingType: string(booking.BookingType),
		ItemID:      booking.ItemID,
		ItemName:    booking.ItemName,
		Status:      booking.Status,
		StartDate:   booking.StartDate,
		EndDate:     booking.EndDate,
		TotalPrice:  booking.TotalPrice,
		IntentID:    booking.PaymentIntentID,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("failed to publish event")
	}
}
