package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"voyago/internal/database"
	"voyago/internal/domain"
	"voyago/internal/events"
	"voyago/internal/metrics"
	"voyago/internal/models"
	"voyago/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type BookingService struct {
	repo       domain.Repository
	cache      domain.Cache
	eventBus   domain.EventPublisher
	syncWorker domain.SyncWorker
	logger     *zerolog.Logger
}

func NewBookingService(repo domain.Repository, cache domain.Cache, eventBus domain.EventPublisher, syncWorker domain.SyncWorker, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:       repo,
		cache:      cache,
		eventBus:   eventBus,
		syncWorker: syncWorker,
		logger:     logger,
	}
}

// NewReference builds a customer-facing booking reference. References
// are unique per booking and safe to show in URLs and emails.
func NewReference() string {
	return "VG-" + strings.ToUpper(uuid.NewString()[:8])
}

func (s *BookingService) validateBooking(ctx context.Context, booking *models.Booking) error {
	switch booking.BookingType {
	case models.ItemTypeHotel, models.ItemTypeTour, models.ItemTypePackage:
	default:
		return ErrInvalidBooking
	}
	if booking.UserID == 0 || booking.ItemID == 0 || booking.Guests <= 0 {
		return ErrInvalidBooking
	}
	if booking.StartDate.IsZero() || booking.EndDate.IsZero() {
		return ErrInvalidBooking
	}
	if booking.StartDate.Before(time.Now().AddDate(0, 0, -1)) {
		return ErrPastDate
	}
	if booking.EndDate.Before(booking.StartDate) {
		return ErrDateOrder
	}

	item, err := s.repo.GetCatalogItem(ctx, booking.BookingType, booking.ItemID)
	if err != nil {
		return err
	}
	// The client sends the total it displayed; it must match what the
	// listing actually costs right now.
	if item.EffectivePrice() != booking.TotalPrice {
		return ErrPriceMismatch
	}

	booking.ItemName = item.Name
	return nil
}

func (s *BookingService) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if err := s.validateBooking(ctx, booking); err != nil {
		return err
	}

	booking.Reference = NewReference()
	booking.Status = models.StatusPending

	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	metrics.IncBookingCreated()
	s.invalidateUserCache(ctx, booking.UserID)
	s.publishEvent(events.EventBookingCreated, booking, "customer", booking.UserID)
	s.enqueueSync(ctx, booking, "upsert")

	return nil
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

func (s *BookingService) GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	key := repository.UserBookingsKey(userID)
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, key)
		if err == nil && raw != nil {
			var bookings []*models.Booking
			if err := json.Unmarshal(raw, &bookings); err == nil {
				metrics.IncCacheLookup(true)
				return bookings, nil
			}
		}
		metrics.IncCacheLookup(false)
	}

	bookings, err := s.repo.GetUserBookings(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(bookings); err == nil {
			ttl := time.Duration(models.BookingsCacheTTL) * time.Second
			if err := s.cache.Set(ctx, key, raw, ttl); err != nil {
				s.logger.Warn().Err(err).Int64("user_id", userID).Msg("failed to cache user bookings")
			}
		}
	}

	return bookings, nil
}

func (s *BookingService) ListBookings(ctx context.Context, status string, start, end time.Time) ([]*models.Booking, error) {
	return s.repo.ListBookings(ctx, status, start, end)
}

func (s *BookingService) GetBookingStats(ctx context.Context) (*database.BookingStats, error) {
	return s.repo.GetBookingStats(ctx)
}

func (s *BookingService) CancelBooking(ctx context.Context, id int64, changedByID int64) error {
	return s.SetBookingStatus(ctx, id, models.StatusCancelled, changedByID)
}

// allowedTransition encodes the booking status machine as seen from the
// admin/customer side. Payment statuses (awaiting_payment, confirmed,
// payment_failed) only move through the payment pipeline.
func allowedTransition(from, to string) bool {
	switch to {
	case models.StatusCancelled:
		return from == models.StatusPending || from == models.StatusAwaitingPayment
	case models.StatusCompleted:
		return from == models.StatusConfirmed
	case models.StatusPending:
		return from == models.StatusPaymentFailed
	}
	return false
}

func (s *BookingService) SetBookingStatus(ctx context.Context, id int64, status string, changedByID int64) error {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if !allowedTransition(booking.Status, status) {
		return ErrInvalidTransition
	}

	if err := s.repo.UpdateBookingStatusWithVersion(ctx, id, booking.Version, status); err != nil {
		return err
	}

	s.invalidateUserCache(ctx, booking.UserID)

	updated, err := s.repo.GetBooking(ctx, id)
	if err == nil {
		if status == models.StatusCancelled {
			s.publishEvent(events.EventBookingCancelled, updated, "staff", changedByID)
		}
		s.enqueueSync(ctx, updated, "update_status")
	}

	return nil
}

func (s *BookingService) invalidateUserCache(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, repository.UserBookingsKey(userID)); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("failed to invalidate bookings cache")
	}
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, changedBy string, changedByID int64) {
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
		ChangedBy:   changedBy,
		ChangedByID: changedByID,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("failed to publish event")
	}
}

func (s *BookingService) enqueueSync(ctx context.Context, booking *models.Booking, taskType string) {
	if s.syncWorker == nil {
		return
	}
	if err := s.syncWorker.EnqueueTask(ctx, taskType, booking, booking.Status); err != nil {
		s.logger.Warn().Err(err).Int64("booking_id", booking.ID).Msg("failed to enqueue sync task")
	}
}
