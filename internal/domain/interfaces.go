package domain

import (
	"context"
	"time"

	"voyago/internal/database"
	"voyago/internal/models"
	"voyago/internal/payment"
)

type Repository interface {
	ListHotels(ctx context.Context, featuredOnly bool) ([]models.Hotel, error)
	ListTours(ctx context.Context, featuredOnly bool) ([]models.Tour, error)
	ListPackages(ctx context.Context, featuredOnly bool) ([]models.Package, error)
	ListSpecialOffers(ctx context.Context, featuredOnly bool) ([]models.SpecialOffer, error)
	GetCatalogItem(ctx context.Context, itemType models.ItemType, id int64) (*models.Item, error)

	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error)
	GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error)
	ListBookings(ctx context.Context, status string, start, end time.Time) ([]*models.Booking, error)
	UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status string) error
	AttachPaymentIntent(ctx context.Context, id, fromVersion int64, intentID string) error
	GetBookingStats(ctx context.Context) (*database.BookingStats, error)

	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPayment(ctx context.Context, intentID string) (*models.Payment, error)
	GetPaymentByBooking(ctx context.Context, bookingID int64) (*models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, intentID, status string) error
	TouchPayment(ctx context.Context, intentID string) error
	ListStalePayments(ctx context.Context, cutoff time.Time, limit int) ([]*models.Payment, error)

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUserActivity(ctx context.Context, id int64) error
	UpdateUserRole(ctx context.Context, id, roleID int64) error

	CreateSyncTask(ctx context.Context, task *models.SyncTask) error
	GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error)
	UpdateSyncTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
}

// Cache is the process-wide query cache keyed by request descriptor. A
// miss is (nil, nil), not an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// PaymentProvider is the processor-facing surface used by services and
// the reconciler; satisfied by payment.Client and by test doubles.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, amount float64, bookingID int64, reference string) (*payment.Intent, error)
	GetIntent(ctx context.Context, intentID string) (*payment.Intent, error)
}

// LedgerWriter mirrors booking rows into the back-office spreadsheet.
type LedgerWriter interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, bookingID int64, status string) error
}

// SyncWorker accepts ledger-mirror tasks from the service layer.
type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, booking *models.Booking, status string) error
}

type CatalogService interface {
	ListHotels(ctx context.Context, q CatalogQuery) ([]models.Hotel, error)
	ListTours(ctx context.Context, q CatalogQuery) ([]models.Tour, error)
	ListPackages(ctx context.Context, q CatalogQuery) ([]models.Package, error)
	ListSpecialOffers(ctx context.Context, q CatalogQuery) ([]models.SpecialOffer, error)
}

// CatalogQuery carries the filter controls accepted by list endpoints.
// Zero values mean "no constraint".
type CatalogQuery struct {
	Search       string
	Location     string
	MinPrice     *float64
	MaxPrice     *float64
	MinRating    *float64
	FeaturedOnly bool
	Sort         string
}

type BookingService interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error)
	ListBookings(ctx context.Context, status string, start, end time.Time) ([]*models.Booking, error)
	CancelBooking(ctx context.Context, id int64, changedByID int64) error
	SetBookingStatus(ctx context.Context, id int64, status string, changedByID int64) error
	GetBookingStats(ctx context.Context) (*database.BookingStats, error)
}

type PaymentService interface {
	CreateIntent(ctx context.Context, bookingID int64, amount float64, userID int64) (*models.Payment, error)
	Verify(ctx context.Context, intentID, redirectStatus string) (*VerifyResult, error)
	ApplyIntentStatus(ctx context.Context, intentID, status string) (*models.Booking, error)
}

// VerifyResult is the outcome of one verification round trip.
type VerifyResult struct {
	Success bool            `json:"success"`
	Booking *models.Booking `json:"booking,omitempty"`
	Payment *models.Payment `json:"paymentIntent,omitempty"`
	Message string          `json:"message,omitempty"`
}

type UserService interface {
	Register(ctx context.Context, username, fullName, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UpdateUserActivity(ctx context.Context, id int64) error
}
