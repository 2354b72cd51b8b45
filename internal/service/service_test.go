package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"voyago/internal/database"
	"voyago/internal/domain"
	"voyago/internal/events"
	"voyago/internal/models"
	"voyago/internal/payment"
	"voyago/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedHotel(t *testing.T, db *database.DB, name string, price float64, rating float64) int64 {
	t.Helper()
	id, err := db.CreateCatalogItem(context.Background(), &database.CatalogSeed{
		Type: models.ItemTypeHotel,
		Item: models.Item{
			Name:   name,
			Price:  price,
			Rating: rating,
		},
		Location: "Lisbon",
	})
	require.NoError(t, err)
	return id
}

func seedUser(t *testing.T, db *database.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		FullName:     "Test User",
		Email:        username + "@example.com",
		PasswordHash: "x",
	}
	require.NoError(t, db.CreateUser(context.Background(), user))
	return user
}

func newTestBooking(userID, itemID int64, price float64) *models.Booking {
	return &models.Booking{
		UserID:      userID,
		BookingType: models.ItemTypeHotel,
		ItemID:      itemID,
		StartDate:   time.Now().AddDate(0, 0, 7),
		EndDate:     time.Now().AddDate(0, 0, 10),
		Guests:      2,
		TotalPrice:  price,
	}
}

// fakeProvider is an in-memory stand-in for the payment processor.
type fakeProvider struct {
	intents     map[string]*payment.Intent
	createCalls int
	getCalls    int
	createErr   error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{intents: make(map[string]*payment.Intent)}
}

func (f *fakeProvider) CreateIntent(ctx context.Context, amount float64, bookingID int64, reference string) (*payment.Intent, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	intent := &payment.Intent{
		ID:           fmt.Sprintf("pi_%d", len(f.intents)+1),
		ClientSecret: "secret",
		Status:       models.IntentStatusRequiresPayment,
		Amount:       int64(amount * 100),
		Currency:     models.DefaultCurrency,
	}
	f.intents[intent.ID] = intent
	return intent, nil
}

func (f *fakeProvider) GetIntent(ctx context.Context, intentID string) (*payment.Intent, error) {
	f.getCalls++
	intent, ok := f.intents[intentID]
	if !ok {
		return nil, &payment.APIError{StatusCode: 404, Type: "invalid_request_error", Message: "no such payment_intent"}
	}
	return intent, nil
}

var _ domain.PaymentProvider = (*fakeProvider)(nil)

type testEnv struct {
	db       *database.DB
	provider *fakeProvider
	bookings *BookingService
	payments *PaymentService
	catalog  *CatalogService
	users    *UserService
	bus      *events.EventBus
}

func setupServices(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	logger := zerolog.Nop()
	cache := repository.NewMemoryCache()
	bus := events.NewEventBus()
	provider := newFakeProvider()

	bookings := NewBookingService(db, cache, bus, nil, &logger)
	payments := NewPaymentService(db, provider, bookings, bus, nil, "usd", &logger)
	catalog := NewCatalogService(db, cache, &logger)
	users := NewUserService(db, &logger)

	return &testEnv{
		db:       db,
		provider: provider,
		bookings: bookings,
		payments: payments,
		catalog:  catalog,
		users:    users,
		bus:      bus,
	}
}

func TestCreateBooking(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	user := seedUser(t, env.db, "alice")
	itemID := seedHotel(t, env.db, "Seaside Hotel", 450, 4.5)

	booking := newTestBooking(user.ID, itemID, 450)
	require.NoError(t, env.bookings.CreateBooking(ctx, booking))

	assert.NotZero(t, booking.ID)
	assert.Equal(t, models.StatusPending, booking.Status)
	assert.Equal(t, "Seaside Hotel", booking.ItemName)
	assert.Regexp(t, `^VG-[0-9A-F]{8}$`, booking.Reference)
}

func TestCreateBookingValidation(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	user := seedUser(t, env.db, "alice")
	itemID := seedHotel(t, env.db, "Seaside Hotel", 450, 4.5)

	tests := []struct {
		name    string
		mutate  func(b *models.Booking)
		wantErr error
	}{
		{"price mismatch", func(b *models.Booking) { b.TotalPrice = 99 }, ErrPriceMismatch},
		{"past start date", func(b *models.Booking) { b.StartDate = time.Now().AddDate(0, 0, -3) }, ErrPastDate},
		{"end before start", func(b *models.Booking) { b.EndDate = b.StartDate.AddDate(0, 0, -1) }, ErrDateOrder},
		{"zero guests", func(b *models.Booking) { b.Guests = 0 }, ErrInvalidBooking},
		{"bad type", func(b *models.Booking) { b.BookingType = "cruise" }, ErrInvalidBooking},
		{"missing item", func(b *models.Booking) { b.ItemID = 9999 }, database.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking := newTestBooking(user.ID, itemID, 450)
			tt.mutate(booking)
			err := env.bookings.CreateBooking(ctx, booking)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCatalogFiltering(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	seedHotel(t, env.db, "Seaside Hotel", 450, 4.5)
	seedHotel(t, env.db, "Mountain Lodge", 250, 3.8)
	seedHotel(t, env.db, "City Hostel", 80, 4.9)

	all, err := env.catalog.ListHotels(ctx, domain.CatalogQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	minRating := 4.0
	rated, err := env.catalog.ListHotels(ctx, domain.CatalogQuery{MinRating: &minRating})
	require.NoError(t, err)
	assert.Len(t, rated, 2)

	searched, err := env.catalog.ListHotels(ctx, domain.CatalogQuery{Search: "lodge"})
	require.NoError(t, err)
	require.Len(t, searched, 1)
	assert.Equal(t, "Mountain Lodge", searched[0].Name)

	sorted, err := env.catalog.ListHotels(ctx, domain.CatalogQuery{Sort: "price_asc"})
	require.NoError(t, err)
	require.Len(t, sorted, 3)
	assert.Equal(t, "City Hostel", sorted[0].Name)
	assert.Equal(t, "Seaside Hotel", sorted[2].Name)

	// Clearing all controls returns the full set again.
	reset, err := env.catalog.ListHotels(ctx, domain.CatalogQuery{})
	require.NoError(t, err)
	assert.Len(t, reset, 3)
}

func TestCreateIntent(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	user := seedUser(t, env.db, "alice")
	itemID := seedHotel(t, env.db, "Seaside Hotel", 450, 4.5)

	booking := newTestBooking(user.ID, itemID, 450)
	require.NoError(t, env.bookings.CreateBooking(ctx, booking))

	paymentRow, err := env.payments.CreateIntent(ctx, booking.ID, 450, user.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, paymentRow.IntentID)
	assert.Equal(t, "secret", paymentRow.ClientSecret)

	updated, err := env.db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingPayment, updated.Status)
	assert.Equal(t, paymentRow.IntentID, updated.PaymentIntentID)
}

func TestCreateIntentValidation(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	user := seedUser(t, env.db, "alice")
	other := seedUser(t, env.db, "bob")
	itemID := seedHotel(t, env.db, "Seaside Hotel", 450, 4.5)

	booking := newTestBooking(user.ID, itemID, 450)
	require.NoError(t, env.bookings.CreateBooking(ctx, booking))

	_, err := env.payments.CreateIntent(ctx, 0, 450, user.ID)
	assert.ErrorIs(t, err, ErrInvalidBooking)

	_, err = env.payments.CreateIntent(ctx, booking.ID, 0, user.ID)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = env.payments.CreateIntent(ctx, booking.ID, 100, user.ID)
	assert.ErrorIs(t, err, ErrAmountMismatch)

	_, err = env.payments.CreateIntent(ctx, booking.ID, 450, other.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	// None of the rejected calls may reach the processor.
	assert.Zero(t, env.provider.createCalls)
}

func TestCreateIntentReusesOpenIntent(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	user := seedUser(t, env.db, "alice")
	itemID := seedHotel(t, env.db, "Seaside Hotel", 450, 4.5)

	booking := newTestBooking(user.ID, itemID, 450)
	require.NoError(t, env.bookings.CreateBooking(ctx, booking))

	first, err := env.payments.CreateIntent(ctx, booking.ID, 450, user.ID)
	require.NoError(t, err)

	second, err := env.payments.CreateIntent(ctx, booking.ID, 450, user.ID)
	require.NoError(t, err)

	assert.Equal(t, first.IntentID, second.IntentID)
	assert.Equal(t, 1, env.provider.createCalls)
}

func TestVerifyMissingIntentID(t *testing.T) {
	env := setupServices(t)

	_, err := env.payments.Verify(context.Background(), "", "succeeded")
	assert.ErrorIs(t, err, ErrMissingIntentID)
	assert.Zero(t, env.provider.getCalls, "must not call the processor without an intent id")
}

func TestVerifySucceeded(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	user := seedUser(t, env.db, "alice")
	itemID := seedHotel(t, env.db, "Seaside Hotel", 450, 4.5)

	booking := newTestBooking(user.ID, itemID, 450)
	require.NoError(t, env.bookings.CreateBooking(ctx, booking))
	paymentRow, err := env.payments.CreateIntent(ctx, booking.ID, 450, user.ID)
	require.NoError(t, err)

	env.provider.intents[paymentRow.IntentID].Status = models.IntentStatusSucceeded

	result, err := env.payments.Verify(ctx, paymentRow.IntentID, "succeeded")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, models.StatusConfirmed, result.Booking.Status)
	assert.Equal(t, booking.Reference, result.Booking.Reference)
}

func TestVerifyIgnoresRedirectStatus(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	user := seedUser(t, env.db, "alice")
	itemID := seedHotel(t, env.db, "Seaside Hotel", 450, 4.5)

	booking := newTestBooking(user.ID, itemID, 450)
	require.NoError(t, env.bookings.CreateBooking(ctx, booking))
	paymentRow, err := env.payments.CreateIntent(ctx, booking.ID, 450, user.ID)
	require.NoError(t, err)

	// Processor still reports processing; a lying redirect_status must
	// not confirm the booking.
	env.provider.intents[paymentRow.IntentID].Status = models.IntentStatusProcessing

	result, err := env.payments.Verify(ctx, paymentRow.IntentID, "succeeded")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, models.StatusAwaitingPayment, result.Booking.Status)
}

func TestVerifyCanceled(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	user := seedUser(t, env.db, "alice")
	itemID := seedHotel(t, env.db, "Seaside Hotel", 450, 4.5)

	booking := newTestBooking(user.ID, itemID, 450)
	require.NoError(t, env.bookings.CreateBooking(ctx, booking))
	paymentRow, err := env.payments.CreateIntent(ctx, booking.ID, 450, user.ID)
	require.NoError(t, err)

	env.provider.intents[paymentRow.IntentID].Status = models.IntentStatusCanceled

	result, err := env.payments.Verify(ctx, paymentRow.IntentID, "")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, models.StatusPaymentFailed, result.Booking.Status)
}

func TestApplyIntentStatusIdempotent(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	user := seedUser(t, env.db, "alice")
	itemID := seedHotel(t, env.db, "Seaside Hotel", 450, 4.5)

	booking := newTestBooking(user.ID, itemID, 450)
	require.NoError(t, env.bookings.CreateBooking(ctx, booking))
	paymentRow, err := env.payments.CreateIntent(ctx, booking.ID, 450, user.ID)
	require.NoError(t, err)

	first, err := env.payments.ApplyIntentStatus(ctx, paymentRow.IntentID, models.IntentStatusSucceeded)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, first.Status)

	// Webhook replay: same status again is a no-op.
	second, err := env.payments.ApplyIntentStatus(ctx, paymentRow.IntentID, models.IntentStatusSucceeded)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, second.Status)
	assert.Equal(t, first.Version, second.Version)
}

func TestSetBookingStatusTransitions(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	user := seedUser(t, env.db, "alice")
	itemID := seedHotel(t, env.db, "Seaside Hotel", 450, 4.5)

	booking := newTestBooking(user.ID, itemID, 450)
	require.NoError(t, env.bookings.CreateBooking(ctx, booking))

	// Confirmation is not reachable through the admin path.
	err := env.bookings.SetBookingStatus(ctx, booking.ID, models.StatusConfirmed, user.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, env.bookings.CancelBooking(ctx, booking.ID, user.ID))
	cancelled, err := env.db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	// Terminal bookings stay put.
	err = env.bookings.SetBookingStatus(ctx, booking.ID, models.StatusCompleted, user.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUserRegisterAndAuthenticate(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	user, err := env.users.Register(ctx, "alice", "Alice Jones", "ALICE@Example.com", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, user.RoleID)
	assert.Equal(t, "alice@example.com", user.Email)

	authed, err := env.users.Authenticate(ctx, "alice", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	_, err = env.users.Authenticate(ctx, "alice", "wrongpass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.users.Authenticate(ctx, "nobody", "s3cretpass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
