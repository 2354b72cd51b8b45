package database

import (
	"context"
	"testing"
	"time"

	"voyago/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, "alice", models.RoleCustomer)
	booking := createTestBooking(t, db, user.ID, "VG-AAA111", models.StatusPending)

	assert.NotZero(t, booking.ID)
	assert.Equal(t, int64(1), booking.Version)

	got, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, "VG-AAA111", got.Reference)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Empty(t, got.PaymentIntentID)

	byRef, err := db.GetBookingByReference(ctx, "VG-AAA111")
	require.NoError(t, err)
	assert.Equal(t, booking.ID, byRef.ID)
}

func TestCreateBookingDuplicateReference(t *testing.T) {
	db := setupTestDB(t)

	user := createTestUser(t, db, "alice", models.RoleCustomer)
	createTestBooking(t, db, user.ID, "VG-DUP", models.StatusPending)

	dup := &models.Booking{
		Reference:   "VG-DUP",
		UserID:      user.ID,
		BookingType: models.ItemTypeTour,
		ItemID:      2,
		ItemName:    "Old Town Walk",
		StartDate:   time.Now(),
		EndDate:     time.Now(),
		Guests:      1,
		TotalPrice:  35,
		Status:      models.StatusPending,
	}
	assert.ErrorIs(t, db.CreateBooking(context.Background(), dup), ErrDuplicate)
}

func TestUpdateBookingStatusWithVersion(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, "alice", models.RoleCustomer)
	booking := createTestBooking(t, db, user.ID, "VG-VER", models.StatusPending)

	require.NoError(t, db.UpdateBookingStatusWithVersion(ctx, booking.ID, 1, models.StatusConfirmed))

	got, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	assert.Equal(t, int64(2), got.Version)

	// Stale version rejected.
	err = db.UpdateBookingStatusWithVersion(ctx, booking.ID, 1, models.StatusCancelled)
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestAttachPaymentIntent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, "alice", models.RoleCustomer)
	booking := createTestBooking(t, db, user.ID, "VG-PAY", models.StatusPending)

	require.NoError(t, db.AttachPaymentIntent(ctx, booking.ID, 1, "pi_123"))

	got, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, "pi_123", got.PaymentIntentID)
	assert.Equal(t, models.StatusAwaitingPayment, got.Status)

	assert.ErrorIs(t, db.AttachPaymentIntent(ctx, booking.ID, 1, "pi_456"), ErrVersionConflict)
}

func TestGetUserBookings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice", models.RoleCustomer)
	bob := createTestUser(t, db, "bob", models.RoleCustomer)

	createTestBooking(t, db, alice.ID, "VG-A1", models.StatusPending)
	createTestBooking(t, db, alice.ID, "VG-A2", models.StatusConfirmed)
	createTestBooking(t, db, bob.ID, "VG-B1", models.StatusPending)

	bookings, err := db.GetUserBookings(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, bookings, 2)
	for _, b := range bookings {
		assert.Equal(t, alice.ID, b.UserID)
	}
}

func TestListBookingsFilters(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, "alice", models.RoleCustomer)
	createTestBooking(t, db, user.ID, "VG-1", models.StatusPending)
	createTestBooking(t, db, user.ID, "VG-2", models.StatusConfirmed)
	createTestBooking(t, db, user.ID, "VG-3", models.StatusConfirmed)

	confirmed, err := db.ListBookings(ctx, models.StatusConfirmed, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, confirmed, 2)

	none, err := db.ListBookings(ctx, models.StatusCancelled, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, none)

	// Date window excluding everything.
	past, err := db.ListBookings(ctx, "", time.Now().AddDate(-1, 0, 0), time.Now().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestGetBookingStats(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, "alice", models.RoleCustomer)
	createTestBooking(t, db, user.ID, "VG-1", models.StatusPending)
	createTestBooking(t, db, user.ID, "VG-2", models.StatusConfirmed)
	createTestBooking(t, db, user.ID, "VG-3", models.StatusConfirmed)

	stats, err := db.GetBookingStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.ByStatus[models.StatusConfirmed])
	assert.Equal(t, 900.0, stats.ConfirmedRevenue)
}
