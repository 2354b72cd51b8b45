package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"voyago/internal/database"
	"voyago/internal/models"
	"voyago/internal/payment"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
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

type fakeLedger struct {
	upserts  []*models.Booking
	statuses map[int64]string
	err      error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{statuses: make(map[int64]string)}
}

func (f *fakeLedger) UpsertBooking(ctx context.Context, b *models.Booking) error {
	if f.err != nil {
		return f.err
	}
	f.upserts = append(f.upserts, b)
	return nil
}

func (f *fakeLedger) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	if f.err != nil {
		return f.err
	}
	f.statuses[id] = status
	return nil
}

func testWorker(t *testing.T, db *database.DB, ledger LedgerClient, rc *redis.Client) *LedgerWorker {
	t.Helper()
	logger := zerolog.Nop()
	return NewLedgerWorker(db, ledger, rc, RetryPolicy{
		MaxRetries:    3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      10 * time.Millisecond,
		BackoffFactor: 2,
	}, 10*time.Millisecond, 5, &logger)
}

func sampleBooking() *models.Booking {
	return &models.Booking{
		ID:        1,
		Reference: "VG-AAAA1111",
		Status:    models.StatusPending,
	}
}

func TestEnqueueTaskPersists(t *testing.T) {
	db := setupTestDB(t)
	w := testWorker(t, db, newFakeLedger(), nil)
	ctx := context.Background()

	require.NoError(t, w.EnqueueTask(ctx, TaskUpsert, sampleBooking(), models.StatusPending))

	tasks, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, TaskUpsert, tasks[0].TaskType)
	assert.EqualValues(t, 1, tasks[0].BookingID)
}

func TestEnqueueTaskValidation(t *testing.T) {
	db := setupTestDB(t)
	w := testWorker(t, db, newFakeLedger(), nil)
	ctx := context.Background()

	assert.Error(t, w.EnqueueTask(ctx, "", sampleBooking(), ""))
	assert.Error(t, w.EnqueueTask(ctx, TaskUpsert, nil, ""))
	assert.Error(t, w.EnqueueTask(ctx, TaskUpsert, &models.Booking{}, ""))
}

func TestProcessTaskUpsert(t *testing.T) {
	db := setupTestDB(t)
	ledger := newFakeLedger()
	w := testWorker(t, db, ledger, nil)
	ctx := context.Background()

	require.NoError(t, w.EnqueueTask(ctx, TaskUpsert, sampleBooking(), models.StatusPending))

	tasks, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	w.processTask(ctx, &tasks[0])

	require.Len(t, ledger.upserts, 1)
	assert.Equal(t, "VG-AAAA1111", ledger.upserts[0].Reference)

	remaining, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestProcessTaskUpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	ledger := newFakeLedger()
	w := testWorker(t, db, ledger, nil)
	ctx := context.Background()

	require.NoError(t, w.EnqueueTask(ctx, TaskUpdateStatus, sampleBooking(), models.StatusConfirmed))

	tasks, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	w.processTask(ctx, &tasks[0])
	assert.Equal(t, models.StatusConfirmed, ledger.statuses[1])
}

func TestProcessTaskRetriesThenDeadLetters(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rc.Close()

	db := setupTestDB(t)
	ledger := newFakeLedger()
	ledger.err = errors.New("spreadsheet unavailable")
	w := testWorker(t, db, ledger, rc)
	ctx := context.Background()

	require.NoError(t, w.EnqueueTask(ctx, TaskUpdateStatus, sampleBooking(), models.StatusConfirmed))

	// Drain the redis queue entry the enqueue produced.
	task, ok := w.tryRedis(ctx)
	require.True(t, ok)

	// First attempts schedule retries.
	w.processTask(ctx, &task)
	tasks, err := db.GetFailedSyncTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	// Exhaust the retry budget.
	task.RetryCount = 2
	w.processTask(ctx, &task)

	failed, err := db.GetFailedSyncTasks(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)

	dead, err := rc.LLen(ctx, w.deadLetterKey).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, dead)
}

func TestNewLedgerWorkerPollSettings(t *testing.T) {
	db := setupTestDB(t)
	logger := zerolog.Nop()

	w := NewLedgerWorker(db, newFakeLedger(), nil, RetryPolicy{}, 7*time.Second, 33, &logger)
	assert.Equal(t, 7*time.Second, w.pollInterval)
	assert.Equal(t, 33, w.batchSize)

	// Zero values fall back to the built-in defaults.
	w = NewLedgerWorker(db, newFakeLedger(), nil, RetryPolicy{}, 0, 0, &logger)
	assert.Equal(t, 2*time.Second, w.pollInterval)
	assert.Equal(t, 20, w.batchSize)
}

func TestRetryPolicyBackoff(t *testing.T) {
	p := RetryPolicy{
		MaxRetries:    5,
		InitialDelay:  time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2,
	}

	assert.Equal(t, time.Second, p.NextDelay(1))
	assert.Equal(t, 2*time.Second, p.NextDelay(2))
	assert.Equal(t, 4*time.Second, p.NextDelay(3))
	assert.Equal(t, 10*time.Second, p.NextDelay(10), "clamped at max delay")
	assert.Equal(t, time.Second, p.NextDelay(0), "attempt floor")
}

type reconcilerProvider struct {
	intents map[string]*payment.Intent
	calls   int
}

func (p *reconcilerProvider) CreateIntent(ctx context.Context, amount float64, bookingID int64, reference string) (*payment.Intent, error) {
	return nil, errors.New("not used")
}

func (p *reconcilerProvider) GetIntent(ctx context.Context, intentID string) (*payment.Intent, error) {
	p.calls++
	intent, ok := p.intents[intentID]
	if !ok {
		return nil, errors.New("no such intent")
	}
	return intent, nil
}

type recordingApplier struct {
	applied map[string]string
}

func (a *recordingApplier) ApplyIntentStatus(ctx context.Context, intentID, status string) (*models.Booking, error) {
	a.applied[intentID] = status
	return &models.Booking{}, nil
}

func TestReconcilerSweep(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	logger := zerolog.Nop()

	user := &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, db.CreateUser(ctx, user))
	booking := &models.Booking{
		Reference:   "VG-AAAA1111",
		UserID:      user.ID,
		BookingType: models.ItemTypeHotel,
		ItemID:      1,
		ItemName:    "Seaside Hotel",
		StartDate:   time.Now().AddDate(0, 0, 7),
		EndDate:     time.Now().AddDate(0, 0, 10),
		Guests:      2,
		TotalPrice:  450,
		Status:      models.StatusAwaitingPayment,
	}
	require.NoError(t, db.CreateBooking(ctx, booking))
	require.NoError(t, db.CreatePayment(ctx, &models.Payment{
		IntentID:  "pi_stale",
		BookingID: booking.ID,
		Amount:    450,
		Currency:  "usd",
		Status:    models.IntentStatusProcessing,
	}))

	provider := &reconcilerProvider{intents: map[string]*payment.Intent{
		"pi_stale": {ID: "pi_stale", Status: models.IntentStatusSucceeded},
	}}
	applier := &recordingApplier{applied: make(map[string]string)}

	r := NewReconciler(db, provider, applier, time.Minute, time.Nanosecond, &logger)
	r.Sweep(ctx)

	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, models.IntentStatusSucceeded, applier.applied["pi_stale"])
}

func TestReconcilerRotatesUnchangedPayments(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	logger := zerolog.Nop()

	user := &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, db.CreateUser(ctx, user))
	booking := &models.Booking{
		Reference:   "VG-BBBB2222",
		UserID:      user.ID,
		BookingType: models.ItemTypeHotel,
		ItemID:      1,
		ItemName:    "Seaside Hotel",
		StartDate:   time.Now().AddDate(0, 0, 7),
		EndDate:     time.Now().AddDate(0, 0, 10),
		Guests:      2,
		TotalPrice:  450,
		Status:      models.StatusAwaitingPayment,
	}
	require.NoError(t, db.CreateBooking(ctx, booking))
	require.NoError(t, db.CreatePayment(ctx, &models.Payment{
		IntentID:  "pi_abandoned",
		BookingID: booking.ID,
		Amount:    450,
		Currency:  "usd",
		Status:    models.IntentStatusRequiresPayment,
	}))

	// Processor reports the same status, so the sweep only touches the row.
	provider := &reconcilerProvider{intents: map[string]*payment.Intent{
		"pi_abandoned": {ID: "pi_abandoned", Status: models.IntentStatusRequiresPayment},
	}}
	applier := &recordingApplier{applied: make(map[string]string)}

	r := NewReconciler(db, provider, applier, time.Minute, time.Nanosecond, &logger)
	swept := time.Now()
	r.Sweep(ctx)

	assert.Empty(t, applier.applied)

	// The row left the stale window: it no longer sorts before payments
	// that went stale earlier, so it cannot pin the batch forever.
	stale, err := db.ListStalePayments(ctx, swept, 50)
	require.NoError(t, err)
	assert.Empty(t, stale)

	refreshed, err := db.GetPayment(ctx, "pi_abandoned")
	require.NoError(t, err)
	assert.False(t, refreshed.UpdatedAt.Before(swept))
}
