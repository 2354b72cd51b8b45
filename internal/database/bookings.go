package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"voyago/internal/models"
)

const bookingColumns = `id, reference, user_id, booking_type, item_id, item_name,
	start_date, end_date, guests, total_price, notes, status,
	payment_intent_id, created_at, updated_at, version`

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	now := time.Now()
	res, err := db.db.ExecContext(ctx, `INSERT INTO bookings (
			reference, user_id, booking_type, item_id, item_name,
			start_date, end_date, guests, total_price, notes, status,
			payment_intent_id, created_at, updated_at, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		booking.Reference, booking.UserID, booking.BookingType, booking.ItemID,
		booking.ItemName, booking.StartDate, booking.EndDate, booking.Guests,
		booking.TotalPrice, booking.Notes, booking.Status,
		nullableString(booking.PaymentIntentID), now, now, 1,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = ?`, bookingColumns)
	return db.queryBooking(ctx, query, id)
}

func (db *DB) GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE reference = ?`, bookingColumns)
	return db.queryBooking(ctx, query, reference)
}

func (db *DB) queryBooking(ctx context.Context, query string, args ...any) (*models.Booking, error) {
	booking, err := scanBooking(db.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func scanBooking(s rowScanner) (*models.Booking, error) {
	var b models.Booking
	var notes, intentID sql.NullString
	err := s.Scan(
		&b.ID, &b.Reference, &b.UserID, &b.BookingType, &b.ItemID, &b.ItemName,
		&b.StartDate, &b.EndDate, &b.Guests, &b.TotalPrice, &notes, &b.Status,
		&intentID, &b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan booking: %w", err)
	}
	b.Notes = notes.String
	b.PaymentIntentID = intentID.String
	return &b, nil
}

// UpdateBookingStatusWithVersion applies an optimistic-concurrency status
// update; ErrVersionConflict when another writer got there first.
func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status string) error {
	res, err := db.db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		status, time.Now(), id, fromVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	return nil
}

// AttachPaymentIntent records the intent id on the booking and moves it to
// awaiting_payment in one statement.
func (db *DB) AttachPaymentIntent(ctx context.Context, id, fromVersion int64, intentID string) error {
	res, err := db.db.ExecContext(ctx,
		`UPDATE bookings SET payment_intent_id = ?, status = ?, updated_at = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		intentID, models.StatusAwaitingPayment, time.Now(), id, fromVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to attach payment intent: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (db *DB) GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE user_id = ? ORDER BY created_at DESC`, bookingColumns)
	return db.queryBookings(ctx, query, userID)
}

// ListBookings returns bookings filtered by optional status and date range
// for the admin area. Zero times mean no bound.
func (db *DB) ListBookings(ctx context.Context, status string, start, end time.Time) ([]*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE 1=1`, bookingColumns)
	var args []any
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	if !start.IsZero() {
		query += ` AND start_date >= ?`
		args = append(args, start)
	}
	if !end.IsZero() {
		query += ` AND start_date <= ?`
		args = append(args, end)
	}
	query += ` ORDER BY created_at DESC`
	return db.queryBookings(ctx, query, args...)
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]*models.Booking, error) {
	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// BookingStats aggregates counts per status and confirmed revenue.
type BookingStats struct {
	ByStatus         map[string]int64 `json:"by_status"`
	Total            int64            `json:"total"`
	ConfirmedRevenue float64          `json:"confirmed_revenue"`
}

func (db *DB) GetBookingStats(ctx context.Context) (*BookingStats, error) {
	rows, err := db.db.QueryContext(ctx,
		`SELECT status, COUNT(*), COALESCE(SUM(total_price), 0) FROM bookings GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to query booking stats: %w", err)
	}
	defer rows.Close()

	stats := &BookingStats{ByStatus: make(map[string]int64)}
	for rows.Next() {
		var status string
		var count int64
		var revenue float64
		if err := rows.Scan(&status, &count, &revenue); err != nil {
			return nil, fmt.Errorf("failed to scan booking stats: %w", err)
		}
		stats.ByStatus[status] = count
		stats.Total += count
		if status == models.StatusConfirmed || status == models.StatusCompleted {
			stats.ConfirmedRevenue += revenue
		}
	}
	return stats, rows.Err()
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
