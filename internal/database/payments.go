package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"voyago/internal/models"
)

func (db *DB) CreatePayment(ctx context.Context, payment *models.Payment) error {
	now := time.Now()
	_, err := db.db.ExecContext(ctx, `INSERT INTO payments (
			intent_id, booking_id, amount, currency, status, client_secret,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.IntentID, payment.BookingID, payment.Amount, payment.Currency,
		payment.Status, payment.ClientSecret, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	payment.CreatedAt = now
	payment.UpdatedAt = now
	return nil
}

func (db *DB) GetPayment(ctx context.Context, intentID string) (*models.Payment, error) {
	var p models.Payment
	err := db.db.QueryRowContext(ctx,
		`SELECT intent_id, booking_id, amount, currency, status, client_secret,
		        created_at, updated_at
		 FROM payments WHERE intent_id = ?`, intentID,
	).Scan(&p.IntentID, &p.BookingID, &p.Amount, &p.Currency, &p.Status,
		&p.ClientSecret, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &p, nil
}

func (db *DB) GetPaymentByBooking(ctx context.Context, bookingID int64) (*models.Payment, error) {
	var p models.Payment
	err := db.db.QueryRowContext(ctx,
		`SELECT intent_id, booking_id, amount, currency, status, client_secret,
		        created_at, updated_at
		 FROM payments WHERE booking_id = ? ORDER BY created_at DESC LIMIT 1`, bookingID,
	).Scan(&p.IntentID, &p.BookingID, &p.Amount, &p.Currency, &p.Status,
		&p.ClientSecret, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment by booking: %w", err)
	}
	return &p, nil
}

func (db *DB) UpdatePaymentStatus(ctx context.Context, intentID, status string) error {
	res, err := db.db.ExecContext(ctx,
		`UPDATE payments SET status = ?, updated_at = ? WHERE intent_id = ?`,
		status, time.Now(), intentID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchPayment bumps updated_at so the row rotates to the back of the
// stale-payment window. Abandoned intents would otherwise pin the
// oldest slots forever.
func (db *DB) TouchPayment(ctx context.Context, intentID string) error {
	res, err := db.db.ExecContext(ctx,
		`UPDATE payments SET updated_at = ? WHERE intent_id = ?`,
		time.Now(), intentID,
	)
	if err != nil {
		return fmt.Errorf("failed to touch payment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListStalePayments returns non-terminal payments last touched before the
// cutoff. The reconciler sweeps these against the processor.
func (db *DB) ListStalePayments(ctx context.Context, cutoff time.Time, limit int) ([]*models.Payment, error) {
	rows, err := db.db.QueryContext(ctx,
		`SELECT intent_id, booking_id, amount, currency, status, client_secret,
		        created_at, updated_at
		 FROM payments
		 WHERE status NOT IN (?, ?) AND updated_at < ?
		 ORDER BY updated_at ASC LIMIT ?`,
		models.IntentStatusSucceeded, models.IntentStatusCanceled, cutoff, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.IntentID, &p.BookingID, &p.Amount, &p.Currency,
			&p.Status, &p.ClientSecret, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}
