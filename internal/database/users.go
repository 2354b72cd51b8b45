package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"voyago/internal/models"
)

const userColumns = `id, username, full_name, email, password_hash, role_id,
	last_activity, created_at, updated_at`

func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now()
	if user.RoleID == 0 {
		user.RoleID = models.RoleCustomer
	}
	res, err := db.db.ExecContext(ctx, `INSERT INTO users (
			username, full_name, email, password_hash, role_id,
			last_activity, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Username, user.FullName, user.Email, user.PasswordHash,
		user.RoleID, now, now, now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	user.ID = id
	user.LastActivity = now
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = ?`, userColumns)
	return db.queryUser(ctx, query, id)
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = ?`, userColumns)
	return db.queryUser(ctx, query, username)
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = ?`, userColumns)
	return db.queryUser(ctx, query, email)
}

func (db *DB) queryUser(ctx context.Context, query string, args ...any) (*models.User, error) {
	var u models.User
	err := db.db.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.Username, &u.FullName, &u.Email, &u.PasswordHash,
		&u.RoleID, &u.LastActivity, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

func (db *DB) UpdateUserActivity(ctx context.Context, id int64) error {
	_, err := db.db.ExecContext(ctx,
		`UPDATE users SET last_activity = ?, updated_at = ? WHERE id = ?`,
		time.Now(), time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update user activity: %w", err)
	}
	return nil
}

func (db *DB) UpdateUserRole(ctx context.Context, id, roleID int64) error {
	res, err := db.db.ExecContext(ctx,
		`UPDATE users SET role_id = ?, updated_at = ? WHERE id = ?`,
		roleID, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
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
