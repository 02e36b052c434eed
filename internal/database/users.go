package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"salonbook/internal/models"
)

// SaveToken сохраняет токен backend для чата после входа
func (db *DB) SaveToken(ctx context.Context, chatID int64, token, customerID string) error {
	query := `INSERT INTO customers (chat_id, customer_id, token, last_activity, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?)
              ON CONFLICT(chat_id) DO UPDATE SET
                customer_id = excluded.customer_id,
                token = excluded.token,
                last_activity = excluded.last_activity,
                updated_at = excluded.updated_at`
	now := time.Now()
	if _, err := db.ExecContext(ctx, query, chatID, customerID, token, now, now, now); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// GetToken возвращает пустую строку, если клиент не входил
func (db *DB) GetToken(ctx context.Context, chatID int64) (string, error) {
	var token string
	err := db.QueryRowContext(ctx, `SELECT token FROM customers WHERE chat_id = ?`, chatID).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}
	return token, nil
}

// DeleteToken разлогинивает чат, профиль остается
func (db *DB) DeleteToken(ctx context.Context, chatID int64) error {
	_, err := db.ExecContext(ctx, `UPDATE customers SET token = '', updated_at = ? WHERE chat_id = ?`, time.Now(), chatID)
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

func (db *DB) SaveCustomer(ctx context.Context, chatID int64, c *models.Customer) error {
	query := `INSERT INTO customers (chat_id, customer_id, full_name, email, mobile_number, last_activity, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(chat_id) DO UPDATE SET
                customer_id = excluded.customer_id,
                full_name = excluded.full_name,
                email = excluded.email,
                mobile_number = excluded.mobile_number,
                updated_at = excluded.updated_at`
	now := time.Now()
	_, err := db.ExecContext(ctx, query, chatID, c.CustomerID, c.FullName, c.Email, c.MobileNumber, now, now, now)
	if err != nil {
		return fmt.Errorf("failed to save customer: %w", err)
	}
	return nil
}

// GetCustomer возвращает сохраненный профиль или nil
func (db *DB) GetCustomer(ctx context.Context, chatID int64) (*models.Customer, error) {
	var c models.Customer
	err := db.QueryRowContext(ctx,
		`SELECT customer_id, full_name, email, mobile_number FROM customers WHERE chat_id = ?`, chatID,
	).Scan(&c.CustomerID, &c.FullName, &c.Email, &c.MobileNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &c, nil
}

func (db *DB) UpdateActivity(ctx context.Context, chatID int64) error {
	_, err := db.ExecContext(ctx, `UPDATE customers SET last_activity = ? WHERE chat_id = ?`, time.Now(), chatID)
	return err
}

// CountActiveCustomers число чатов с активностью за последние days дней
func (db *DB) CountActiveCustomers(ctx context.Context, days int) (int, error) {
	var n int
	since := time.Now().AddDate(0, 0, -days)
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers WHERE last_activity >= ?`, since).Scan(&n)
	return n, err
}
