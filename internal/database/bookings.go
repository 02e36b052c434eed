package database

import (
	"context"
	"fmt"
	"time"

	"salonbook/internal/models"
)

const bookingColumns = `id, appointment_id, chat_id, salon_id, salon_name, service_name,
               date, time, staff, payment_method, status, created_at, updated_at`

// RecordBooking добавляет запись в журнал; повтор по appointment_id обновляет статус
func (db *DB) RecordBooking(ctx context.Context, rec *models.BookingRecord) error {
	if rec.AppointmentID == "" {
		return fmt.Errorf("appointment id is required")
	}
	if rec.Status == "" {
		rec.Status = models.StatusBooked
	}
	now := time.Now()
	query := `INSERT INTO bookings (appointment_id, chat_id, salon_id, salon_name, service_name,
                  date, time, staff, payment_method, status, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(appointment_id) DO UPDATE SET
                status = excluded.status,
                updated_at = excluded.updated_at`
	_, err := db.ExecContext(ctx, query,
		rec.AppointmentID, rec.ChatID, rec.SalonID, rec.SalonName, rec.ServiceName,
		rec.Date, rec.Time, rec.Staff, rec.PaymentMethod, rec.Status, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to record booking: %w", err)
	}
	return db.QueryRowContext(ctx, `SELECT id, created_at, updated_at FROM bookings WHERE appointment_id = ?`, rec.AppointmentID).
		Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
}

// UpdateBookingStatus возвращает false, если записи нет в журнале
func (db *DB) UpdateBookingStatus(ctx context.Context, appointmentID, status string) (bool, error) {
	res, err := db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = ? WHERE appointment_id = ?`,
		status, time.Now(), appointmentID)
	if err != nil {
		return false, fmt.Errorf("failed to update booking status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (db *DB) GetChatBookings(ctx context.Context, chatID int64) ([]*models.BookingRecord, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE chat_id = ? ORDER BY date DESC, time DESC`
	return db.queryBookings(ctx, query, chatID)
}

// GetBookingsByDateRange записи с датой визита в [from, to]
func (db *DB) GetBookingsByDateRange(ctx context.Context, from, to time.Time) ([]*models.BookingRecord, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE date BETWEEN ? AND ? ORDER BY date, time`
	return db.queryBookings(ctx, query, from.Format(models.DateLayout), to.Format(models.DateLayout))
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*models.BookingRecord, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.BookingRecord
	for rows.Next() {
		var r models.BookingRecord
		if err := rows.Scan(
			&r.ID, &r.AppointmentID, &r.ChatID, &r.SalonID, &r.SalonName, &r.ServiceName,
			&r.Date, &r.Time, &r.Staff, &r.PaymentMethod, &r.Status, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}
