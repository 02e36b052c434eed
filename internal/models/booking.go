package models

import "time"

// BookingRecord локальная запись журнала о подтвержденной записи клиента
type BookingRecord struct {
	ID            int64     `json:"id"`
	AppointmentID string    `json:"appointment_id"`
	ChatID        int64     `json:"chat_id"`
	SalonID       string    `json:"salon_id"`
	SalonName     string    `json:"salon_name"`
	ServiceName   string    `json:"service_name"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	Staff         string    `json:"staff"`
	PaymentMethod string    `json:"payment_method"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
