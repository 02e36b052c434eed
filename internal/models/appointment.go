package models

import (
	"strings"
	"time"
)

type AppointmentTab string

const (
	TabUpcoming  AppointmentTab = "Upcoming"
	TabPast      AppointmentTab = "Past"
	TabCancelled AppointmentTab = "Cancelled"
)

type Appointment struct {
	ID                string    `json:"id"`
	SalonID           string    `json:"salonId"`
	SalonName         string    `json:"salonName,omitempty"`
	Services          []Service `json:"services"`
	BookingDate       string    `json:"bookingDate"`
	Time              string    `json:"time"`
	Staff             string    `json:"staff"`
	CustomerID        string    `json:"customerId,omitempty"`
	CustomerName      string    `json:"customerName,omitempty"`
	PaymentMethod     string    `json:"paymentMethod,omitempty"`
	ProviderOrderID   string    `json:"providerOrderId,omitempty"`
	ProviderPaymentID string    `json:"providerPaymentId,omitempty"`
	Status            string    `json:"status"`
}

// Day возвращает дату записи в указанной зоне, обрезанную до полуночи
func (a *Appointment) Day(loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	raw := strings.TrimSpace(a.BookingDate)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.In(loc)
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true
	}
	if len(raw) >= len(DateLayout) {
		if t, err := time.ParseInLocation(DateLayout, raw[:len(DateLayout)], loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Tab раскладывает запись по вкладкам: отмененные всегда Cancelled,
// остальные Upcoming если дата не раньше today, иначе Past.
func (a *Appointment) Tab(today time.Time) AppointmentTab {
	if strings.EqualFold(a.Status, StatusCancelled) {
		return TabCancelled
	}
	day, ok := a.Day(today.Location())
	if !ok {
		return TabPast
	}
	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	if !day.Before(midnight) {
		return TabUpcoming
	}
	return TabPast
}

// PrimaryService первая услуга записи, если есть
func (a *Appointment) PrimaryService() (Service, bool) {
	if len(a.Services) == 0 {
		return Service{}, false
	}
	return a.Services[0], true
}
