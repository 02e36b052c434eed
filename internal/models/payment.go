package models

import "strings"

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentOnline PaymentMethod = "online"
)

// ParsePaymentMethod принимает только cash и online
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(strings.ToLower(strings.TrimSpace(s))) {
	case PaymentCash:
		return PaymentCash, true
	case PaymentOnline:
		return PaymentOnline, true
	}
	return "", false
}

// PaymentIntentRequest тело POST /api/payment-intent
type PaymentIntentRequest struct {
	SalonID       string        `json:"salonId"`
	Amount        float64       `json:"amount"`
	Currency      string        `json:"currency"`
	CustomerID    string        `json:"customerId,omitempty"`
	CustomerName  string        `json:"customerName"`
	CustomerPhone string        `json:"customerPhone"`
	Location      Location      `json:"location"`
	Services      []Service     `json:"services"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
}

type PaymentOrder struct {
	ID       string  `json:"id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	// PaymentURL страница оплаты провайдера, если backend ее выдал
	PaymentURL string `json:"paymentUrl,omitempty"`
}

// PaymentIntent ответ backend на создание платежа
type PaymentIntent struct {
	Success         bool         `json:"success"`
	Order           PaymentOrder `json:"order"`
	ProviderOrderID string       `json:"providerOrderId,omitempty"`
}

// BookingRequest тело POST /api/booking
type BookingRequest struct {
	SalonID           string        `json:"salonId"`
	SalonName         string        `json:"salonName"`
	Location          Location      `json:"location"`
	Services          []Service     `json:"services"`
	Date              string        `json:"date"`
	Time              string        `json:"time"`
	Staff             string        `json:"staff"`
	CustomerID        string        `json:"customerId,omitempty"`
	CustomerName      string        `json:"customerName"`
	Email             string        `json:"email"`
	MobileNumber      string        `json:"mobileNumber"`
	Address           string        `json:"address"`
	PaymentMethod     PaymentMethod `json:"paymentMethod"`
	ProviderOrderID   string        `json:"providerOrderId,omitempty"`
	ProviderPaymentID string        `json:"providerPaymentId,omitempty"`
}

type CaptureOutcome string

const (
	CaptureCaptured  CaptureOutcome = "captured"
	CaptureCancelled CaptureOutcome = "cancelled"
	CaptureFailed    CaptureOutcome = "failed"
)

// CaptureRequest передается платежному провайдеру после создания заказа
type CaptureRequest struct {
	ProviderOrderID string
	Amount          float64
	Currency        string
}

// CaptureResult терминальный исход онлайн-оплаты
type CaptureResult struct {
	Outcome   CaptureOutcome
	PaymentID string
	Reason    string
}
