package domain

import (
	"context"
	"time"

	"salonbook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// SlotChecker answers per-slot availability queries.
type SlotChecker interface {
	CheckSlot(ctx context.Context, token string, q models.SlotQuery) (models.SlotCheckResult, error)
}

// BookingBackend is the part of the salon backend used by the booking workflow.
type BookingBackend interface {
	SlotChecker
	Me(ctx context.Context, token string) (*models.Customer, error)
	CreatePaymentIntent(ctx context.Context, token string, req models.PaymentIntentRequest) (*models.PaymentIntent, error)
	CreateBooking(ctx context.Context, token string, req models.BookingRequest, idempotencyKey string) (*models.Appointment, error)
}

// CatalogBackend serves the public salon catalog.
type CatalogBackend interface {
	ListSalons(ctx context.Context) ([]models.Salon, error)
	GetSalon(ctx context.Context, salonID string) (*models.Salon, error)
}

// AccountBackend covers customer login and appointment management.
type AccountBackend interface {
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
	Me(ctx context.Context, token string) (*models.Customer, error)
	ListAppointments(ctx context.Context, token, customerID string) ([]models.Appointment, error)
	CancelAppointment(ctx context.Context, token, appointmentID string) error
}

// PaymentCapturer hands an online order to the payment provider and waits for the outcome.
type PaymentCapturer interface {
	Capture(ctx context.Context, req models.CaptureRequest) (models.CaptureResult, error)
}

// TokenStore keeps backend access tokens per chat.
type TokenStore interface {
	GetToken(ctx context.Context, chatID int64) (string, error)
	SaveToken(ctx context.Context, chatID int64, token, customerID string) error
	DeleteToken(ctx context.Context, chatID int64) error
}

// CustomerRepository хранит токен и последний известный профиль клиента
type CustomerRepository interface {
	TokenStore
	SaveCustomer(ctx context.Context, chatID int64, c *models.Customer) error
	GetCustomer(ctx context.Context, chatID int64) (*models.Customer, error)
	UpdateActivity(ctx context.Context, chatID int64) error
}

// BookingJournal локальный журнал подтвержденных записей
type BookingJournal interface {
	RecordBooking(ctx context.Context, rec *models.BookingRecord) error
	UpdateBookingStatus(ctx context.Context, appointmentID, status string) (bool, error)
	GetChatBookings(ctx context.Context, chatID int64) ([]*models.BookingRecord, error)
}

type StateRepository interface {
	GetState(ctx context.Context, userID int64) (*models.UserState, error)
	SetState(ctx context.Context, state *models.UserState) error
	ClearState(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type StateManager interface {
	GetUserState(ctx context.Context, userID int64) (*models.UserState, error)
	SetUserState(ctx context.Context, userID int64, step string, data map[string]interface{}) error
	UpdateUserStateData(ctx context.Context, userID int64, key string, value interface{}) error
	ClearUserState(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type TelegramService interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
	SendMarkdown(chatID int64, text string) (tgbotapi.Message, error)
	SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) (tgbotapi.Message, error)
	SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	AnswerCallback(callbackID string, text string) error
	SendChatAction(chatID int64, action string) error
	SendDocument(chatID int64, path, caption string) error
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type SalonService interface {
	ListSalons(ctx context.Context) ([]models.Salon, error)
	Nearby(ctx context.Context, lat, lon float64) ([]models.NearbySalon, error)
	Search(ctx context.Context, query string) ([]models.Salon, error)
	GetSalon(ctx context.Context, salonID string) (*models.Salon, error)
	GetService(ctx context.Context, salonID, serviceID string) (*models.Salon, models.Service, error)
}

type CustomerService interface {
	Login(ctx context.Context, chatID int64, email, password string) (*models.Customer, error)
	Logout(ctx context.Context, chatID int64) error
	Token(ctx context.Context, chatID int64) (string, error)
	Profile(ctx context.Context, chatID int64) (*models.Customer, error)
	HandleUnauthorized(ctx context.Context, chatID int64)
	Touch(ctx context.Context, chatID int64) error
}

type AppointmentService interface {
	List(ctx context.Context, chatID int64) (map[models.AppointmentTab][]models.Appointment, error)
	Cancel(ctx context.Context, chatID int64, appointmentID string) error
}
