package models

const (
	StatusBooked    = "booked"
	StatusConfirmed = "confirmed"
	StatusPending   = "pending"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
	// StatusRefundDue marks an online payment whose booking was not made.
	StatusRefundDue = "refund_due"
)

const (
	ParseModeMarkdown = "Markdown"
	ParseModeHTML     = "HTML"
)

const (
	// DateLayout формат даты, который ожидает backend
	DateLayout = "2006-01-02"

	// DisplayDateLayout формат даты для пользователя
	DisplayDateLayout = "02.01.2006"

	// TimeLayout формат временного слота
	TimeLayout = "15:04"
)

// DefaultTimeSlots рабочие слоты салона по умолчанию
var DefaultTimeSlots = []string{
	"10:00", "11:00", "12:00", "13:00",
	"14:00", "15:00", "16:00", "17:00",
}

const (
	// DefaultCurrency валюта платежей
	DefaultCurrency = "INR"

	// DefaultTimezone часовой пояс салонов
	DefaultTimezone = "Asia/Kolkata"

	// DefaultSessionTTL время жизни состояния пользователя в Redis
	DefaultSessionTTL = 24 * 60 * 60 // 24 часа в секундах

	// DefaultPaginationSize размер пагинации по умолчанию
	DefaultPaginationSize = 8

	// DefaultAppointmentsPaginationSize размер пагинации для списка записей
	DefaultAppointmentsPaginationSize = 5

	// RateLimitMessages количество сообщений в окне
	RateLimitMessages = 20

	// RateLimitWindow окно ограничения частоты сообщений
	RateLimitWindow = 60 // 1 минута в секундах

	// CatalogCacheTTL время жизни кэша каталога салонов
	CatalogCacheTTL = 10 * 60 // 10 минут в секундах

	// NearbyRadiusKm радиус поиска ближайших салонов
	NearbyRadiusKm = 20.0

	// NearbyLimit сколько ближайших салонов показывать
	NearbyLimit = 5

	// BookingHorizonDays на сколько дней вперед предлагать даты
	BookingHorizonDays = 14
)
