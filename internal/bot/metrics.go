package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics структура для метрик Prometheus
type Metrics struct {
	MessagesProcessed    prometheus.Counter
	CommandsProcessed    prometheus.Counter
	CallbacksProcessed   prometheus.Counter
	ErrorsTotal          prometheus.Counter
	UsersTotal           prometheus.Gauge
	UpdateProcessingTime prometheus.Histogram
	BookingDuration      *prometheus.HistogramVec
}

// NewMetrics создает метрики бота в указанном реестре
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MessagesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_messages_processed_total",
			Help: "Total number of processed messages",
		}),

		CommandsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_commands_processed_total",
			Help: "Total number of processed slash commands",
		}),

		CallbacksProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_callbacks_processed_total",
			Help: "Total number of processed inline button presses",
		}),

		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_errors_total",
			Help: "Total number of recovered handler panics",
		}),

		UsersTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "telegram_bot_active_customers",
			Help: "Customers active during the last 30 days",
		}),

		UpdateProcessingTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "telegram_bot_update_processing_time_seconds",
			Help:    "Time spent processing updates",
			Buckets: prometheus.DefBuckets,
		}),

		BookingDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "telegram_bot_booking_duration_seconds",
			Help:    "Time from confirmation to booking result",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 180, 600},
		}, []string{"payment_method"}),
	}
}
