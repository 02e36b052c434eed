package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "salonbook"

var (
	once sync.Once

	backendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Backend HTTP requests by endpoint and status code.",
		},
		[]string{"endpoint", "code"},
	)

	backendLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Backend HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	slotChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_checks_total",
			Help:      "Per-slot availability queries by result (available, booked, failed).",
		},
		[]string{"result"},
	)

	availabilityBatch = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "availability_batch_duration_seconds",
			Help:      "Time to settle a full availability batch.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Booking attempts by payment method and outcome.",
		},
		[]string{"method", "outcome"},
	)

	payments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_captures_total",
			Help:      "Payment capture outcomes.",
		},
		[]string{"outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(backendRequests, backendLatency, slotChecks, availabilityBatch, bookings, payments)
	})
}

// ObserveBackend records one backend call. code 0 means transport failure.
func ObserveBackend(endpoint string, code int, elapsed time.Duration) {
	backendRequests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	backendLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// IncSlotCheck counts a per-slot query result.
func IncSlotCheck(result string) {
	slotChecks.WithLabelValues(result).Inc()
}

// ObserveBatch records how long an availability batch took to settle.
func ObserveBatch(elapsed time.Duration) {
	availabilityBatch.Observe(elapsed.Seconds())
}

// IncBooking counts a booking attempt outcome.
func IncBooking(method, outcome string) {
	bookings.WithLabelValues(method, outcome).Inc()
}

// IncPayment counts a payment capture outcome.
func IncPayment(outcome string) {
	payments.WithLabelValues(outcome).Inc()
}
