package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		ObserveBackend("check-slot", 200, 15*time.Millisecond)
		ObserveBatch(time.Second)
		IncPayment("captured")
	})
}

func TestCounters(t *testing.T) {
	before := counterValue(t, slotChecks.WithLabelValues("failed"))
	IncSlotCheck("failed")
	IncSlotCheck("failed")
	assert.InDelta(t, before+2, counterValue(t, slotChecks.WithLabelValues("failed")), 0.001)

	before = counterValue(t, bookings.WithLabelValues("cash", "committed"))
	IncBooking("cash", "committed")
	assert.InDelta(t, before+1, counterValue(t, bookings.WithLabelValues("cash", "committed")), 0.001)

	before = counterValue(t, backendRequests.WithLabelValues("me", "401"))
	ObserveBackend("me", 401, time.Millisecond)
	assert.InDelta(t, before+1, counterValue(t, backendRequests.WithLabelValues("me", "401")), 0.001)
}
