package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserState_Helpers(t *testing.T) {
	state := &UserState{
		TempData: map[string]interface{}{
			"int64":   int64(123),
			"int":     123,
			"float":   123.45,
			"string":  "hello",
			"strings": []interface{}{"10:00", 5, "11:00"},
			"typed":   []string{"a"},
		},
	}

	t.Run("NilTempData", func(t *testing.T) {
		nilState := &UserState{}
		assert.Equal(t, int64(0), nilState.GetInt64("any"))
		assert.Equal(t, "", nilState.GetString("any"))
		assert.Nil(t, nilState.GetStrings("any"))
		assert.Zero(t, nilState.GetFloat64("any"))
	})

	t.Run("NilState", func(t *testing.T) {
		var s *UserState
		assert.Equal(t, "", s.GetString("x"))
	})

	t.Run("GetInt64", func(t *testing.T) {
		assert.Equal(t, int64(123), state.GetInt64("int64"))
		assert.Equal(t, int64(123), state.GetInt64("int"))
		assert.Equal(t, int64(123), state.GetInt64("float"))
		assert.Equal(t, int64(0), state.GetInt64("string"))
		assert.Equal(t, int64(0), state.GetInt64("missing"))
	})

	t.Run("GetString", func(t *testing.T) {
		assert.Equal(t, "hello", state.GetString("string"))
		assert.Equal(t, "", state.GetString("int"))
	})

	t.Run("GetFloat64", func(t *testing.T) {
		assert.InDelta(t, 123.45, state.GetFloat64("float"), 0.0001)
		assert.InDelta(t, 123.0, state.GetFloat64("int"), 0.0001)
	})

	t.Run("GetStrings", func(t *testing.T) {
		assert.Equal(t, []string{"10:00", "11:00"}, state.GetStrings("strings"))
		assert.Equal(t, []string{"a"}, state.GetStrings("typed"))
		assert.Nil(t, state.GetStrings("string"))
	})
}

func TestNewSlotAvailability(t *testing.T) {
	t.Run("AvailableWithStaff", func(t *testing.T) {
		s := NewSlotAvailability("10:00", SlotCheckResult{IsAvailable: true, AvailableStaff: []string{"Asha", "Ravi", "Asha"}})
		assert.True(t, s.Available)
		assert.Equal(t, []string{"Asha", "Ravi"}, s.Staff)
		assert.True(t, s.HasStaff("Ravi"))
		assert.False(t, s.HasStaff("Meena"))
	})

	t.Run("AvailableWithoutStaffIsBooked", func(t *testing.T) {
		s := NewSlotAvailability("10:00", SlotCheckResult{IsAvailable: true})
		assert.False(t, s.Available)
		assert.Empty(t, s.Staff)
	})

	t.Run("UnavailableDropsStaff", func(t *testing.T) {
		s := NewSlotAvailability("10:00", SlotCheckResult{IsAvailable: false, AvailableStaff: []string{"Asha"}})
		assert.False(t, s.Available)
		assert.Empty(t, s.Staff)
	})

	t.Run("Unavailable", func(t *testing.T) {
		s := Unavailable("12:00")
		assert.Equal(t, "12:00", s.Time)
		assert.False(t, s.Available)
		assert.NotNil(t, s.Staff)
	})
}

func TestAppointmentTab(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	today := time.Date(2025, 3, 10, 15, 30, 0, 0, loc)

	tests := []struct {
		name string
		appt Appointment
		want AppointmentTab
	}{
		{"FutureDate", Appointment{BookingDate: "2025-03-12", Status: "booked"}, TabUpcoming},
		{"Today", Appointment{BookingDate: "2025-03-10", Status: "confirmed"}, TabUpcoming},
		{"Yesterday", Appointment{BookingDate: "2025-03-09", Status: "confirmed"}, TabPast},
		{"CancelledFuture", Appointment{BookingDate: "2025-03-12", Status: "Cancelled"}, TabCancelled},
		{"ISOTimestamp", Appointment{BookingDate: "2025-03-10T00:00:00Z", Status: "booked"}, TabUpcoming},
		{"Unparseable", Appointment{BookingDate: "soon"}, TabPast},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.appt.Tab(today))
		})
	}
}

func TestCustomerComplete(t *testing.T) {
	assert.True(t, (&Customer{FullName: "A", Email: "a@x.in", MobileNumber: "98"}).Complete())
	assert.False(t, (&Customer{FullName: "A", Email: "a@x.in"}).Complete())
	assert.False(t, (&Customer{FullName: " ", Email: "a@x.in", MobileNumber: "98"}).Complete())
	var nilCustomer *Customer
	assert.False(t, nilCustomer.Complete())
	assert.Equal(t, "Guest", nilCustomer.DisplayName())
}

func TestServiceMinutes(t *testing.T) {
	assert.Equal(t, 30, Service{Duration: "30"}.Minutes())
	assert.Equal(t, 45, Service{Duration: "45 mins"}.Minutes())
	assert.Equal(t, 60, Service{Duration: "60min"}.Minutes())
	assert.Equal(t, 0, Service{Duration: "about an hour"}.Minutes())
}

func TestSalonDecode(t *testing.T) {
	raw := `{"salonId":"s1","salonName":"Glow","location":{"city":"Pune","latitude":18.52,"longitude":73.85},
		"services":[{"id":"hc","name":"Haircut","category":"Hair","price":300,"duration":"30"},
		{"id":"sp","name":"Spa","category":"Body","price":900},{"id":"cl","name":"Colour","category":"Hair","price":1200}],
		"staff":[{"name":"Asha"}]}`

	var salon Salon
	require.NoError(t, json.Unmarshal([]byte(raw), &salon))
	assert.Equal(t, "Glow", salon.SalonName)
	assert.True(t, salon.Location.HasCoordinates())
	assert.Equal(t, []string{"Hair", "Body"}, salon.Categories())

	svc, ok := salon.FindService("sp")
	require.True(t, ok)
	assert.InDelta(t, 900.0, svc.Price, 0.001)

	_, ok = salon.FindService("missing")
	assert.False(t, ok)

	byRef, ok := salon.FindService(ShortRef("sp"))
	require.True(t, ok)
	assert.Equal(t, svc, byRef)
}

func TestShortRef(t *testing.T) {
	ref := ShortRef("a0658aa0-6f1e-4c1b-9a57-0b1c2d3e4f50")
	assert.Len(t, ref, 8)
	assert.Equal(t, ref, ShortRef("a0658aa0-6f1e-4c1b-9a57-0b1c2d3e4f50"))
	assert.NotEqual(t, ShortRef("Asha"), ShortRef("Ravi"))
}

func TestParsePaymentMethod(t *testing.T) {
	m, ok := ParsePaymentMethod(" Cash ")
	assert.True(t, ok)
	assert.Equal(t, PaymentCash, m)

	m, ok = ParsePaymentMethod("online")
	assert.True(t, ok)
	assert.Equal(t, PaymentOnline, m)

	_, ok = ParsePaymentMethod("card")
	assert.False(t, ok)
}
