package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"salonbook/internal/api"
	"salonbook/internal/events"
	"salonbook/internal/models"
)

const (
	testSalon    = "S1"
	testCategory = "Hair"
)

var testTimes = []string{"10:00", "11:00", "12:00"}

// fakeBackend serves slot checks from a table keyed by date and time and
// records every call the workflow makes.
type fakeBackend struct {
	mu sync.Mutex

	slots    map[string]models.SlotCheckResult
	slotErrs map[string]error
	// overrides replay scripted answers for a key before falling back to slots
	overrides map[string][]models.SlotCheckResult
	gate      map[string]chan struct{}

	customer  *models.Customer
	meErr     error
	intent    *models.PaymentIntent
	intentErr error
	bookErr   error

	checks   []models.SlotQuery
	intents  []models.PaymentIntentRequest
	bookings []models.BookingRequest
	keys     []string
	meCalls  int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		slots:     make(map[string]models.SlotCheckResult),
		slotErrs:  make(map[string]error),
		overrides: make(map[string][]models.SlotCheckResult),
		gate:      make(map[string]chan struct{}),
		customer: &models.Customer{
			CustomerID:   "c1",
			FullName:     "Priya Sharma",
			Email:        "priya@example.com",
			MobileNumber: "9876543210",
		},
		intent: &models.PaymentIntent{Success: true, Order: models.PaymentOrder{ID: "order_1"}, ProviderOrderID: "pi_1"},
	}
}

func slotKey(date, t string) string { return date + " " + t }

func (f *fakeBackend) set(date, t string, available bool, staff ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slots[slotKey(date, t)] = models.SlotCheckResult{IsAvailable: available, AvailableStaff: staff}
}

func (f *fakeBackend) failSlot(date, t string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slotErrs[slotKey(date, t)] = err
}

// script queues answers returned by the next checks of one slot.
func (f *fakeBackend) script(date, t string, results ...models.SlotCheckResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides[slotKey(date, t)] = append(f.overrides[slotKey(date, t)], results...)
}

func (f *fakeBackend) block(date string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gate[date] = ch
	return ch
}

func (f *fakeBackend) CheckSlot(ctx context.Context, token string, q models.SlotQuery) (models.SlotCheckResult, error) {
	f.mu.Lock()
	f.checks = append(f.checks, q)
	gate := f.gate[q.Date]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return models.SlotCheckResult{}, ctx.Err()
		}
	}
	if token == "" {
		return models.SlotCheckResult{}, &api.APIError{StatusCode: 401}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	key := slotKey(q.Date, q.Time)
	if err := f.slotErrs[key]; err != nil {
		return models.SlotCheckResult{}, err
	}
	if queued := f.overrides[key]; len(queued) > 0 {
		f.overrides[key] = queued[1:]
		return queued[0], nil
	}
	return f.slots[key], nil
}

func (f *fakeBackend) Me(ctx context.Context, token string) (*models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meCalls++
	if f.meErr != nil {
		return nil, f.meErr
	}
	c := *f.customer
	return &c, nil
}

func (f *fakeBackend) CreatePaymentIntent(ctx context.Context, token string, req models.PaymentIntentRequest) (*models.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intents = append(f.intents, req)
	if f.intentErr != nil {
		return nil, f.intentErr
	}
	return f.intent, nil
}

func (f *fakeBackend) CreateBooking(ctx context.Context, token string, req models.BookingRequest, key string) (*models.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings = append(f.bookings, req)
	f.keys = append(f.keys, key)
	if f.bookErr != nil {
		return nil, f.bookErr
	}
	// занятый мастер пропадает из слота
	k := slotKey(req.Date, req.Time)
	res := f.slots[k]
	var left []string
	for _, s := range res.AvailableStaff {
		if s != req.Staff {
			left = append(left, s)
		}
	}
	f.slots[k] = models.SlotCheckResult{IsAvailable: len(left) > 0, AvailableStaff: left}
	return &models.Appointment{
		ID:            "apt-1",
		SalonID:       req.SalonID,
		BookingDate:   req.Date,
		Time:          req.Time,
		Staff:         req.Staff,
		PaymentMethod: string(req.PaymentMethod),
		Status:        models.StatusBooked,
	}, nil
}

func (f *fakeBackend) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.checks) + len(f.intents) + len(f.bookings) + f.meCalls
}

func (f *fakeBackend) checkCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.checks)
}

type fakeCapturer struct {
	mu       sync.Mutex
	result   models.CaptureResult
	err      error
	requests []models.CaptureRequest
}

func (c *fakeCapturer) Capture(ctx context.Context, req models.CaptureRequest) (models.CaptureResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	return c.result, c.err
}

type recordedEvent struct {
	Type    string
	Payload interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *fakePublisher) PublishJSON(eventType string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Type: eventType, Payload: payload})
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func (p *fakePublisher) payloads(eventType string) []events.BookingEventPayload {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.BookingEventPayload
	for _, e := range p.events {
		if payload, ok := e.Payload.(events.BookingEventPayload); ok && e.Type == eventType {
			out = append(out, payload)
		}
	}
	return out
}

var errBackendDown = errors.New("connection refused")

var (
	fixedNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	today    = "2025-03-10"
)

func testSalonModel() models.Salon {
	return models.Salon{SalonID: testSalon, SalonName: "Glow Studio"}
}

func testService() models.Service {
	return models.Service{ID: "svc-1", Name: "Haircut", Category: testCategory, Price: 300}
}

func newTestWorkflow(backend *fakeBackend) *Workflow {
	r := NewResolver(backend, testTimes, 2, time.Second, nil)
	w := NewWorkflow(7, testSalonModel(), testService(), r, time.UTC)
	w.now = func() time.Time { return fixedNow }
	w.sel = NewSelection(w.Today())
	return w
}
