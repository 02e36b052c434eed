package bot

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"salonbook/internal/booking"
	"salonbook/internal/config"
	"salonbook/internal/domain"
	"salonbook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	chatID    int64
	messageID int
	text      string
	inline    *tgbotapi.InlineKeyboardMarkup
	reply     *tgbotapi.ReplyKeyboardMarkup
}

// mockTelegramService записывает все, что бот отправил в чат
type mockTelegramService struct {
	domain.TelegramService

	mu          sync.Mutex
	updatesChan chan tgbotapi.Update
	sent        []sentMessage
	answers     map[string]string
	documents   []string
	requests    []tgbotapi.Chattable
}

func newMockTelegramService() *mockTelegramService {
	return &mockTelegramService{
		updatesChan: make(chan tgbotapi.Update, 4),
		answers:     make(map[string]string),
	}
}

func (m *mockTelegramService) record(s sentMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, s)
}

func (m *mockTelegramService) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return m.updatesChan
}

func (m *mockTelegramService) GetSelf() tgbotapi.User {
	return tgbotapi.User{UserName: "test_bot"}
}

func (m *mockTelegramService) StopReceivingUpdates() {}

func (m *mockTelegramService) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (m *mockTelegramService) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	m.record(sentMessage{chatID: chatID, text: text})
	return tgbotapi.Message{}, nil
}

func (m *mockTelegramService) SendMarkdown(chatID int64, text string) (tgbotapi.Message, error) {
	m.record(sentMessage{chatID: chatID, text: text})
	return tgbotapi.Message{}, nil
}

func (m *mockTelegramService) SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) (tgbotapi.Message, error) {
	m.record(sentMessage{chatID: chatID, text: text, reply: &keyboard})
	return tgbotapi.Message{}, nil
}

func (m *mockTelegramService) SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	m.record(sentMessage{chatID: chatID, text: text, inline: &keyboard})
	return tgbotapi.Message{}, nil
}

func (m *mockTelegramService) EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	m.record(sentMessage{chatID: chatID, messageID: messageID, text: text, inline: keyboard})
	return tgbotapi.Message{}, nil
}

func (m *mockTelegramService) AnswerCallback(callbackID string, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers[callbackID] = text
	return nil
}

func (m *mockTelegramService) SendChatAction(chatID int64, action string) error {
	return nil
}

func (m *mockTelegramService) SendDocument(chatID int64, path, caption string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents = append(m.documents, path)
	return nil
}

func (m *mockTelegramService) messages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sent...)
}

func (m *mockTelegramService) last() sentMessage {
	msgs := m.messages()
	if len(msgs) == 0 {
		return sentMessage{}
	}
	return msgs[len(msgs)-1]
}

// buttons все callback data последнего сообщения с клавиатурой
func (s sentMessage) buttons() []string {
	if s.inline == nil {
		return nil
	}
	var data []string
	for _, row := range s.inline.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData != nil {
				data = append(data, *btn.CallbackData)
			}
		}
	}
	return data
}

type mockStateManager struct {
	domain.StateManager

	mu      sync.Mutex
	states  map[int64]*models.UserState
	allowed bool
}

func newMockStateManager() *mockStateManager {
	return &mockStateManager{states: make(map[int64]*models.UserState), allowed: true}
}

func (m *mockStateManager) SetUserState(ctx context.Context, userID int64, step string, data map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[userID] = &models.UserState{UserID: userID, CurrentStep: step, TempData: data}
	return nil
}

func (m *mockStateManager) GetUserState(ctx context.Context, userID int64) (*models.UserState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[userID], nil
}

func (m *mockStateManager) ClearUserState(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, userID)
	return nil
}

func (m *mockStateManager) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	return m.allowed, nil
}

func (m *mockStateManager) step(userID int64) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.states[userID]; ok {
		return s.CurrentStep
	}
	return ""
}

type MockSalonService struct {
	mock.Mock
}

func (m *MockSalonService) ListSalons(ctx context.Context) ([]models.Salon, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Salon), args.Error(1)
}

func (m *MockSalonService) Nearby(ctx context.Context, lat, lon float64) ([]models.NearbySalon, error) {
	args := m.Called(ctx, lat, lon)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.NearbySalon), args.Error(1)
}

func (m *MockSalonService) Search(ctx context.Context, query string) ([]models.Salon, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Salon), args.Error(1)
}

func (m *MockSalonService) GetSalon(ctx context.Context, salonID string) (*models.Salon, error) {
	args := m.Called(ctx, salonID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Salon), args.Error(1)
}

func (m *MockSalonService) GetService(ctx context.Context, salonID, serviceID string) (*models.Salon, models.Service, error) {
	args := m.Called(ctx, salonID, serviceID)
	if args.Get(0) == nil {
		return nil, models.Service{}, args.Error(2)
	}
	return args.Get(0).(*models.Salon), args.Get(1).(models.Service), args.Error(2)
}

type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) Login(ctx context.Context, chatID int64, email, password string) (*models.Customer, error) {
	args := m.Called(ctx, chatID, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerService) Logout(ctx context.Context, chatID int64) error {
	return m.Called(ctx, chatID).Error(0)
}

func (m *MockCustomerService) Token(ctx context.Context, chatID int64) (string, error) {
	args := m.Called(ctx, chatID)
	return args.String(0), args.Error(1)
}

func (m *MockCustomerService) Profile(ctx context.Context, chatID int64) (*models.Customer, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerService) HandleUnauthorized(ctx context.Context, chatID int64) {
	m.Called(ctx, chatID)
}

func (m *MockCustomerService) Touch(ctx context.Context, chatID int64) error {
	return m.Called(ctx, chatID).Error(0)
}

type MockAppointmentService struct {
	mock.Mock
}

func (m *MockAppointmentService) List(ctx context.Context, chatID int64) (map[models.AppointmentTab][]models.Appointment, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[models.AppointmentTab][]models.Appointment), args.Error(1)
}

func (m *MockAppointmentService) Cancel(ctx context.Context, chatID int64, appointmentID string) error {
	return m.Called(ctx, chatID, appointmentID).Error(0)
}

type MockBookingJournal struct {
	mock.Mock
}

func (m *MockBookingJournal) RecordBooking(ctx context.Context, rec *models.BookingRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *MockBookingJournal) UpdateBookingStatus(ctx context.Context, appointmentID, status string) (bool, error) {
	args := m.Called(ctx, appointmentID, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingJournal) GetChatBookings(ctx context.Context, chatID int64) ([]*models.BookingRecord, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BookingRecord), args.Error(1)
}

type MockBooker struct {
	mock.Mock
}

func (m *MockBooker) Book(ctx context.Context, w *booking.Workflow, token, method string) (*models.Appointment, error) {
	args := m.Called(ctx, w, token, method)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

// tableChecker отвечает на проверки слотов по таблице времени
type tableChecker struct {
	mu    sync.Mutex
	slots map[string][]string
	err   error
	// gate задерживает ответы, пока его не закроют
	gate chan struct{}
}

func (c *tableChecker) hold() chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gate = make(chan struct{})
	return c.gate
}

func (c *tableChecker) CheckSlot(ctx context.Context, token string, q models.SlotQuery) (models.SlotCheckResult, error) {
	c.mu.Lock()
	gate := c.gate
	c.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return models.SlotCheckResult{}, ctx.Err()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return models.SlotCheckResult{}, c.err
	}
	staff := c.slots[q.Time]
	return models.SlotCheckResult{IsAvailable: len(staff) > 0, AvailableStaff: staff}, nil
}

var (
	testTimes = []string{"10:00", "11:00", "12:00"}

	testService = models.Service{ID: "svc1", Name: "Haircut", Category: "Hair", Price: 500, Duration: "45 mins"}

	testSalon = models.Salon{
		SalonID:   "S1",
		SalonName: "Glow Studio",
		Location:  models.Location{AddressLine1: "MG Road", City: "Pune"},
		Services:  []models.Service{testService},
		Staff:     []models.StaffMember{{Name: "Asha"}, {Name: "Ravi"}},
	}
)

type testDeps struct {
	tg           *mockTelegramService
	state        *mockStateManager
	salons       *MockSalonService
	customers    *MockCustomerService
	appointments *MockAppointmentService
	journal      *MockBookingJournal
	booker       *MockBooker
	checker      *tableChecker
}

func newTestBot(t *testing.T) (*Bot, *testDeps) {
	t.Helper()

	d := &testDeps{
		tg:           newMockTelegramService(),
		state:        newMockStateManager(),
		salons:       new(MockSalonService),
		customers:    new(MockCustomerService),
		appointments: new(MockAppointmentService),
		journal:      new(MockBookingJournal),
		booker:       new(MockBooker),
		checker: &tableChecker{slots: map[string][]string{
			"10:00": {"Asha", "Ravi"},
			"11:00": {"Asha"},
		}},
	}
	d.customers.On("Touch", mock.Anything, mock.Anything).Return(nil).Maybe()

	cfg := &config.Config{
		Telegram: config.TelegramConfig{BotToken: "test"},
		Booking: config.BookingConfig{
			TimeSlots:   testTimes,
			Currency:    "INR",
			Timezone:    "UTC",
			HorizonDays: 7,
		},
		Exports: config.ExportConfig{Path: t.TempDir()},
	}

	logger := zerolog.New(io.Discard)
	factory := func(chatID int64, salon models.Salon, svc models.Service) *booking.Workflow {
		resolver := booking.NewResolver(d.checker, cfg.Booking.TimeSlots, 2, time.Second, &logger)
		return booking.NewWorkflow(chatID, salon, svc, resolver, time.UTC)
	}

	b, err := NewBot(d.tg, cfg, d.state, d.salons, d.customers, d.appointments, d.journal, d.booker,
		nil, factory, NewMetrics(prometheus.NewRegistry()), &logger)
	require.NoError(t, err)
	return b, d
}

func testCtx() context.Context {
	l := zerolog.Nop()
	return l.WithContext(context.Background())
}

func messageUpdate(userID int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID, UserName: "priya"},
		Chat:      &tgbotapi.Chat{ID: userID},
		Text:      text,
	}
	if len(text) > 0 && text[0] == '/' {
		end := len(text)
		for i, r := range text {
			if r == ' ' {
				end = i
				break
			}
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}}
	}
	return tgbotapi.Update{Message: msg}
}

func callbackUpdate(userID int64, messageID int, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb-" + data,
		From: &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{
			MessageID: messageID,
			Chat:      &tgbotapi.Chat{ID: userID},
		},
		Data: data,
	}}
}
