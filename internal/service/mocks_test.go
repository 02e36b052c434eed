package service

import (
	"context"

	"salonbook/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockCatalogBackend struct {
	mock.Mock
}

func (m *MockCatalogBackend) ListSalons(ctx context.Context) ([]models.Salon, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Salon), args.Error(1)
}

func (m *MockCatalogBackend) GetSalon(ctx context.Context, salonID string) (*models.Salon, error) {
	args := m.Called(ctx, salonID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Salon), args.Error(1)
}

type MockAccountBackend struct {
	mock.Mock
}

func (m *MockAccountBackend) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoginResponse), args.Error(1)
}

func (m *MockAccountBackend) Me(ctx context.Context, token string) (*models.Customer, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockAccountBackend) ListAppointments(ctx context.Context, token, customerID string) ([]models.Appointment, error) {
	args := m.Called(ctx, token, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Appointment), args.Error(1)
}

func (m *MockAccountBackend) CancelAppointment(ctx context.Context, token, appointmentID string) error {
	args := m.Called(ctx, token, appointmentID)
	return args.Error(0)
}

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) GetToken(ctx context.Context, chatID int64) (string, error) {
	args := m.Called(ctx, chatID)
	return args.String(0), args.Error(1)
}

func (m *MockCustomerRepository) SaveToken(ctx context.Context, chatID int64, token, customerID string) error {
	args := m.Called(ctx, chatID, token, customerID)
	return args.Error(0)
}

func (m *MockCustomerRepository) DeleteToken(ctx context.Context, chatID int64) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

func (m *MockCustomerRepository) SaveCustomer(ctx context.Context, chatID int64, c *models.Customer) error {
	args := m.Called(ctx, chatID, c)
	return args.Error(0)
}

func (m *MockCustomerRepository) GetCustomer(ctx context.Context, chatID int64) (*models.Customer, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) UpdateActivity(ctx context.Context, chatID int64) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishJSON(eventType string, payload interface{}) error {
	args := m.Called(eventType, payload)
	return args.Error(0)
}
