package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"salonbook/internal/api"
	"salonbook/internal/domain"
	"salonbook/internal/events"
	"salonbook/internal/models"

	"github.com/rs/zerolog"
)

var ErrNotCancellable = errors.New("only upcoming appointments can be cancelled")

// AppointmentService записи клиента, разложенные по вкладкам
type AppointmentService struct {
	backend   domain.AccountBackend
	customers *CustomerService
	events    domain.EventPublisher
	loc       *time.Location
	now       func() time.Time
	logger    *zerolog.Logger
}

func NewAppointmentService(
	backend domain.AccountBackend,
	customers *CustomerService,
	publisher domain.EventPublisher,
	loc *time.Location,
	logger *zerolog.Logger,
) *AppointmentService {
	if loc == nil {
		loc = time.UTC
	}
	return &AppointmentService{
		backend:   backend,
		customers: customers,
		events:    publisher,
		loc:       loc,
		now:       time.Now,
		logger:    logger,
	}
}

func (s *AppointmentService) List(ctx context.Context, chatID int64) (map[models.AppointmentTab][]models.Appointment, error) {
	token, err := s.customers.requireToken(ctx, chatID)
	if err != nil {
		return nil, err
	}
	customerID, err := s.customers.customerID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	list, err := s.backend.ListAppointments(ctx, token, customerID)
	if err != nil {
		return nil, s.wrap(ctx, chatID, "list appointments", err)
	}
	return s.group(list), nil
}

// Cancel отменяет только предстоящую запись; текст ошибки backend передается как есть
func (s *AppointmentService) Cancel(ctx context.Context, chatID int64, appointmentID string) error {
	tabs, err := s.List(ctx, chatID)
	if err != nil {
		return err
	}
	var target *models.Appointment
	for i := range tabs[models.TabUpcoming] {
		if tabs[models.TabUpcoming][i].ID == appointmentID {
			target = &tabs[models.TabUpcoming][i]
			break
		}
	}
	if target == nil {
		return ErrNotCancellable
	}

	token, err := s.customers.requireToken(ctx, chatID)
	if err != nil {
		return err
	}
	if err := s.backend.CancelAppointment(ctx, token, appointmentID); err != nil {
		return s.wrap(ctx, chatID, "cancel appointment", err)
	}

	s.logger.Info().Int64("chat_id", chatID).Str("appointment_id", appointmentID).Msg("appointment cancelled")
	if s.events != nil {
		payload := events.BookingEventPayload{
			ChatID:        chatID,
			AppointmentID: appointmentID,
			SalonID:       target.SalonID,
			SalonName:     target.SalonName,
			Date:          target.BookingDate,
			Time:          target.Time,
			Staff:         target.Staff,
			Status:        models.StatusCancelled,
		}
		if err := s.events.PublishJSON(events.EventAppointmentCancelled, payload); err != nil {
			s.logger.Error().Err(err).Msg("cancel event handler failed")
		}
	}
	return nil
}

func (s *AppointmentService) group(list []models.Appointment) map[models.AppointmentTab][]models.Appointment {
	today := s.now().In(s.loc)
	tabs := map[models.AppointmentTab][]models.Appointment{
		models.TabUpcoming:  {},
		models.TabPast:      {},
		models.TabCancelled: {},
	}
	for _, a := range list {
		tab := a.Tab(today)
		tabs[tab] = append(tabs[tab], a)
	}

	key := func(a models.Appointment) string {
		day, _ := a.Day(s.loc)
		return day.Format(models.DateLayout) + " " + a.Time
	}
	// ближайшие предстоящие первыми, прошедшие и отмененные от новых к старым
	sort.SliceStable(tabs[models.TabUpcoming], func(i, j int) bool {
		return key(tabs[models.TabUpcoming][i]) < key(tabs[models.TabUpcoming][j])
	})
	for _, tab := range []models.AppointmentTab{models.TabPast, models.TabCancelled} {
		items := tabs[tab]
		sort.SliceStable(items, func(i, j int) bool { return key(items[i]) > key(items[j]) })
	}
	return tabs
}

func (s *AppointmentService) wrap(ctx context.Context, chatID int64, op string, err error) error {
	if api.IsUnauthorized(err) {
		s.customers.HandleUnauthorized(ctx, chatID)
		return ErrNotLoggedIn
	}
	return fmt.Errorf("%s: %w", op, err)
}
