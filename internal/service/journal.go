package service

import (
	"context"
	"time"

	"salonbook/internal/domain"
	"salonbook/internal/events"
	"salonbook/internal/models"

	"github.com/rs/zerolog"
)

const journalWriteTimeout = 5 * time.Second

// SubscribeJournal пишет подтвержденные и отмененные записи в локальный журнал,
// а также оплаты, по которым запись не создана и нужен возврат
func SubscribeJournal(bus *events.EventBus, journal domain.BookingJournal, logger *zerolog.Logger) {
	bus.Subscribe(events.EventBookingCommitted, func(ev *events.Event) error {
		var p events.BookingEventPayload
		if err := ev.Decode(&p); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
		defer cancel()

		status := p.Status
		if status == "" {
			status = models.StatusBooked
		}
		rec := &models.BookingRecord{
			AppointmentID: p.AppointmentID,
			ChatID:        p.ChatID,
			SalonID:       p.SalonID,
			SalonName:     p.SalonName,
			ServiceName:   p.ServiceName,
			Date:          p.Date,
			Time:          p.Time,
			Staff:         p.Staff,
			PaymentMethod: p.PaymentMethod,
			Status:        status,
		}
		if err := journal.RecordBooking(ctx, rec); err != nil {
			logger.Error().Err(err).Str("appointment_id", p.AppointmentID).Msg("failed to journal booking")
			return err
		}
		return nil
	})

	bus.Subscribe(events.EventAppointmentCancelled, func(ev *events.Event) error {
		var p events.BookingEventPayload
		if err := ev.Decode(&p); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
		defer cancel()

		found, err := journal.UpdateBookingStatus(ctx, p.AppointmentID, models.StatusCancelled)
		if err != nil {
			logger.Error().Err(err).Str("appointment_id", p.AppointmentID).Msg("failed to journal cancellation")
			return err
		}
		if !found {
			// запись сделана не через бота
			logger.Debug().Str("appointment_id", p.AppointmentID).Msg("cancelled appointment not in journal")
		}
		return nil
	})

	bus.Subscribe(events.EventPaymentUnbooked, func(ev *events.Event) error {
		var p events.BookingEventPayload
		if err := ev.Decode(&p); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
		defer cancel()

		ref := p.PaymentID
		if ref == "" {
			ref = p.OrderID
		}
		rec := &models.BookingRecord{
			AppointmentID: "payment:" + ref,
			ChatID:        p.ChatID,
			SalonID:       p.SalonID,
			SalonName:     p.SalonName,
			ServiceName:   p.ServiceName,
			Date:          p.Date,
			Time:          p.Time,
			Staff:         p.Staff,
			PaymentMethod: p.PaymentMethod,
			Status:        models.StatusRefundDue,
		}
		logger.Error().
			Int64("chat_id", p.ChatID).
			Str("order_id", p.OrderID).
			Str("payment_id", p.PaymentID).
			Str("reason", p.Reason).
			Msg("captured payment needs refund")
		if err := journal.RecordBooking(ctx, rec); err != nil {
			logger.Error().Err(err).Str("payment_id", p.PaymentID).Msg("failed to journal unbooked payment")
			return err
		}
		return nil
	})
}
