package bot

import (
	"context"
	"strconv"
	"strings"

	"salonbook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func (b *Bot) handleCallbackQuery(ctx context.Context, update *tgbotapi.Update) {
	callback := update.CallbackQuery
	if callback == nil || callback.Message == nil {
		return
	}
	data := callback.Data
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID

	if b.metrics != nil {
		b.metrics.CallbacksProcessed.Inc()
	}

	zerolog.Ctx(ctx).Debug().
		Int64("user_id", userID).
		Str("data", data).
		Msg("Handling callback query")

	// Отвечаем на callback сразу, чтобы убрать "часики"
	answer := ""
	if data == cbTimeFull {
		answer = "Это время занято"
	}
	if err := b.tgService.AnswerCallback(callback.ID, answer); err != nil {
		b.logger.Debug().Err(err).Msg("Failed to answer callback")
	}

	switch {
	case data == cbBackToMain:
		b.clearUserState(ctx, userID)
		b.handleMainMenu(ctx, chatID, userID)

	case strings.HasPrefix(data, cbSalonsPage):
		page, _ := strconv.Atoi(strings.TrimPrefix(data, cbSalonsPage))
		b.showSalons(ctx, chatID, userID, messageID, page)

	case strings.HasPrefix(data, cbSalon):
		b.showSalon(ctx, chatID, messageID, strings.TrimPrefix(data, cbSalon))

	case strings.HasPrefix(data, cbService):
		salonID, serviceRef, ok := strings.Cut(strings.TrimPrefix(data, cbService), ":")
		if !ok {
			return
		}
		b.startBooking(ctx, chatID, userID, salonID, serviceRef)

	case data == cbDatePicker:
		b.showDatePicker(chatID, messageID)

	case data == cbDateCustom:
		b.setUserState(ctx, userID, models.StateWaitingDate, nil)
		b.sendMessage(chatID, "Введите дату в формате ДД.ММ.ГГГГ (например, 25.12.2025):")

	case strings.HasPrefix(data, cbDate):
		b.handleDateChosen(ctx, chatID, messageID, strings.TrimPrefix(data, cbDate))

	case data == cbTimeFull:
		// занятый слот не выбирается

	case strings.HasPrefix(data, cbTime):
		b.handleTimeChosen(ctx, chatID, messageID, strings.TrimPrefix(data, cbTime))

	case strings.HasPrefix(data, cbStaff):
		b.handleStaffChosen(ctx, chatID, messageID, strings.TrimPrefix(data, cbStaff))

	case data == cbShowWorkflow:
		if w, ok := b.workflow(chatID); ok {
			b.renderWorkflow(chatID, messageID, w)
		}

	case data == cbRefresh:
		b.handleRefresh(ctx, chatID, messageID)

	case data == cbConfirm:
		b.setUserState(ctx, userID, models.StateConfirmation, nil)
		b.handleConfirm(chatID, messageID)

	case strings.HasPrefix(data, cbPay):
		b.setUserState(ctx, userID, models.StateSelectPayment, nil)
		b.handlePayment(ctx, chatID, userID, messageID, strings.TrimPrefix(data, cbPay))

	case strings.HasPrefix(data, cbApptTab):
		if tab, ok := parseTab(strings.TrimPrefix(data, cbApptTab)); ok {
			b.setUserState(ctx, userID, models.StateViewingBooking, nil)
			b.showAppointments(ctx, chatID, messageID, tab, 0)
		}

	case strings.HasPrefix(data, cbApptPage):
		rawTab, rawPage, ok := strings.Cut(strings.TrimPrefix(data, cbApptPage), ":")
		tab, known := parseTab(rawTab)
		if !ok || !known {
			return
		}
		page, _ := strconv.Atoi(rawPage)
		b.showAppointments(ctx, chatID, messageID, tab, page)

	case strings.HasPrefix(data, cbApptCancelYes):
		b.cancelAppointment(ctx, chatID, messageID, strings.TrimPrefix(data, cbApptCancelYes))

	case strings.HasPrefix(data, cbApptCancel):
		b.askCancelAppointment(chatID, messageID, strings.TrimPrefix(data, cbApptCancel))
	}
}
