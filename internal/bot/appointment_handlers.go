package bot

import (
	"context"
	"fmt"
	"strings"

	"salonbook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

var appointmentTabs = []models.AppointmentTab{models.TabUpcoming, models.TabPast, models.TabCancelled}

var tabTitles = map[models.AppointmentTab]string{
	models.TabUpcoming:  "Предстоящие",
	models.TabPast:      "Прошедшие",
	models.TabCancelled: "Отмененные",
}

func parseTab(s string) (models.AppointmentTab, bool) {
	for _, tab := range appointmentTabs {
		if string(tab) == s {
			return tab, true
		}
	}
	return "", false
}

func tabsRow(active models.AppointmentTab, counts map[models.AppointmentTab]int) []tgbotapi.InlineKeyboardButton {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(appointmentTabs))
	for _, tab := range appointmentTabs {
		label := fmt.Sprintf("%s (%d)", tabTitles[tab], counts[tab])
		if tab == active {
			label = "• " + label
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, cbApptTab+string(tab)))
	}
	return row
}

// showAppointments вкладка записей клиента
func (b *Bot) showAppointments(ctx context.Context, chatID int64, messageID int, tab models.AppointmentTab, page int) {
	tabs, err := b.appointments.List(ctx, chatID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("chat_id", chatID).Msg("Error loading appointments")
		b.sendError(chatID, err)
		return
	}

	counts := make(map[models.AppointmentTab]int, len(tabs))
	for t, list := range tabs {
		counts[t] = len(list)
	}

	b.renderPaginatedAppointments(PaginationParams{
		ChatID:       chatID,
		MessageID:    messageID,
		Page:         page,
		Title:        fmt.Sprintf("📅 *Мои записи: %s*", tabTitles[tab]),
		PagePrefix:   cbApptPage + string(tab) + ":",
		BackCallback: cbBackToMain,
		HeaderRows:   [][]tgbotapi.InlineKeyboardButton{tabsRow(tab, counts)},
	}, tab, tabs[tab])
}

func (b *Bot) askCancelAppointment(chatID int64, messageID int, appointmentID string) {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Да, отменить", cbApptCancelYes+appointmentID),
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Нет", cbApptTab+string(models.TabUpcoming)),
		),
	)
	b.editOrSend(chatID, messageID, "Отменить запись? Это действие нельзя вернуть.", &markup)
}

func (b *Bot) cancelAppointment(ctx context.Context, chatID int64, messageID int, appointmentID string) {
	if err := b.appointments.Cancel(ctx, chatID, appointmentID); err != nil {
		zerolog.Ctx(ctx).Info().Err(err).Str("appointment_id", appointmentID).Msg("Cancel failed")
		b.sendError(chatID, err)
		return
	}
	b.sendMessage(chatID, "✅ Запись отменена.")
	b.showAppointments(ctx, chatID, messageID, models.TabUpcoming, 0)
}

func (b *Bot) formatAppointment(apt models.Appointment) string {
	var sb strings.Builder

	statusEmoji := "⏳"
	switch strings.ToLower(apt.Status) {
	case models.StatusBooked, models.StatusConfirmed:
		statusEmoji = "✅"
	case models.StatusCancelled:
		statusEmoji = "❌"
	case models.StatusCompleted:
		statusEmoji = "🏁"
	}

	title := orDash(apt.SalonName, apt.SalonID)
	sb.WriteString(fmt.Sprintf("%s *%s*\n", statusEmoji, escapeMarkdown(title)))
	if svc, ok := apt.PrimaryService(); ok {
		sb.WriteString(fmt.Sprintf("   ✂️ %s\n", escapeMarkdown(svc.Name)))
	}
	if day, ok := apt.Day(b.loc); ok {
		sb.WriteString(fmt.Sprintf("   📅 %s %s\n", day.Format(models.DisplayDateLayout), apt.Time))
	}
	if apt.Staff != "" {
		sb.WriteString(fmt.Sprintf("   👤 %s\n", escapeMarkdown(apt.Staff)))
	}
	if apt.PaymentMethod != "" {
		sb.WriteString(fmt.Sprintf("   💳 %s\n", escapeMarkdown(apt.PaymentMethod)))
	}
	return sb.String()
}
